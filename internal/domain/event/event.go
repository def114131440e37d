package event

import (
	"time"

	"github.com/google/uuid"

	"github.com/grupoandino/portal-approvals/internal/domain/entity"
)

// Event represents a domain event in the request lifecycle
type Event struct {
	ID            string                 `json:"id"`
	Type          Type                   `json:"type"`
	RequestType   entity.RequestType     `json:"request_type"`
	RequestID     int64                  `json:"request_id"`
	Payload       map[string]interface{} `json:"payload"`
	Timestamp     time.Time              `json:"timestamp"`
	CorrelationID string                 `json:"correlation_id"`
}

// NewEvent creates a new domain event with auto-generated ID and timestamp
func NewEvent(eventType Type, requestType entity.RequestType, requestID int64, payload map[string]interface{}) *Event {
	return &Event{
		ID:            uuid.NewString(),
		Type:          eventType,
		RequestType:   requestType,
		RequestID:     requestID,
		Payload:       payload,
		Timestamp:     time.Now(),
		CorrelationID: uuid.NewString(),
	}
}

// NewEventWithCorrelation creates an event linked to a correlation chain
func NewEventWithCorrelation(eventType Type, requestType entity.RequestType, requestID int64, payload map[string]interface{}, correlationID string) *Event {
	evt := NewEvent(eventType, requestType, requestID, payload)
	evt.CorrelationID = correlationID
	return evt
}

// WithPayload returns a new Event with an added payload key-value pair.
// The receiver is not mutated.
func (e *Event) WithPayload(key string, value interface{}) *Event {
	newPayload := make(map[string]interface{}, len(e.Payload)+1)
	for k, v := range e.Payload {
		newPayload[k] = v
	}
	newPayload[key] = value

	clone := *e
	clone.Payload = newPayload
	return &clone
}
