package event

// Type identifies the type of domain event
type Type string

const (
	TypeRequestCreated     Type = "request.created"
	TypeStageApproved      Type = "request.stage_approved"
	TypeStageRejected      Type = "request.stage_rejected"
	TypeRequestResubmitted Type = "request.resubmitted"
	TypeStatusChanged      Type = "request.status_changed"
)

// String returns the string representation of the event type
func (t Type) String() string {
	return string(t)
}

// IsValid checks if the event type is one of the defined constants
func (t Type) IsValid() bool {
	switch t {
	case TypeRequestCreated,
		TypeStageApproved,
		TypeStageRejected,
		TypeRequestResubmitted,
		TypeStatusChanged:
		return true
	default:
		return false
	}
}
