package entity

import "time"

// RequestType distinguishes the two concrete workflows
type RequestType string

const (
	RequestTypeExpense  RequestType = "EXPENSE"
	RequestTypeOvertime RequestType = "OVERTIME"
)

// DecisionRecord is one row of the approval audit trail. Every approve,
// reject and resubmission writes one record in the same transaction as
// the stage transition itself.
type DecisionRecord struct {
	ID             int64       `json:"id"`
	RequestType    RequestType `json:"request_type"`
	RequestID      int64       `json:"request_id"`
	ActorEmail     string      `json:"actor_email"`
	Stage          string      `json:"stage"`
	ApprovalType   string      `json:"approval_type"`
	Action         string      `json:"action"`
	PreviousStatus string      `json:"previous_status"`
	NewStatus      string      `json:"new_status"`
	Notes          string      `json:"notes"`
	Timestamp      time.Time   `json:"timestamp"`
}

// Decision actions recorded in the audit trail
const (
	ActionCreate   = "CREATE"
	ActionApprove  = "APPROVE"
	ActionReject   = "REJECT"
	ActionResubmit = "RESUBMIT"
)
