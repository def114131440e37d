package workflow

// Trigger represents an event that can cause a state transition
type Trigger string

const (
	TriggerSubmit           Trigger = "SUBMIT"
	TriggerApproveAssistant Trigger = "APPROVE_ASSISTANT"
	TriggerApproveBoss      Trigger = "APPROVE_BOSS"
	TriggerApproveFinal     Trigger = "APPROVE_FINAL"
	TriggerReject           Trigger = "REJECT"
	TriggerResubmit         Trigger = "RESUBMIT"
)

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}
