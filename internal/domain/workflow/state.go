package workflow

// State represents a request's position in the approval lifecycle
type State string

const (
	StateDraft            State = "DRAFT"
	StatePendingAssistant State = "PENDING_ASSISTANT"
	StatePendingBoss      State = "PENDING_BOSS"
	StatePendingFinal     State = "PENDING_FINAL"
	StateApproved         State = "APPROVED"
	StateRejected         State = "REJECTED"
)

var validStates = map[State]bool{
	StateDraft:            true,
	StatePendingAssistant: true,
	StatePendingBoss:      true,
	StatePendingFinal:     true,
	StateApproved:         true,
	StateRejected:         true,
}

// StateApproved is the only fully terminal state. StateRejected permits
// exactly one outgoing trigger, TriggerResubmit, configured by the
// lifecycle factories.
var terminalStates = map[State]bool{
	StateApproved: true,
}

// IsTerminal returns true if no trigger can ever leave the state
func (s State) IsTerminal() bool {
	return terminalStates[s]
}

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}

// IsValid returns true if the state is a valid lifecycle state
func (s State) IsValid() bool {
	return validStates[s]
}
