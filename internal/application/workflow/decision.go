package workflow

// ApprovalType tags the capacity in which an actor is allowed to act.
// Recorded in the audit trail alongside the decision.
type ApprovalType string

const (
	ApprovalAssistant        ApprovalType = "assistant"
	ApprovalBoss             ApprovalType = "boss"
	ApprovalFinanceAssistant ApprovalType = "finance-assistant"
	ApprovalFinanceBoss      ApprovalType = "finance-boss"
	ApprovalHR               ApprovalType = "hr"
)

// DenialReason classifies why an actor may not act. Denials are values,
// never errors: only infrastructure failures propagate as errors.
type DenialReason string

const (
	// DenialNotAuthorized: no rule grants the actor an action at the
	// current stage
	DenialNotAuthorized DenialReason = "NOT_AUTHORIZED"

	// DenialInvalidTransition: the request is terminal (fully approved or
	// carrying a rejection)
	DenialInvalidTransition DenialReason = "INVALID_TRANSITION"

	// DenialDirectoryInconsistent: the request's creator has no resolvable
	// department; the engine degrades to "no one may act"
	DenialDirectoryInconsistent DenialReason = "DIRECTORY_INCONSISTENT"
)

// Decision is the immutable result of one authorization query. When
// Allowed is true, Stage and Type say what the actor may decide and in
// what capacity; otherwise Reason says why not.
type Decision struct {
	Allowed bool
	Stage   string
	Type    ApprovalType

	// SelfApproval marks the creator-is-boss case so the audit trail can
	// distinguish it from an ordinary boss decision.
	SelfApproval bool

	Reason DenialReason
	Detail string
}

func deny(reason DenialReason, detail string) Decision {
	return Decision{Reason: reason, Detail: detail}
}

func allow(stage string, t ApprovalType) Decision {
	return Decision{Allowed: true, Stage: stage, Type: t}
}
