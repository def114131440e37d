package workflow

import (
	"context"

	"github.com/grupoandino/portal-approvals/internal/domain/entity"
	domainwf "github.com/grupoandino/portal-approvals/internal/domain/workflow"
)

// BuildExpenseLifecycle creates a state machine for the expense pipeline.
// Departments without assistants enter directly at PENDING_BOSS, and a
// boss approval lands straight on APPROVED because of the finance
// cascade. PENDING_FINAL stays wired for rows that predate the cascade.
func BuildExpenseLifecycle(hasAssistants bool, initialState domainwf.State) domainwf.StateMachine {
	builder := domainwf.NewBuilder()

	builder.Configure(domainwf.StateDraft).
		PermitIf(domainwf.TriggerSubmit, domainwf.StatePendingAssistant, func(ctx context.Context) bool { return hasAssistants }).
		PermitIf(domainwf.TriggerSubmit, domainwf.StatePendingBoss, func(ctx context.Context) bool { return !hasAssistants })

	builder.Configure(domainwf.StatePendingAssistant).
		Permit(domainwf.TriggerApproveAssistant, domainwf.StatePendingBoss).
		Permit(domainwf.TriggerReject, domainwf.StateRejected)

	builder.Configure(domainwf.StatePendingBoss).
		Permit(domainwf.TriggerApproveBoss, domainwf.StateApproved).
		Permit(domainwf.TriggerReject, domainwf.StateRejected)

	builder.Configure(domainwf.StatePendingFinal).
		Permit(domainwf.TriggerApproveFinal, domainwf.StateApproved).
		Permit(domainwf.TriggerReject, domainwf.StateRejected)

	// Resubmission is the only way out of REJECTED
	builder.Configure(domainwf.StateRejected).
		PermitIf(domainwf.TriggerResubmit, domainwf.StatePendingAssistant, func(ctx context.Context) bool { return hasAssistants }).
		PermitIf(domainwf.TriggerResubmit, domainwf.StatePendingBoss, func(ctx context.Context) bool { return !hasAssistants })

	return builder.Build(initialState)
}

// BuildOvertimeLifecycle creates a state machine for the overtime
// pipeline. No stage is ever skipped here; every request waits for an
// explicit assistant review before the boss stage opens.
func BuildOvertimeLifecycle(initialState domainwf.State) domainwf.StateMachine {
	builder := domainwf.NewBuilder()

	builder.Configure(domainwf.StateDraft).
		Permit(domainwf.TriggerSubmit, domainwf.StatePendingAssistant)

	builder.Configure(domainwf.StatePendingAssistant).
		Permit(domainwf.TriggerApproveAssistant, domainwf.StatePendingBoss).
		Permit(domainwf.TriggerReject, domainwf.StateRejected)

	builder.Configure(domainwf.StatePendingBoss).
		Permit(domainwf.TriggerApproveBoss, domainwf.StatePendingFinal).
		Permit(domainwf.TriggerReject, domainwf.StateRejected)

	builder.Configure(domainwf.StatePendingFinal).
		Permit(domainwf.TriggerApproveFinal, domainwf.StateApproved).
		Permit(domainwf.TriggerReject, domainwf.StateRejected)

	builder.Configure(domainwf.StateRejected).
		Permit(domainwf.TriggerResubmit, domainwf.StatePendingAssistant)

	return builder.Build(initialState)
}

// TriggerForDecision maps an allowed decision to the lifecycle trigger it
// fires.
func TriggerForDecision(d Decision, approve bool) domainwf.Trigger {
	if !approve {
		return domainwf.TriggerReject
	}
	switch d.Stage {
	case string(entity.ExpenseStageAssistant), string(entity.OvertimeStageAssistant):
		return domainwf.TriggerApproveAssistant
	case string(entity.ExpenseStageBoss), string(entity.OvertimeStageBoss):
		return domainwf.TriggerApproveBoss
	default:
		return domainwf.TriggerApproveFinal
	}
}
