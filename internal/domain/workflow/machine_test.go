package workflow

import (
	"context"
	"errors"
	"testing"
)

func buildLinearMachine(initial State) StateMachine {
	builder := NewBuilder()

	builder.Configure(StateDraft).
		Permit(TriggerSubmit, StatePendingAssistant)

	builder.Configure(StatePendingAssistant).
		Permit(TriggerApproveAssistant, StatePendingBoss).
		Permit(TriggerReject, StateRejected)

	builder.Configure(StatePendingBoss).
		Permit(TriggerApproveBoss, StatePendingFinal).
		Permit(TriggerReject, StateRejected)

	builder.Configure(StatePendingFinal).
		Permit(TriggerApproveFinal, StateApproved).
		Permit(TriggerReject, StateRejected)

	builder.Configure(StateRejected).
		Permit(TriggerResubmit, StatePendingAssistant)

	return builder.Build(initial)
}

func TestFireTransitions(t *testing.T) {
	tests := []struct {
		name      string
		initial   State
		trigger   Trigger
		wantState State
		wantErr   error
	}{
		{
			name:      "submit from draft",
			initial:   StateDraft,
			trigger:   TriggerSubmit,
			wantState: StatePendingAssistant,
		},
		{
			name:      "assistant approval advances to boss",
			initial:   StatePendingAssistant,
			trigger:   TriggerApproveAssistant,
			wantState: StatePendingBoss,
		},
		{
			name:      "reject from any pending state",
			initial:   StatePendingBoss,
			trigger:   TriggerReject,
			wantState: StateRejected,
		},
		{
			name:      "resubmit reopens a rejected request",
			initial:   StateRejected,
			trigger:   TriggerResubmit,
			wantState: StatePendingAssistant,
		},
		{
			name:    "cannot skip a stage",
			initial: StatePendingAssistant,
			trigger: TriggerApproveBoss,
			wantErr: ErrInvalidTransition,
		},
		{
			name:    "approved is terminal",
			initial: StateApproved,
			trigger: TriggerReject,
			wantErr: ErrInvalidTransition,
		},
		{
			name:    "rejected only permits resubmit",
			initial: StateRejected,
			trigger: TriggerApproveAssistant,
			wantErr: ErrInvalidTransition,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := buildLinearMachine(tt.initial)
			err := m.Fire(context.Background(), tt.trigger)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Fire() error = %v, want %v", err, tt.wantErr)
				}
				if m.State() != tt.initial {
					t.Errorf("state changed on failed fire: %v", m.State())
				}
				return
			}

			if err != nil {
				t.Fatalf("Fire() unexpected error: %v", err)
			}
			if m.State() != tt.wantState {
				t.Errorf("State() = %v, want %v", m.State(), tt.wantState)
			}
		})
	}
}

func TestGuardedTransitions(t *testing.T) {
	hasAssistants := false

	builder := NewBuilder()
	builder.Configure(StateDraft).
		PermitIf(TriggerSubmit, StatePendingAssistant, func(ctx context.Context) bool { return hasAssistants }).
		PermitIf(TriggerSubmit, StatePendingBoss, func(ctx context.Context) bool { return !hasAssistants })

	m := builder.Build(StateDraft)

	if !m.CanFire(TriggerSubmit) {
		t.Fatal("CanFire(submit) = false, want true")
	}

	if err := m.Fire(context.Background(), TriggerSubmit); err != nil {
		t.Fatalf("Fire() unexpected error: %v", err)
	}
	if m.State() != StatePendingBoss {
		t.Errorf("State() = %v, want %v", m.State(), StatePendingBoss)
	}
}

func TestGuardFailure(t *testing.T) {
	builder := NewBuilder()
	builder.Configure(StateDraft).
		PermitIf(TriggerSubmit, StatePendingAssistant, func(ctx context.Context) bool { return false })

	m := builder.Build(StateDraft)

	err := m.Fire(context.Background(), TriggerSubmit)
	if !errors.Is(err, ErrGuardFailed) {
		t.Fatalf("Fire() error = %v, want %v", err, ErrGuardFailed)
	}
	if m.State() != StateDraft {
		t.Errorf("state changed on guard failure: %v", m.State())
	}
}

func TestBuilderIsolation(t *testing.T) {
	builder := NewBuilder()
	builder.Configure(StateDraft).
		Permit(TriggerSubmit, StatePendingAssistant)

	first := builder.Build(StateDraft)

	// Later configuration must not leak into the already built machine
	builder.Configure(StateDraft).
		Permit(TriggerReject, StateRejected)

	if first.CanFire(TriggerReject) {
		t.Error("built machine picked up configuration added after Build")
	}
}

func TestTerminalStates(t *testing.T) {
	if !StateApproved.IsTerminal() {
		t.Error("APPROVED should be terminal")
	}
	if StateRejected.IsTerminal() {
		t.Error("REJECTED permits resubmission, should not be terminal")
	}
	if StatePendingBoss.IsTerminal() {
		t.Error("PENDING_BOSS should not be terminal")
	}
}

func TestPermittedTriggers(t *testing.T) {
	m := buildLinearMachine(StatePendingBoss)

	triggers := m.PermittedTriggers()
	if len(triggers) != 2 {
		t.Fatalf("PermittedTriggers() returned %d triggers, want 2", len(triggers))
	}

	seen := make(map[Trigger]bool)
	for _, trig := range triggers {
		seen[trig] = true
	}
	if !seen[TriggerApproveBoss] || !seen[TriggerReject] {
		t.Errorf("PermittedTriggers() = %v, want approve_boss and reject", triggers)
	}
}
