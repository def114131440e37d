package workflow

import (
	"testing"

	"github.com/grupoandino/portal-approvals/internal/application/directory"
	"github.com/grupoandino/portal-approvals/internal/domain/entity"
	domainwf "github.com/grupoandino/portal-approvals/internal/domain/workflow"
)

const (
	adminEmail     = "admin@example.com"
	otherBossEmail = "otherboss@example.com"
)

func overtimeDirectory() *directory.Directory {
	sales := entity.NewDepartment("sales", "Sales")
	sales.Bosses[bossEmail] = true
	sales.Assistants[assistantEmail] = true
	sales.Members[creatorEmail] = true
	sales.Members[memberEmail] = true

	ops := entity.NewDepartment("ops", "Operations")
	ops.Bosses[otherBossEmail] = true

	assignments := []*entity.RoleAssignment{
		{UserEmail: adminEmail, DepartmentID: "", Kind: entity.RoleAdministrator},
	}

	return directory.Build([]*entity.Department{sales, ops}, assignments)
}

func pendingOvertime(creator, dept string) *entity.OvertimeRequest {
	return &entity.OvertimeRequest{
		ID:               1,
		CreatorEmail:     creator,
		DepartmentID:     dept,
		AssistantReview:  entity.StagePending,
		BossApproval:     entity.StagePending,
		HRApproval:       entity.StagePending,
		AccountingReview: entity.StagePending,
	}
}

func TestOvertimeCanApprove(t *testing.T) {
	engine := NewOvertimeEngine(overtimeDirectory())

	tests := []struct {
		name        string
		actor       string
		request     *entity.OvertimeRequest
		wantAllowed bool
		wantStage   string
		wantType    ApprovalType
		wantSelf    bool
		wantReason  DenialReason
	}{
		{
			name:        "assistant reviews pending request",
			actor:       assistantEmail,
			request:     pendingOvertime(creatorEmail, "sales"),
			wantAllowed: true,
			wantStage:   "ASSISTANT_REVIEW",
			wantType:    ApprovalAssistant,
		},
		{
			name:       "assistant cannot review own request",
			actor:      assistantEmail,
			request:    pendingOvertime(assistantEmail, "sales"),
			wantReason: DenialNotAuthorized,
		},
		{
			name:       "boss waits for assistant review",
			actor:      bossEmail,
			request:    pendingOvertime(creatorEmail, "sales"),
			wantReason: DenialNotAuthorized,
		},
		{
			name:  "boss acts after assistant review",
			actor: bossEmail,
			request: func() *entity.OvertimeRequest {
				r := pendingOvertime(creatorEmail, "sales")
				r.AssistantReview = entity.StageApproved
				return r
			}(),
			wantAllowed: true,
			wantStage:   "BOSS_APPROVAL",
			wantType:    ApprovalBoss,
		},
		{
			name:  "boss may approve own request",
			actor: bossEmail,
			request: func() *entity.OvertimeRequest {
				r := pendingOvertime(bossEmail, "sales")
				r.AssistantReview = entity.StageApproved
				return r
			}(),
			wantAllowed: true,
			wantStage:   "BOSS_APPROVAL",
			wantType:    ApprovalBoss,
			wantSelf:    true,
		},
		{
			name:  "boss of another department cannot act",
			actor: otherBossEmail,
			request: func() *entity.OvertimeRequest {
				r := pendingOvertime(creatorEmail, "sales")
				r.AssistantReview = entity.StageApproved
				return r
			}(),
			wantReason: DenialNotAuthorized,
		},
		{
			name:  "administrator acts after boss approval",
			actor: adminEmail,
			request: func() *entity.OvertimeRequest {
				r := pendingOvertime(creatorEmail, "sales")
				r.AssistantReview = entity.StageApproved
				r.BossApproval = entity.StageApproved
				return r
			}(),
			wantAllowed: true,
			wantStage:   "HR_APPROVAL",
			wantType:    ApprovalHR,
		},
		{
			name:  "administrator waits for boss approval",
			actor: adminEmail,
			request: func() *entity.OvertimeRequest {
				r := pendingOvertime(creatorEmail, "sales")
				r.AssistantReview = entity.StageApproved
				return r
			}(),
			wantReason: DenialNotAuthorized,
		},
		{
			name:  "administrator cannot approve own request",
			actor: adminEmail,
			request: func() *entity.OvertimeRequest {
				r := pendingOvertime(adminEmail, "sales")
				r.AssistantReview = entity.StageApproved
				r.BossApproval = entity.StageApproved
				return r
			}(),
			wantReason: DenialNotAuthorized,
		},
		{
			name:       "plain member never approves",
			actor:      memberEmail,
			request:    pendingOvertime(creatorEmail, "sales"),
			wantReason: DenialNotAuthorized,
		},
		{
			name:  "rejected request blocks everyone",
			actor: bossEmail,
			request: func() *entity.OvertimeRequest {
				r := pendingOvertime(creatorEmail, "sales")
				r.AssistantReview = entity.StageRejected
				return r
			}(),
			wantReason: DenialInvalidTransition,
		},
		{
			name:       "unknown department denies as directory inconsistency",
			actor:      bossEmail,
			request:    pendingOvertime(creatorEmail, "ghost"),
			wantReason: DenialDirectoryInconsistent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := engine.CanApprove(tt.actor, tt.request)

			if d.Allowed != tt.wantAllowed {
				t.Fatalf("Allowed = %v, want %v (reason %s: %s)", d.Allowed, tt.wantAllowed, d.Reason, d.Detail)
			}
			if !tt.wantAllowed {
				if d.Reason != tt.wantReason {
					t.Errorf("Reason = %v, want %v", d.Reason, tt.wantReason)
				}
				return
			}
			if d.Stage != tt.wantStage {
				t.Errorf("Stage = %v, want %v", d.Stage, tt.wantStage)
			}
			if d.Type != tt.wantType {
				t.Errorf("Type = %v, want %v", d.Type, tt.wantType)
			}
			if d.SelfApproval != tt.wantSelf {
				t.Errorf("SelfApproval = %v, want %v", d.SelfApproval, tt.wantSelf)
			}
		})
	}
}

func TestOvertimeApplyDoesNotCascade(t *testing.T) {
	engine := NewOvertimeEngine(overtimeDirectory())

	request := pendingOvertime(creatorEmail, "sales")
	request.AssistantReview = entity.StageApproved

	d := engine.CanApprove(bossEmail, request)
	if !d.Allowed {
		t.Fatalf("boss not allowed: %s", d.Detail)
	}

	updated, err := engine.Apply(request, d, true, "")
	if err != nil {
		t.Fatalf("Apply() error: %v", err)
	}

	if updated.BossApproval != entity.StageApproved {
		t.Errorf("BossApproval = %v, want approved", updated.BossApproval)
	}
	if updated.HRApproval != entity.StagePending {
		t.Error("boss approval must not cascade into the HR stage")
	}
	if !updated.Locked {
		t.Error("request not locked after decision")
	}
	if engine.AggregateStatus(updated) != domainwf.StatePendingFinal {
		t.Errorf("AggregateStatus = %v, want PENDING_FINAL", engine.AggregateStatus(updated))
	}
}

func TestOvertimeAggregateStatusIgnoresAccounting(t *testing.T) {
	engine := NewOvertimeEngine(overtimeDirectory())

	request := pendingOvertime(creatorEmail, "sales")
	request.AssistantReview = entity.StageApproved
	request.BossApproval = entity.StageApproved
	request.HRApproval = entity.StageApproved
	request.AccountingReview = entity.StagePending

	if got := engine.AggregateStatus(request); got != domainwf.StateApproved {
		t.Errorf("AggregateStatus = %v, want APPROVED regardless of accounting flag", got)
	}

	request.AccountingReview = entity.StageRejected
	if got := engine.AggregateStatus(request); got != domainwf.StateApproved {
		t.Errorf("AggregateStatus = %v, accounting rejection must not count", got)
	}
}

func TestOvertimeVisibility(t *testing.T) {
	engine := NewOvertimeEngine(overtimeDirectory())
	request := pendingOvertime(creatorEmail, "sales")

	if !engine.CanView(creatorEmail, request) {
		t.Error("creator should see own request")
	}
	if !engine.CanView(adminEmail, request) {
		t.Error("administrator should see every request")
	}
	if !engine.CanView(bossEmail, request) || !engine.CanView(assistantEmail, request) {
		t.Error("department staff should see the request")
	}
	if engine.CanView(memberEmail, request) {
		t.Error("plain member should not see a colleague's request")
	}
	if engine.CanView(otherBossEmail, request) {
		t.Error("boss of another department should not see the request")
	}
}

func TestOvertimeEditability(t *testing.T) {
	engine := NewOvertimeEngine(overtimeDirectory())
	request := pendingOvertime(creatorEmail, "sales")

	if !engine.CanEdit(creatorEmail, request) {
		t.Error("creator should edit while assistant review pending")
	}
	if !engine.CanEdit(adminEmail, request) {
		t.Error("administrator should always edit")
	}
	if engine.CanEdit(bossEmail, request) {
		t.Error("boss should not edit someone else's request")
	}

	request.AssistantReview = entity.StageApproved
	if engine.CanEdit(creatorEmail, request) {
		t.Error("creator should not edit once assistant review done")
	}

	request.BossApproval = entity.StageRejected
	if !engine.CanEdit(creatorEmail, request) {
		t.Error("rejection should reopen editing for the creator")
	}
}

func TestOvertimeResetForResubmission(t *testing.T) {
	engine := NewOvertimeEngine(overtimeDirectory())

	request := pendingOvertime(creatorEmail, "sales")
	request.AssistantReview = entity.StageApproved
	request.BossApproval = entity.StageApproved
	request.HRApproval = entity.StageRejected
	request.AccountingReview = entity.StageApproved
	request.Locked = true
	request.ReviewNotes = "wrong dates"

	reset := engine.ResetForResubmission(request)

	// All three gating flags reset, even the already approved ones
	if reset.AssistantReview != entity.StagePending ||
		reset.BossApproval != entity.StagePending ||
		reset.HRApproval != entity.StagePending {
		t.Error("all gating flags should return to pending")
	}
	if reset.AccountingReview != entity.StageApproved {
		t.Error("accounting review must be left untouched")
	}
	if reset.Locked || reset.ReviewNotes != "" {
		t.Error("reset request should be unlocked with cleared notes")
	}
}
