package workflow

import (
	"fmt"
	"strings"

	"github.com/grupoandino/portal-approvals/internal/application/directory"
	"github.com/grupoandino/portal-approvals/internal/domain/entity"
	domainwf "github.com/grupoandino/portal-approvals/internal/domain/workflow"
)

// ExpenseEngine decides who may act on an expense report and computes
// the effect of a decision. It is pure: every query runs against the
// directory snapshot it was built with, and Apply returns a new value
// instead of mutating its input.
type ExpenseEngine struct {
	dir *directory.Directory
}

// NewExpenseEngine creates an engine over the given directory snapshot
func NewExpenseEngine(dir *directory.Directory) *ExpenseEngine {
	return &ExpenseEngine{dir: dir}
}

// assistantSatisfied is the stage-skip rule: the assistant stage gates
// the boss stage only in departments that actually have assistants.
// The flag may legitimately still be PENDING in a department without
// assistants, so this must be checked everywhere instead of assuming the
// stage was explicitly set.
func (e *ExpenseEngine) assistantSatisfied(dept *entity.Department, r *entity.ExpenseReport) bool {
	return !dept.HasAssistants() || r.AssistantStage == entity.StageApproved
}

// CanAct evaluates the authorization rules in their fixed order and
// returns the first rule that grants the actor an action. There is no
// rule stacking: the first match determines the stage and approval type.
func (e *ExpenseEngine) CanAct(actorEmail string, r *entity.ExpenseReport) Decision {
	actor := strings.ToLower(strings.TrimSpace(actorEmail))
	creator := strings.ToLower(strings.TrimSpace(r.CreatorEmail))

	dept, ok := e.dir.Department(r.DepartmentID)
	if !ok {
		return deny(DenialDirectoryInconsistent, fmt.Sprintf("department %s not in directory", r.DepartmentID))
	}

	if r.HasRejection() {
		return deny(DenialInvalidTransition, "request carries a rejection")
	}
	if e.isFullyApproved(dept, r) {
		return deny(DenialInvalidTransition, "request is fully approved")
	}

	satisfied := e.assistantSatisfied(dept, r)

	// Creator who is also the department boss may approve their own boss
	// stage, and only that stage.
	if actor == creator &&
		e.dir.HasRole(actor, dept.ID, entity.RoleBoss) &&
		r.BossStage == entity.StagePending &&
		satisfied {
		d := allow(string(entity.ExpenseStageBoss), ApprovalBoss)
		d.SelfApproval = true
		return d
	}

	if actor != creator &&
		e.dir.HasRole(actor, dept.ID, entity.RoleAssistant) &&
		r.AssistantStage == entity.StagePending {
		return allow(string(entity.ExpenseStageAssistant), ApprovalAssistant)
	}

	if e.dir.HasRole(actor, dept.ID, entity.RoleBoss) &&
		r.BossStage == entity.StagePending &&
		satisfied {
		return allow(string(entity.ExpenseStageBoss), ApprovalBoss)
	}

	// Finance review is cross-department and only reachable once the boss
	// stage is approved. In practice the boss-approval cascade below makes
	// this unreachable for newly decided reports; it still applies to rows
	// persisted with FINANCE pending by earlier writers.
	if actor != creator &&
		r.BossStage == entity.StageApproved &&
		r.FinanceStage == entity.StagePending {
		if role, ok := e.dir.FinanceRole(actor); ok {
			if role == entity.RoleBoss {
				return allow(string(entity.ExpenseStageFinance), ApprovalFinanceBoss)
			}
			return allow(string(entity.ExpenseStageFinance), ApprovalFinanceAssistant)
		}
	}

	return deny(DenialNotAuthorized, "no rule grants an action at the current stage")
}

// Apply computes the effect of an authorized decision and returns the
// resulting report. The input report is not mutated.
func (e *ExpenseEngine) Apply(r *entity.ExpenseReport, d Decision, approve bool, notes string) (*entity.ExpenseReport, error) {
	if !d.Allowed {
		return nil, fmt.Errorf("%w: decision does not grant an action", domainwf.ErrInvalidTransition)
	}

	updated := *r

	flag := entity.StageApproved
	if !approve {
		flag = entity.StageRejected
	}
	updated.SetStage(entity.ExpenseStage(d.Stage), flag)

	// Legacy cascade: a boss approval force-sets the finance stage in the
	// same transition, bypassing the finance reviewers entirely.
	if approve && entity.ExpenseStage(d.Stage) == entity.ExpenseStageBoss {
		updated.FinanceStage = entity.StageApproved
	}

	// Every decision locks the report against edits. Reviewer notes are
	// always stored on reject, on approve only when provided.
	updated.Locked = true
	if !approve || notes != "" {
		updated.ReviewNotes = notes
	}

	return &updated, nil
}

func (e *ExpenseEngine) isFullyApproved(dept *entity.Department, r *entity.ExpenseReport) bool {
	return e.assistantSatisfied(dept, r) &&
		r.BossStage == entity.StageApproved &&
		r.FinanceStage == entity.StageApproved
}

// AggregateStatus derives the lifecycle state from the stage flags.
// Rejection is sticky: any rejected stage makes the whole request
// rejected regardless of the other flags.
func (e *ExpenseEngine) AggregateStatus(r *entity.ExpenseReport) domainwf.State {
	if r.HasRejection() {
		return domainwf.StateRejected
	}

	dept, ok := e.dir.Department(r.DepartmentID)
	if ok && e.isFullyApproved(dept, r) {
		return domainwf.StateApproved
	}

	if ok && !e.assistantSatisfied(dept, r) {
		return domainwf.StatePendingAssistant
	}
	if r.BossStage == entity.StagePending {
		return domainwf.StatePendingBoss
	}
	if r.FinanceStage == entity.StagePending {
		return domainwf.StatePendingFinal
	}
	return domainwf.StateApproved
}

// CanEdit applies the expense editability rule: only the creator may
// edit, and only before any decision has locked the report or after a
// rejection reopened it.
func (e *ExpenseEngine) CanEdit(actorEmail string, r *entity.ExpenseReport) bool {
	actor := strings.ToLower(strings.TrimSpace(actorEmail))
	creator := strings.ToLower(strings.TrimSpace(r.CreatorEmail))
	if actor != creator {
		return false
	}
	return !r.Locked || r.HasRejection()
}

// ResetForResubmission returns a copy of the report re-entered into the
// pipeline: every stage back to PENDING, unlocked, notes cleared. In
// departments without assistants the assistant stage is stamped approved
// again, exactly as at creation.
func (e *ExpenseEngine) ResetForResubmission(r *entity.ExpenseReport) *entity.ExpenseReport {
	updated := *r
	updated.AssistantStage = entity.StagePending
	updated.BossStage = entity.StagePending
	updated.FinanceStage = entity.StagePending
	updated.Locked = false
	updated.ReviewNotes = ""

	if dept, ok := e.dir.Department(r.DepartmentID); ok && !dept.HasAssistants() {
		updated.AssistantStage = entity.StageApproved
	}

	return &updated
}

// CanView applies the expense visibility rule: the creator always sees
// their own reports; department bosses and assistants see their
// department's; finance reviewers see everything boss-approved.
func (e *ExpenseEngine) CanView(actorEmail string, r *entity.ExpenseReport) bool {
	actor := strings.ToLower(strings.TrimSpace(actorEmail))
	if actor == strings.ToLower(strings.TrimSpace(r.CreatorEmail)) {
		return true
	}
	if e.dir.HasRole(actor, r.DepartmentID, entity.RoleBoss) ||
		e.dir.HasRole(actor, r.DepartmentID, entity.RoleAssistant) {
		return true
	}
	if r.BossStage == entity.StageApproved {
		if _, ok := e.dir.FinanceRole(actor); ok {
			return true
		}
	}
	return false
}
