package workflow

import (
	"fmt"
	"strings"

	"github.com/grupoandino/portal-approvals/internal/application/directory"
	"github.com/grupoandino/portal-approvals/internal/domain/entity"
	domainwf "github.com/grupoandino/portal-approvals/internal/domain/workflow"
)

// OvertimeEngine decides who may act on an overtime request and computes
// the effect of a decision. Same discipline as the expense engine: pure
// queries against one directory snapshot, Apply returns a new value.
//
// Unlike the expense pipeline there is no stage-skip rule: the boss
// stage always waits for an explicit assistant review, even in
// departments without assistants. That asymmetry matches the current
// business process and is kept on purpose.
type OvertimeEngine struct {
	dir *directory.Directory
}

// NewOvertimeEngine creates an engine over the given directory snapshot
func NewOvertimeEngine(dir *directory.Directory) *OvertimeEngine {
	return &OvertimeEngine{dir: dir}
}

// CanApprove evaluates the overtime authorization rules. Plain members
// (colaboradores) are never authorized, for any stage of any request.
func (e *OvertimeEngine) CanApprove(actorEmail string, r *entity.OvertimeRequest) Decision {
	actor := strings.ToLower(strings.TrimSpace(actorEmail))
	creator := strings.ToLower(strings.TrimSpace(r.CreatorEmail))

	if _, ok := e.dir.Department(r.DepartmentID); !ok {
		return deny(DenialDirectoryInconsistent, fmt.Sprintf("department %s not in directory", r.DepartmentID))
	}

	if r.HasRejection() {
		return deny(DenialInvalidTransition, "request carries a rejection")
	}
	if e.isFullyApproved(r) {
		return deny(DenialInvalidTransition, "request is fully approved")
	}

	// HR scope is global: no department restriction, but only once the
	// boss stage is approved, and never on the administrator's own request.
	if actor != creator &&
		e.dir.IsAdministrator(actor) &&
		r.BossApproval == entity.StageApproved &&
		r.HRApproval == entity.StagePending {
		return allow(string(entity.OvertimeStageHR), ApprovalHR)
	}

	if e.dir.HasRole(actor, r.DepartmentID, entity.RoleBoss) &&
		r.AssistantReview == entity.StageApproved &&
		r.BossApproval == entity.StagePending {
		d := allow(string(entity.OvertimeStageBoss), ApprovalBoss)
		d.SelfApproval = actor == creator
		return d
	}

	if actor != creator &&
		e.dir.HasRole(actor, r.DepartmentID, entity.RoleAssistant) &&
		r.AssistantReview == entity.StagePending {
		return allow(string(entity.OvertimeStageAssistant), ApprovalAssistant)
	}

	return deny(DenialNotAuthorized, "no rule grants an action at the current stage")
}

// Apply computes the effect of an authorized decision and returns the
// resulting request. The input request is not mutated.
func (e *OvertimeEngine) Apply(r *entity.OvertimeRequest, d Decision, approve bool, notes string) (*entity.OvertimeRequest, error) {
	if !d.Allowed {
		return nil, fmt.Errorf("%w: decision does not grant an action", domainwf.ErrInvalidTransition)
	}

	updated := *r

	flag := entity.StageApproved
	if !approve {
		flag = entity.StageRejected
	}
	updated.SetStage(entity.OvertimeStage(d.Stage), flag)

	updated.Locked = true
	if !approve || notes != "" {
		updated.ReviewNotes = notes
	}

	return &updated, nil
}

func (e *OvertimeEngine) isFullyApproved(r *entity.OvertimeRequest) bool {
	return r.AssistantReview == entity.StageApproved &&
		r.BossApproval == entity.StageApproved &&
		r.HRApproval == entity.StageApproved
}

// AggregateStatus derives the lifecycle state from the three gating
// flags. AccountingReview is informational and never participates.
func (e *OvertimeEngine) AggregateStatus(r *entity.OvertimeRequest) domainwf.State {
	if r.HasRejection() {
		return domainwf.StateRejected
	}
	if e.isFullyApproved(r) {
		return domainwf.StateApproved
	}
	if r.AssistantReview == entity.StagePending {
		return domainwf.StatePendingAssistant
	}
	if r.BossApproval == entity.StagePending {
		return domainwf.StatePendingBoss
	}
	return domainwf.StatePendingFinal
}

// CanView applies the overtime visibility rule: administrators see every
// request, bosses and assistants see their department's plus their own,
// plain members see only their own.
func (e *OvertimeEngine) CanView(actorEmail string, r *entity.OvertimeRequest) bool {
	actor := strings.ToLower(strings.TrimSpace(actorEmail))
	if actor == strings.ToLower(strings.TrimSpace(r.CreatorEmail)) {
		return true
	}
	if e.dir.IsAdministrator(actor) {
		return true
	}
	return e.dir.HasRole(actor, r.DepartmentID, entity.RoleBoss) ||
		e.dir.HasRole(actor, r.DepartmentID, entity.RoleAssistant)
}

// CanEdit applies the overtime editability rule: administrators always;
// the creator only while the assistant review is still pending or after
// a rejection reopened the request; nobody else.
func (e *OvertimeEngine) CanEdit(actorEmail string, r *entity.OvertimeRequest) bool {
	actor := strings.ToLower(strings.TrimSpace(actorEmail))
	if e.dir.IsAdministrator(actor) {
		return true
	}
	if actor != strings.ToLower(strings.TrimSpace(r.CreatorEmail)) {
		return false
	}
	return r.AssistantReview == entity.StagePending || r.HasRejection()
}

// ResetForResubmission returns a copy of the request re-entered into the
// pipeline: all three gating flags back to PENDING regardless of which
// one was rejected, unlocked, notes cleared. AccountingReview is left
// untouched.
func (e *OvertimeEngine) ResetForResubmission(r *entity.OvertimeRequest) *entity.OvertimeRequest {
	updated := *r
	updated.AssistantReview = entity.StagePending
	updated.BossApproval = entity.StagePending
	updated.HRApproval = entity.StagePending
	updated.Locked = false
	updated.ReviewNotes = ""
	return &updated
}
