package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/grupoandino/portal-approvals/internal/application/dispatcher"
	"github.com/grupoandino/portal-approvals/internal/application/port"
	"github.com/grupoandino/portal-approvals/internal/application/workflow"
	"github.com/grupoandino/portal-approvals/internal/domain/entity"
	"github.com/grupoandino/portal-approvals/internal/domain/event"
	domainwf "github.com/grupoandino/portal-approvals/internal/domain/workflow"
)

// OvertimeInput carries the editable fields of an overtime request
type OvertimeInput struct {
	Reason  string
	Entries []entity.OvertimeEntry
}

// OvertimeOutcome is the result of one overtime lifecycle action
type OvertimeOutcome struct {
	Outcome
	Request *entity.OvertimeRequest
}

// OvertimeService orchestrates the overtime request lifecycle around the
// authorization engine. Same contract as the expense service: denials
// are values, only infrastructure failures are errors.
type OvertimeService interface {
	Create(ctx context.Context, creatorEmail string, in OvertimeInput) (*entity.OvertimeRequest, error)
	Get(ctx context.Context, actorEmail string, id int64) (*entity.OvertimeRequest, error)
	ListVisible(ctx context.Context, actorEmail string, limit, offset int) ([]*entity.OvertimeRequest, error)
	Decide(ctx context.Context, actorEmail string, id int64, approve bool, notes string) (*OvertimeOutcome, error)
	Edit(ctx context.Context, actorEmail string, id int64, in OvertimeInput) (*OvertimeOutcome, error)
	HourBreakdown(ctx context.Context, actorEmail string, id int64) (*entity.HourBreakdown, error)
	History(ctx context.Context, id int64) ([]*entity.DecisionRecord, error)
}

type overtimeServiceImpl struct {
	repo         port.OvertimeRepository
	decisionRepo port.DecisionRepository
	txManager    port.TransactionManager
	provider     DirectoryProvider
	calculator   port.HourCalculator
	dispatcher   dispatcher.Dispatcher
	logger       Logger
}

// NewOvertimeService creates a new OvertimeService
func NewOvertimeService(
	repo port.OvertimeRepository,
	decisionRepo port.DecisionRepository,
	txManager port.TransactionManager,
	provider DirectoryProvider,
	calculator port.HourCalculator,
	disp dispatcher.Dispatcher,
	logger Logger,
) OvertimeService {
	return &overtimeServiceImpl{
		repo:         repo,
		decisionRepo: decisionRepo,
		txManager:    txManager,
		provider:     provider,
		calculator:   calculator,
		dispatcher:   disp,
		logger:       logger,
	}
}

// Create registers a new overtime request. Every request starts at
// PENDING_ASSISTANT; the overtime pipeline never skips the assistant
// review.
func (s *overtimeServiceImpl) Create(ctx context.Context, creatorEmail string, in OvertimeInput) (*entity.OvertimeRequest, error) {
	dir := s.provider.Current()

	departmentID, ok := dir.DepartmentFor(creatorEmail)
	if !ok {
		return nil, ErrNoDepartment
	}

	machine := workflow.BuildOvertimeLifecycle(domainwf.StateDraft)
	if err := machine.Fire(ctx, domainwf.TriggerSubmit); err != nil {
		return nil, fmt.Errorf("submit: %w", err)
	}

	now := time.Now()
	request := &entity.OvertimeRequest{
		PublicID:         uuid.NewString(),
		CreatorEmail:     creatorEmail,
		DepartmentID:     departmentID,
		Reason:           in.Reason,
		Entries:          in.Entries,
		AssistantReview:  entity.StagePending,
		BossApproval:     entity.StagePending,
		HRApproval:       entity.StagePending,
		AccountingReview: entity.StagePending,
		SubmittedAt:      now,
	}

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.repo.Create(txCtx, request); err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		record := &entity.DecisionRecord{
			RequestType:    entity.RequestTypeOvertime,
			RequestID:      request.ID,
			ActorEmail:     creatorEmail,
			Action:         entity.ActionCreate,
			PreviousStatus: domainwf.StateDraft.String(),
			NewStatus:      machine.State().String(),
			Timestamp:      now,
		}
		if err := s.decisionRepo.Create(txCtx, record); err != nil {
			return fmt.Errorf("create decision record: %w", err)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to create overtime request", "error", err, "creator", creatorEmail)
		return nil, err
	}

	s.logger.Info("Overtime request created",
		"id", request.ID, "creator", creatorEmail, "department", departmentID)

	if s.dispatcher != nil {
		s.dispatcher.DispatchAsync(ctx, event.NewEvent(event.TypeRequestCreated, entity.RequestTypeOvertime, request.ID, map[string]interface{}{
			"creator":    creatorEmail,
			"department": departmentID,
			"status":     machine.State().String(),
		}))
	}

	return request, nil
}

// Get returns the request if the actor's visibility scope includes it
func (s *overtimeServiceImpl) Get(ctx context.Context, actorEmail string, id int64) (*entity.OvertimeRequest, error) {
	request, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if request == nil {
		return nil, ErrNotFound
	}

	engine := workflow.NewOvertimeEngine(s.provider.Current())
	if !engine.CanView(actorEmail, request) {
		return nil, ErrNotVisible
	}
	return request, nil
}

// ListVisible returns the requests within the actor's visibility scope:
// administrators see everything, bosses and assistants their department
// plus their own, everyone else only their own.
func (s *overtimeServiceImpl) ListVisible(ctx context.Context, actorEmail string, limit, offset int) ([]*entity.OvertimeRequest, error) {
	dir := s.provider.Current()
	engine := workflow.NewOvertimeEngine(dir)

	if dir.IsAdministrator(actorEmail) {
		return s.repo.ListAll(ctx, limit, offset)
	}

	seen := make(map[int64]bool)
	var visible []*entity.OvertimeRequest

	collect := func(requests []*entity.OvertimeRequest, err error) error {
		if err != nil {
			return err
		}
		for _, r := range requests {
			if !seen[r.ID] && engine.CanView(actorEmail, r) {
				seen[r.ID] = true
				visible = append(visible, r)
			}
		}
		return nil
	}

	if err := collect(s.repo.ListByCreator(ctx, actorEmail, limit, offset)); err != nil {
		return nil, err
	}

	for _, a := range dir.RolesFor(actorEmail) {
		if a.Kind == entity.RoleBoss || a.Kind == entity.RoleAssistant {
			if err := collect(s.repo.ListByDepartment(ctx, a.DepartmentID, limit, offset)); err != nil {
				return nil, err
			}
		}
	}

	return visible, nil
}

// Decide runs one approve/reject action through the engine
func (s *overtimeServiceImpl) Decide(ctx context.Context, actorEmail string, id int64, approve bool, notes string) (*OvertimeOutcome, error) {
	request, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if request == nil {
		return nil, ErrNotFound
	}

	dir := s.provider.Current()
	engine := workflow.NewOvertimeEngine(dir)

	decision := engine.CanApprove(actorEmail, request)
	if !decision.Allowed {
		return &OvertimeOutcome{Outcome: *deniedOutcome(decision), Request: request}, nil
	}

	previousStatus := engine.AggregateStatus(request)
	machine := workflow.BuildOvertimeLifecycle(previousStatus)
	trigger := workflow.TriggerForDecision(decision, approve)
	if !machine.CanFire(trigger) {
		return &OvertimeOutcome{
			Outcome: *denied(workflow.DenialInvalidTransition,
				fmt.Sprintf("trigger %s not permitted in state %s", trigger, previousStatus)),
			Request: request,
		}, nil
	}
	if err := machine.Fire(ctx, trigger); err != nil {
		return nil, err
	}

	updated, err := engine.Apply(request, decision, approve, notes)
	if err != nil {
		return nil, err
	}
	newStatus := machine.State()

	action := entity.ActionApprove
	if !approve {
		action = entity.ActionReject
	}

	var persisted *entity.OvertimeRequest
	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		persisted, err = s.repo.PersistStageTransition(txCtx, id, overtimePatch(request, updated))
		if err != nil {
			return fmt.Errorf("persist stage transition: %w", err)
		}
		record := &entity.DecisionRecord{
			RequestType:    entity.RequestTypeOvertime,
			RequestID:      id,
			ActorEmail:     actorEmail,
			Stage:          decision.Stage,
			ApprovalType:   string(decision.Type),
			Action:         action,
			PreviousStatus: previousStatus.String(),
			NewStatus:      newStatus.String(),
			Notes:          notes,
			Timestamp:      time.Now(),
		}
		if err := s.decisionRepo.Create(txCtx, record); err != nil {
			return fmt.Errorf("create decision record: %w", err)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to persist overtime decision", "error", err, "id", id, "actor", actorEmail)
		return nil, err
	}

	s.afterTransition(ctx, id, string(decision.Type), action, previousStatus, newStatus)

	return &OvertimeOutcome{
		Outcome: Outcome{
			Decision:       decision,
			PreviousStatus: previousStatus.String(),
			NewStatus:      newStatus.String(),
		},
		Request: persisted,
	}, nil
}

// Edit updates the editable fields. Editing a rejected request is a
// resubmission: all three gating flags reset to PENDING and the request
// re-enters the pipeline at the assistant review, no matter which stage
// rejected it.
func (s *overtimeServiceImpl) Edit(ctx context.Context, actorEmail string, id int64, in OvertimeInput) (*OvertimeOutcome, error) {
	request, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if request == nil {
		return nil, ErrNotFound
	}

	dir := s.provider.Current()
	engine := workflow.NewOvertimeEngine(dir)

	if !engine.CanEdit(actorEmail, request) {
		return &OvertimeOutcome{
			Outcome: *denied(workflow.DenialNotAuthorized, "actor may not edit this request"),
			Request: request,
		}, nil
	}

	previousStatus := engine.AggregateStatus(request)

	updated := *request
	updated.Reason = in.Reason
	updated.Entries = in.Entries

	resubmitting := request.HasRejection()
	newStatus := previousStatus
	if resubmitting {
		machine := workflow.BuildOvertimeLifecycle(previousStatus)
		if err := machine.Fire(ctx, domainwf.TriggerResubmit); err != nil {
			return nil, err
		}
		newStatus = machine.State()
		updated = *engine.ResetForResubmission(&updated)
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.repo.UpdateDetails(txCtx, &updated); err != nil {
			return fmt.Errorf("update details: %w", err)
		}
		if resubmitting {
			if _, err := s.repo.PersistStageTransition(txCtx, id, overtimePatch(request, &updated)); err != nil {
				return fmt.Errorf("persist stage reset: %w", err)
			}
			record := &entity.DecisionRecord{
				RequestType:    entity.RequestTypeOvertime,
				RequestID:      id,
				ActorEmail:     actorEmail,
				Action:         entity.ActionResubmit,
				PreviousStatus: previousStatus.String(),
				NewStatus:      newStatus.String(),
				Timestamp:      time.Now(),
			}
			if err := s.decisionRepo.Create(txCtx, record); err != nil {
				return fmt.Errorf("create decision record: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to edit overtime request", "error", err, "id", id, "actor", actorEmail)
		return nil, err
	}

	if resubmitting {
		s.afterTransition(ctx, id, "", entity.ActionResubmit, previousStatus, newStatus)
	}

	return &OvertimeOutcome{
		Outcome: Outcome{
			PreviousStatus: previousStatus.String(),
			NewStatus:      newStatus.String(),
		},
		Request: &updated,
	}, nil
}

// HourBreakdown asks the external calculator to classify the request's
// worked hours. Display only: nothing here feeds authorization.
func (s *overtimeServiceImpl) HourBreakdown(ctx context.Context, actorEmail string, id int64) (*entity.HourBreakdown, error) {
	request, err := s.Get(ctx, actorEmail, id)
	if err != nil {
		return nil, err
	}

	entries := request.Entries
	if len(entries) == 0 {
		entries, err = s.repo.GetEntries(ctx, id)
		if err != nil {
			return nil, err
		}
	}

	breakdown, err := s.calculator.ComputeHourBreakdown(ctx, entries)
	if err != nil {
		return nil, fmt.Errorf("compute hour breakdown: %w", err)
	}
	return breakdown, nil
}

// History returns the audit trail of a request
func (s *overtimeServiceImpl) History(ctx context.Context, id int64) ([]*entity.DecisionRecord, error) {
	return s.decisionRepo.GetByRequest(ctx, entity.RequestTypeOvertime, id)
}

func (s *overtimeServiceImpl) afterTransition(ctx context.Context, id int64, approvalType, action string, previous, next domainwf.State) {
	if err := s.provider.Reload(ctx); err != nil {
		s.logger.Error("Failed to reload directory snapshot", "error", err)
	}

	if s.dispatcher == nil {
		return
	}

	payload := map[string]interface{}{
		"approval_type":   approvalType,
		"action":          action,
		"previous_status": previous.String(),
		"new_status":      next.String(),
	}

	switch action {
	case entity.ActionResubmit:
		s.dispatcher.DispatchAsync(ctx, event.NewEvent(event.TypeRequestResubmitted, entity.RequestTypeOvertime, id, payload))
	case entity.ActionApprove:
		s.dispatcher.DispatchAsync(ctx, event.NewEvent(event.TypeStageApproved, entity.RequestTypeOvertime, id, payload))
	case entity.ActionReject:
		s.dispatcher.DispatchAsync(ctx, event.NewEvent(event.TypeStageRejected, entity.RequestTypeOvertime, id, payload))
	}
	s.dispatcher.DispatchAsync(ctx, event.NewEvent(event.TypeStatusChanged, entity.RequestTypeOvertime, id, payload))
}

// overtimePatch computes the stage patch between the loaded row and the
// engine's result
func overtimePatch(before, after *entity.OvertimeRequest) port.OvertimeStagePatch {
	patch := port.OvertimeStagePatch{}
	if before.AssistantReview != after.AssistantReview {
		v := after.AssistantReview
		patch.AssistantReview = &v
	}
	if before.BossApproval != after.BossApproval {
		v := after.BossApproval
		patch.BossApproval = &v
	}
	if before.HRApproval != after.HRApproval {
		v := after.HRApproval
		patch.HRApproval = &v
	}
	if before.AccountingReview != after.AccountingReview {
		v := after.AccountingReview
		patch.AccountingReview = &v
	}
	if before.Locked != after.Locked {
		v := after.Locked
		patch.Locked = &v
	}
	if before.ReviewNotes != after.ReviewNotes {
		v := after.ReviewNotes
		patch.ReviewNotes = &v
	}
	return patch
}
