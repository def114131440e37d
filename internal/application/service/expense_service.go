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

// ExpenseInput carries the editable fields of an expense report
type ExpenseInput struct {
	Description string
	Amount      float64
	Currency    string
}

// ExpenseOutcome is the result of one expense lifecycle action
type ExpenseOutcome struct {
	Outcome
	Report *entity.ExpenseReport
}

// ExpenseService orchestrates the expense report lifecycle around the
// authorization engine: creation, decisions, resubmission. All
// authorization answers come from the engine; the service adds
// persistence, the audit trail and the snapshot reload discipline.
type ExpenseService interface {
	Create(ctx context.Context, creatorEmail string, in ExpenseInput) (*entity.ExpenseReport, error)
	Get(ctx context.Context, actorEmail string, id int64) (*entity.ExpenseReport, error)
	ListVisible(ctx context.Context, actorEmail string, limit, offset int) ([]*entity.ExpenseReport, error)
	Decide(ctx context.Context, actorEmail string, id int64, approve bool, notes string) (*ExpenseOutcome, error)
	Resubmit(ctx context.Context, actorEmail string, id int64, in ExpenseInput) (*ExpenseOutcome, error)
	History(ctx context.Context, id int64) ([]*entity.DecisionRecord, error)
}

type expenseServiceImpl struct {
	repo         port.ExpenseRepository
	decisionRepo port.DecisionRepository
	txManager    port.TransactionManager
	provider     DirectoryProvider
	dispatcher   dispatcher.Dispatcher
	logger       Logger
}

// NewExpenseService creates a new ExpenseService
func NewExpenseService(
	repo port.ExpenseRepository,
	decisionRepo port.DecisionRepository,
	txManager port.TransactionManager,
	provider DirectoryProvider,
	disp dispatcher.Dispatcher,
	logger Logger,
) ExpenseService {
	return &expenseServiceImpl{
		repo:         repo,
		decisionRepo: decisionRepo,
		txManager:    txManager,
		provider:     provider,
		dispatcher:   disp,
		logger:       logger,
	}
}

// Create registers a new expense report. In departments without
// assistants the assistant stage is stamped approved at creation, so the
// report starts directly at PENDING_BOSS.
func (s *expenseServiceImpl) Create(ctx context.Context, creatorEmail string, in ExpenseInput) (*entity.ExpenseReport, error) {
	dir := s.provider.Current()

	departmentID, ok := dir.DepartmentFor(creatorEmail)
	if !ok {
		return nil, ErrNoDepartment
	}

	hasAssistants := dir.HasAssistants(departmentID)

	machine := workflow.BuildExpenseLifecycle(hasAssistants, domainwf.StateDraft)
	if err := machine.Fire(ctx, domainwf.TriggerSubmit); err != nil {
		return nil, fmt.Errorf("submit: %w", err)
	}

	now := time.Now()
	report := &entity.ExpenseReport{
		PublicID:       uuid.NewString(),
		CreatorEmail:   creatorEmail,
		DepartmentID:   departmentID,
		Description:    in.Description,
		Amount:         in.Amount,
		Currency:       in.Currency,
		AssistantStage: entity.StagePending,
		BossStage:      entity.StagePending,
		FinanceStage:   entity.StagePending,
		SubmittedAt:    now,
	}
	if !hasAssistants {
		report.AssistantStage = entity.StageApproved
	}

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.repo.Create(txCtx, report); err != nil {
			return fmt.Errorf("create report: %w", err)
		}
		record := &entity.DecisionRecord{
			RequestType:    entity.RequestTypeExpense,
			RequestID:      report.ID,
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
		s.logger.Error("Failed to create expense report", "error", err, "creator", creatorEmail)
		return nil, err
	}

	s.logger.Info("Expense report created",
		"id", report.ID, "creator", creatorEmail, "department", departmentID,
		"status", machine.State().String())

	if s.dispatcher != nil {
		s.dispatcher.DispatchAsync(ctx, event.NewEvent(event.TypeRequestCreated, entity.RequestTypeExpense, report.ID, map[string]interface{}{
			"creator":    creatorEmail,
			"department": departmentID,
			"status":     machine.State().String(),
		}))
	}

	return report, nil
}

// Get returns the report if the actor's visibility scope includes it
func (s *expenseServiceImpl) Get(ctx context.Context, actorEmail string, id int64) (*entity.ExpenseReport, error) {
	report, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if report == nil {
		return nil, ErrNotFound
	}

	engine := workflow.NewExpenseEngine(s.provider.Current())
	if !engine.CanView(actorEmail, report) {
		return nil, ErrNotVisible
	}
	return report, nil
}

// ListVisible returns the reports within the actor's visibility scope
func (s *expenseServiceImpl) ListVisible(ctx context.Context, actorEmail string, limit, offset int) ([]*entity.ExpenseReport, error) {
	dir := s.provider.Current()
	engine := workflow.NewExpenseEngine(dir)

	seen := make(map[int64]bool)
	var visible []*entity.ExpenseReport

	collect := func(reports []*entity.ExpenseReport, err error) error {
		if err != nil {
			return err
		}
		for _, r := range reports {
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

	if _, ok := dir.FinanceRole(actorEmail); ok {
		if err := collect(s.repo.ListBossApproved(ctx, limit, offset)); err != nil {
			return nil, err
		}
	}

	return visible, nil
}

// Decide runs one approve/reject action through the engine. Denials come
// back inside the outcome with a nil error; the patch is persisted
// exactly once, in the same transaction as its audit record.
func (s *expenseServiceImpl) Decide(ctx context.Context, actorEmail string, id int64, approve bool, notes string) (*ExpenseOutcome, error) {
	report, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if report == nil {
		return nil, ErrNotFound
	}

	dir := s.provider.Current()
	engine := workflow.NewExpenseEngine(dir)

	decision := engine.CanAct(actorEmail, report)
	if !decision.Allowed {
		return &ExpenseOutcome{Outcome: *deniedOutcome(decision), Report: report}, nil
	}

	previousStatus := engine.AggregateStatus(report)
	machine := workflow.BuildExpenseLifecycle(dir.HasAssistants(report.DepartmentID), previousStatus)
	trigger := workflow.TriggerForDecision(decision, approve)
	if !machine.CanFire(trigger) {
		return &ExpenseOutcome{
			Outcome: *denied(workflow.DenialInvalidTransition,
				fmt.Sprintf("trigger %s not permitted in state %s", trigger, previousStatus)),
			Report: report,
		}, nil
	}
	if err := machine.Fire(ctx, trigger); err != nil {
		return nil, err
	}

	updated, err := engine.Apply(report, decision, approve, notes)
	if err != nil {
		return nil, err
	}
	newStatus := machine.State()

	action := entity.ActionApprove
	if !approve {
		action = entity.ActionReject
	}

	var persisted *entity.ExpenseReport
	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		persisted, err = s.repo.PersistStageTransition(txCtx, id, expensePatch(report, updated))
		if err != nil {
			return fmt.Errorf("persist stage transition: %w", err)
		}
		record := &entity.DecisionRecord{
			RequestType:    entity.RequestTypeExpense,
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
		s.logger.Error("Failed to persist expense decision", "error", err, "id", id, "actor", actorEmail)
		return nil, err
	}

	s.afterTransition(ctx, persisted.ID, string(decision.Type), action, previousStatus, newStatus, approve)

	return &ExpenseOutcome{
		Outcome: Outcome{
			Decision:       decision,
			PreviousStatus: previousStatus.String(),
			NewStatus:      newStatus.String(),
		},
		Report: persisted,
	}, nil
}

// Resubmit re-enters a rejected report into the pipeline, or just
// updates the editable fields while nothing has been decided yet.
func (s *expenseServiceImpl) Resubmit(ctx context.Context, actorEmail string, id int64, in ExpenseInput) (*ExpenseOutcome, error) {
	report, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if report == nil {
		return nil, ErrNotFound
	}

	dir := s.provider.Current()
	engine := workflow.NewExpenseEngine(dir)

	if !engine.CanEdit(actorEmail, report) {
		return &ExpenseOutcome{
			Outcome: *denied(workflow.DenialNotAuthorized, "actor may not edit this report"),
			Report:  report,
		}, nil
	}

	previousStatus := engine.AggregateStatus(report)

	updated := *report
	updated.Description = in.Description
	updated.Amount = in.Amount
	updated.Currency = in.Currency

	resubmitting := report.HasRejection()
	newStatus := previousStatus
	if resubmitting {
		machine := workflow.BuildExpenseLifecycle(dir.HasAssistants(report.DepartmentID), previousStatus)
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
			if _, err := s.repo.PersistStageTransition(txCtx, id, expensePatch(report, &updated)); err != nil {
				return fmt.Errorf("persist stage reset: %w", err)
			}
			record := &entity.DecisionRecord{
				RequestType:    entity.RequestTypeExpense,
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
		s.logger.Error("Failed to resubmit expense report", "error", err, "id", id, "actor", actorEmail)
		return nil, err
	}

	if resubmitting {
		s.afterTransition(ctx, id, "", entity.ActionResubmit, previousStatus, newStatus, false)
	}

	return &ExpenseOutcome{
		Outcome: Outcome{
			PreviousStatus: previousStatus.String(),
			NewStatus:      newStatus.String(),
		},
		Report: &updated,
	}, nil
}

// History returns the audit trail of a report
func (s *expenseServiceImpl) History(ctx context.Context, id int64) ([]*entity.DecisionRecord, error) {
	return s.decisionRepo.GetByRequest(ctx, entity.RequestTypeExpense, id)
}

// afterTransition reloads the directory snapshot and emits lifecycle
// events. The decision is already durable; a failed reload is logged
// and the stale snapshot lives until the next successful one.
func (s *expenseServiceImpl) afterTransition(ctx context.Context, id int64, approvalType, action string, previous, next domainwf.State, approve bool) {
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
		s.dispatcher.DispatchAsync(ctx, event.NewEvent(event.TypeRequestResubmitted, entity.RequestTypeExpense, id, payload))
	case entity.ActionApprove:
		s.dispatcher.DispatchAsync(ctx, event.NewEvent(event.TypeStageApproved, entity.RequestTypeExpense, id, payload))
	case entity.ActionReject:
		s.dispatcher.DispatchAsync(ctx, event.NewEvent(event.TypeStageRejected, entity.RequestTypeExpense, id, payload))
	}
	s.dispatcher.DispatchAsync(ctx, event.NewEvent(event.TypeStatusChanged, entity.RequestTypeExpense, id, payload))
}

// expensePatch computes the stage patch between the loaded row and the
// engine's result. Unchanged flags stay nil so the repository leaves
// them as persisted.
func expensePatch(before, after *entity.ExpenseReport) port.ExpenseStagePatch {
	patch := port.ExpenseStagePatch{}
	if before.AssistantStage != after.AssistantStage {
		v := after.AssistantStage
		patch.Assistant = &v
	}
	if before.BossStage != after.BossStage {
		v := after.BossStage
		patch.Boss = &v
	}
	if before.FinanceStage != after.FinanceStage {
		v := after.FinanceStage
		patch.Finance = &v
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
