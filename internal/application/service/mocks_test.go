package service

import (
	"context"

	"github.com/grupoandino/portal-approvals/internal/application/directory"
	"github.com/grupoandino/portal-approvals/internal/application/port"
	"github.com/grupoandino/portal-approvals/internal/domain/entity"
)

// Hand-written mocks with function fields. Unset functions return zero
// values; the stage-transition mocks apply the patch to the stored row so
// services see the same read-back behavior as the real repositories.

type mockExpenseRepo struct {
	report       *entity.ExpenseReport
	persistCalls int
	updateCalls  int

	listByCreator    []*entity.ExpenseReport
	listByDepartment []*entity.ExpenseReport
	listBossApproved []*entity.ExpenseReport
}

func (m *mockExpenseRepo) Create(ctx context.Context, report *entity.ExpenseReport) error {
	report.ID = 1
	m.report = report
	return nil
}

func (m *mockExpenseRepo) GetByID(ctx context.Context, id int64) (*entity.ExpenseReport, error) {
	if m.report == nil || m.report.ID != id {
		return nil, nil
	}
	copied := *m.report
	return &copied, nil
}

func (m *mockExpenseRepo) GetByPublicID(ctx context.Context, publicID string) (*entity.ExpenseReport, error) {
	if m.report == nil || m.report.PublicID != publicID {
		return nil, nil
	}
	copied := *m.report
	return &copied, nil
}

func (m *mockExpenseRepo) PersistStageTransition(ctx context.Context, id int64, patch port.ExpenseStagePatch) (*entity.ExpenseReport, error) {
	m.persistCalls++
	if patch.Assistant != nil {
		m.report.AssistantStage = *patch.Assistant
	}
	if patch.Boss != nil {
		m.report.BossStage = *patch.Boss
	}
	if patch.Finance != nil {
		m.report.FinanceStage = *patch.Finance
	}
	if patch.Locked != nil {
		m.report.Locked = *patch.Locked
	}
	if patch.ReviewNotes != nil {
		m.report.ReviewNotes = *patch.ReviewNotes
	}
	copied := *m.report
	return &copied, nil
}

func (m *mockExpenseRepo) UpdateDetails(ctx context.Context, report *entity.ExpenseReport) error {
	m.updateCalls++
	m.report.Description = report.Description
	m.report.Amount = report.Amount
	m.report.Currency = report.Currency
	return nil
}

func (m *mockExpenseRepo) ListByCreator(ctx context.Context, email string, limit, offset int) ([]*entity.ExpenseReport, error) {
	return m.listByCreator, nil
}

func (m *mockExpenseRepo) ListByDepartment(ctx context.Context, departmentID string, limit, offset int) ([]*entity.ExpenseReport, error) {
	return m.listByDepartment, nil
}

func (m *mockExpenseRepo) ListBossApproved(ctx context.Context, limit, offset int) ([]*entity.ExpenseReport, error) {
	return m.listBossApproved, nil
}

type mockOvertimeRepo struct {
	request      *entity.OvertimeRequest
	persistCalls int
	updateCalls  int

	entries []entity.OvertimeEntry
}

func (m *mockOvertimeRepo) Create(ctx context.Context, request *entity.OvertimeRequest) error {
	request.ID = 1
	m.request = request
	return nil
}

func (m *mockOvertimeRepo) GetByID(ctx context.Context, id int64) (*entity.OvertimeRequest, error) {
	if m.request == nil || m.request.ID != id {
		return nil, nil
	}
	copied := *m.request
	return &copied, nil
}

func (m *mockOvertimeRepo) GetByPublicID(ctx context.Context, publicID string) (*entity.OvertimeRequest, error) {
	if m.request == nil || m.request.PublicID != publicID {
		return nil, nil
	}
	copied := *m.request
	return &copied, nil
}

func (m *mockOvertimeRepo) PersistStageTransition(ctx context.Context, id int64, patch port.OvertimeStagePatch) (*entity.OvertimeRequest, error) {
	m.persistCalls++
	if patch.AssistantReview != nil {
		m.request.AssistantReview = *patch.AssistantReview
	}
	if patch.BossApproval != nil {
		m.request.BossApproval = *patch.BossApproval
	}
	if patch.HRApproval != nil {
		m.request.HRApproval = *patch.HRApproval
	}
	if patch.AccountingReview != nil {
		m.request.AccountingReview = *patch.AccountingReview
	}
	if patch.Locked != nil {
		m.request.Locked = *patch.Locked
	}
	if patch.ReviewNotes != nil {
		m.request.ReviewNotes = *patch.ReviewNotes
	}
	copied := *m.request
	return &copied, nil
}

func (m *mockOvertimeRepo) UpdateDetails(ctx context.Context, request *entity.OvertimeRequest) error {
	m.updateCalls++
	m.request.Reason = request.Reason
	m.request.Entries = request.Entries
	return nil
}

func (m *mockOvertimeRepo) GetEntries(ctx context.Context, requestID int64) ([]entity.OvertimeEntry, error) {
	return m.entries, nil
}

func (m *mockOvertimeRepo) ListByCreator(ctx context.Context, email string, limit, offset int) ([]*entity.OvertimeRequest, error) {
	return nil, nil
}

func (m *mockOvertimeRepo) ListByDepartment(ctx context.Context, departmentID string, limit, offset int) ([]*entity.OvertimeRequest, error) {
	return nil, nil
}

func (m *mockOvertimeRepo) ListAll(ctx context.Context, limit, offset int) ([]*entity.OvertimeRequest, error) {
	return nil, nil
}

type mockDecisionRepo struct {
	records []*entity.DecisionRecord
}

func (m *mockDecisionRepo) Create(ctx context.Context, record *entity.DecisionRecord) error {
	record.ID = int64(len(m.records) + 1)
	m.records = append(m.records, record)
	return nil
}

func (m *mockDecisionRepo) GetByRequest(ctx context.Context, requestType entity.RequestType, requestID int64) ([]*entity.DecisionRecord, error) {
	var out []*entity.DecisionRecord
	for _, r := range m.records {
		if r.RequestType == requestType && r.RequestID == requestID {
			out = append(out, r)
		}
	}
	return out, nil
}

type mockTxManager struct {
	calls int
}

func (m *mockTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	m.calls++
	return fn(ctx)
}

type mockProvider struct {
	dir     *directory.Directory
	reloads int
}

func (m *mockProvider) Current() *directory.Directory {
	return m.dir
}

func (m *mockProvider) Reload(ctx context.Context) error {
	m.reloads++
	return nil
}

type mockCalculator struct {
	breakdown *entity.HourBreakdown
	entries   []entity.OvertimeEntry
}

func (m *mockCalculator) ComputeHourBreakdown(ctx context.Context, entries []entity.OvertimeEntry) (*entity.HourBreakdown, error) {
	m.entries = entries
	return m.breakdown, nil
}

type nopLogger struct{}

func (nopLogger) Info(msg string, keysAndValues ...interface{})  {}
func (nopLogger) Error(msg string, keysAndValues ...interface{}) {}
