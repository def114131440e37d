package port

import (
	"context"

	"github.com/grupoandino/portal-approvals/internal/domain/entity"
)

// DirectorySource is the read-only bulk feed of organizational data. The
// engine never writes through this interface; both loads are idempotent.
type DirectorySource interface {
	LoadDepartments(ctx context.Context) ([]*entity.Department, error)
	LoadRoleAssignments(ctx context.Context) ([]*entity.RoleAssignment, error)
}

// ExpenseStagePatch carries the stage flags changed by one expense
// decision. Nil pointers mean "leave as persisted".
type ExpenseStagePatch struct {
	Assistant   *entity.StageFlag
	Boss        *entity.StageFlag
	Finance     *entity.StageFlag
	Locked      *bool
	ReviewNotes *string
}

// OvertimeStagePatch carries the stage flags changed by one overtime
// decision or resubmission. Nil pointers mean "leave as persisted".
type OvertimeStagePatch struct {
	AssistantReview  *entity.StageFlag
	BossApproval     *entity.StageFlag
	HRApproval       *entity.StageFlag
	AccountingReview *entity.StageFlag
	Locked           *bool
	ReviewNotes      *string
}

// ExpenseRepository defines persistence operations for ExpenseReport
type ExpenseRepository interface {
	Create(ctx context.Context, report *entity.ExpenseReport) error
	GetByID(ctx context.Context, id int64) (*entity.ExpenseReport, error)
	GetByPublicID(ctx context.Context, publicID string) (*entity.ExpenseReport, error)

	// PersistStageTransition applies the patch and returns the stored row,
	// which callers must treat as the new source of truth.
	PersistStageTransition(ctx context.Context, id int64, patch ExpenseStagePatch) (*entity.ExpenseReport, error)

	// UpdateDetails rewrites the editable fields during resubmission
	UpdateDetails(ctx context.Context, report *entity.ExpenseReport) error

	ListByCreator(ctx context.Context, email string, limit, offset int) ([]*entity.ExpenseReport, error)
	ListByDepartment(ctx context.Context, departmentID string, limit, offset int) ([]*entity.ExpenseReport, error)

	// ListBossApproved returns reports whose boss stage is approved, the
	// finance department's review queue.
	ListBossApproved(ctx context.Context, limit, offset int) ([]*entity.ExpenseReport, error)
}

// OvertimeRepository defines persistence operations for OvertimeRequest
type OvertimeRepository interface {
	Create(ctx context.Context, request *entity.OvertimeRequest) error
	GetByID(ctx context.Context, id int64) (*entity.OvertimeRequest, error)
	GetByPublicID(ctx context.Context, publicID string) (*entity.OvertimeRequest, error)

	// PersistStageTransition applies the patch and returns the stored row,
	// which callers must treat as the new source of truth.
	PersistStageTransition(ctx context.Context, id int64, patch OvertimeStagePatch) (*entity.OvertimeRequest, error)

	// UpdateDetails rewrites the editable fields and replaces the worked
	// entries during resubmission
	UpdateDetails(ctx context.Context, request *entity.OvertimeRequest) error

	GetEntries(ctx context.Context, requestID int64) ([]entity.OvertimeEntry, error)

	ListByCreator(ctx context.Context, email string, limit, offset int) ([]*entity.OvertimeRequest, error)
	ListByDepartment(ctx context.Context, departmentID string, limit, offset int) ([]*entity.OvertimeRequest, error)
	ListAll(ctx context.Context, limit, offset int) ([]*entity.OvertimeRequest, error)
}

// DecisionRepository defines persistence operations for the approval
// audit trail
type DecisionRepository interface {
	Create(ctx context.Context, record *entity.DecisionRecord) error
	GetByRequest(ctx context.Context, requestType entity.RequestType, requestID int64) ([]*entity.DecisionRecord, error)
}

// TransactionManager handles database transactions
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
