package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/grupoandino/portal-approvals/internal/application/port"
	"github.com/grupoandino/portal-approvals/internal/domain/entity"
	"github.com/grupoandino/portal-approvals/internal/infrastructure/persistence/sqlite"
)

// ExpenseRepository implements port.ExpenseRepository
type ExpenseRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewExpenseRepository creates a new expense repository
func NewExpenseRepository(db *sql.DB, logger *zap.Logger) port.ExpenseRepository {
	return &ExpenseRepository{db: db, logger: logger}
}

const expenseColumns = `
	id, public_id, creator_email, department_id, description, amount, currency,
	assistant_stage, boss_stage, finance_stage, locked, review_notes,
	submitted_at, created_at, updated_at
`

// Create inserts a new expense report
func (r *ExpenseRepository) Create(ctx context.Context, report *entity.ExpenseReport) error {
	query := `
		INSERT INTO expense_reports (
			public_id, creator_email, department_id, description, amount, currency,
			assistant_stage, boss_stage, finance_stage, locked, review_notes, submitted_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query,
		report.PublicID,
		strings.ToLower(report.CreatorEmail),
		report.DepartmentID,
		report.Description,
		report.Amount,
		report.Currency,
		report.AssistantStage.String(),
		report.BossStage.String(),
		report.FinanceStage.String(),
		report.Locked,
		report.ReviewNotes,
		report.SubmittedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create expense report", zap.Error(err))
		return fmt.Errorf("failed to create expense report: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	report.ID = id
	return nil
}

// GetByID retrieves an expense report by ID
func (r *ExpenseRepository) GetByID(ctx context.Context, id int64) (*entity.ExpenseReport, error) {
	query := `SELECT ` + expenseColumns + ` FROM expense_reports WHERE id = ?`

	report, err := r.scanOne(sqlite.ExecutorFrom(ctx, r.db).QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return report, err
}

// GetByPublicID retrieves an expense report by its public identifier
func (r *ExpenseRepository) GetByPublicID(ctx context.Context, publicID string) (*entity.ExpenseReport, error) {
	query := `SELECT ` + expenseColumns + ` FROM expense_reports WHERE public_id = ?`

	report, err := r.scanOne(sqlite.ExecutorFrom(ctx, r.db).QueryRowContext(ctx, query, publicID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return report, err
}

// PersistStageTransition applies the stage patch and returns the stored
// row as the new source of truth.
func (r *ExpenseRepository) PersistStageTransition(ctx context.Context, id int64, patch port.ExpenseStagePatch) (*entity.ExpenseReport, error) {
	sets := []string{"updated_at = CURRENT_TIMESTAMP"}
	args := []interface{}{}

	if patch.Assistant != nil {
		sets = append(sets, "assistant_stage = ?")
		args = append(args, patch.Assistant.String())
	}
	if patch.Boss != nil {
		sets = append(sets, "boss_stage = ?")
		args = append(args, patch.Boss.String())
	}
	if patch.Finance != nil {
		sets = append(sets, "finance_stage = ?")
		args = append(args, patch.Finance.String())
	}
	if patch.Locked != nil {
		sets = append(sets, "locked = ?")
		args = append(args, *patch.Locked)
	}
	if patch.ReviewNotes != nil {
		sets = append(sets, "review_notes = ?")
		args = append(args, *patch.ReviewNotes)
	}

	query := "UPDATE expense_reports SET " + strings.Join(sets, ", ") + " WHERE id = ?"
	args = append(args, id)

	if _, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query, args...); err != nil {
		r.logger.Error("Failed to persist expense stage transition", zap.Error(err), zap.Int64("id", id))
		return nil, fmt.Errorf("failed to persist stage transition: %w", err)
	}

	report, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if report == nil {
		return nil, fmt.Errorf("expense report %d vanished during transition", id)
	}
	return report, nil
}

// UpdateDetails rewrites the editable fields
func (r *ExpenseRepository) UpdateDetails(ctx context.Context, report *entity.ExpenseReport) error {
	query := `
		UPDATE expense_reports
		SET description = ?, amount = ?, currency = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`

	_, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query,
		report.Description, report.Amount, report.Currency, report.ID)
	if err != nil {
		r.logger.Error("Failed to update expense report", zap.Error(err), zap.Int64("id", report.ID))
		return fmt.Errorf("failed to update expense report: %w", err)
	}
	return nil
}

// ListByCreator returns the creator's own reports, newest first
func (r *ExpenseRepository) ListByCreator(ctx context.Context, email string, limit, offset int) ([]*entity.ExpenseReport, error) {
	query := `SELECT ` + expenseColumns + `
		FROM expense_reports WHERE creator_email = ?
		ORDER BY submitted_at DESC LIMIT ? OFFSET ?`
	return r.list(ctx, query, strings.ToLower(email), limit, offset)
}

// ListByDepartment returns a department's reports, newest first
func (r *ExpenseRepository) ListByDepartment(ctx context.Context, departmentID string, limit, offset int) ([]*entity.ExpenseReport, error) {
	query := `SELECT ` + expenseColumns + `
		FROM expense_reports WHERE department_id = ?
		ORDER BY submitted_at DESC LIMIT ? OFFSET ?`
	return r.list(ctx, query, departmentID, limit, offset)
}

// ListBossApproved returns the finance review queue
func (r *ExpenseRepository) ListBossApproved(ctx context.Context, limit, offset int) ([]*entity.ExpenseReport, error) {
	query := `SELECT ` + expenseColumns + `
		FROM expense_reports WHERE boss_stage = 'APPROVED'
		ORDER BY submitted_at DESC LIMIT ? OFFSET ?`
	return r.list(ctx, query, limit, offset)
}

func (r *ExpenseRepository) list(ctx context.Context, query string, args ...interface{}) ([]*entity.ExpenseReport, error) {
	rows, err := sqlite.ExecutorFrom(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list expense reports", zap.Error(err))
		return nil, fmt.Errorf("failed to list expense reports: %w", err)
	}
	defer rows.Close()

	var reports []*entity.ExpenseReport
	for rows.Next() {
		report, err := r.scanOne(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, report)
	}

	return reports, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *ExpenseRepository) scanOne(row rowScanner) (*entity.ExpenseReport, error) {
	var report entity.ExpenseReport
	var assistant, boss, finance string

	err := row.Scan(
		&report.ID,
		&report.PublicID,
		&report.CreatorEmail,
		&report.DepartmentID,
		&report.Description,
		&report.Amount,
		&report.Currency,
		&assistant,
		&boss,
		&finance,
		&report.Locked,
		&report.ReviewNotes,
		&report.SubmittedAt,
		&report.CreatedAt,
		&report.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if report.AssistantStage, err = entity.ParseStageFlag(assistant); err != nil {
		return nil, err
	}
	if report.BossStage, err = entity.ParseStageFlag(boss); err != nil {
		return nil, err
	}
	if report.FinanceStage, err = entity.ParseStageFlag(finance); err != nil {
		return nil, err
	}

	return &report, nil
}

// Verify interface compliance
var _ port.ExpenseRepository = (*ExpenseRepository)(nil)
