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

// OvertimeRepository implements port.OvertimeRepository
type OvertimeRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewOvertimeRepository creates a new overtime repository
func NewOvertimeRepository(db *sql.DB, logger *zap.Logger) port.OvertimeRepository {
	return &OvertimeRepository{db: db, logger: logger}
}

const overtimeColumns = `
	id, public_id, creator_email, department_id, reason,
	assistant_review, boss_approval, hr_approval, accounting_review,
	locked, review_notes, submitted_at, created_at, updated_at
`

// Create inserts a new overtime request together with its worked entries
func (r *OvertimeRepository) Create(ctx context.Context, request *entity.OvertimeRequest) error {
	query := `
		INSERT INTO overtime_requests (
			public_id, creator_email, department_id, reason,
			assistant_review, boss_approval, hr_approval, accounting_review,
			locked, review_notes, submitted_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	exec := sqlite.ExecutorFrom(ctx, r.db)
	result, err := exec.ExecContext(ctx, query,
		request.PublicID,
		strings.ToLower(request.CreatorEmail),
		request.DepartmentID,
		request.Reason,
		request.AssistantReview.String(),
		request.BossApproval.String(),
		request.HRApproval.String(),
		request.AccountingReview.String(),
		request.Locked,
		request.ReviewNotes,
		request.SubmittedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create overtime request", zap.Error(err))
		return fmt.Errorf("failed to create overtime request: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	request.ID = id

	if err := r.insertEntries(ctx, id, request.Entries); err != nil {
		return err
	}
	for i := range request.Entries {
		request.Entries[i].RequestID = id
	}
	return nil
}

func (r *OvertimeRepository) insertEntries(ctx context.Context, requestID int64, entries []entity.OvertimeEntry) error {
	exec := sqlite.ExecutorFrom(ctx, r.db)
	for _, e := range entries {
		_, err := exec.ExecContext(ctx,
			`INSERT INTO overtime_entries (request_id, day, start_time, end_time) VALUES (?, ?, ?, ?)`,
			requestID, e.Day, e.Start, e.End)
		if err != nil {
			r.logger.Error("Failed to insert overtime entry", zap.Error(err), zap.Int64("request_id", requestID))
			return fmt.Errorf("failed to insert overtime entry: %w", err)
		}
	}
	return nil
}

// GetByID retrieves an overtime request by ID
func (r *OvertimeRepository) GetByID(ctx context.Context, id int64) (*entity.OvertimeRequest, error) {
	query := `SELECT ` + overtimeColumns + ` FROM overtime_requests WHERE id = ?`

	request, err := r.scanOne(sqlite.ExecutorFrom(ctx, r.db).QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	request.Entries, err = r.GetEntries(ctx, id)
	return request, err
}

// GetByPublicID retrieves an overtime request by its public identifier
func (r *OvertimeRepository) GetByPublicID(ctx context.Context, publicID string) (*entity.OvertimeRequest, error) {
	query := `SELECT ` + overtimeColumns + ` FROM overtime_requests WHERE public_id = ?`

	request, err := r.scanOne(sqlite.ExecutorFrom(ctx, r.db).QueryRowContext(ctx, query, publicID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	request.Entries, err = r.GetEntries(ctx, request.ID)
	return request, err
}

// PersistStageTransition applies the stage patch and returns the stored
// row as the new source of truth.
func (r *OvertimeRepository) PersistStageTransition(ctx context.Context, id int64, patch port.OvertimeStagePatch) (*entity.OvertimeRequest, error) {
	sets := []string{"updated_at = CURRENT_TIMESTAMP"}
	args := []interface{}{}

	if patch.AssistantReview != nil {
		sets = append(sets, "assistant_review = ?")
		args = append(args, patch.AssistantReview.String())
	}
	if patch.BossApproval != nil {
		sets = append(sets, "boss_approval = ?")
		args = append(args, patch.BossApproval.String())
	}
	if patch.HRApproval != nil {
		sets = append(sets, "hr_approval = ?")
		args = append(args, patch.HRApproval.String())
	}
	if patch.AccountingReview != nil {
		sets = append(sets, "accounting_review = ?")
		args = append(args, patch.AccountingReview.String())
	}
	if patch.Locked != nil {
		sets = append(sets, "locked = ?")
		args = append(args, *patch.Locked)
	}
	if patch.ReviewNotes != nil {
		sets = append(sets, "review_notes = ?")
		args = append(args, *patch.ReviewNotes)
	}

	query := "UPDATE overtime_requests SET " + strings.Join(sets, ", ") + " WHERE id = ?"
	args = append(args, id)

	if _, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query, args...); err != nil {
		r.logger.Error("Failed to persist overtime stage transition", zap.Error(err), zap.Int64("id", id))
		return nil, fmt.Errorf("failed to persist stage transition: %w", err)
	}

	request, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if request == nil {
		return nil, fmt.Errorf("overtime request %d vanished during transition", id)
	}
	return request, nil
}

// UpdateDetails rewrites the editable fields and replaces the worked
// entries
func (r *OvertimeRepository) UpdateDetails(ctx context.Context, request *entity.OvertimeRequest) error {
	exec := sqlite.ExecutorFrom(ctx, r.db)

	_, err := exec.ExecContext(ctx,
		`UPDATE overtime_requests SET reason = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		request.Reason, request.ID)
	if err != nil {
		r.logger.Error("Failed to update overtime request", zap.Error(err), zap.Int64("id", request.ID))
		return fmt.Errorf("failed to update overtime request: %w", err)
	}

	if _, err := exec.ExecContext(ctx, `DELETE FROM overtime_entries WHERE request_id = ?`, request.ID); err != nil {
		return fmt.Errorf("failed to replace overtime entries: %w", err)
	}
	return r.insertEntries(ctx, request.ID, request.Entries)
}

// GetEntries returns the worked entries of a request in day order
func (r *OvertimeRepository) GetEntries(ctx context.Context, requestID int64) ([]entity.OvertimeEntry, error) {
	query := `
		SELECT id, request_id, day, start_time, end_time
		FROM overtime_entries WHERE request_id = ? ORDER BY day, start_time
	`

	rows, err := sqlite.ExecutorFrom(ctx, r.db).QueryContext(ctx, query, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to list overtime entries: %w", err)
	}
	defer rows.Close()

	var entries []entity.OvertimeEntry
	for rows.Next() {
		var e entity.OvertimeEntry
		if err := rows.Scan(&e.ID, &e.RequestID, &e.Day, &e.Start, &e.End); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// ListByCreator returns the creator's own requests, newest first
func (r *OvertimeRepository) ListByCreator(ctx context.Context, email string, limit, offset int) ([]*entity.OvertimeRequest, error) {
	query := `SELECT ` + overtimeColumns + `
		FROM overtime_requests WHERE creator_email = ?
		ORDER BY submitted_at DESC LIMIT ? OFFSET ?`
	return r.list(ctx, query, strings.ToLower(email), limit, offset)
}

// ListByDepartment returns a department's requests, newest first
func (r *OvertimeRepository) ListByDepartment(ctx context.Context, departmentID string, limit, offset int) ([]*entity.OvertimeRequest, error) {
	query := `SELECT ` + overtimeColumns + `
		FROM overtime_requests WHERE department_id = ?
		ORDER BY submitted_at DESC LIMIT ? OFFSET ?`
	return r.list(ctx, query, departmentID, limit, offset)
}

// ListAll returns every request, newest first. Administrator scope.
func (r *OvertimeRepository) ListAll(ctx context.Context, limit, offset int) ([]*entity.OvertimeRequest, error) {
	query := `SELECT ` + overtimeColumns + `
		FROM overtime_requests ORDER BY submitted_at DESC LIMIT ? OFFSET ?`
	return r.list(ctx, query, limit, offset)
}

func (r *OvertimeRepository) list(ctx context.Context, query string, args ...interface{}) ([]*entity.OvertimeRequest, error) {
	rows, err := sqlite.ExecutorFrom(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list overtime requests", zap.Error(err))
		return nil, fmt.Errorf("failed to list overtime requests: %w", err)
	}
	defer rows.Close()

	var requests []*entity.OvertimeRequest
	for rows.Next() {
		request, err := r.scanOne(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, request)
	}

	return requests, rows.Err()
}

func (r *OvertimeRepository) scanOne(row rowScanner) (*entity.OvertimeRequest, error) {
	var request entity.OvertimeRequest
	var assistant, boss, hr, accounting string

	err := row.Scan(
		&request.ID,
		&request.PublicID,
		&request.CreatorEmail,
		&request.DepartmentID,
		&request.Reason,
		&assistant,
		&boss,
		&hr,
		&accounting,
		&request.Locked,
		&request.ReviewNotes,
		&request.SubmittedAt,
		&request.CreatedAt,
		&request.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if request.AssistantReview, err = entity.ParseStageFlag(assistant); err != nil {
		return nil, err
	}
	if request.BossApproval, err = entity.ParseStageFlag(boss); err != nil {
		return nil, err
	}
	if request.HRApproval, err = entity.ParseStageFlag(hr); err != nil {
		return nil, err
	}
	if request.AccountingReview, err = entity.ParseStageFlag(accounting); err != nil {
		return nil, err
	}

	return &request, nil
}

// Verify interface compliance
var _ port.OvertimeRepository = (*OvertimeRepository)(nil)
