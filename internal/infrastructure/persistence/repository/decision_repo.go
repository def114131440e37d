package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/grupoandino/portal-approvals/internal/application/port"
	"github.com/grupoandino/portal-approvals/internal/domain/entity"
	"github.com/grupoandino/portal-approvals/internal/infrastructure/persistence/sqlite"
)

// DecisionRepository implements port.DecisionRepository
type DecisionRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewDecisionRepository creates a new decision repository
func NewDecisionRepository(db *sql.DB, logger *zap.Logger) port.DecisionRepository {
	return &DecisionRepository{db: db, logger: logger}
}

// Create appends one record to the audit trail
func (r *DecisionRepository) Create(ctx context.Context, record *entity.DecisionRecord) error {
	query := `
		INSERT INTO decision_records (
			request_type, request_id, actor_email, stage, approval_type,
			action, previous_status, new_status, notes, timestamp
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query,
		string(record.RequestType),
		record.RequestID,
		record.ActorEmail,
		record.Stage,
		record.ApprovalType,
		record.Action,
		record.PreviousStatus,
		record.NewStatus,
		record.Notes,
		record.Timestamp,
	)
	if err != nil {
		r.logger.Error("Failed to create decision record", zap.Error(err))
		return fmt.Errorf("failed to create decision record: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	record.ID = id
	return nil
}

// GetByRequest returns a request's audit trail in decision order
func (r *DecisionRepository) GetByRequest(ctx context.Context, requestType entity.RequestType, requestID int64) ([]*entity.DecisionRecord, error) {
	query := `
		SELECT id, request_type, request_id, actor_email, stage, approval_type,
			action, previous_status, new_status, notes, timestamp
		FROM decision_records
		WHERE request_type = ? AND request_id = ?
		ORDER BY timestamp, id
	`

	rows, err := sqlite.ExecutorFrom(ctx, r.db).QueryContext(ctx, query, string(requestType), requestID)
	if err != nil {
		r.logger.Error("Failed to load decision records", zap.Error(err))
		return nil, fmt.Errorf("failed to load decision records: %w", err)
	}
	defer rows.Close()

	var records []*entity.DecisionRecord
	for rows.Next() {
		var rec entity.DecisionRecord
		err := rows.Scan(
			&rec.ID,
			&rec.RequestType,
			&rec.RequestID,
			&rec.ActorEmail,
			&rec.Stage,
			&rec.ApprovalType,
			&rec.Action,
			&rec.PreviousStatus,
			&rec.NewStatus,
			&rec.Notes,
			&rec.Timestamp,
		)
		if err != nil {
			return nil, err
		}
		records = append(records, &rec)
	}

	return records, rows.Err()
}

// Verify interface compliance
var _ port.DecisionRepository = (*DecisionRepository)(nil)
