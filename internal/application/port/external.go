package port

import (
	"context"

	"github.com/grupoandino/portal-approvals/internal/domain/entity"
)

// HourCalculator is the external hour-splitting collaborator. Its totals
// are consumed for display only and never feed an authorization decision.
type HourCalculator interface {
	ComputeHourBreakdown(ctx context.Context, entries []entity.OvertimeEntry) (*entity.HourBreakdown, error)
}
