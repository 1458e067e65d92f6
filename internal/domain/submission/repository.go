package submission

import (
	"context"
	"time"

	"github.com/riskibarqy/evidence-portal/internal/domain/demo"
	"github.com/riskibarqy/evidence-portal/internal/domain/inventory"
)

type Repository interface {
	GetByID(ctx context.Context, id string) (Submission, bool, error)
	SaveMatchStats(ctx context.Context, id string, stats demo.MatchStatisticsView, at time.Time) error
	SaveInventoryValuation(ctx context.Context, id string, valuation inventory.Valuation) error
}
