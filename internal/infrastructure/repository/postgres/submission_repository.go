package postgres

import (
	"context"
	"fmt"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/evidence-portal/internal/domain/demo"
	"github.com/riskibarqy/evidence-portal/internal/domain/inventory"
	"github.com/riskibarqy/evidence-portal/internal/domain/submission"
	qb "github.com/riskibarqy/evidence-portal/internal/platform/querybuilder"
)

var submissionColumns = []string{
	"id",
	"created_at",
	"demo_object_key",
	"demo_original_filename",
	"suspected_steamid64",
	"map",
	"match_stats",
	"match_stats_updated_at",
	"inventory_value_cents",
	"inventory_value_currency",
	"inventory_value_error",
	"inventory_top_items",
	"inventory_item_count",
	"inventory_value_updated_at",
}

type SubmissionRepository struct {
	db *sqlx.DB
}

func NewSubmissionRepository(db *sqlx.DB) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

func (r *SubmissionRepository) GetByID(ctx context.Context, id string) (submission.Submission, bool, error) {
	query, args, err := qb.Select(submissionColumns...).From("submissions").
		Where(qb.Eq("id", id)).
		ToSQL()
	if err != nil {
		return submission.Submission{}, false, fmt.Errorf("build get submission query: %w", err)
	}

	var row submissionTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return submission.Submission{}, false, nil
		}
		return submission.Submission{}, false, fmt.Errorf("get submission: %w", err)
	}

	out := submission.Submission{
		ID:                   row.ID,
		DemoObjectKey:        row.DemoObjectKey.String,
		DemoOriginalFilename: row.DemoOriginalFilename.String,
		SuspectedSteamID64:   row.SuspectedSteamID64.String,
		Map:                  row.Map.String,
		MatchStatsUpdatedAt:  nullTimePtr(row.MatchStatsUpdatedAt),
	}
	if len(row.MatchStats) > 0 {
		var stats demo.MatchStatisticsView
		if err := sonic.Unmarshal(row.MatchStats, &stats); err != nil {
			return submission.Submission{}, false, fmt.Errorf("decode submission match stats: %w", err)
		}
		out.MatchStats = &stats
	}
	if row.InventoryValueUpdatedAt.Valid {
		topItems, err := decodeTopItems(row.InventoryTopItems)
		if err != nil {
			return submission.Submission{}, false, err
		}
		out.Inventory = &inventory.Valuation{
			SteamID64:  row.SuspectedSteamID64.String,
			ValueCents: nullInt64Ptr(row.InventoryValueCents),
			Currency:   nullStringPtr(row.InventoryValueCurrency),
			Error:      nullStringPtr(row.InventoryValueError),
			TopItems:   topItems,
			ItemCount:  int(row.InventoryItemCount.Int64),
			UpdatedAt:  row.InventoryValueUpdatedAt.Time.UTC(),
		}
	}
	return out, true, nil
}

func (r *SubmissionRepository) SaveMatchStats(ctx context.Context, id string, stats demo.MatchStatisticsView, at time.Time) error {
	payload, err := jsonbParam(stats)
	if err != nil {
		return err
	}

	query, args, err := qb.Update("submissions").
		Set("match_stats", payload).
		Set("match_stats_updated_at", at.UTC()).
		Where(qb.Eq("id", id)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update submission match stats query: %w", err)
	}
	return r.execUpdate(ctx, id, "match stats", query, args)
}

func (r *SubmissionRepository) SaveInventoryValuation(ctx context.Context, id string, valuation inventory.Valuation) error {
	topItems, err := jsonbParam(nonNilTopItems(valuation.TopItems))
	if err != nil {
		return err
	}

	query, args, err := qb.Update("submissions").
		Set("inventory_value_cents", int64PtrToNull(valuation.ValueCents)).
		Set("inventory_value_currency", stringPtrToNull(valuation.Currency)).
		Set("inventory_value_error", stringPtrToNull(valuation.Error)).
		Set("inventory_top_items", topItems).
		Set("inventory_item_count", valuation.ItemCount).
		Set("inventory_value_updated_at", valuation.UpdatedAt.UTC()).
		Where(qb.Eq("id", id)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update submission inventory query: %w", err)
	}
	return r.execUpdate(ctx, id, "inventory", query, args)
}

func (r *SubmissionRepository) execUpdate(ctx context.Context, id, what, query string, args []any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update submission %s: %w", what, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update submission %s rows affected: %w", what, err)
	}
	if affected == 0 {
		return fmt.Errorf("update submission %s: submission id=%s not found", what, id)
	}
	return nil
}
