package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/evidence-portal/internal/domain/pricing"
	qb "github.com/riskibarqy/evidence-portal/internal/platform/querybuilder"
)

const priceCacheUpsertSuffix = "ON CONFLICT (market_hash_name) DO UPDATE SET price_cents = EXCLUDED.price_cents, updated_at = EXCLUDED.updated_at"

type PriceCacheRepository struct {
	db *sqlx.DB
}

func NewPriceCacheRepository(db *sqlx.DB) *PriceCacheRepository {
	return &PriceCacheRepository{db: db}
}

func (r *PriceCacheRepository) ListFresh(ctx context.Context, names []string, since time.Time) ([]pricing.Entry, error) {
	if len(names) == 0 {
		return nil, nil
	}

	query, args, err := qb.Select("market_hash_name", "price_cents", "updated_at").From("price_cache").
		Where(
			qb.AnyOf("market_hash_name", names),
			qb.Gte("updated_at", since.UTC()),
		).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select price cache query: %w", err)
	}

	var rows []priceCacheTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select price cache: %w", err)
	}

	out := make([]pricing.Entry, 0, len(rows))
	for _, row := range rows {
		out = append(out, pricing.Entry{
			MarketHashName: row.MarketHashName,
			PriceCents:     row.PriceCents,
			UpdatedAt:      row.UpdatedAt.UTC(),
		})
	}
	return out, nil
}

func (r *PriceCacheRepository) Upsert(ctx context.Context, entries []pricing.Entry) error {
	if len(entries) == 0 {
		return nil
	}

	models := make([]priceCacheTableModel, 0, len(entries))
	for _, e := range entries {
		models = append(models, priceCacheTableModel{
			MarketHashName: e.MarketHashName,
			PriceCents:     e.PriceCents,
			UpdatedAt:      e.UpdatedAt.UTC(),
		})
	}

	query, args, err := qb.InsertModels("price_cache", models, priceCacheUpsertSuffix)
	if err != nil {
		return fmt.Errorf("build upsert price cache query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert price cache: %w", err)
	}
	return nil
}
