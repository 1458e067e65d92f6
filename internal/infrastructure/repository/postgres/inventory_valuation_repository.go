package postgres

import (
	"context"
	"fmt"

	sonic "github.com/bytedance/sonic"
	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/evidence-portal/internal/domain/inventory"
	qb "github.com/riskibarqy/evidence-portal/internal/platform/querybuilder"
)

const inventoryValuationUpsertSuffix = `ON CONFLICT (steamid64) DO UPDATE SET
value_cents = EXCLUDED.value_cents,
currency = EXCLUDED.currency,
error = EXCLUDED.error,
top_items = EXCLUDED.top_items,
item_count = EXCLUDED.item_count,
updated_at = EXCLUDED.updated_at`

type InventoryValuationRepository struct {
	db *sqlx.DB
}

func NewInventoryValuationRepository(db *sqlx.DB) *InventoryValuationRepository {
	return &InventoryValuationRepository{db: db}
}

func (r *InventoryValuationRepository) GetBySteamID(ctx context.Context, steamID64 string) (inventory.Valuation, bool, error) {
	query, args, err := qb.Select("*").From("inventory_valuations").
		Where(qb.Eq("steamid64", steamID64)).
		ToSQL()
	if err != nil {
		return inventory.Valuation{}, false, fmt.Errorf("build get inventory valuation query: %w", err)
	}

	var row inventoryValuationTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return inventory.Valuation{}, false, nil
		}
		return inventory.Valuation{}, false, fmt.Errorf("get inventory valuation: %w", err)
	}

	topItems, err := decodeTopItems(row.TopItems)
	if err != nil {
		return inventory.Valuation{}, false, err
	}

	return inventory.Valuation{
		SteamID64:  row.SteamID64,
		ValueCents: nullInt64Ptr(row.ValueCents),
		Currency:   nullStringPtr(row.Currency),
		Error:      nullStringPtr(row.Error),
		TopItems:   topItems,
		ItemCount:  row.ItemCount,
		UpdatedAt:  row.UpdatedAt.UTC(),
	}, true, nil
}

func (r *InventoryValuationRepository) Upsert(ctx context.Context, valuation inventory.Valuation) error {
	topItems, err := jsonbParam(nonNilTopItems(valuation.TopItems))
	if err != nil {
		return err
	}

	model := inventoryValuationInsertModel{
		SteamID64:  valuation.SteamID64,
		ValueCents: int64PtrToNull(valuation.ValueCents),
		Currency:   stringPtrToNull(valuation.Currency),
		Error:      stringPtrToNull(valuation.Error),
		TopItems:   topItems,
		ItemCount:  valuation.ItemCount,
		UpdatedAt:  valuation.UpdatedAt.UTC(),
	}

	query, args, err := qb.InsertModel("inventory_valuations", model, inventoryValuationUpsertSuffix)
	if err != nil {
		return fmt.Errorf("build upsert inventory valuation query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert inventory valuation: %w", err)
	}
	return nil
}

func decodeTopItems(raw []byte) ([]inventory.TopItem, error) {
	items := []inventory.TopItem{}
	if len(raw) == 0 {
		return items, nil
	}
	if err := sonic.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decode top items: %w", err)
	}
	return nonNilTopItems(items), nil
}

func nonNilTopItems(items []inventory.TopItem) []inventory.TopItem {
	if items == nil {
		return []inventory.TopItem{}
	}
	return items
}
