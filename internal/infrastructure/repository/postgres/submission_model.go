package postgres

import (
	"database/sql"
	"time"
)

// submissionTableModel maps the pipeline-owned columns of submissions.
type submissionTableModel struct {
	ID                      string         `db:"id"`
	CreatedAt               time.Time      `db:"created_at"`
	DemoObjectKey           sql.NullString `db:"demo_object_key"`
	DemoOriginalFilename    sql.NullString `db:"demo_original_filename"`
	SuspectedSteamID64      sql.NullString `db:"suspected_steamid64"`
	Map                     sql.NullString `db:"map"`
	MatchStats              []byte         `db:"match_stats"`
	MatchStatsUpdatedAt     sql.NullTime   `db:"match_stats_updated_at"`
	InventoryValueCents     sql.NullInt64  `db:"inventory_value_cents"`
	InventoryValueCurrency  sql.NullString `db:"inventory_value_currency"`
	InventoryValueError     sql.NullString `db:"inventory_value_error"`
	InventoryTopItems       []byte         `db:"inventory_top_items"`
	InventoryItemCount      sql.NullInt64  `db:"inventory_item_count"`
	InventoryValueUpdatedAt sql.NullTime   `db:"inventory_value_updated_at"`
}
