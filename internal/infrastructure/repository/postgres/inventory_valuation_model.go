package postgres

import (
	"database/sql"
	"time"
)

type inventoryValuationTableModel struct {
	SteamID64  string         `db:"steamid64"`
	ValueCents sql.NullInt64  `db:"value_cents"`
	Currency   sql.NullString `db:"currency"`
	Error      sql.NullString `db:"error"`
	TopItems   []byte         `db:"top_items"`
	ItemCount  int            `db:"item_count"`
	UpdatedAt  time.Time      `db:"updated_at"`
}

type inventoryValuationInsertModel struct {
	SteamID64  string         `db:"steamid64"`
	ValueCents sql.NullInt64  `db:"value_cents"`
	Currency   sql.NullString `db:"currency"`
	Error      sql.NullString `db:"error"`
	TopItems   any            `db:"top_items"`
	ItemCount  int            `db:"item_count"`
	UpdatedAt  time.Time      `db:"updated_at"`
}
