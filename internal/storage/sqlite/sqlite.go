// Package sqlite stores simulation runs in a single local database file.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"solana-memebot-sim/internal/storage"
)

// Schema creates every table used by the SQLite stores.
const Schema = `
CREATE TABLE IF NOT EXISTS token_events (
	run_id           TEXT    NOT NULL,
	token_id         TEXT    NOT NULL,
	timestamp_ms     INTEGER NOT NULL,
	market_cap_usd   REAL    NOT NULL,
	dev_holding      REAL    NOT NULL,
	liquidity_usd    REAL    NOT NULL,
	holders          INTEGER NOT NULL,
	price            REAL    NOT NULL,
	mint_upgradeable INTEGER NOT NULL,
	freeze_authority INTEGER NOT NULL,
	supply_spike     INTEGER NOT NULL,
	known_rugger     INTEGER NOT NULL,
	momentum         INTEGER NOT NULL,
	graduated        INTEGER NOT NULL,
	score            REAL    NOT NULL,
	PRIMARY KEY (run_id, token_id, timestamp_ms)
);
CREATE INDEX IF NOT EXISTS idx_token_events_run_time ON token_events (run_id, timestamp_ms, token_id);

CREATE TABLE IF NOT EXISTS trades (
	run_id            TEXT    NOT NULL,
	trade_id          TEXT    NOT NULL,
	token_id          TEXT    NOT NULL,
	entry_price       REAL    NOT NULL,
	quantity          REAL    NOT NULL,
	capital_committed TEXT    NOT NULL,
	opened_at_ms      INTEGER NOT NULL,
	open_tick         INTEGER NOT NULL,
	entry_score       REAL    NOT NULL,
	exit_price        REAL    NOT NULL,
	closed_at_ms      INTEGER NOT NULL,
	close_tick        INTEGER NOT NULL,
	exit_reason       TEXT    NOT NULL,
	status            TEXT    NOT NULL,
	realized_pnl      TEXT    NOT NULL,
	return_pct        REAL    NOT NULL,
	peak_price        REAL    NOT NULL,
	hold_ticks        INTEGER NOT NULL,
	PRIMARY KEY (run_id, trade_id)
);

CREATE TABLE IF NOT EXISTS run_metadata (
	run_id               TEXT PRIMARY KEY,
	mode                 TEXT    NOT NULL,
	preset               TEXT    NOT NULL,
	seed                 INTEGER NOT NULL,
	source_run_id        TEXT    NOT NULL,
	started_at_ns        INTEGER NOT NULL,
	finished_at_ns       INTEGER NOT NULL,
	ticks                INTEGER NOT NULL,
	tick_interval_ms     INTEGER NOT NULL,
	start_time_ms        INTEGER NOT NULL,
	observations         INTEGER NOT NULL,
	skipped_observations INTEGER NOT NULL,
	admitted             INTEGER NOT NULL,
	rejections           TEXT    NOT NULL,
	capacity_rejections  INTEGER NOT NULL,
	capital_rejections   INTEGER NOT NULL,
	trades_closed        INTEGER NOT NULL,
	wins                 INTEGER NOT NULL,
	losses               INTEGER NOT NULL,
	initial_bankroll     TEXT    NOT NULL,
	final_equity         TEXT    NOT NULL,
	realized_pnl         TEXT    NOT NULL,
	max_open_positions   INTEGER NOT NULL,
	ledger_failures      INTEGER NOT NULL,
	digest               TEXT    NOT NULL,
	config_json          TEXT    NOT NULL
);
`

// DB is an open SQLite database with the schema applied.
type DB struct {
	db *sql.DB
}

// Open opens (or creates) the database file at path and applies Schema.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// sqlite allows a single writer
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply sqlite schema: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the database.
func (d *DB) Close() error {
	return d.db.Close()
}

// Stores returns the stores backed by this database.
func (d *DB) Stores() storage.Stores {
	return storage.Stores{
		Observations: NewObservationStore(d),
		Trades:       NewTradeStore(d),
		Runs:         NewRunStore(d),
	}
}

// isDuplicateKeyError checks if error is a primary key or unique violation.
func isDuplicateKeyError(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func parseDecimal(col, s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse %s %q: %w", col, s, err)
	}
	return d, nil
}

func fromUnixNano(ns int64) time.Time {
	return time.Unix(0, ns).UTC()
}
