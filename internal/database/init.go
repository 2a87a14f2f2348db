package database

import (
	"context"
	"fmt"
)

// schema is applied idempotently at startup. Persistence is a caching
// optimization: the in-memory store remains authoritative for detection.
const schema = `
CREATE TABLE IF NOT EXISTS events (
	event_id     TEXT PRIMARY KEY,
	sport        TEXT NOT NULL DEFAULT '',
	display_name TEXT NOT NULL DEFAULT '',
	updated_at   TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS outcomes (
	id         UUID PRIMARY KEY,
	event_id   TEXT NOT NULL REFERENCES events(event_id) ON DELETE CASCADE,
	source     TEXT NOT NULL,
	bookmaker  TEXT NOT NULL,
	label      TEXT NOT NULL,
	odds       DOUBLE PRECISION NOT NULL,
	link       TEXT NOT NULL DEFAULT '',
	updated_at TIMESTAMPTZ NOT NULL,
	UNIQUE (event_id, source, bookmaker, label)
);

CREATE INDEX IF NOT EXISTS idx_outcomes_event ON outcomes(event_id);
CREATE INDEX IF NOT EXISTS idx_outcomes_source ON outcomes(source);

CREATE TABLE IF NOT EXISTS surebet_snapshots (
	id                 UUID PRIMARY KEY,
	event_id           TEXT NOT NULL,
	display_name       TEXT NOT NULL DEFAULT '',
	sport              TEXT NOT NULL DEFAULT '',
	total_inverse_odds DOUBLE PRECISION NOT NULL,
	profit_percentage  DOUBLE PRECISION NOT NULL,
	outcomes           JSONB NOT NULL,
	detected_at        TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_surebet_snapshots_profit ON surebet_snapshots(profit_percentage DESC);
`

// InitSchema creates the tables if they do not exist
func (db *DB) InitSchema(ctx context.Context) error {
	if _, err := db.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}
