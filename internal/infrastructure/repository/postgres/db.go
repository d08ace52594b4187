package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func EnsureSchema(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across concurrent startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026083001)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS places (
	id BIGSERIAL PRIMARY KEY,
	name TEXT NOT NULL UNIQUE,
	address TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS events (
	id BIGSERIAL PRIMARY KEY,
	title TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	start_time TIMESTAMPTZ NOT NULL,
	end_time TIMESTAMPTZ NOT NULL,
	type TEXT NOT NULL,
	status TEXT NOT NULL,
	image_url TEXT NOT NULL DEFAULT '',
	benefits TEXT NOT NULL DEFAULT '',
	parent_event_id BIGINT,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_events_title ON events (title);
CREATE INDEX IF NOT EXISTS idx_events_time ON events (start_time, end_time);

CREATE TABLE IF NOT EXISTS event_places (
	event_id BIGINT NOT NULL REFERENCES events(id) ON DELETE CASCADE,
	place_id BIGINT NOT NULL REFERENCES places(id) ON DELETE CASCADE,
	PRIMARY KEY (event_id, place_id)
);

CREATE TABLE IF NOT EXISTS ticket_types (
	id BIGSERIAL PRIMARY KEY,
	event_id BIGINT NOT NULL REFERENCES events(id) ON DELETE CASCADE,
	name TEXT NOT NULL,
	price BIGINT NOT NULL DEFAULT 0,
	quantity INT NOT NULL DEFAULT 0,
	sold INT NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS orders (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	event_id BIGINT NOT NULL REFERENCES events(id),
	ticket_type_id BIGINT NOT NULL REFERENCES ticket_types(id),
	participant_name TEXT NOT NULL,
	participant_email TEXT NOT NULL,
	participant_phone TEXT NOT NULL,
	organization TEXT NOT NULL DEFAULT '',
	notes TEXT NOT NULL DEFAULT '',
	total_price BIGINT NOT NULL DEFAULT 0,
	status TEXT NOT NULL,
	payment_url TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_orders_event ON orders (event_id);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return tx.Commit()
}
