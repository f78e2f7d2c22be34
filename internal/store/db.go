package store

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// DB wraps sql.DB for Postgres using pgx.
type DB struct {
	Client *sql.DB
}

// NewDB creates a Postgres connection with sane defaults.
func NewDB(connString string) (*DB, error) {
	db, err := sql.Open("pgx", connString)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)
	return &DB{Client: db}, db.PingContext(context.Background())
}

// Healthy verifies database connectivity for the readiness probe.
func (d *DB) Healthy(ctx context.Context) bool {
	if d == nil || d.Client == nil {
		return false
	}
	return d.Client.PingContext(ctx) == nil
}

// Close closes the underlying connection.
func (d *DB) Close() error {
	if d == nil || d.Client == nil {
		return nil
	}
	return d.Client.Close()
}

// EnsureSchema creates the tables the services expect. Safe to call on
// every startup. Statements run one at a time; the pgx driver rejects
// multi-statement Exec.
func (d *DB) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := d.Client.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS participants (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL DEFAULT '',
		email      TEXT NOT NULL DEFAULT '',
		zone       TEXT NOT NULL,
		time_slots TEXT[] NOT NULL,
		interests  TEXT[] NOT NULL,
		tags       TEXT[] NOT NULL DEFAULT '{}',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS staff_accounts (
		id         TEXT PRIMARY KEY,
		username   TEXT UNIQUE NOT NULL,
		pass_hash  TEXT NOT NULL,
		role       TEXT NOT NULL DEFAULT 'staff',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS match_runs (
		id          TEXT PRIMARY KEY,
		started_at  TIMESTAMPTZ NOT NULL,
		finished_at TIMESTAMPTZ,
		pod_count   INT NOT NULL DEFAULT 0,
		report      JSONB NOT NULL DEFAULT '{}'
	)`,
	`CREATE TABLE IF NOT EXISTS pods (
		id         TEXT PRIMARY KEY,
		run_id     TEXT NOT NULL REFERENCES match_runs(id) ON DELETE CASCADE,
		zone       TEXT NOT NULL,
		timeslot   TEXT NOT NULL,
		interests  TEXT[] NOT NULL DEFAULT '{}',
		tags       TEXT[] NOT NULL DEFAULT '{}',
		captain_id TEXT,
		points     INT NOT NULL DEFAULT 0,
		level      INT NOT NULL DEFAULT 0,
		vibe       TEXT NOT NULL DEFAULT 'neutral'
	)`,
	`CREATE TABLE IF NOT EXISTS pod_members (
		pod_id         TEXT NOT NULL REFERENCES pods(id) ON DELETE CASCADE,
		participant_id TEXT NOT NULL,
		position       INT NOT NULL,
		PRIMARY KEY (pod_id, participant_id)
	)`,
	`CREATE TABLE IF NOT EXISTS progress (
		pod_id     TEXT NOT NULL,
		week       INT NOT NULL,
		user_id    TEXT NOT NULL,
		checkins   INT NOT NULL DEFAULT 0,
		points     INT NOT NULL DEFAULT 0,
		quests     TEXT[] NOT NULL DEFAULT '{}',
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (pod_id, week, user_id)
	)`,
	`CREATE TABLE IF NOT EXISTS badge_awards (
		pod_id     TEXT NOT NULL,
		badge_id   TEXT NOT NULL,
		awarded_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (pod_id, badge_id)
	)`,
}
