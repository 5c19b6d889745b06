package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schemaStatements holds the DDL for the three bq_ tables plus the indexes
// spec.md requires and the triggers that emit a NOTIFY whenever a row
// transitions into PENDING. Statements run in order inside one transaction
// so CreateTables is all-or-nothing.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS bq_tasks (
		id UUID PRIMARY KEY,
		state TEXT NOT NULL,
		channel TEXT NOT NULL,
		module TEXT NOT NULL,
		func_name TEXT NOT NULL,
		kwargs JSONB NOT NULL DEFAULT '{}'::jsonb,
		result JSONB,
		error_message TEXT,
		worker_id UUID,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		scheduled_at TIMESTAMPTZ,
		parent_id UUID REFERENCES bq_tasks(id)
	)`,
	`CREATE INDEX IF NOT EXISTS bq_tasks_state_idx ON bq_tasks (state)`,
	`CREATE INDEX IF NOT EXISTS bq_tasks_channel_idx ON bq_tasks (channel)`,

	`CREATE TABLE IF NOT EXISTS bq_workers (
		id UUID PRIMARY KEY,
		state TEXT NOT NULL,
		name TEXT NOT NULL,
		channels TEXT[] NOT NULL DEFAULT '{}',
		last_heartbeat TIMESTAMPTZ NOT NULL DEFAULT now(),
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS bq_workers_state_idx ON bq_workers (state)`,
	`CREATE INDEX IF NOT EXISTS bq_workers_last_heartbeat_idx ON bq_workers (last_heartbeat)`,

	`CREATE TABLE IF NOT EXISTS bq_events (
		id UUID PRIMARY KEY,
		type TEXT NOT NULL,
		task_id UUID NOT NULL REFERENCES bq_tasks(id),
		error_message TEXT,
		scheduled_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS bq_events_type_idx ON bq_events (type)`,

	`CREATE OR REPLACE FUNCTION bq_notify_pending_task() RETURNS trigger AS $$
	BEGIN
		PERFORM pg_notify(NEW.channel, '');
		RETURN NEW;
	END;
	$$ LANGUAGE plpgsql`,

	`DROP TRIGGER IF EXISTS bq_tasks_notify_insert ON bq_tasks`,
	`CREATE TRIGGER bq_tasks_notify_insert
		AFTER INSERT ON bq_tasks
		FOR EACH ROW
		WHEN (NEW.state = 'PENDING')
		EXECUTE FUNCTION bq_notify_pending_task()`,

	`DROP TRIGGER IF EXISTS bq_tasks_notify_update ON bq_tasks`,
	`CREATE TRIGGER bq_tasks_notify_update
		AFTER UPDATE ON bq_tasks
		FOR EACH ROW
		WHEN (NEW.state = 'PENDING' AND OLD.state IS DISTINCT FROM NEW.state)
		EXECUTE FUNCTION bq_notify_pending_task()`,
}

// CreateTables creates the bq_tasks, bq_workers, and bq_events tables and
// their indexes if they do not already exist, and (re)creates the notify
// function and triggers. NotifySet still dedups notifications issued
// explicitly within application code (e.g. on dead-worker reschedule); the
// trigger here covers INSERT/UPDATE so a bare SQL client can produce
// eligible tasks without going through the Go API at all.
func CreateTables(ctx context.Context, pool *pgxpool.Pool) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("db: begin create tables: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, stmt := range schemaStatements {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("db: exec schema statement: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("db: commit create tables: %w", err)
	}
	return nil
}
