package migrations

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Every migrator must be idempotent: Migrate runs the whole list on each
// startup and relies on the guards here rather than a version table.
var miglist = []migrator{
	{
		name: "initial_schema",
		fn: func(ctx context.Context, pool *pgxpool.Pool) error {
			stmts := []string{
				`CREATE TABLE IF NOT EXISTS workspaces (
					id TEXT PRIMARY KEY,
					name TEXT NOT NULL,
					api_token TEXT NOT NULL UNIQUE,
					reminder_policy JSONB,
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
				)`,
				`CREATE TABLE IF NOT EXISTS users (
					user_id TEXT PRIMARY KEY,
					workspace_id TEXT NOT NULL REFERENCES workspaces (id),
					api_token TEXT NOT NULL UNIQUE,
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
				)`,
				`CREATE TABLE IF NOT EXISTS appointments (
					id TEXT PRIMARY KEY,
					workspace_id TEXT NOT NULL REFERENCES workspaces (id),
					trainer_id TEXT NOT NULL,
					student_id TEXT NOT NULL,
					starts_at TIMESTAMPTZ NOT NULL,
					ends_at TIMESTAMPTZ NOT NULL,
					status TEXT NOT NULL DEFAULT 'scheduled',
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
				)`,
				`CREATE TABLE IF NOT EXISTS appointment_reminders (
					id TEXT PRIMARY KEY,
					workspace_id TEXT NOT NULL REFERENCES workspaces (id),
					appointment_id TEXT NOT NULL REFERENCES appointments (id),
					channel TEXT NOT NULL DEFAULT 'whatsapp',
					scheduled_for TIMESTAMPTZ NOT NULL,
					status TEXT NOT NULL DEFAULT 'pending',
					attempt_count INT NOT NULL DEFAULT 0,
					last_attempted_at TIMESTAMPTZ,
					next_retry_at TIMESTAMPTZ,
					escalated_at TIMESTAMPTZ,
					failure_reason TEXT,
					payload JSONB NOT NULL DEFAULT '{}',
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
				)`,
			}

			for _, stmt := range stmts {
				if _, err := pool.Exec(ctx, stmt); err != nil {
					return err
				}
			}

			return nil
		},
	},
	{
		name: "manual_send_confirmation",
		fn: func(ctx context.Context, pool *pgxpool.Pool) error {
			for _, col := range []string{"opened_at TIMESTAMPTZ", "marked_sent_at TIMESTAMPTZ"} {
				if _, err := pool.Exec(ctx, "ALTER TABLE appointment_reminders ADD COLUMN IF NOT EXISTS "+col); err != nil {
					return err
				}
			}

			_, err := pool.Exec(ctx, "ALTER TABLE appointment_reminders ADD COLUMN IF NOT EXISTS marked_sent_by_user_id TEXT")

			return err
		},
	},
	{
		name: "reminder_indexes",
		fn: func(ctx context.Context, pool *pgxpool.Pool) error {
			stmts := []string{
				"CREATE INDEX IF NOT EXISTS appointment_reminders_due_idx ON appointment_reminders (status, scheduled_for)",
				"CREATE INDEX IF NOT EXISTS appointment_reminders_workspace_idx ON appointment_reminders (workspace_id, status)",
				"CREATE INDEX IF NOT EXISTS appointment_reminders_retry_idx ON appointment_reminders (status, next_retry_at)",
				"CREATE INDEX IF NOT EXISTS appointments_starts_at_idx ON appointments (starts_at)",
			}

			for _, stmt := range stmts {
				if _, err := pool.Exec(ctx, stmt); err != nil {
					return err
				}
			}

			return nil
		},
	},
}
