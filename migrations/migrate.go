// Package migrations brings the database schema up to date at startup.
package migrations

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// HasMigrated reports whether the schema is already at the latest shape,
// letting startup skip the migration pass entirely.
func HasMigrated(ctx context.Context, pool *pgxpool.Pool) (bool, error) {
	ok, err := tableExists(ctx, pool, "appointment_reminders")

	if err != nil || !ok {
		return false, err
	}

	return colExists(ctx, pool, "appointment_reminders", "marked_sent_by_user_id")
}

func Migrate(ctx context.Context, pool *pgxpool.Pool, logger *zap.SugaredLogger) error {
	done, err := HasMigrated(ctx, pool)

	if err != nil {
		return fmt.Errorf("migration precheck: %w", err)
	}

	if done {
		return nil
	}

	for i, m := range miglist {
		logger.Info("Running migration", zap.Int("index", i+1), zap.Int("total", len(miglist)), zap.String("name", m.name))

		if err := m.fn(ctx, pool); err != nil {
			return fmt.Errorf("migration %s: %w", m.name, err)
		}
	}

	return nil
}
