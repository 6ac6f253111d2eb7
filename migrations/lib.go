package migrations

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

func tableExists(ctx context.Context, pool *pgxpool.Pool, name string) (bool, error) {
	var exists bool
	err := pool.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name = $1)", name).Scan(&exists)

	return exists, err
}

func colExists(ctx context.Context, pool *pgxpool.Pool, table, col string) (bool, error) {
	var exists bool
	err := pool.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM information_schema.columns WHERE table_name = $1 AND column_name = $2)", table, col).Scan(&exists)

	return exists, err
}

type migrator struct {
	name string
	fn   func(context.Context, *pgxpool.Pool) error
}
