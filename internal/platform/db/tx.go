package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// BeginSnapshot opens a read-only repeatable-read transaction. Every query
// issued through it observes the same committed ledger state, which keeps
// the multiple passes of one report mutually consistent.
func BeginSnapshot(ctx context.Context, pool *pgxpool.Pool) (pgx.Tx, error) {
	tx, err := pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, fmt.Errorf("platform/db: begin snapshot: %w", err)
	}
	return tx, nil
}
