package ledger

import (
	"context"

	"cartvault/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresLedger stores completion marks as rows in migration_ledger. Row
// present means completed; completed_at is kept for operators, not read back.
type PostgresLedger struct {
	pool      *pgxpool.Pool
	namespace string
}

func NewPostgres(pool *pgxpool.Pool, namespace string) *PostgresLedger {
	return &PostgresLedger{pool: pool, namespace: namespace}
}

func (l *PostgresLedger) IsCompleted(ctx context.Context, id domain.MigrationID) (bool, error) {
	const q = `
SELECT EXISTS (SELECT 1 FROM migration_ledger WHERE key = $1)
`
	var completed bool
	if err := l.pool.QueryRow(ctx, q, Key(l.namespace, id)).Scan(&completed); err != nil {
		return false, &domain.StorageError{Op: "ledger read", Err: err}
	}
	return completed, nil
}

func (l *PostgresLedger) MarkCompleted(ctx context.Context, id domain.MigrationID) error {
	const q = `
INSERT INTO migration_ledger (key)
VALUES ($1)
ON CONFLICT (key) DO NOTHING
`
	if _, err := l.pool.Exec(ctx, q, Key(l.namespace, id)); err != nil {
		return &domain.StorageError{Op: "ledger mark", Err: err}
	}
	return nil
}

func (l *PostgresLedger) Reset(ctx context.Context, id domain.MigrationID) error {
	const q = `
DELETE FROM migration_ledger
WHERE key = $1
`
	if _, err := l.pool.Exec(ctx, q, Key(l.namespace, id)); err != nil {
		return &domain.StorageError{Op: "ledger reset", Err: err}
	}
	return nil
}
