package ledger

import (
	"context"

	"cartvault/internal/domain"
)

// DefaultNamespace prefixes ledger keys when the installation does not pick
// its own.
const DefaultNamespace = "cartvault"

// Ledger records which one-time migrations have completed. A mark is a
// declaration of durable completion: once set it survives restarts, and the
// runner will never copy that migration's data again unless the mark is
// explicitly reset.
type Ledger interface {
	IsCompleted(ctx context.Context, id domain.MigrationID) (bool, error)
	MarkCompleted(ctx context.Context, id domain.MigrationID) error
	Reset(ctx context.Context, id domain.MigrationID) error
}

// Key derives the namespaced ledger key for a migration. Several
// installations can share one medium as long as their namespaces differ.
func Key(namespace string, id domain.MigrationID) string {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return namespace + ".migration." + string(id)
}
