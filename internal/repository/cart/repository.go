package cart

import (
	"context"

	"cartvault/internal/domain"
)

// Store is the storage contract every cart backend satisfies identically.
//
// Load returns (nil, nil) for an absent id; absence is never an error. Save is
// a full-record upsert keyed by the cart id, replacing any existing record in
// whole. Delete is idempotent and silent for absent ids. FetchMany filters,
// sorts and truncates per domain.CartQuery. Backend failures surface as
// *domain.StorageError; backend-native error types never cross this boundary.
type Store interface {
	Load(ctx context.Context, id domain.CartID) (*domain.Cart, error)
	Save(ctx context.Context, c domain.Cart) error
	Delete(ctx context.Context, id domain.CartID) error
	FetchMany(ctx context.Context, query domain.CartQuery) ([]domain.Cart, error)
}

// SnapshotReader is the migration-only full-dump capability. It is kept out of
// Store so runtime consumers cannot grow a dependency on full-table scans;
// only the migration runner reads it, and only against a migration source.
type SnapshotReader interface {
	FetchAll(ctx context.Context) ([]domain.Cart, error)
}

// SnapshotStore is the combined contract a migration source must provide.
type SnapshotStore interface {
	Store
	SnapshotReader
}
