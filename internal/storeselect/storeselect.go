// Package storeselect is the single seam where backend choice, migration and
// runtime storage consumers meet. Open returns a ready-to-use store that
// already reflects any migration the configuration asked for.
package storeselect

import (
	"context"
	"fmt"
	"io"
	"log"

	"cartvault/internal/domain"
	cartrepo "cartvault/internal/repository/cart"
	"cartvault/internal/repository/ledger"
	"cartvault/internal/service/migration"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Preference names the backend a deployment wants as its primary store.
type Preference string

const (
	// PreferenceAutomatic picks the document store when a database is
	// configured and falls back to the in-memory store otherwise.
	PreferenceAutomatic Preference = "automatic"
	PreferenceLegacy    Preference = "legacy"
	PreferenceDocument  Preference = "document"
	PreferenceMemory    Preference = "memory"
)

func (p Preference) Valid() bool {
	switch p {
	case PreferenceAutomatic, PreferenceLegacy, PreferenceDocument, PreferenceMemory:
		return true
	}
	return false
}

// Policy decides when the legacy-to-preferred migration runs.
type Policy string

const (
	// PolicyAuto runs the migration during Open.
	PolicyAuto Policy = "auto"
	// PolicyManual defers the migration to an explicit EnsureMigrated call,
	// typically from the migrate command.
	PolicyManual Policy = "manual"
	// PolicyDisabled never migrates.
	PolicyDisabled Policy = "disabled"
)

func (p Policy) Valid() bool {
	switch p {
	case PolicyAuto, PolicyManual, PolicyDisabled:
		return true
	}
	return false
}

type Options struct {
	Preference  Preference
	Policy      Policy
	MigrationID domain.MigrationID

	// Pool is nil when no database is configured.
	Pool     *pgxpool.Pool
	Ledger   ledger.Ledger
	Strategy migration.Strategy
	Logger   *log.Logger
}

// Selection is an opened backend plus its migration handle.
type Selection struct {
	// Store is the runtime storage port for services.
	Store cartrepo.Store

	// Resolved is the concrete preference after automatic resolution.
	Resolved Preference

	runner  *migration.Service
	pending *migration.Migration
}

// Open builds the preferred store and, under the auto policy, runs the
// pending legacy migration first. Configuration mistakes always fail
// construction; a failed migration fails construction only under the abort
// strategy.
func Open(ctx context.Context, opts Options) (*Selection, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	if opts.Preference == "" {
		opts.Preference = PreferenceAutomatic
	}
	if !opts.Preference.Valid() {
		return nil, &domain.ValidationError{Reason: "unsupported storage preference " + string(opts.Preference)}
	}
	if opts.Policy == "" {
		opts.Policy = PolicyAuto
	}
	if !opts.Policy.Valid() {
		return nil, &domain.ValidationError{Reason: "unsupported migration policy " + string(opts.Policy)}
	}
	if opts.Strategy == "" {
		opts.Strategy = migration.StrategyAbort
	}
	if !opts.Strategy.Valid() {
		return nil, &domain.ValidationError{Reason: "unsupported failure strategy " + string(opts.Strategy)}
	}
	if opts.Ledger == nil {
		opts.Ledger = ledger.NewMemory("")
	}

	resolved := opts.Preference
	if resolved == PreferenceAutomatic {
		if opts.Pool != nil {
			resolved = PreferenceDocument
		} else {
			resolved = PreferenceMemory
		}
	}

	store, err := buildStore(resolved, opts.Pool, logger)
	if err != nil {
		return nil, err
	}

	sel := &Selection{
		Store:    store,
		Resolved: resolved,
		runner:   migration.New(opts.Ledger, opts.Strategy, logger),
	}

	// The legacy schema is the only migration source; migrating into it is
	// meaningless, and without a database there is nothing to migrate from.
	if opts.Policy != PolicyDisabled && resolved != PreferenceLegacy && opts.Pool != nil && opts.MigrationID != "" {
		sel.pending = &migration.Migration{
			ID:     opts.MigrationID,
			Source: cartrepo.NewLegacy(opts.Pool),
			Target: store,
		}
	}

	if opts.Policy == PolicyAuto && sel.pending != nil {
		if err := sel.runner.Ensure(ctx, *sel.pending); err != nil {
			return nil, err
		}
	}

	logger.Printf("storage backend %s ready (policy %s)", resolved, opts.Policy)
	return sel, nil
}

// EnsureMigrated runs the pending migration now. It is a no-op when the
// configuration left nothing to migrate.
func (s *Selection) EnsureMigrated(ctx context.Context) error {
	if s.pending == nil {
		return nil
	}
	return s.runner.Ensure(ctx, *s.pending)
}

// ResetMigration clears the pending migration's completion mark so the next
// EnsureMigrated copies again.
func (s *Selection) ResetMigration(ctx context.Context) error {
	if s.pending == nil {
		return nil
	}
	return s.runner.Reset(ctx, s.pending.ID)
}

func buildStore(p Preference, pool *pgxpool.Pool, logger *log.Logger) (cartrepo.Store, error) {
	switch p {
	case PreferenceMemory:
		return cartrepo.NewMemory(), nil
	case PreferenceDocument:
		if pool == nil {
			return nil, fmt.Errorf("document backend needs a database: %w", domain.ErrBackendUnavailable)
		}
		return cartrepo.NewPostgres(pool, logger), nil
	case PreferenceLegacy:
		if pool == nil {
			return nil, fmt.Errorf("legacy backend needs a database: %w", domain.ErrBackendUnavailable)
		}
		return cartrepo.NewLegacy(pool), nil
	}
	return nil, &domain.ValidationError{Reason: "unsupported storage preference " + string(p)}
}
