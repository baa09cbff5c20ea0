package migration

import (
	"context"
	"fmt"
	"io"
	"log"
	"sync"

	"cartvault/internal/domain"
	cartrepo "cartvault/internal/repository/cart"
	"cartvault/internal/repository/ledger"
)

// Strategy decides what a failed copy pass does to the caller.
type Strategy string

const (
	// StrategyAbort propagates the failure and leaves the ledger unmarked;
	// the next invocation retries the migration in full.
	StrategyAbort Strategy = "abort"

	// StrategyDegrade suppresses the failure and leaves the ledger unmarked.
	// The caller continues with whatever subset was copied plus the
	// destination's pre-existing data; a future invocation still retries.
	StrategyDegrade Strategy = "degrade"
)

func (s Strategy) Valid() bool {
	switch s {
	case StrategyAbort, StrategyDegrade:
		return true
	}
	return false
}

// Migration names one at-most-once copy pass from a source backend into a
// destination backend.
type Migration struct {
	ID     domain.MigrationID
	Source cartrepo.SnapshotStore
	Target cartrepo.Store
}

// Service runs migrations exactly once per id. The check-then-act sequence
// (ledger check, copy, ledger mark) holds a per-id lock, so concurrent Ensure
// calls for one id serialize and only the first performs the copy; the rest
// observe the completed mark.
type Service struct {
	ledger   ledger.Ledger
	strategy Strategy
	logger   *log.Logger

	mu    sync.Mutex
	locks map[domain.MigrationID]*sync.Mutex
}

func New(l ledger.Ledger, strategy Strategy, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Service{
		ledger:   l,
		strategy: strategy,
		logger:   logger,
		locks:    make(map[domain.MigrationID]*sync.Mutex),
	}
}

// Ensure brings the target up to date with the source unless the ledger says
// this migration already ran. Save is an upsert by cart id, so re-running
// after a partial failure overwrites already-copied records instead of
// duplicating them.
func (s *Service) Ensure(ctx context.Context, m Migration) error {
	lock := s.lockFor(m.ID)
	lock.Lock()
	defer lock.Unlock()

	done, err := s.ledger.IsCompleted(ctx, m.ID)
	if err != nil {
		return s.conclude(m.ID, fmt.Errorf("ledger check: %w", err))
	}
	if done {
		return nil
	}

	if err := s.copyAll(ctx, m); err != nil {
		return s.conclude(m.ID, err)
	}

	if err := s.ledger.MarkCompleted(ctx, m.ID); err != nil {
		return s.conclude(m.ID, fmt.Errorf("ledger mark: %w", err))
	}
	s.logger.Printf("migration %s: completed", m.ID)
	return nil
}

// Reset clears the completion mark so the next Ensure copies again. Meant for
// operators recovering from a bad run, not for runtime code paths.
func (s *Service) Reset(ctx context.Context, id domain.MigrationID) error {
	lock := s.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	return s.ledger.Reset(ctx, id)
}

func (s *Service) copyAll(ctx context.Context, m Migration) error {
	carts, err := m.Source.FetchAll(ctx)
	if err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	for _, c := range carts {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("copy aborted: %w", err)
		}
		if err := m.Target.Save(ctx, c); err != nil {
			return fmt.Errorf("copy cart %s: %w", c.ID, err)
		}
	}
	s.logger.Printf("migration %s: copied %d carts", m.ID, len(carts))
	return nil
}

// conclude applies the configured strategy to a failed run. The ledger stays
// unmarked on every failure path so a retry is always possible.
func (s *Service) conclude(id domain.MigrationID, err error) error {
	if s.strategy == StrategyDegrade {
		s.logger.Printf("migration %s: degraded: %v", id, err)
		return nil
	}
	return &domain.MigrationError{MigrationID: id, Err: err}
}

func (s *Service) lockFor(id domain.MigrationID) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[id] = lock
	}
	return lock
}
