package ledger

import (
	"context"
	"sync"

	"cartvault/internal/domain"
)

// MemoryLedger keeps completion marks in process memory. Marks vanish with
// the process, which suits transient deployments where the paired stores are
// transient too.
type MemoryLedger struct {
	namespace string

	mu        sync.RWMutex
	completed map[string]bool
}

func NewMemory(namespace string) *MemoryLedger {
	return &MemoryLedger{
		namespace: namespace,
		completed: make(map[string]bool),
	}
}

func (l *MemoryLedger) IsCompleted(_ context.Context, id domain.MigrationID) (bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.completed[Key(l.namespace, id)], nil
}

func (l *MemoryLedger) MarkCompleted(_ context.Context, id domain.MigrationID) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.completed[Key(l.namespace, id)] = true
	return nil
}

func (l *MemoryLedger) Reset(_ context.Context, id domain.MigrationID) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.completed, Key(l.namespace, id))
	return nil
}
