package cart

import (
	"context"
	"sort"
	"sync"

	"cartvault/internal/domain"
)

// MemoryStore keeps carts in process memory. All mutations serialize behind
// one mutex, so the store behaves as a single-writer domain; reads and writes
// deep-copy so callers never alias stored state. Contents vanish with the
// process.
type MemoryStore struct {
	mu    sync.RWMutex
	carts map[domain.CartID]domain.Cart
}

func NewMemory() *MemoryStore {
	return &MemoryStore{carts: make(map[domain.CartID]domain.Cart)}
}

func (s *MemoryStore) Load(_ context.Context, id domain.CartID) (*domain.Cart, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.carts[id]
	if !ok {
		return nil, nil
	}
	out := c.Clone()
	return &out, nil
}

func (s *MemoryStore) Save(_ context.Context, c domain.Cart) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.carts[c.ID] = c.Clone()
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id domain.CartID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.carts, id)
	return nil
}

func (s *MemoryStore) FetchMany(_ context.Context, query domain.CartQuery) ([]domain.Cart, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]domain.Cart, 0, len(s.carts))
	for _, c := range s.carts {
		all = append(all, c)
	}
	matched := query.Apply(all)

	out := make([]domain.Cart, len(matched))
	for i, c := range matched {
		out[i] = c.Clone()
	}
	return out, nil
}

func (s *MemoryStore) FetchAll(_ context.Context) ([]domain.Cart, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Cart, 0, len(s.carts))
	for _, c := range s.carts {
		out = append(out, c.Clone())
	}
	// Map iteration order is random; dump in id order so callers see a stable
	// sequence.
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
