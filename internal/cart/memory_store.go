package cart

import (
	"context"
	"sync"
)

// MemoryStore keeps carts in process memory.
type MemoryStore struct {
	mu    sync.Mutex
	carts map[string]*Cart
}

// NewMemoryStore returns an empty in-memory cart store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{carts: map[string]*Cart{}}
}

func (s *MemoryStore) Load(_ context.Context, owner string) (*Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.carts[owner]; ok {
		return c.clone(), nil
	}
	return newCart(owner), nil
}

func (s *MemoryStore) Mutate(_ context.Context, owner string, fn MutateFunc) (*Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	working := newCart(owner)
	if existing, ok := s.carts[owner]; ok {
		working = existing.clone()
	}
	if err := fn(working); err != nil {
		return nil, err
	}
	s.carts[owner] = working
	return working.clone(), nil
}

func (s *MemoryStore) Delete(_ context.Context, owner string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, owner)
	return nil
}
