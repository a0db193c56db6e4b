package memstore

import (
	"context"
	"sync"

	"github.com/go-faster/errors"

	"github.com/xenking/ucp-flower-shop/internal/domain/order"
)

var _ order.Store = (*OrderStore)(nil)

// OrderStore is an in-memory implementation of order.Store. Orders are
// append-only and immutable, so a single lock over the map plus an insertion
// order index is all the coordination needed.
type OrderStore struct {
	mu     sync.RWMutex
	orders map[string]order.Order
	ids    []string
}

// NewOrderStore creates an empty OrderStore.
func NewOrderStore() *OrderStore {
	return &OrderStore{orders: make(map[string]order.Order)}
}

// Insert stores a new order. Duplicate ids are rejected.
func (s *OrderStore) Insert(_ context.Context, o order.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.orders[o.ID]; ok {
		return errors.Errorf("order %s already exists", o.ID)
	}
	s.orders[o.ID] = o.Clone()
	s.ids = append(s.ids, o.ID)
	return nil
}

// Get returns a deep-copied order, or order.ErrNotFound.
func (s *OrderStore) Get(_ context.Context, id string) (order.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orders[id]
	if !ok {
		return order.Order{}, order.ErrNotFound
	}
	return o.Clone(), nil
}

// List returns all orders in insertion order.
func (s *OrderStore) List(_ context.Context) ([]order.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]order.Order, 0, len(s.ids))
	for _, id := range s.ids {
		out = append(out, s.orders[id].Clone())
	}
	return out, nil
}
