// Package memstore provides the in-memory session and order stores.
//
// Both stores are shared mutable state reachable from many concurrent
// requests. The checkout store shards its sessions across a fixed set of
// mutex-guarded maps: mutations for the same id serialize on the shard lock
// while sessions on other shards proceed independently, and reads always see
// a complete snapshot because every stored value is replaced wholesale, never
// edited in place.
package memstore

import (
	"context"
	"hash/fnv"
	"sync"

	"github.com/go-faster/errors"

	"github.com/xenking/ucp-flower-shop/internal/domain/checkout"
)

const checkoutShards = 32

var _ checkout.Store = (*CheckoutStore)(nil)

type checkoutShard struct {
	mu       sync.RWMutex
	sessions map[string]*checkout.Checkout
}

// CheckoutStore is a sharded in-memory implementation of checkout.Store.
// Sessions live for the process lifetime; there is no delete.
type CheckoutStore struct {
	shards [checkoutShards]checkoutShard
}

// NewCheckoutStore creates an empty CheckoutStore.
func NewCheckoutStore() *CheckoutStore {
	s := &CheckoutStore{}
	for i := range s.shards {
		s.shards[i].sessions = make(map[string]*checkout.Checkout)
	}
	return s
}

func (s *CheckoutStore) shard(id string) *checkoutShard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	return &s.shards[h.Sum32()%checkoutShards]
}

// Insert stores a new session. Inserting an id that already exists is a
// programming error (ids are freshly generated UUIDs) and is rejected.
func (s *CheckoutStore) Insert(_ context.Context, c checkout.Checkout) error {
	sh := s.shard(c.ID)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	if _, ok := sh.sessions[c.ID]; ok {
		return errors.Errorf("checkout %s already exists", c.ID)
	}
	stored := c.Clone()
	sh.sessions[c.ID] = &stored
	return nil
}

// Get returns a deep-copied snapshot of the session, or checkout.ErrNotFound.
func (s *CheckoutStore) Get(_ context.Context, id string) (checkout.Checkout, error) {
	sh := s.shard(id)
	sh.mu.RLock()
	defer sh.mu.RUnlock()

	c, ok := sh.sessions[id]
	if !ok {
		return checkout.Checkout{}, checkout.ErrNotFound
	}
	return c.Clone(), nil
}

// Mutate applies fn to a working copy of the session under the shard's write
// lock and swaps the copy in only when fn succeeds. A failed fn leaves the
// stored session untouched.
func (s *CheckoutStore) Mutate(_ context.Context, id string, fn func(*checkout.Checkout) error) (checkout.Checkout, error) {
	sh := s.shard(id)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	current, ok := sh.sessions[id]
	if !ok {
		return checkout.Checkout{}, checkout.ErrNotFound
	}

	next := current.Clone()
	if err := fn(&next); err != nil {
		return checkout.Checkout{}, err
	}

	sh.sessions[id] = &next
	return next.Clone(), nil
}
