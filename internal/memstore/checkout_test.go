package memstore

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/ucp-flower-shop/internal/domain/checkout"
)

func session(id string) checkout.Checkout {
	return checkout.Checkout{
		ID:     id,
		Status: checkout.StatusPending,
		Items: []checkout.LineItem{{
			ID:        "li-" + id,
			ProductID: "bouquet_roses",
			UnitPrice: decimal.NewFromInt(35),
			Quantity:  1,
		}},
		Totals: checkout.CalculateTotals(decimal.NewFromInt(35), decimal.Zero, decimal.Zero),
	}
}

func TestCheckoutStoreInsertGet(t *testing.T) {
	s := NewCheckoutStore()
	ctx := context.Background()

	require.NoError(t, s.Insert(ctx, session("c1")))

	got, err := s.Get(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "c1", got.ID)
	assert.Equal(t, checkout.StatusPending, got.Status)

	assert.Error(t, s.Insert(ctx, session("c1")), "duplicate id")

	_, err = s.Get(ctx, "missing")
	assert.ErrorIs(t, err, checkout.ErrNotFound)
}

func TestCheckoutStoreSnapshotsAreIsolated(t *testing.T) {
	s := NewCheckoutStore()
	ctx := context.Background()

	src := session("c1")
	require.NoError(t, s.Insert(ctx, src))

	// Mutating the inserted value or a returned snapshot never reaches the
	// stored session.
	src.Items[0].Quantity = 99
	got1, err := s.Get(ctx, "c1")
	require.NoError(t, err)
	got1.Items[0].Quantity = 50
	got1.Status = checkout.StatusCompleted

	got2, err := s.Get(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, 1, got2.Items[0].Quantity)
	assert.Equal(t, checkout.StatusPending, got2.Status)
}

func TestCheckoutStoreMutate(t *testing.T) {
	s := NewCheckoutStore()
	ctx := context.Background()
	require.NoError(t, s.Insert(ctx, session("c1")))

	updated, err := s.Mutate(ctx, "c1", func(c *checkout.Checkout) error {
		c.Status = checkout.StatusReadyForComplete
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, checkout.StatusReadyForComplete, updated.Status)

	got, err := s.Get(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, checkout.StatusReadyForComplete, got.Status)

	_, err = s.Mutate(ctx, "missing", func(*checkout.Checkout) error { return nil })
	assert.ErrorIs(t, err, checkout.ErrNotFound)
}

func TestCheckoutStoreMutateFailureLeavesStateUntouched(t *testing.T) {
	s := NewCheckoutStore()
	ctx := context.Background()
	require.NoError(t, s.Insert(ctx, session("c1")))

	boom := errors.New("boom")
	_, err := s.Mutate(ctx, "c1", func(c *checkout.Checkout) error {
		c.Status = checkout.StatusCompleted
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := s.Get(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, checkout.StatusPending, got.Status)
}

func TestCheckoutStoreConcurrentMutationsSameID(t *testing.T) {
	s := NewCheckoutStore()
	ctx := context.Background()
	require.NoError(t, s.Insert(ctx, session("c1")))

	const workers = 16
	const rounds = 50

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range rounds {
				_, err := s.Mutate(ctx, "c1", func(c *checkout.Checkout) error {
					c.Items[0].Quantity++
					return nil
				})
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	got, err := s.Get(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, 1+workers*rounds, got.Items[0].Quantity, "mutations on one id serialize, none lost")
}

func TestCheckoutStoreConcurrentDistinctIDs(t *testing.T) {
	s := NewCheckoutStore()
	ctx := context.Background()

	const n = 64
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := fmt.Sprintf("c-%d", i)
			assert.NoError(t, s.Insert(ctx, session(id)))
			_, err := s.Mutate(ctx, id, func(c *checkout.Checkout) error {
				c.Status = checkout.StatusReadyForComplete
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	for i := range n {
		got, err := s.Get(ctx, fmt.Sprintf("c-%d", i))
		require.NoError(t, err)
		assert.Equal(t, checkout.StatusReadyForComplete, got.Status)
	}
}

func TestCheckoutStoreNoTornReads(t *testing.T) {
	// A mutation rewrites status and totals together; a concurrent reader
	// must never observe one without the other.
	s := NewCheckoutStore()
	ctx := context.Background()
	require.NoError(t, s.Insert(ctx, session("c1")))

	done := make(chan struct{})
	go func() {
		defer close(done)
		for range 200 {
			_, _ = s.Mutate(ctx, "c1", func(c *checkout.Checkout) error {
				if c.Status == checkout.StatusPending {
					c.Status = checkout.StatusReadyForComplete
					c.Totals = checkout.CalculateTotals(decimal.NewFromInt(35), decimal.RequireFromString("5.99"), decimal.Zero)
				} else {
					c.Status = checkout.StatusPending
					c.Totals = checkout.CalculateTotals(decimal.NewFromInt(35), decimal.Zero, decimal.Zero)
				}
				return nil
			})
		}
	}()

	for range 200 {
		got, err := s.Get(ctx, "c1")
		require.NoError(t, err)
		switch got.Status {
		case checkout.StatusPending:
			assert.Len(t, got.Totals, 2)
		case checkout.StatusReadyForComplete:
			assert.Len(t, got.Totals, 3)
		default:
			t.Fatalf("unexpected status %s", got.Status)
		}
	}
	<-done
}
