package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/ucp-flower-shop/internal/domain/discount"
)

// Status is the lifecycle state of a checkout session. Transitions are
// one-way: pending -> ready_for_complete -> completed.
type Status string

const (
	// StatusPending is the initial state, set at creation.
	StatusPending Status = "pending"
	// StatusReadyForComplete is set after any successful update.
	StatusReadyForComplete Status = "ready_for_complete"
	// StatusCompleted is terminal, set after a successful submit.
	StatusCompleted Status = "completed"
)

// Terminal reports whether no further mutation of the checkout is allowed.
func (s Status) Terminal() bool {
	return s == StatusCompleted
}

var (
	// ErrNotFound is returned when the referenced checkout id is unknown.
	ErrNotFound = errors.New("checkout not found")
	// ErrAlreadyCompleted is returned when update or submit is attempted on
	// a completed checkout.
	ErrAlreadyCompleted = errors.New("checkout already completed")
)

// InvalidQuantityError indicates a requested line item has a quantity below 1.
type InvalidQuantityError struct {
	ProductID string
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity must be greater than 0 for product %s", e.ProductID)
}

// InvalidCurrencyError indicates the requested currency is not a valid
// ISO 4217 code.
type InvalidCurrencyError struct {
	Currency string
}

func (e *InvalidCurrencyError) Error() string {
	return fmt.Sprintf("invalid currency code %q", e.Currency)
}

// Buyer holds optional contact details for the purchasing customer.
type Buyer struct {
	FullName string
	Email    string
}

// Address is a shipping destination.
type Address struct {
	FirstName  string
	LastName   string
	Address1   string
	City       string
	Province   string
	PostalCode string
	Country    string
}

// Fulfillment holds delivery data attached to a checkout or order.
type Fulfillment struct {
	Destination Address
}

// DiscountState records both what the caller submitted and what actually
// applied. Codes is kept verbatim for transparency even when some codes were
// not recognized.
type DiscountState struct {
	Codes   []string
	Applied []discount.Applied
}

// Checkout is a mutable, in-progress purchase session prior to payment
// capture. Once Status reaches StatusCompleted the session is retained as a
// read-only historical record with OrderID pointing at the produced order.
type Checkout struct {
	ID          string
	Status      Status
	Currency    string
	Items       []LineItem
	Buyer       *Buyer
	Totals      []Total
	Discounts   DiscountState
	Fulfillment *Fulfillment
	CreatedAt   time.Time
	OrderID     string
}

// Subtotal returns the current subtotal component of the totals sequence.
func (c *Checkout) Subtotal() decimal.Decimal {
	return c.totalOf(TotalSubtotal)
}

// Clone returns a deep copy of the checkout. Slices and nested pointers are
// copied so the clone shares no mutable state with the original.
func (c *Checkout) Clone() Checkout {
	out := *c

	if c.Items != nil {
		out.Items = make([]LineItem, len(c.Items))
		for i, it := range c.Items {
			out.Items[i] = it
			out.Items[i].Totals = append([]Total(nil), it.Totals...)
		}
	}
	out.Totals = append([]Total(nil), c.Totals...)
	out.Discounts.Codes = append([]string(nil), c.Discounts.Codes...)
	out.Discounts.Applied = append([]discount.Applied(nil), c.Discounts.Applied...)

	if c.Buyer != nil {
		b := *c.Buyer
		out.Buyer = &b
	}
	if c.Fulfillment != nil {
		f := *c.Fulfillment
		out.Fulfillment = &f
	}
	return out
}

// Store holds live checkout sessions keyed by id.
//
// Implementations must be safe for concurrent use: mutations for the same id
// are serialized, operations on distinct ids proceed independently, and Get
// never observes a partially-applied mutation. There is no delete: sessions
// live for the process lifetime.
type Store interface {
	Insert(ctx context.Context, c Checkout) error
	// Get returns a snapshot of the checkout, or ErrNotFound.
	Get(ctx context.Context, id string) (Checkout, error)
	// Mutate applies fn to the checkout under the per-id mutation lock and
	// returns the resulting snapshot. When fn returns an error the checkout
	// is left unchanged and the error is returned as-is.
	Mutate(ctx context.Context, id string, fn func(*Checkout) error) (Checkout, error)
}
