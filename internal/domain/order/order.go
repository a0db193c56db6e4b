package order

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/xenking/ucp-flower-shop/internal/domain/checkout"
)

// ErrNotFound is returned when the referenced order id is unknown.
var ErrNotFound = errors.New("order not found")

// Status is the lifecycle state of an order. Orders are created confirmed and
// never transition.
type Status string

// StatusConfirmed is the only order status.
const StatusConfirmed Status = "confirmed"

// PaymentStatus describes the outcome of the payment capture step.
type PaymentStatus string

// PaymentCaptured is the only payment status the mock gateway produces.
const PaymentCaptured PaymentStatus = "captured"

// PaymentMethodMock identifies the built-in success-only payment handler.
const PaymentMethodMock = "mock_payment"

// Payment is the recorded payment result of a submitted checkout.
type Payment struct {
	Status PaymentStatus
	Method string
}

// Order is an immutable record of a completed purchase: a frozen copy of the
// source checkout's line items, buyer, totals, and fulfillment, plus the
// payment result. Nothing mutates an Order after creation.
type Order struct {
	ID          string
	Status      Status
	CheckoutID  string
	Items       []checkout.LineItem
	Buyer       *checkout.Buyer
	Totals      []checkout.Total
	Fulfillment *checkout.Fulfillment
	Payment     Payment
	CreatedAt   time.Time
}

// Clone returns a deep copy of the order. Orders are immutable by contract;
// stores hand out clones so callers can never reach the retained record.
func (o Order) Clone() Order {
	out := o
	if o.Items != nil {
		out.Items = make([]checkout.LineItem, len(o.Items))
		for i, it := range o.Items {
			out.Items[i] = it
			out.Items[i].Totals = append([]checkout.Total(nil), it.Totals...)
		}
	}
	out.Totals = append([]checkout.Total(nil), o.Totals...)
	if o.Buyer != nil {
		b := *o.Buyer
		out.Buyer = &b
	}
	if o.Fulfillment != nil {
		f := *o.Fulfillment
		out.Fulfillment = &f
	}
	return out
}

// Store holds completed orders keyed by id. Append-mostly: insert, point
// lookup, and list; no update or delete.
type Store interface {
	Insert(ctx context.Context, o Order) error
	Get(ctx context.Context, id string) (Order, error)
	List(ctx context.Context) ([]Order, error)
}

// NewID generates an order identifier. Order ids use a short human-readable
// format, distinct from the UUID checkout ids: "ORD-" plus the upper-cased
// first 8 hex characters of a fresh UUID.
func NewID() string {
	return "ORD-" + strings.ToUpper(uuid.New().String()[:8])
}
