package order

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"

	"github.com/xenking/ucp-flower-shop/internal/domain/checkout"
	"github.com/xenking/ucp-flower-shop/internal/domain/discount"
	"github.com/xenking/ucp-flower-shop/internal/domain/product"
)

// DefaultCurrency is assumed when a create request does not name one.
const DefaultCurrency = "USD"

// CreateCheckoutRequest holds the input for creating a checkout session.
type CreateCheckoutRequest struct {
	Items    []checkout.ItemRequest
	Buyer    *checkout.Buyer
	Currency string
}

// CreateCheckoutResult is a partial-success result: the created checkout plus
// the item requests that matched no catalog product and were dropped.
type CreateCheckoutResult struct {
	Checkout   checkout.Checkout
	Unresolved []checkout.ItemRequest
}

// UpdateCheckoutRequest holds the optional mutations of an update call. A nil
// field means "absent": a nil DiscountCodes leaves previously applied
// discounts alone, while an empty non-nil slice clears them.
type UpdateCheckoutRequest struct {
	ShippingAddress *checkout.Address
	DiscountCodes   []string
}

// UpdateCheckoutResult carries the updated checkout plus submitted discount
// codes that matched no catalog entry.
type UpdateCheckoutResult struct {
	Checkout     checkout.Checkout
	UnknownCodes []string
}

// Service is the checkout state machine: it orchestrates the product catalog,
// the discount catalog, and the session stores behind the four checkout
// operations plus the order reads.
type Service struct {
	catalog      product.Repository
	discounts    *discount.Catalog
	checkouts    checkout.Store
	orders       Store
	shippingRate decimal.Decimal
	now          func() time.Time
}

// NewService creates a Service with the required collaborators. shippingRate
// is the flat rate attached once a shipping address is set.
func NewService(
	catalog product.Repository,
	discounts *discount.Catalog,
	checkouts checkout.Store,
	orders Store,
	shippingRate decimal.Decimal,
) *Service {
	return &Service{
		catalog:      catalog,
		discounts:    discounts,
		checkouts:    checkouts,
		orders:       orders,
		shippingRate: shippingRate,
		now:          time.Now,
	}
}

// CreateCheckout resolves the requested items against the catalog and opens a
// new pending session.
//
// Creation always succeeds when the input is well-formed, even if no request
// resolves to a product: the result is then a checkout with zero line items
// and a zero subtotal, with the dropped requests reported in Unresolved.
func (s *Service) CreateCheckout(ctx context.Context, req CreateCheckoutRequest) (*CreateCheckoutResult, error) {
	cur := req.Currency
	if cur == "" {
		cur = DefaultCurrency
	}
	cur = strings.ToUpper(cur)
	if _, err := currency.ParseISO(cur); err != nil {
		return nil, &checkout.InvalidCurrencyError{Currency: req.Currency}
	}

	ids := make([]string, len(req.Items))
	for i, item := range req.Items {
		if item.Quantity < 1 {
			return nil, &checkout.InvalidQuantityError{ProductID: item.ProductID}
		}
		ids[i] = item.ProductID
	}

	var products []product.Product
	if len(ids) > 0 {
		fetched, err := s.catalog.GetByIDs(ctx, ids)
		if err != nil {
			return nil, errors.Wrap(err, "get products")
		}
		products = fetched
	}

	items, subtotal, unresolved := checkout.ProcessItems(products, req.Items)

	c := checkout.Checkout{
		ID:       uuid.New().String(),
		Status:   checkout.StatusPending,
		Currency: cur,
		Items:    items,
		Buyer:    req.Buyer,
		Totals:   checkout.CalculateTotals(subtotal, decimal.Zero, decimal.Zero),
		Discounts: checkout.DiscountState{
			Codes:   []string{},
			Applied: []discount.Applied{},
		},
		CreatedAt: s.now(),
	}

	if err := s.checkouts.Insert(ctx, c); err != nil {
		return nil, errors.Wrap(err, "store checkout")
	}

	return &CreateCheckoutResult{Checkout: c, Unresolved: unresolved}, nil
}

// GetCheckout returns a snapshot of the session, or checkout.ErrNotFound.
func (s *Service) GetCheckout(ctx context.Context, id string) (checkout.Checkout, error) {
	return s.checkouts.Get(ctx, id)
}

// UpdateCheckout applies the present fields of req to the session and
// recomputes its totals.
//
// A shipping address attaches the flat shipping rate. Discount codes are
// evaluated against the current subtotal and REPLACE any previously applied
// discounts; application is not additive across calls. The status moves to
// ready_for_complete on every successful update, recognized fields or not.
func (s *Service) UpdateCheckout(ctx context.Context, id string, req UpdateCheckoutRequest) (*UpdateCheckoutResult, error) {
	var unknown []string

	updated, err := s.checkouts.Mutate(ctx, id, func(c *checkout.Checkout) error {
		if c.Status.Terminal() {
			return checkout.ErrAlreadyCompleted
		}

		if req.ShippingAddress != nil {
			c.Fulfillment = &checkout.Fulfillment{Destination: *req.ShippingAddress}
		}

		if req.DiscountCodes != nil {
			res := s.discounts.Apply(req.DiscountCodes, c.Subtotal())
			c.Discounts = checkout.DiscountState{
				Codes:   append([]string{}, req.DiscountCodes...),
				Applied: append([]discount.Applied{}, res.Applied...),
			}
			unknown = res.Unknown
		}

		s.recompute(c)
		c.Status = checkout.StatusReadyForComplete
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &UpdateCheckoutResult{Checkout: updated, UnknownCodes: unknown}, nil
}

// SubmitCheckout finalizes the session: it freezes the current snapshot into
// an Order, marks payment captured, flips the checkout to completed, and
// records the order id on the session. Exactly one order is ever produced per
// checkout; a second submit returns checkout.ErrAlreadyCompleted.
//
// The payment token is accepted for interface compatibility and ignored: the
// mock gateway captures unconditionally.
func (s *Service) SubmitCheckout(ctx context.Context, id string, paymentToken string) (Order, error) {
	var o Order

	_, err := s.checkouts.Mutate(ctx, id, func(c *checkout.Checkout) error {
		if c.Status.Terminal() {
			return checkout.ErrAlreadyCompleted
		}

		o = FromCheckout(*c, s.now())
		c.Status = checkout.StatusCompleted
		c.OrderID = o.ID
		return nil
	})
	if err != nil {
		return Order{}, err
	}

	if err := s.orders.Insert(ctx, o); err != nil {
		return Order{}, errors.Wrap(err, "store order")
	}
	return o, nil
}

// GetOrder returns a completed order by id, or ErrNotFound.
func (s *Service) GetOrder(ctx context.Context, id string) (Order, error) {
	return s.orders.Get(ctx, id)
}

// ListOrders returns every completed order.
func (s *Service) ListOrders(ctx context.Context) ([]Order, error) {
	return s.orders.List(ctx)
}

// recompute rebuilds the totals sequence from the session's current state:
// subtotal from the line items, shipping from the attached fulfillment, and
// discount as the sum of the applied discounts.
func (s *Service) recompute(c *checkout.Checkout) {
	subtotal := decimal.Zero
	for _, item := range c.Items {
		subtotal = subtotal.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	shipping := decimal.Zero
	if c.Fulfillment != nil {
		shipping = s.shippingRate
	}

	disc := decimal.Zero
	for _, a := range c.Discounts.Applied {
		disc = disc.Add(a.Amount)
	}

	c.Totals = checkout.CalculateTotals(subtotal, shipping, disc)
}
