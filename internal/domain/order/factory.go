package order

import (
	"time"

	"github.com/xenking/ucp-flower-shop/internal/domain/checkout"
)

// FromCheckout freezes a checkout into an Order.
//
// All nested data is copied by value via Checkout.Clone, so later mutation of
// the source session can never reach the stored order. The factory does not
// gate on checkout status; callers enforce lifecycle rules. Payment is
// recorded as captured unconditionally: the mock gateway never declines.
func FromCheckout(c checkout.Checkout, now time.Time) Order {
	frozen := c.Clone()

	return Order{
		ID:          NewID(),
		Status:      StatusConfirmed,
		CheckoutID:  frozen.ID,
		Items:       frozen.Items,
		Buyer:       frozen.Buyer,
		Totals:      frozen.Totals,
		Fulfillment: frozen.Fulfillment,
		Payment: Payment{
			Status: PaymentCaptured,
			Method: PaymentMethodMock,
		},
		CreatedAt: now,
	}
}
