package checkout

import "github.com/shopspring/decimal"

// TotalType tags one named amount in a totals sequence.
type TotalType string

const (
	TotalSubtotal TotalType = "subtotal"
	TotalShipping TotalType = "shipping"
	TotalDiscount TotalType = "discount"
	TotalGrand    TotalType = "total"
)

// Total is one named monetary amount in a checkout's or order's price
// breakdown.
type Total struct {
	Type   TotalType
	Amount decimal.Decimal
}

// CalculateTotals rebuilds the full totals sequence from scratch.
//
// The sequence is ordered subtotal -> shipping -> discount -> total. Zero
// shipping and discount components are omitted; subtotal and total are always
// present, with total = subtotal + shipping - discount.
func CalculateTotals(subtotal, shipping, disc decimal.Decimal) []Total {
	totals := make([]Total, 0, 4)
	totals = append(totals, Total{Type: TotalSubtotal, Amount: subtotal})
	if !shipping.IsZero() {
		totals = append(totals, Total{Type: TotalShipping, Amount: shipping})
	}
	if !disc.IsZero() {
		totals = append(totals, Total{Type: TotalDiscount, Amount: disc})
	}
	totals = append(totals, Total{
		Type:   TotalGrand,
		Amount: subtotal.Add(shipping).Sub(disc),
	})
	return totals
}

// totalOf returns the amount tagged with the given type, or zero when the
// component is absent from the sequence.
func (c *Checkout) totalOf(t TotalType) decimal.Decimal {
	for _, total := range c.Totals {
		if total.Type == t {
			return total.Amount
		}
	}
	return decimal.Zero
}
