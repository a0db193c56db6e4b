package checkout

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/xenking/ucp-flower-shop/internal/domain/product"
)

// ItemRequest is one requested (product, quantity) pair.
type ItemRequest struct {
	ProductID string
	Quantity  int
}

// LineItem is one priced entry within a checkout or order. UnitPrice is
// captured at the time the item is added; later catalog price changes never
// affect an existing checkout.
type LineItem struct {
	ID        string
	ProductID string
	Title     string
	UnitPrice decimal.Decimal
	Quantity  int
	// Totals holds the per-item breakdown. Subtotal and total are currently
	// identical since no per-item discount exists.
	Totals []Total
}

// ProcessItems resolves requested items against the fetched products and
// emits priced line items in request order.
//
// Requests whose product id is missing from products contribute no line item
// and no monetary value; they are returned in unresolved so the caller can
// report them. The checkout subtotal is the sum of the emitted item subtotals.
func ProcessItems(products []product.Product, reqs []ItemRequest) (items []LineItem, subtotal decimal.Decimal, unresolved []ItemRequest) {
	byID := make(map[string]product.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	subtotal = decimal.Zero
	for _, req := range reqs {
		p, ok := byID[req.ProductID]
		if !ok {
			unresolved = append(unresolved, req)
			continue
		}

		itemSubtotal := p.Price.Amount.Mul(decimal.NewFromInt(int64(req.Quantity)))
		subtotal = subtotal.Add(itemSubtotal)

		items = append(items, LineItem{
			ID:        uuid.New().String(),
			ProductID: p.ID,
			Title:     p.Title,
			UnitPrice: p.Price.Amount,
			Quantity:  req.Quantity,
			Totals: []Total{
				{Type: TotalSubtotal, Amount: itemSubtotal},
				{Type: TotalGrand, Amount: itemSubtotal},
			},
		})
	}
	return items, subtotal, unresolved
}
