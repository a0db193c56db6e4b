package product

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// Money is a monetary amount in a specific ISO 4217 currency.
type Money struct {
	Amount   decimal.Decimal
	Currency string
}

// Product represents a catalog item available for purchase.
type Product struct {
	ID          string
	Title       string
	Description string
	Price       Money
	ImageURL    string
	InStock     bool
}

// Repository defines read operations for the product catalog. The catalog is
// read-only from the checkout engine's point of view: implementations never
// mutate state on behalf of this interface.
type Repository interface {
	List(ctx context.Context) ([]Product, error)
	GetByID(ctx context.Context, id string) (*Product, error)
	GetByIDs(ctx context.Context, ids []string) ([]Product, error)
}
