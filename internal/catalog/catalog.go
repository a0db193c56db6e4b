// Package catalog provides the built-in flower shop product catalog, used
// when no external catalog database is configured. The data set matches the
// standalone demo deployment.
package catalog

import (
	"context"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/xenking/ucp-flower-shop/internal/domain/product"
)

var _ product.Repository = (*Builtin)(nil)

// Builtin is a fixed in-memory product.Repository.
type Builtin struct {
	products []product.Product
	byID     map[string]product.Product
}

// NewBuiltin returns the demo flower catalog.
func NewBuiltin() *Builtin {
	products := []product.Product{
		flower("bouquet_roses", "Bouquet of Red Roses",
			"A stunning arrangement of 12 fresh red roses, perfect for any romantic occasion.",
			"35.00", "https://example.com/roses.jpg"),
		flower("orchid_white", "White Phalaenopsis Orchid",
			"Elegant potted white orchid, long-lasting and easy to care for.",
			"45.00", "https://example.com/orchid.jpg"),
		flower("tulips_mixed", "Mixed Tulip Bouquet",
			"Cheerful mix of 15 colorful tulips in spring colors.",
			"28.00", "https://example.com/tulips.jpg"),
		flower("succulent_trio", "Succulent Trio",
			"Three adorable succulents in decorative pots. Low maintenance, high style.",
			"22.00", "https://example.com/succulents.jpg"),
		flower("sunflower_bunch", "Sunflower Sunshine Bunch",
			"Bright and cheerful bunch of 6 large sunflowers.",
			"25.00", "https://example.com/sunflowers.jpg"),
		flower("lily_bouquet", "Stargazer Lily Bouquet",
			"Fragrant pink stargazer lilies with eucalyptus accents.",
			"42.00", "https://example.com/lilies.jpg"),
		flower("pothos_golden", "Golden Pothos Plant",
			"Easy-care trailing plant, perfect for beginners. Comes in a 6-inch pot.",
			"18.00", "https://example.com/pothos.jpg"),
		flower("peace_lily", "Peace Lily",
			"Classic indoor plant with elegant white blooms. Air-purifying.",
			"32.00", "https://example.com/peace_lily.jpg"),
	}

	return &Builtin{
		products: products,
		byID: lo.SliceToMap(products, func(p product.Product) (string, product.Product) {
			return p.ID, p
		}),
	}
}

func flower(id, title, description, price, imageURL string) product.Product {
	return product.Product{
		ID:          id,
		Title:       title,
		Description: description,
		Price: product.Money{
			Amount:   decimal.RequireFromString(price),
			Currency: "USD",
		},
		ImageURL: imageURL,
		InStock:  true,
	}
}

// List returns every product in catalog order.
func (c *Builtin) List(_ context.Context) ([]product.Product, error) {
	out := make([]product.Product, len(c.products))
	copy(out, c.products)
	return out, nil
}

// GetByID returns a single product, or product.ErrNotFound.
func (c *Builtin) GetByID(_ context.Context, id string) (*product.Product, error) {
	p, ok := c.byID[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	return &p, nil
}

// GetByIDs returns the products matching any of the given ids. Missing ids
// are simply absent from the result.
func (c *Builtin) GetByIDs(_ context.Context, ids []string) ([]product.Product, error) {
	wanted := lo.SliceToMap(ids, func(id string) (string, struct{}) {
		return id, struct{}{}
	})
	return lo.Filter(c.products, func(p product.Product, _ int) bool {
		_, ok := wanted[p.ID]
		return ok
	}), nil
}
