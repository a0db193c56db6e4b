// Package handler exposes the checkout engine over HTTP. Routing is chi,
// request and response bodies are encoded by hand with jx, and all business
// logic stays behind the order service and the catalog repository.
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/xenking/ucp-flower-shop/internal/domain/discount"
	"github.com/xenking/ucp-flower-shop/internal/domain/order"
	"github.com/xenking/ucp-flower-shop/internal/domain/product"
)

// Config holds non-dependency configuration for the Handler.
type Config struct {
	// APIKeys, when non-empty, gates the mutating checkout endpoints behind
	// API key authentication.
	APIKeys []string
	// APIKeyPepper is the HMAC pepper used to hash API keys at comparison
	// time.
	APIKeyPepper string
}

// Handler serves the flower shop API.
type Handler struct {
	products  product.Repository
	service   *order.Service
	discounts *discount.Catalog
	security  *securityMiddleware
}

// New constructs a Handler with the required domain dependencies.
func New(cfg Config, products product.Repository, service *order.Service, discounts *discount.Catalog) *Handler {
	return &Handler{
		products:  products,
		service:   service,
		discounts: discounts,
		security:  newSecurityMiddleware(cfg.APIKeys, []byte(cfg.APIKeyPepper)),
	}
}

// Routes returns the API router, to be mounted under /api.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/discovery", h.Discover)

	r.Get("/products", h.ListProducts)
	r.Get("/products/{productID}", h.GetProduct)

	r.Route("/checkouts", func(r chi.Router) {
		r.Get("/{checkoutID}", h.GetCheckout)

		// Mutations require an API key when keys are configured.
		r.Group(func(r chi.Router) {
			r.Use(h.security.Require)
			r.Post("/", h.CreateCheckout)
			r.Patch("/{checkoutID}", h.UpdateCheckout)
			r.Post("/{checkoutID}/submit", h.SubmitCheckout)
		})
	})

	r.Get("/orders", h.ListOrders)
	r.Get("/orders/{orderID}", h.GetOrder)

	return r
}

// writeJSON writes an application/json response with the given status.
func writeJSON(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
