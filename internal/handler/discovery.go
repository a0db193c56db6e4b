package handler

import (
	"net/http"

	"github.com/go-faster/jx"
)

const ucpVersion = "2026-01-11"

type capabilityDoc struct {
	Name    string
	Spec    string
	Extends string
}

var capabilities = []capabilityDoc{
	{Name: "dev.ucp.shopping.checkout", Spec: "https://ucp.dev/specs/shopping/checkout"},
	{Name: "dev.ucp.shopping.discount", Spec: "https://ucp.dev/specs/shopping/discount", Extends: "dev.ucp.shopping.checkout"},
	{Name: "dev.ucp.shopping.fulfillment", Spec: "https://ucp.dev/specs/shopping/fulfillment", Extends: "dev.ucp.shopping.checkout"},
}

// Discover serves the merchant capability profile: supported services,
// capability versions and payment handlers.
func (h *Handler) Discover(w http.ResponseWriter, r *http.Request) {
	e := &jx.Encoder{}
	e.ObjStart()

	e.FieldStart("ucp")
	e.ObjStart()
	e.FieldStart("version")
	e.Str(ucpVersion)

	e.FieldStart("services")
	e.ObjStart()
	e.FieldStart("dev.ucp.shopping")
	e.ObjStart()
	e.FieldStart("version")
	e.Str(ucpVersion)
	e.FieldStart("spec")
	e.Str("https://ucp.dev/specs/shopping")
	e.FieldStart("rest")
	e.ObjStart()
	e.FieldStart("schema")
	e.Str("https://ucp.dev/services/shopping/openapi.json")
	e.FieldStart("endpoint")
	e.Str(h.baseURL(r))
	e.ObjEnd()
	e.ObjEnd()
	e.ObjEnd()

	e.FieldStart("capabilities")
	e.ArrStart()
	for _, c := range capabilities {
		e.ObjStart()
		e.FieldStart("name")
		e.Str(c.Name)
		e.FieldStart("version")
		e.Str(ucpVersion)
		e.FieldStart("spec")
		e.Str(c.Spec)
		if c.Extends != "" {
			e.FieldStart("extends")
			e.Str(c.Extends)
		}
		e.ObjEnd()
	}
	e.ArrEnd()
	e.ObjEnd()

	e.FieldStart("payment")
	e.ObjStart()
	e.FieldStart("handlers")
	e.ArrStart()
	e.ObjStart()
	e.FieldStart("id")
	e.Str("mock_payment")
	e.FieldStart("name")
	e.Str("dev.ucp.mock_payment")
	e.FieldStart("version")
	e.Str(ucpVersion)
	e.FieldStart("config")
	e.ObjStart()
	e.FieldStart("supported_tokens")
	e.ArrStart()
	e.Str("sandbox_test")
	e.Str("success_token")
	e.ArrEnd()
	e.ObjEnd()
	e.ObjEnd()
	e.ArrEnd()
	e.ObjEnd()

	e.ObjEnd()
	writeJSON(w, http.StatusOK, e.Bytes())
}

func (h *Handler) baseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host + "/"
}

// Info serves a human-oriented summary of the shop: known products,
// active discount codes and the API surface.
func (h *Handler) Info(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.List(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	e := &jx.Encoder{}
	e.ObjStart()
	e.FieldStart("name")
	e.Str("ucp-flower-shop")
	e.FieldStart("description")
	e.Str("UCP flower shop checkout service")
	e.FieldStart("products")
	e.ArrStart()
	for _, p := range products {
		e.Str(p.ID)
	}
	e.ArrEnd()
	e.FieldStart("discount_codes")
	e.ArrStart()
	for _, code := range h.discounts.Codes() {
		e.Str(code)
	}
	e.ArrEnd()
	e.FieldStart("endpoints")
	e.ArrStart()
	for _, ep := range []string{
		"GET /api/discovery",
		"GET /api/products",
		"GET /api/products/{productID}",
		"POST /api/checkouts",
		"GET /api/checkouts/{checkoutID}",
		"PATCH /api/checkouts/{checkoutID}",
		"POST /api/checkouts/{checkoutID}/submit",
		"GET /api/orders",
		"GET /api/orders/{orderID}",
	} {
		e.Str(ep)
	}
	e.ArrEnd()
	e.ObjEnd()
	writeJSON(w, http.StatusOK, e.Bytes())
}
