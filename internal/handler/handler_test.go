package handler

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/ucp-flower-shop/internal/catalog"
	"github.com/xenking/ucp-flower-shop/internal/domain/discount"
	"github.com/xenking/ucp-flower-shop/internal/domain/order"
	"github.com/xenking/ucp-flower-shop/internal/memstore"
)

func newTestHandler(cfg Config) *Handler {
	products := catalog.NewBuiltin()
	discounts := discount.DefaultCatalog()
	service := order.NewService(
		products,
		discounts,
		memstore.NewCheckoutStore(),
		memstore.NewOrderStore(),
		decimal.RequireFromString("5.99"),
	)
	return New(cfg, products, service, discounts)
}

func do(t *testing.T, h http.Handler, method, path, body string, headers map[string]string) (int, map[string]any) {
	t.Helper()
	var rd *bytes.Reader
	if body == "" {
		rd = bytes.NewReader(nil)
	} else {
		rd = bytes.NewReader([]byte(body))
	}
	req := httptest.NewRequest(method, path, rd)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	var decoded map[string]any
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decoded), "body: %s", w.Body.String())
	}
	return w.Code, decoded
}

func doList(t *testing.T, h http.Handler, path string) (int, []any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	var decoded []any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decoded))
	return w.Code, decoded
}

func totalsMap(t *testing.T, body map[string]any) map[string]float64 {
	t.Helper()
	raw, ok := body["totals"].([]any)
	require.True(t, ok, "totals missing: %v", body)
	out := make(map[string]float64, len(raw))
	for _, entry := range raw {
		m := entry.(map[string]any)
		out[m["type"].(string)] = m["amount"].(float64)
	}
	return out
}

func TestCheckoutFlow(t *testing.T) {
	r := newTestHandler(Config{}).Routes()

	// Create.
	code, created := do(t, r, http.MethodPost, "/checkouts", `{
		"line_items": [{"product_id": "bouquet_roses", "quantity": 2}],
		"buyer": {"full_name": "Jane Doe", "email": "jane@example.com"}
	}`, nil)
	require.Equal(t, http.StatusCreated, code)

	id := created["id"].(string)
	assert.Equal(t, "pending", created["status"])
	assert.Equal(t, "USD", created["currency"])
	assert.Equal(t, map[string]float64{"subtotal": 70, "total": 70}, totalsMap(t, created))
	assert.Nil(t, created["fulfillment"])
	assert.NotContains(t, created, "order_id")
	assert.NotContains(t, created, "unresolved_items")

	buyer := created["buyer"].(map[string]any)
	assert.Equal(t, "Jane Doe", buyer["full_name"])

	items := created["line_items"].([]any)
	require.Len(t, items, 1)
	item := items[0].(map[string]any)["item"].(map[string]any)
	assert.Equal(t, "bouquet_roses", item["id"])
	assert.Equal(t, float64(35), item["price"])

	// Apply a discount.
	code, updated := do(t, r, http.MethodPatch, "/checkouts/"+id, `{"discount_codes": ["FLOWERS20"]}`, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ready_for_complete", updated["status"])
	assert.Equal(t, map[string]float64{"subtotal": 70, "discount": 14, "total": 56}, totalsMap(t, updated))

	// Attach a shipping address.
	code, updated = do(t, r, http.MethodPatch, "/checkouts/"+id, `{
		"shipping_address": {
			"first_name": "Jane", "last_name": "Doe",
			"address1": "1 Garden Lane", "city": "Springfield", "postal_code": "12345"
		}
	}`, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, map[string]float64{"subtotal": 70, "shipping": 5.99, "discount": 14, "total": 61.99}, totalsMap(t, updated))

	dest := updated["fulfillment"].(map[string]any)["destination"].(map[string]any)
	assert.Equal(t, "Springfield", dest["city"])
	assert.Equal(t, "US", dest["country"], "country defaults when omitted")

	// Submit.
	code, submitted := do(t, r, http.MethodPost, "/checkouts/"+id+"/submit", `{"payment_token": "sandbox_test"}`, nil)
	require.Equal(t, http.StatusCreated, code)

	orderID := submitted["id"].(string)
	assert.Regexp(t, `^ORD-[0-9A-F]{8}$`, orderID)
	assert.Equal(t, "confirmed", submitted["status"])
	assert.Equal(t, id, submitted["checkout_id"])
	payment := submitted["payment"].(map[string]any)
	assert.Equal(t, "captured", payment["status"])
	assert.Equal(t, "mock_payment", payment["method"])
	assert.Equal(t, map[string]float64{"subtotal": 70, "shipping": 5.99, "discount": 14, "total": 61.99}, totalsMap(t, submitted))

	// The session is terminal and references the order.
	code, got := do(t, r, http.MethodGet, "/checkouts/"+id, "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "completed", got["status"])
	assert.Equal(t, orderID, got["order_id"])

	// The order is retrievable.
	code, gotOrder := do(t, r, http.MethodGet, "/orders/"+orderID, "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, orderID, gotOrder["id"])

	code, list := doList(t, r, "/orders")
	require.Equal(t, http.StatusOK, code)
	require.Len(t, list, 1)
}

func TestCreateCheckoutUnresolvedItems(t *testing.T) {
	r := newTestHandler(Config{}).Routes()

	code, body := do(t, r, http.MethodPost, "/checkouts", `{
		"line_items": [
			{"product_id": "bouquet_roses"},
			{"product_id": "ghost_orchid", "quantity": 3}
		]
	}`, nil)
	require.Equal(t, http.StatusCreated, code)

	assert.Equal(t, map[string]float64{"subtotal": 35, "total": 35}, totalsMap(t, body), "quantity defaults to 1")

	unresolved := body["unresolved_items"].([]any)
	require.Len(t, unresolved, 1)
	first := unresolved[0].(map[string]any)
	assert.Equal(t, "ghost_orchid", first["product_id"])
	assert.Equal(t, float64(3), first["quantity"])
}

func TestUpdateCheckoutUnknownCodes(t *testing.T) {
	r := newTestHandler(Config{}).Routes()

	_, created := do(t, r, http.MethodPost, "/checkouts", `{"line_items": [{"product_id": "tulips_mixed"}]}`, nil)
	id := created["id"].(string)

	code, body := do(t, r, http.MethodPatch, "/checkouts/"+id, `{"discount_codes": ["10off", "BOGUS"]}`, nil)
	require.Equal(t, http.StatusOK, code)

	unknown := body["unknown_codes"].([]any)
	assert.Equal(t, []any{"BOGUS"}, unknown)

	applied := body["discounts"].(map[string]any)["applied"].([]any)
	require.Len(t, applied, 1)
	assert.Equal(t, "10OFF", applied[0].(map[string]any)["code"])
}

func TestCheckoutValidationErrors(t *testing.T) {
	r := newTestHandler(Config{}).Routes()

	// Unknown payload field.
	code, body := do(t, r, http.MethodPost, "/checkouts", `{"line_items": [], "surprise": 1}`, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, body["message"], "surprise")

	// Malformed JSON.
	code, _ = do(t, r, http.MethodPost, "/checkouts", `{"line_items": `, nil)
	assert.Equal(t, http.StatusBadRequest, code)

	// Invalid currency.
	code, _ = do(t, r, http.MethodPost, "/checkouts", `{"currency": "DOLLARS"}`, nil)
	assert.Equal(t, http.StatusBadRequest, code)

	// Non-positive quantity.
	code, _ = do(t, r, http.MethodPost, "/checkouts", `{"line_items": [{"product_id": "peace_lily", "quantity": 0}]}`, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
}

func TestCompletedCheckoutIsFrozen(t *testing.T) {
	r := newTestHandler(Config{}).Routes()

	_, created := do(t, r, http.MethodPost, "/checkouts", `{"line_items": [{"product_id": "peace_lily"}]}`, nil)
	id := created["id"].(string)

	code, _ := do(t, r, http.MethodPost, "/checkouts/"+id+"/submit", "", nil)
	require.Equal(t, http.StatusCreated, code)

	code, _ = do(t, r, http.MethodPost, "/checkouts/"+id+"/submit", "", nil)
	assert.Equal(t, http.StatusConflict, code)

	code, _ = do(t, r, http.MethodPatch, "/checkouts/"+id, `{"discount_codes": ["10OFF"]}`, nil)
	assert.Equal(t, http.StatusConflict, code)
}

func TestNotFoundResponses(t *testing.T) {
	r := newTestHandler(Config{}).Routes()

	for _, path := range []string{
		"/checkouts/bec2d0ab-0000-0000-0000-000000000000",
		"/orders/ORD-MISSING1",
		"/products/ghost_orchid",
	} {
		code, body := do(t, r, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusNotFound, code, path)
		assert.Equal(t, float64(http.StatusNotFound), body["code"], path)
	}
}

func TestListProducts(t *testing.T) {
	r := newTestHandler(Config{}).Routes()

	code, all := doList(t, r, "/products")
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, all, 8)

	code, cheap := doList(t, r, "/products?max_price=25")
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, cheap, 3)
	for _, p := range cheap {
		price := p.(map[string]any)["price"].(map[string]any)
		assert.LessOrEqual(t, price["amount"].(float64), float64(25))
	}

	code, _ = do(t, r, http.MethodGet, "/products?max_price=abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestGetProduct(t *testing.T) {
	r := newTestHandler(Config{}).Routes()

	code, body := do(t, r, http.MethodGet, "/products/bouquet_roses", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Bouquet of Red Roses", body["title"])
	assert.Equal(t, true, body["in_stock"])

	price := body["price"].(map[string]any)
	assert.Equal(t, float64(35), price["amount"])
	assert.Equal(t, "USD", price["currency"])
}

func TestDiscovery(t *testing.T) {
	r := newTestHandler(Config{}).Routes()

	code, body := do(t, r, http.MethodGet, "/discovery", "", nil)
	require.Equal(t, http.StatusOK, code)

	ucp := body["ucp"].(map[string]any)
	assert.Equal(t, "2026-01-11", ucp["version"])
	assert.Len(t, ucp["capabilities"].([]any), 3)

	handlers := body["payment"].(map[string]any)["handlers"].([]any)
	require.Len(t, handlers, 1)
	assert.Equal(t, "mock_payment", handlers[0].(map[string]any)["id"])
}

func TestAPIKeyProtection(t *testing.T) {
	const (
		key    = "test-api-key"
		pepper = "pepper"
	)
	mac := hmac.New(sha256.New, []byte(pepper))
	mac.Write([]byte(key))
	hash := hex.EncodeToString(mac.Sum(nil))

	r := newTestHandler(Config{APIKeys: []string{hash}, APIKeyPepper: pepper}).Routes()

	// Mutations require the key.
	code, _ := do(t, r, http.MethodPost, "/checkouts", `{"line_items": []}`, nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = do(t, r, http.MethodPost, "/checkouts", `{"line_items": []}`, map[string]string{"api_key": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, code)

	code, created := do(t, r, http.MethodPost, "/checkouts", `{"line_items": []}`, map[string]string{"api_key": key})
	require.Equal(t, http.StatusCreated, code)

	// Reads stay open.
	code, _ = do(t, r, http.MethodGet, "/checkouts/"+created["id"].(string), "", nil)
	assert.Equal(t, http.StatusOK, code)
}
