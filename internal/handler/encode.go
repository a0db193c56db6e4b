package handler

import (
	"time"

	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/ucp-flower-shop/internal/domain/checkout"
	"github.com/xenking/ucp-flower-shop/internal/domain/discount"
	"github.com/xenking/ucp-flower-shop/internal/domain/order"
	"github.com/xenking/ucp-flower-shop/internal/domain/product"
)

// Monetary amounts serialize as JSON numbers with the 2-decimal convention.
func encodeAmount(e *jx.Encoder, amount decimal.Decimal) {
	e.Float64(amount.Round(2).InexactFloat64())
}

func encodeTime(e *jx.Encoder, t time.Time) {
	e.Str(t.UTC().Format(time.RFC3339))
}

func encodeTotals(e *jx.Encoder, totals []checkout.Total) {
	e.ArrStart()
	for _, t := range totals {
		e.ObjStart()
		e.FieldStart("type")
		e.Str(string(t.Type))
		e.FieldStart("amount")
		encodeAmount(e, t.Amount)
		e.ObjEnd()
	}
	e.ArrEnd()
}

func encodeProduct(e *jx.Encoder, p product.Product) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(p.ID)
	e.FieldStart("title")
	e.Str(p.Title)
	e.FieldStart("description")
	e.Str(p.Description)
	e.FieldStart("price")
	e.ObjStart()
	e.FieldStart("amount")
	encodeAmount(e, p.Price.Amount)
	e.FieldStart("currency")
	e.Str(p.Price.Currency)
	e.ObjEnd()
	e.FieldStart("image_url")
	e.Str(p.ImageURL)
	e.FieldStart("in_stock")
	e.Bool(p.InStock)
	e.ObjEnd()
}

func encodeLineItem(e *jx.Encoder, it checkout.LineItem) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(it.ID)
	e.FieldStart("item")
	e.ObjStart()
	e.FieldStart("id")
	e.Str(it.ProductID)
	e.FieldStart("title")
	e.Str(it.Title)
	e.FieldStart("price")
	encodeAmount(e, it.UnitPrice)
	e.ObjEnd()
	e.FieldStart("quantity")
	e.Int(it.Quantity)
	e.FieldStart("totals")
	encodeTotals(e, it.Totals)
	e.ObjEnd()
}

func encodeLineItems(e *jx.Encoder, items []checkout.LineItem) {
	e.ArrStart()
	for _, it := range items {
		encodeLineItem(e, it)
	}
	e.ArrEnd()
}

func encodeBuyer(e *jx.Encoder, b *checkout.Buyer) {
	// The buyer object is always present on the wire, empty when unset.
	e.ObjStart()
	if b != nil {
		e.FieldStart("full_name")
		e.Str(b.FullName)
		e.FieldStart("email")
		e.Str(b.Email)
	}
	e.ObjEnd()
}

func encodeAddress(e *jx.Encoder, a checkout.Address) {
	e.ObjStart()
	e.FieldStart("first_name")
	e.Str(a.FirstName)
	e.FieldStart("last_name")
	e.Str(a.LastName)
	e.FieldStart("address1")
	e.Str(a.Address1)
	e.FieldStart("city")
	e.Str(a.City)
	e.FieldStart("province")
	e.Str(a.Province)
	e.FieldStart("postal_code")
	e.Str(a.PostalCode)
	e.FieldStart("country")
	e.Str(a.Country)
	e.ObjEnd()
}

func encodeFulfillment(e *jx.Encoder, f *checkout.Fulfillment) {
	if f == nil {
		e.Null()
		return
	}
	e.ObjStart()
	e.FieldStart("destination")
	encodeAddress(e, f.Destination)
	e.ObjEnd()
}

func encodeDiscounts(e *jx.Encoder, d checkout.DiscountState) {
	e.ObjStart()
	e.FieldStart("codes")
	e.ArrStart()
	for _, code := range d.Codes {
		e.Str(code)
	}
	e.ArrEnd()
	e.FieldStart("applied")
	e.ArrStart()
	for _, a := range d.Applied {
		encodeApplied(e, a)
	}
	e.ArrEnd()
	e.ObjEnd()
}

func encodeApplied(e *jx.Encoder, a discount.Applied) {
	e.ObjStart()
	e.FieldStart("code")
	e.Str(a.Code)
	e.FieldStart("title")
	e.Str(a.Title)
	e.FieldStart("amount")
	encodeAmount(e, a.Amount)
	e.ObjEnd()
}

func encodeCheckout(e *jx.Encoder, c checkout.Checkout) {
	e.ObjStart()
	encodeCheckoutFields(e, c)
	e.ObjEnd()
}

// encodeCheckoutFields writes the checkout's fields without the surrounding
// object, so responses can append operation-specific fields.
func encodeCheckoutFields(e *jx.Encoder, c checkout.Checkout) {
	e.FieldStart("id")
	e.Str(c.ID)
	e.FieldStart("status")
	e.Str(string(c.Status))
	e.FieldStart("currency")
	e.Str(c.Currency)
	e.FieldStart("line_items")
	encodeLineItems(e, c.Items)
	e.FieldStart("buyer")
	encodeBuyer(e, c.Buyer)
	e.FieldStart("totals")
	encodeTotals(e, c.Totals)
	e.FieldStart("discounts")
	encodeDiscounts(e, c.Discounts)
	e.FieldStart("fulfillment")
	encodeFulfillment(e, c.Fulfillment)
	e.FieldStart("created_at")
	encodeTime(e, c.CreatedAt)
	if c.OrderID != "" {
		e.FieldStart("order_id")
		e.Str(c.OrderID)
	}
}

func encodeOrder(e *jx.Encoder, o order.Order) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(o.ID)
	e.FieldStart("status")
	e.Str(string(o.Status))
	e.FieldStart("checkout_id")
	e.Str(o.CheckoutID)
	e.FieldStart("line_items")
	encodeLineItems(e, o.Items)
	e.FieldStart("buyer")
	encodeBuyer(e, o.Buyer)
	e.FieldStart("totals")
	encodeTotals(e, o.Totals)
	e.FieldStart("fulfillment")
	encodeFulfillment(e, o.Fulfillment)
	e.FieldStart("payment")
	e.ObjStart()
	e.FieldStart("status")
	e.Str(string(o.Payment.Status))
	e.FieldStart("method")
	e.Str(o.Payment.Method)
	e.ObjEnd()
	e.FieldStart("created_at")
	encodeTime(e, o.CreatedAt)
	e.ObjEnd()
}

func encodeItemRequests(e *jx.Encoder, reqs []checkout.ItemRequest) {
	e.ArrStart()
	for _, r := range reqs {
		e.ObjStart()
		e.FieldStart("product_id")
		e.Str(r.ProductID)
		e.FieldStart("quantity")
		e.Int(r.Quantity)
		e.ObjEnd()
	}
	e.ArrEnd()
}
