package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/jx"
)

// CreateCheckout opens a new checkout session from the requested line items.
// Unresolvable product ids do not fail the request; they are reported in the
// unresolved_items field of the response.
func (h *Handler) CreateCheckout(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		writeBadRequest(w, err)
		return
	}

	req, err := decodeCreateRequest(body)
	if err != nil {
		writeBadRequest(w, err)
		return
	}

	result, err := h.service.CreateCheckout(r.Context(), req)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	e := &jx.Encoder{}
	e.ObjStart()
	encodeCheckoutFields(e, result.Checkout)
	if len(result.Unresolved) > 0 {
		e.FieldStart("unresolved_items")
		encodeItemRequests(e, result.Unresolved)
	}
	e.ObjEnd()
	writeJSON(w, http.StatusCreated, e.Bytes())
}

// GetCheckout returns the current state of a checkout session.
func (h *Handler) GetCheckout(w http.ResponseWriter, r *http.Request) {
	c, err := h.service.GetCheckout(r.Context(), chi.URLParam(r, "checkoutID"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	e := &jx.Encoder{}
	encodeCheckout(e, c)
	writeJSON(w, http.StatusOK, e.Bytes())
}

// UpdateCheckout attaches a shipping address and/or replaces the applied
// discount codes, then recomputes totals. Submitted codes that match no
// catalog entry are reported in the unknown_codes field.
func (h *Handler) UpdateCheckout(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		writeBadRequest(w, err)
		return
	}

	req, err := decodeUpdateRequest(body)
	if err != nil {
		writeBadRequest(w, err)
		return
	}

	result, err := h.service.UpdateCheckout(r.Context(), chi.URLParam(r, "checkoutID"), req)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	e := &jx.Encoder{}
	e.ObjStart()
	encodeCheckoutFields(e, result.Checkout)
	if len(result.UnknownCodes) > 0 {
		e.FieldStart("unknown_codes")
		e.ArrStart()
		for _, code := range result.UnknownCodes {
			e.Str(code)
		}
		e.ArrEnd()
	}
	e.ObjEnd()
	writeJSON(w, http.StatusOK, e.Bytes())
}

// SubmitCheckout finalizes the session into an order.
func (h *Handler) SubmitCheckout(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		writeBadRequest(w, err)
		return
	}

	token, err := decodeSubmitRequest(body)
	if err != nil {
		writeBadRequest(w, err)
		return
	}

	o, err := h.service.SubmitCheckout(r.Context(), chi.URLParam(r, "checkoutID"), token)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	e := &jx.Encoder{}
	encodeOrder(e, o)
	writeJSON(w, http.StatusCreated, e.Bytes())
}
