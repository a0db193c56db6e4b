package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/ucp-flower-shop/internal/domain/checkout"
	"github.com/xenking/ucp-flower-shop/internal/domain/order"
	"github.com/xenking/ucp-flower-shop/internal/domain/product"
)

// writeError writes the API error shape: {"code": <status>, "message": ...}.
func writeError(w http.ResponseWriter, status int, message string) {
	e := &jx.Encoder{}
	e.ObjStart()
	e.FieldStart("code")
	e.Int(status)
	e.FieldStart("message")
	e.Str(message)
	e.ObjEnd()
	writeJSON(w, status, e.Bytes())
}

// writeBadRequest reports a malformed or rejected request payload.
func writeBadRequest(w http.ResponseWriter, err error) {
	writeError(w, http.StatusBadRequest, err.Error())
}

// writeDomainError maps domain errors to HTTP responses. Unrecognized errors
// are logged and reported as 500 without leaking details.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, checkout.ErrNotFound),
		errors.Is(err, order.ErrNotFound),
		errors.Is(err, product.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
		return
	case errors.Is(err, checkout.ErrAlreadyCompleted):
		writeError(w, http.StatusConflict, err.Error())
		return
	}

	var iqErr *checkout.InvalidQuantityError
	if errors.As(err, &iqErr) {
		writeError(w, http.StatusUnprocessableEntity, iqErr.Error())
		return
	}

	var icErr *checkout.InvalidCurrencyError
	if errors.As(err, &icErr) {
		writeError(w, http.StatusBadRequest, icErr.Error())
		return
	}

	zctx.From(r.Context()).Error("request failed", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal error")
}
