package handler

import (
	"io"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/ucp-flower-shop/internal/domain/checkout"
	"github.com/xenking/ucp-flower-shop/internal/domain/order"
)

// Request payloads are tagged structures with explicitly enumerated fields;
// unrecognized keys are rejected rather than silently accepted.

func readBody(r *http.Request) ([]byte, error) {
	defer func() { _ = r.Body.Close() }()
	data, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, errors.Wrap(err, "read request body")
	}
	return data, nil
}

func decodeCreateRequest(data []byte) (order.CreateCheckoutRequest, error) {
	var req order.CreateCheckoutRequest

	d := jx.DecodeBytes(data)
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "line_items":
			return d.Arr(func(d *jx.Decoder) error {
				item, err := decodeItemRequest(d)
				if err != nil {
					return err
				}
				req.Items = append(req.Items, item)
				return nil
			})
		case "buyer":
			buyer, err := decodeBuyer(d)
			if err != nil {
				return err
			}
			req.Buyer = buyer
			return nil
		case "currency":
			cur, err := d.Str()
			if err != nil {
				return err
			}
			req.Currency = cur
			return nil
		default:
			return errors.Errorf("unknown field %q", key)
		}
	}); err != nil {
		return order.CreateCheckoutRequest{}, err
	}

	return req, nil
}

func decodeItemRequest(d *jx.Decoder) (checkout.ItemRequest, error) {
	// Quantity defaults to 1 when omitted.
	item := checkout.ItemRequest{Quantity: 1}

	err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "product_id":
			id, err := d.Str()
			if err != nil {
				return err
			}
			item.ProductID = id
			return nil
		case "quantity":
			qty, err := d.Int()
			if err != nil {
				return err
			}
			item.Quantity = qty
			return nil
		default:
			return errors.Errorf("unknown field %q in line item", key)
		}
	})
	return item, err
}

func decodeBuyer(d *jx.Decoder) (*checkout.Buyer, error) {
	if d.Next() == jx.Null {
		return nil, d.Null()
	}

	var buyer checkout.Buyer
	err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "full_name":
			v, err := d.Str()
			if err != nil {
				return err
			}
			buyer.FullName = v
			return nil
		case "email":
			v, err := d.Str()
			if err != nil {
				return err
			}
			buyer.Email = v
			return nil
		default:
			return errors.Errorf("unknown field %q in buyer", key)
		}
	})
	if err != nil {
		return nil, err
	}
	return &buyer, nil
}

func decodeUpdateRequest(data []byte) (order.UpdateCheckoutRequest, error) {
	var req order.UpdateCheckoutRequest

	d := jx.DecodeBytes(data)
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "shipping_address":
			addr, err := decodeAddress(d)
			if err != nil {
				return err
			}
			req.ShippingAddress = addr
			return nil
		case "discount_codes":
			// Presence with an empty array clears applied discounts, so the
			// slice must be non-nil once the key is seen.
			req.DiscountCodes = []string{}
			return d.Arr(func(d *jx.Decoder) error {
				code, err := d.Str()
				if err != nil {
					return err
				}
				req.DiscountCodes = append(req.DiscountCodes, code)
				return nil
			})
		default:
			return errors.Errorf("unknown field %q", key)
		}
	}); err != nil {
		return order.UpdateCheckoutRequest{}, err
	}

	return req, nil
}

func decodeAddress(d *jx.Decoder) (*checkout.Address, error) {
	if d.Next() == jx.Null {
		return nil, d.Null()
	}

	var addr checkout.Address
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var dst *string
		switch key {
		case "first_name":
			dst = &addr.FirstName
		case "last_name":
			dst = &addr.LastName
		case "address1":
			dst = &addr.Address1
		case "city":
			dst = &addr.City
		case "province":
			dst = &addr.Province
		case "postal_code":
			dst = &addr.PostalCode
		case "country":
			dst = &addr.Country
		default:
			return errors.Errorf("unknown field %q in shipping_address", key)
		}
		v, err := d.Str()
		if err != nil {
			return err
		}
		*dst = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	if addr.Country == "" {
		addr.Country = "US"
	}
	return &addr, nil
}

func decodeSubmitRequest(data []byte) (token string, err error) {
	// An empty body is allowed; the sandbox token is assumed.
	token = "sandbox_test"
	if len(data) == 0 {
		return token, nil
	}

	d := jx.DecodeBytes(data)
	err = d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "payment_token":
			v, err := d.Str()
			if err != nil {
				return err
			}
			if v != "" {
				token = v
			}
			return nil
		default:
			return errors.Errorf("unknown field %q", key)
		}
	})
	return token, err
}
