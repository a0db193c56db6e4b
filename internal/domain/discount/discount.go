package discount

import (
	"sort"
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// EffectType enumerates the supported discount code effects.
type EffectType string

const (
	// EffectPercentage reduces the order by a percentage of the subtotal.
	EffectPercentage EffectType = "percentage"
	// EffectFlat reduces the order by a fixed amount, independent of subtotal.
	EffectFlat EffectType = "flat"
)

var hundred = decimal.NewFromInt(100)

// Rule is a single entry in the fixed discount catalog. Exactly one of the
// two effects applies, selected by Type: Value is a percentage for
// EffectPercentage and a monetary amount for EffectFlat.
type Rule struct {
	Code  string
	Title string
	Type  EffectType
	Value decimal.Decimal
}

// Applied is the resolved monetary effect of one submitted code.
type Applied struct {
	Code   string
	Title  string
	Amount decimal.Decimal
}

// Result holds the outcome of applying a set of submitted codes.
//
// Applied preserves submission order and is not deduplicated: submitting the
// same code twice accumulates its effect twice. Unknown lists submitted codes
// that matched no catalog entry, so callers can surface them instead of
// dropping them silently.
type Result struct {
	Applied []Applied
	Unknown []string
	Total   decimal.Decimal
}

// Catalog is a fixed, case-insensitive discount code catalog.
type Catalog struct {
	rules map[string]Rule
	order []string
}

// NewCatalog builds a catalog from the given rules. Codes are canonicalized
// to upper case; a later rule with the same code replaces an earlier one.
func NewCatalog(rules ...Rule) *Catalog {
	c := &Catalog{rules: make(map[string]Rule, len(rules))}
	for _, r := range rules {
		code := strings.ToUpper(r.Code)
		if _, ok := c.rules[code]; !ok {
			c.order = append(c.order, code)
		}
		r.Code = code
		c.rules[code] = r
	}
	return c
}

// DefaultRules returns the built-in flower shop discount codes.
func DefaultRules() []Rule {
	return []Rule{
		{Code: "10OFF", Title: "10% Off", Type: EffectPercentage, Value: decimal.NewFromInt(10)},
		{Code: "FLOWERS20", Title: "20% Off Flowers", Type: EffectPercentage, Value: decimal.NewFromInt(20)},
		{Code: "FREESHIP", Title: "Free Shipping", Type: EffectFlat, Value: decimal.RequireFromString("5.99")},
	}
}

// DefaultCatalog returns a catalog holding only the built-in codes.
func DefaultCatalog() *Catalog {
	return NewCatalog(DefaultRules()...)
}

// Lookup resolves a code case-insensitively.
func (c *Catalog) Lookup(code string) (Rule, bool) {
	r, ok := c.rules[strings.ToUpper(code)]
	return r, ok
}

// Codes returns every known code in sorted order.
func (c *Catalog) Codes() []string {
	codes := make([]string, 0, len(c.rules))
	for code := range c.rules {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Apply evaluates the submitted codes against the given subtotal.
//
// Effects are additive with no precedence, exclusivity, or cap: the result
// total is the plain sum of each applied code's amount and may exceed the
// subtotal. A flat code applies in full even on a zero subtotal.
func (c *Catalog) Apply(codes []string, subtotal decimal.Decimal) Result {
	res := Result{Total: decimal.Zero}
	for _, code := range codes {
		rule, ok := c.Lookup(code)
		if !ok {
			res.Unknown = append(res.Unknown, code)
			continue
		}
		amount := rule.Amount(subtotal)
		res.Total = res.Total.Add(amount)
		res.Applied = append(res.Applied, Applied{
			Code:   rule.Code,
			Title:  rule.Title,
			Amount: amount,
		})
	}
	return res
}

// Amount computes the monetary effect of the rule for the given subtotal,
// rounded to 2 decimal places.
func (r Rule) Amount(subtotal decimal.Decimal) decimal.Decimal {
	switch r.Type {
	case EffectPercentage:
		return subtotal.Mul(r.Value).Div(hundred).Round(2)
	case EffectFlat:
		return r.Value.Round(2)
	default:
		// Unknown types come only from hand-edited rule files; treat as no-op.
		return decimal.Zero
	}
}

// Validate checks that a rule is well-formed. Used when loading external
// rule files.
func (r Rule) Validate() error {
	if r.Code == "" {
		return errors.New("discount rule: empty code")
	}
	switch r.Type {
	case EffectPercentage, EffectFlat:
	default:
		return errors.Errorf("discount rule %q: unsupported effect type %q", r.Code, r.Type)
	}
	if r.Value.IsNegative() {
		return errors.Errorf("discount rule %q: negative value", r.Code)
	}
	return nil
}
