package checkout

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seq(totals []Total) []string {
	out := make([]string, len(totals))
	for i, t := range totals {
		out[i] = string(t.Type) + "=" + t.Amount.String()
	}
	return out
}

func TestCalculateTotalsSubtotalOnly(t *testing.T) {
	totals := CalculateTotals(decimal.NewFromInt(70), decimal.Zero, decimal.Zero)
	assert.Equal(t, []string{"subtotal=70", "total=70"}, seq(totals))
}

func TestCalculateTotalsFullSequence(t *testing.T) {
	totals := CalculateTotals(
		decimal.NewFromInt(70),
		decimal.RequireFromString("5.99"),
		decimal.NewFromInt(14),
	)
	assert.Equal(t, []string{"subtotal=70", "shipping=5.99", "discount=14", "total=61.99"}, seq(totals))
}

func TestCalculateTotalsOmitsZeroComponents(t *testing.T) {
	totals := CalculateTotals(decimal.NewFromInt(50), decimal.Zero, decimal.NewFromInt(5))
	assert.Equal(t, []string{"subtotal=50", "discount=5", "total=45"}, seq(totals))
}

func TestCalculateTotalsCanGoNegative(t *testing.T) {
	// A flat discount on an empty cart pushes the total below zero. The
	// sequence stays arithmetically consistent rather than clamping.
	totals := CalculateTotals(decimal.Zero, decimal.Zero, decimal.RequireFromString("5.99"))
	assert.Equal(t, []string{"subtotal=0", "discount=5.99", "total=-5.99"}, seq(totals))
}

func TestCalculateTotalsZeroEverything(t *testing.T) {
	totals := CalculateTotals(decimal.Zero, decimal.Zero, decimal.Zero)
	require.Len(t, totals, 2)
	assert.Equal(t, TotalSubtotal, totals[0].Type)
	assert.Equal(t, TotalGrand, totals[1].Type)
}

func TestSubtotalReadsTotalsSequence(t *testing.T) {
	c := Checkout{Totals: CalculateTotals(decimal.NewFromInt(35), decimal.Zero, decimal.Zero)}
	assert.Equal(t, "35", c.Subtotal().String())

	empty := Checkout{}
	assert.True(t, empty.Subtotal().IsZero())
}
