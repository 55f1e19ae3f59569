package currency

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestRound(t *testing.T) {
	assert.Equal(t, "38.97", Round(decimal.RequireFromString("38.970")).StringFixed(2))
	assert.Equal(t, "0.13", Round(decimal.RequireFromString("0.125")).String())
	assert.Equal(t, "10", Round(decimal.NewFromInt(10)).String())
}

func TestFormat(t *testing.T) {
	cases := []struct {
		amount string
		code   string
		want   string
	}{
		{"25.5", "USD", "$25.50"},
		{"1234.5", "USD", "$1,234.50"},
		{"3", "EUR", "€3.00"},
		{"-5", "USD", "-$5.00"},
		{"12", "nope", "NOPE 12.00"},
		{"12", "", "$12.00"},
		{"7.1", "CHF", "CHF 7.10"},
		{"8", "gbp", "£8.00"},
	}
	for _, tc := range cases {
		t.Run(tc.code+"_"+tc.amount, func(t *testing.T) {
			assert.Equal(t, tc.want, Format(decimal.RequireFromString(tc.amount), tc.code))
		})
	}
}
