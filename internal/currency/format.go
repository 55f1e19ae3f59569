// Package currency rounds and formats money amounts held as shopspring decimals.
package currency

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// MinorUnits is the persisted precision for money amounts.
const MinorUnits = 2

var printer = message.NewPrinter(language.English)

// Round rounds half away from zero to the currency's minor unit.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(MinorUnits)
}

// Format renders amount for display, e.g. Format(1234.5, "USD") == "$1,234.50".
// An empty code means USD. Codes without a symbol, and codes that are not ISO
// 4217 at all, are written as an upper-case prefix ("CHF 7.10").
func Format(amount decimal.Decimal, code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		code = currency.USD.String()
	}

	prefix := code + " "
	if unit, err := currency.ParseISO(code); err == nil {
		prefix = symbol(unit)
	}

	value, _ := Round(amount).Abs().Float64()
	body := printer.Sprint(number.Decimal(value, number.Scale(MinorUnits)))
	if amount.IsNegative() && !Round(amount).IsZero() {
		return "-" + prefix + body
	}
	return prefix + body
}

func symbol(unit currency.Unit) string {
	sym := printer.Sprint(currency.Symbol(unit))
	if sym == unit.String() {
		return sym + " "
	}
	return sym
}
