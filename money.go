package cryptofolio

import (
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// FormatMoney renders a cash amount in the given quote currency, e.g.
// "$1,234.56". Unknown currency codes fall back to USD formatting.
func FormatMoney(value float64, currency string) string {
	code := strings.ToUpper(currency)
	if money.GetCurrency(code) == nil {
		code = money.USD
	}
	cur := money.GetCurrency(code)
	minor := decimal.NewFromFloat(value).Shift(int32(cur.Fraction)).Round(0)
	return money.New(minor.IntPart(), code).Display()
}
