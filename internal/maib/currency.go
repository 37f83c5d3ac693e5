package maib

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ISO 4217 numeric codes accepted by the merchant handler.
var numericCodes = map[string]int{
	"MDL": 498,
	"EUR": 978,
	"USD": 840,
	"RON": 946,
	"GBP": 826,
	"UAH": 980,
	"RUB": 643,
}

func NumericCurrency(alpha string) (int, error) {
	code, ok := numericCodes[strings.ToUpper(alpha)]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnsupportedCurrency, alpha)
	}
	return code, nil
}

// MinorUnits renders an amount the way the merchant handler expects it:
// an integer count of the currency's minor unit (150.00 -> 15000).
func MinorUnits(amount decimal.Decimal) string {
	return amount.Shift(2).Round(0).String()
}
