package invoice

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

// defaultScale is used for currencies the ISO 4217 table does not know
const defaultScale = 2

// ValidateItems checks that every item has a non-negative quantity and price.
// The first offending item is reported.
func ValidateItems(items []LineItem) error {
	for i, item := range items {
		if item.Quantity.IsNegative() {
			return &ValidationError{Field: "quantity", Index: i, Message: "must not be negative"}
		}
		if item.Price.IsNegative() {
			return &ValidationError{Field: "price", Index: i, Message: "must not be negative"}
		}
	}
	return nil
}

// ComputeTotal sums quantity times price over items and rounds the result to
// the minor units of code, half away from zero. An empty list totals zero.
func ComputeTotal(items []LineItem, code string) (decimal.Decimal, error) {
	if err := ValidateItems(items); err != nil {
		return decimal.Zero, err
	}

	sum := decimal.Zero
	for _, item := range items {
		sum = sum.Add(item.Amount())
	}
	return sum.Round(Scale(code)), nil
}

// Scale returns the number of minor-unit digits for an ISO 4217 code
func Scale(code string) int32 {
	unit, err := currency.ParseISO(strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		return defaultScale
	}
	scale, _ := currency.Standard.Rounding(unit)
	return int32(scale)
}
