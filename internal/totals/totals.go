// Package totals derives the list footer aggregates from its items.
package totals

import (
	"github.com/shopspring/decimal"

	"github.com/vyrodovalexey/shoplist-api/internal/model"
)

// maxExponent bounds the decimal exponent of a summed value. Text such as
// "1e20000000" parses cheaply but would expand to millions of digits once
// added or rendered.
const maxExponent = 12

// Compute sums quantities and amounts over items. The amount of an item
// is the value entered for the whole line, so it is not multiplied by
// the quantity. Text that does not parse, or whose exponent is out of
// range, counts as zero.
func Compute(items []model.ProductItem) model.Totals {
	qtd := decimal.Zero
	amount := decimal.Zero

	for _, item := range items {
		qtd = qtd.Add(parseOrZero(item.Qtd))
		amount = amount.Add(parseOrZero(item.Amount))
	}

	return model.Totals{
		TotalQtd:    qtd,
		TotalAmount: amount,
	}
}

func parseOrZero(text string) decimal.Decimal {
	d, err := model.ParseNumber(text)
	if err != nil {
		return decimal.Zero
	}
	if exp := d.Exponent(); exp > maxExponent || exp < -maxExponent {
		return decimal.Zero
	}
	return d
}
