package cart

import (
	"github.com/shopspring/decimal"
)

// Rates are the fractional tax and service charge applied to the subtotal.
type Rates struct {
	Tax     decimal.Decimal
	Service decimal.Decimal
}

// DefaultRates is 5% tax and a 10% service charge.
func DefaultRates() Rates {
	return Rates{
		Tax:     decimal.New(5, -2),
		Service: decimal.New(10, -2),
	}
}

// Totals are the derived monetary fields of a cart.
type Totals struct {
	Subtotal      decimal.Decimal `json:"subtotal"`
	Tax           decimal.Decimal `json:"tax"`
	ServiceCharge decimal.Decimal `json:"serviceCharge"`
	Total         decimal.Decimal `json:"total"`
}

func (t Totals) Equal(o Totals) bool {
	return t.Subtotal.Equal(o.Subtotal) &&
		t.Tax.Equal(o.Tax) &&
		t.ServiceCharge.Equal(o.ServiceCharge) &&
		t.Total.Equal(o.Total)
}

// round2 rounds half away from zero, which is half-up for the
// non-negative amounts a cart produces.
func round2(d decimal.Decimal) decimal.Decimal { return d.Round(2) }

// Compute derives totals from items alone. The subtotal is rounded once
// and is the base for tax, service charge and total.
func Compute(items []LineItem, r Rates) Totals {
	sum := decimal.Zero
	for _, li := range items {
		sum = sum.Add(lineTotal(li.UnitPrice, li.Quantity))
	}
	subtotal := round2(sum)
	tax := round2(subtotal.Mul(r.Tax))
	service := round2(subtotal.Mul(r.Service))
	return Totals{
		Subtotal:      subtotal,
		Tax:           tax,
		ServiceCharge: service,
		Total:         round2(subtotal.Add(tax).Add(service)),
	}
}
