package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

type Money struct {
	Amount   decimal.Decimal
	Currency currency.Unit
}

// Rounded returns the amount rounded to the currency's standard minor unit,
// i.e. 2 digits for USD, 0 for JPY.
func (m Money) Rounded() Money {
	return Money{
		Amount:   m.Amount.Round(m.scale()),
		Currency: m.Currency,
	}
}

// AmountString renders the amount with the currency's minor unit digits,
// or with all of its digits when fewer would round it.
func (m Money) AmountString() string {
	scale := m.scale()
	if m.Amount.Equal(m.Amount.Round(scale)) {
		return m.Amount.StringFixed(scale)
	}
	return m.Amount.String()
}

func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.AmountString(), m.Currency)
}

func (m Money) scale() int32 {
	scale, _ := currency.Standard.Rounding(m.Currency)
	return int32(scale)
}
