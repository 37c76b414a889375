package service

import (
	"fmt"
	"strings"

	"github.com/rongwang/budget-server/internal/apperr"
	"github.com/shopspring/decimal"
)

const (
	// AmountScale is the number of decimal places an amount may carry
	AmountScale = 2
	// MaxAmountDigits bounds the integer part; amounts stay below 10^12
	MaxAmountDigits = 12
)

// checkAmount holds an amount to the range of a NUMERIC(14,2) column and
// returns it with at most AmountScale decimal places. Only the digit count
// and exponent are inspected before rounding, so an input such as
// "1e50000000" is rejected without being expanded.
func checkAmount(field string, amount decimal.Decimal) (decimal.Decimal, error) {
	if amount.IsZero() {
		return decimal.Zero, nil
	}

	digits := int64(amount.Abs().NumDigits())
	exp := int64(amount.Exponent())

	if digits+exp > MaxAmountDigits {
		return decimal.Zero, apperr.InvalidField(field,
			fmt.Sprintf("%s must be less than 1%s", field, strings.Repeat("0", MaxAmountDigits)))
	}

	if exp >= -AmountScale {
		return amount, nil
	}

	tooPrecise := apperr.InvalidField(field, fmt.Sprintf("%s must have at most %d decimal places", field, AmountScale))

	// Every digit sits below one cent.
	if exp < -(AmountScale + digits) {
		return decimal.Zero, tooPrecise
	}

	rounded := amount.Round(AmountScale)
	if !rounded.Equal(amount) {
		return decimal.Zero, tooPrecise
	}

	return rounded, nil
}
