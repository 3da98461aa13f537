// Package core holds the domain model of the back office: clients, time
// entries, projections, invoices and the fixed-rate currency table.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Currency is the closed set of billing currencies. Conversion rates are
// static business constants, not live exchange rates: invoices lock the
// rate in effect at send time, so the table must stay stable.
type Currency string

const (
	USD Currency = "USD"
	CAD Currency = "CAD"
)

var (
	rateUSD = decimal.NewFromInt(1)
	rateCAD = decimal.RequireFromString("0.71")
)

// ParseCurrency converts a stored code into a Currency.
func ParseCurrency(s string) (Currency, error) {
	switch Currency(strings.ToUpper(strings.TrimSpace(s))) {
	case USD:
		return USD, nil
	case CAD:
		return CAD, nil
	}
	return "", ErrUnknownCurrency
}

func (c Currency) IsUsd() bool {
	return c == USD
}

func (c Currency) Symbol() string {
	if c == CAD {
		return "C$"
	}
	return "$"
}

func (c Currency) Label() string {
	if c == CAD {
		return "Canadian Dollar"
	}
	return "US Dollar"
}

// ToUsdRate returns the fixed conversion rate into USD.
func (c Currency) ToUsdRate() decimal.Decimal {
	if c == CAD {
		return rateCAD
	}
	return rateUSD
}

// ToUsd converts an amount in this currency to USD, rounded to cents.
func (c Currency) ToUsd(amount decimal.Decimal) decimal.Decimal {
	return amount.Mul(c.ToUsdRate()).Round(2)
}

// FromUsdRate returns the reverse rate, itself rounded to 3 decimals.
// The rounded reverse rate is what gets locked onto invoices, so the
// two-stage rounding in FromUsd is deliberate and must not be collapsed
// into a single division.
func (c Currency) FromUsdRate() decimal.Decimal {
	if c == USD {
		return rateUSD
	}
	return decimal.NewFromInt(1).Div(c.ToUsdRate()).Round(3)
}

// FromUsd converts a USD amount into this currency using the rounded
// reverse rate, then rounds to cents.
func (c Currency) FromUsd(amountUsd decimal.Decimal) decimal.Decimal {
	return amountUsd.Mul(c.FromUsdRate()).Round(2)
}

// Format renders an amount with the currency symbol and thousands
// grouping. Whole amounts drop the decimal places ("$1,200"), anything
// else keeps two ("$1,200.50").
func (c Currency) Format(amount decimal.Decimal) string {
	places := int32(2)
	if amount.Equal(amount.Truncate(0)) {
		places = 0
	}
	return c.Symbol() + groupThousands(amount.StringFixed(places))
}

// groupThousands inserts comma separators into the integer part of a
// plain fixed-point number string.
func groupThousands(s string) string {
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign = "-"
		s = s[1:]
	}
	intPart := s
	fracPart := ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, fracPart = s[:i], s[i:]
	}
	if len(intPart) <= 3 {
		return sign + intPart + fracPart
	}
	var b strings.Builder
	lead := len(intPart) % 3
	if lead > 0 {
		b.WriteString(intPart[:lead])
	}
	for i := lead; i < len(intPart); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(intPart[i : i+3])
	}
	return sign + b.String() + fracPart
}
