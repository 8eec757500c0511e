// Package core holds the budgeting domain types shared by every layer.
//
// This file contains money parsing, arithmetic and formatting. Amounts are
// stored as integer cents; percentage maths goes through decimal so rounding
// is always half-up to the cent.
package core

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseDecimalToCents converts a decimal string to cents with half-up rounding.
//
// Both dot (12.34) and comma (12,34) separators are accepted. Zero is a valid
// amount; signs, exponents and anything that is not a plain decimal are not.
//
// Examples:
//
//	ParseDecimalToCents("12.34")  -> 1234, nil
//	ParseDecimalToCents("12,345") -> 1235, nil
//	ParseDecimalToCents("0")      -> 0, nil
//	ParseDecimalToCents("-1")     -> 0, ErrInvalidAmount
func ParseDecimalToCents(s string) (int64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if s == "" || strings.ContainsAny(s, "+-eE") {
		return 0, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	cents := d.Shift(2).Round(0)
	if !cents.IsInteger() || cents.GreaterThan(decimal.NewFromInt(maxCents)) {
		return 0, ErrInvalidAmount
	}
	return cents.IntPart(), nil
}

const maxCents = (1<<63 - 1) / 100

// ParseMoney is the lenient form used for form input: anything that does not
// parse as a non-negative amount becomes zero.
func ParseMoney(s string) Money {
	cents, err := ParseDecimalToCents(s)
	if err != nil {
		return Money{}
	}
	return Money{Cents: cents}
}

// MoneyFromFloat rounds f half-up to the nearest cent.
func MoneyFromFloat(f float64) Money {
	return Money{Cents: decimal.NewFromFloat(f).Shift(2).Round(0).IntPart()}
}

// Cent builds Money from a whole-unit and cent pair, e.g. Cent(18, 99).
func Cent(units, cents int64) Money {
	return Money{Cents: units*100 + cents}
}

func (m Money) Add(o Money) Money { return Money{Cents: m.Cents + o.Cents} }
func (m Money) Sub(o Money) Money { return Money{Cents: m.Cents - o.Cents} }

// Times multiplies by a whole quantity.
func (m Money) Times(n int) Money { return Money{Cents: m.Cents * int64(n)} }

// Percent returns m scaled by rate (0.85 for 85%), rounded half-up to the cent.
func (m Money) Percent(rate decimal.Decimal) Money {
	return Money{Cents: decimal.NewFromInt(m.Cents).Mul(rate).Round(0).IntPart()}
}

// Div splits m into n equal parts rounded to the cent. Div by zero yields zero.
func (m Money) Div(n int64) Money {
	if n == 0 {
		return Money{}
	}
	return Money{Cents: decimal.NewFromInt(m.Cents).Div(decimal.NewFromInt(n)).Round(0).IntPart()}
}

func (m Money) IsNegative() bool { return m.Cents < 0 }

// Decimal returns the amount in currency units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// Float returns the amount in currency units for display only.
func (m Money) Float() float64 {
	return m.Decimal().InexactFloat64()
}

// String formats with exactly two decimals, e.g. "16.14".
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

// MarshalJSON writes money as a JSON number with two decimals.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON accepts a JSON number or a numeric string.
func (m *Money) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*m = Money{}
		return nil
	}
	s := string(b)
	if len(b) > 0 && b[0] == '"' {
		unq, err := strconv.Unquote(s)
		if err != nil {
			return ErrInvalidAmount
		}
		s = unq
	}
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return ErrInvalidAmount
	}
	m.Cents = d.Shift(2).Round(0).IntPart()
	return nil
}
