// Package core provides money parsing and handling utilities.
//
// This file contains functions for parsing monetary amounts from strings
// and converting between cents and decimal representations.
package core

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// maxCents bounds a single parsed amount. It does not bound sums: Add
// saturates instead.
const maxCents = int64(1) << 53

// ParseAmount converts a decimal string to Money with half-up rounding to cents.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators. Zero is a
// valid amount; negative values, signs, exponents and anything that is not a
// plain decimal number are rejected with ErrInvalidAmount.
//
// Examples:
//
//	ParseAmount("12.34")  -> 1234 cents
//	ParseAmount("12,34")  -> 1234 cents
//	ParseAmount("12.345") -> 1235 cents (half-up)
//	ParseAmount("0")      -> 0 cents
func ParseAmount(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	for _, r := range s {
		if (r < '0' || r > '9') && r != '.' {
			return Money{}, ErrInvalidAmount
		}
	}
	if strings.Count(s, ".") > 1 || s == "." {
		return Money{}, ErrInvalidAmount
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	cents := d.Round(2).Shift(2)
	if cents.GreaterThan(decimal.NewFromInt(maxCents)) {
		return Money{}, ErrInvalidAmount
	}
	return Money{Cents: cents.IntPart()}, nil
}

// MoneyFromDecimal rounds d half-up to cents.
func MoneyFromDecimal(d decimal.Decimal) Money {
	return Money{Cents: d.Round(2).Shift(2).IntPart()}
}

// Decimal returns the amount as an exact decimal value.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// String formats the amount with exactly two decimal places, e.g. "12.50".
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

// Float returns the amount as a float64 for chart payloads.
// Use cents for calculations to avoid floating-point precision issues.
func (m Money) Float() float64 {
	return m.Decimal().InexactFloat64()
}

// Add returns m + o, clamped to the int64 range rather than wrapping.
// Clamping keeps sums monotonic, so a saturated group total still equals
// the saturated grand total.
func (m Money) Add(o Money) Money {
	switch {
	case o.Cents > 0 && m.Cents > math.MaxInt64-o.Cents:
		return Money{Cents: math.MaxInt64}
	case o.Cents < 0 && m.Cents < math.MinInt64-o.Cents:
		return Money{Cents: math.MinInt64}
	}
	return Money{Cents: m.Cents + o.Cents}
}

// IsZero reports whether the amount is zero.
func (m Money) IsZero() bool {
	return m.Cents == 0
}
