package http

import (
	"strings"

	"github.com/shopspring/decimal"

	"expensetracker/internal/config"
	"expensetracker/internal/core"
)

// Currency renders amounts with a configured label.
type Currency struct {
	Symbol string
	// Suffix places the symbol after the number ("12.50 Rs").
	Suffix bool
}

// CurrencyFromConfig builds the formatter selected by CURRENCY_SYMBOL and
// CURRENCY_POSITION.
func CurrencyFromConfig(cfg *config.Config) Currency {
	return Currency{Symbol: cfg.CurrencySymbol, Suffix: cfg.CurrencyPosition == config.CurrencySuffix}
}

// Money formats m with two decimals and the currency label.
func (c Currency) Money(m core.Money) string {
	return c.label(m.String())
}

// Decimal formats d rounded to two decimals with the currency label.
func (c Currency) Decimal(d decimal.Decimal) string {
	return c.label(d.StringFixed(2))
}

func (c Currency) label(amount string) string {
	switch {
	case c.Symbol == "":
		return amount
	case c.Suffix:
		return amount + " " + c.Symbol
	default:
		return c.Symbol + amount
	}
}

// sanitizeInput trims whitespace and strips control characters. Used for
// usernames, where padding is never meaningful.
func sanitizeInput(s string) string {
	return stripControl(strings.TrimSpace(s))
}

// stripControl drops control characters other than tab and line breaks and
// otherwise keeps s as typed.
func stripControl(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s)
}

// barWidth scales amount against max to a percentage, keeping non-zero
// values visible.
func barWidth(amount, max int64) int {
	if max <= 0 || amount <= 0 {
		return 0
	}
	w := int(decimal.NewFromInt(amount).Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(max)).Round(0).IntPart())
	if w < 2 {
		w = 2
	}
	if w > 100 {
		w = 100
	}
	return w
}
