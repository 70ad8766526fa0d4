package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// Budget is a monthly spending ceiling and its even daily allotment.
// DailyLimit is fixed when the budget is created and is not recomputed when
// the calendar month changes.
type Budget struct {
	MonthlyLimit Money
	DailyLimit   decimal.Decimal
	SavedAt      time.Time
}

// DaysInMonth returns the number of days in the calendar month containing ref.
func DaysInMonth(ref time.Time) int {
	y, m, _ := ref.Date()
	// Day 0 of the following month is the last day of this one.
	return time.Date(y, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// DailyLimit spreads monthly evenly over the days of ref's month.
// A zero monthly limit yields zero without dividing.
func DailyLimit(monthly Money, ref time.Time) decimal.Decimal {
	if monthly.IsZero() {
		return decimal.Zero
	}
	return monthly.Decimal().Div(decimal.NewFromInt(int64(DaysInMonth(ref))))
}

// NewBudget derives the daily limit for monthly as of ref.
func NewBudget(monthly Money, ref time.Time) Budget {
	return Budget{
		MonthlyLimit: monthly,
		DailyLimit:   DailyLimit(monthly, ref),
		SavedAt:      ref,
	}
}
