package core

import (
	"errors"
	"time"
)

// DateLayout is the calendar-date format used by forms and exports.
const DateLayout = "2006-01-02"

type (
	// Date is a calendar date stored as UTC midnight.
	Date struct {
		time.Time
	}

	// Money is a non-negative amount in cents.
	Money struct {
		Cents int64
	}

	// Expense is a single ledger record. It is never modified after creation.
	Expense struct {
		Date        Date
		Category    string
		Description string // may be empty
		Amount      Money
	}
)

var (
	ErrZeroDate      = errors.New("date cannot be zero")
	ErrInvalidAmount = errors.New("invalid amount")
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar date in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, err
	}
	return Date{Time: t}, nil
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.Format(DateLayout)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrZeroDate
	}
	return nil
}

func (m Money) Validate() error {
	if m.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Validate checks the fields the input boundary is responsible for.
// Category and description are accepted as-is: an expense may reference a
// category that is not in the registry, and the description may be empty.
func (e Expense) Validate() error {
	if err := e.Date.Validate(); err != nil {
		return err
	}
	return e.Amount.Validate()
}
