package http

import (
	"fmt"
	"net/url"
	"strings"

	"expensetracker/internal/core"
)

// FieldError reports a form field that failed validation.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ParseExpenseForm validates the add-expense form. An empty date means
// today. Category and description are taken as typed, padding included;
// only control characters are removed.
func ParseExpenseForm(form url.Values, today core.Date) (core.Expense, error) {
	e := core.Expense{
		Date:        today,
		Category:    stripControl(form.Get("category")),
		Description: stripControl(form.Get("description")),
	}

	if v := strings.TrimSpace(form.Get("date")); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			return core.Expense{}, &FieldError{Field: "date", Message: "date must be in YYYY-MM-DD format"}
		}
		e.Date = d
	}

	amount := strings.TrimSpace(form.Get("amount"))
	if amount == "" {
		return core.Expense{}, &FieldError{Field: "amount", Message: "amount is required"}
	}
	m, err := core.ParseAmount(amount)
	if err != nil {
		return core.Expense{}, &FieldError{Field: "amount", Message: "amount must be a non-negative number"}
	}
	e.Amount = m
	return e, nil
}

// ParseMoneyField reads a non-negative amount from field. Empty means zero.
func ParseMoneyField(form url.Values, field string) (core.Money, error) {
	v := strings.TrimSpace(form.Get(field))
	if v == "" {
		return core.Money{}, nil
	}
	m, err := core.ParseAmount(v)
	if err != nil {
		return core.Money{}, &FieldError{Field: field, Message: "must be a non-negative number"}
	}
	return m, nil
}

// ParseCredentials returns the trimmed username and the password as sent.
func ParseCredentials(form url.Values) (username, password string) {
	return sanitizeInput(form.Get("username")), form.Get("password")
}
