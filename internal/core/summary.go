package core

import "sort"

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string
	Amount Money
}

// DatePoint is one point of the spending time series.
type DatePoint struct {
	Date   Date
	Amount Money
}

// Total sums the amounts of expenses. An empty slice totals zero.
func Total(expenses []Expense) Money {
	var total Money
	for _, e := range expenses {
		total = total.Add(e.Amount)
	}
	return total
}

// ByCategory sums amounts per category name (exact, case-sensitive match).
// Groups are returned in order of first occurrence in expenses.
func ByCategory(expenses []Expense) []CategoryAmount {
	index := make(map[string]int)
	var out []CategoryAmount
	for _, e := range expenses {
		i, ok := index[e.Category]
		if !ok {
			i = len(out)
			index[e.Category] = i
			out = append(out, CategoryAmount{Name: e.Category})
		}
		out[i].Amount = out[i].Amount.Add(e.Amount)
	}
	return out
}

// CategoryTotals is ByCategory keyed by category name.
func CategoryTotals(expenses []Expense) map[string]Money {
	out := make(map[string]Money)
	for _, ca := range ByCategory(expenses) {
		out[ca.Name] = ca.Amount
	}
	return out
}

// ByDate returns one point per expense, in ledger order. Expenses sharing a
// date are not merged; see DailyTotals for the aggregated series.
func ByDate(expenses []Expense) []DatePoint {
	out := make([]DatePoint, 0, len(expenses))
	for _, e := range expenses {
		out = append(out, DatePoint{Date: e.Date, Amount: e.Amount})
	}
	return out
}

// DailyTotals returns one point per distinct date holding the sum of that
// day's expenses, sorted by date ascending.
func DailyTotals(expenses []Expense) []DatePoint {
	sums := make(map[Date]Money)
	for _, e := range expenses {
		d := DateOf(e.Date.Time)
		sums[d] = sums[d].Add(e.Amount)
	}
	out := make([]DatePoint, 0, len(sums))
	for d, m := range sums {
		out = append(out, DatePoint{Date: d, Amount: m})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date.Time) })
	return out
}
