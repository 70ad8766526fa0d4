package http

import (
	"encoding/json"
	"net/http"

	"expensetracker/internal/core"
)

type categoryJSON struct {
	Name        string  `json:"name"`
	Slug        string  `json:"slug"`
	Amount      float64 `json:"amount"`
	AmountCents int64   `json:"amount_cents"`
}

type pointJSON struct {
	Date        string  `json:"date"`
	Amount      float64 `json:"amount"`
	AmountCents int64   `json:"amount_cents"`
}

type analyticsJSON struct {
	Count      int            `json:"count"`
	Total      float64        `json:"total"`
	TotalCents int64          `json:"total_cents"`
	ByCategory []categoryJSON `json:"by_category"`
	Series     []pointJSON    `json:"series"`
	SeriesKind string         `json:"series_kind"`
}

const (
	seriesPerExpense  = "per_expense"
	seriesDailyTotals = "daily_totals"
)

// handleAnalytics feeds the chart widgets.
func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	expenses := stateFrom(r.Context()).Expenses()
	total := core.Total(expenses)

	out := analyticsJSON{
		Count:      len(expenses),
		Total:      decimalJSON(total.Decimal()),
		TotalCents: total.Cents,
		ByCategory: []categoryJSON{},
		Series:     []pointJSON{},
		SeriesKind: seriesPerExpense,
	}
	if s.opts.DailyTotals {
		out.SeriesKind = seriesDailyTotals
	}

	for _, g := range core.ByCategory(expenses) {
		out.ByCategory = append(out.ByCategory, categoryJSON{
			Name:        g.Name,
			Slug:        core.Slug(g.Name),
			Amount:      decimalJSON(g.Amount.Decimal()),
			AmountCents: g.Amount.Cents,
		})
	}
	for _, p := range s.series(expenses) {
		out.Series = append(out.Series, pointJSON{
			Date:        p.Date.String(),
			Amount:      decimalJSON(p.Amount.Decimal()),
			AmountCents: p.Amount.Cents,
		})
	}

	writeJSON(w, http.StatusOK, out)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
