package http

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"expensetracker/internal/core"
	"expensetracker/internal/export"
	"expensetracker/internal/log"
	"expensetracker/internal/session"
)

// viewPage is the data every view template receives.
type viewPage struct {
	chrome
	Data any
}

type addExpenseData struct {
	Today      string
	Categories []string
}

type expenseRow struct {
	Date, Category, Description, Amount string
}

type expensesData struct {
	Empty bool
	Rows  []expenseRow
	Total string
}

type categoriesData struct {
	Categories []string
}

type categoryRow struct {
	Name, Slug, Amount string
	Width              int
}

type pointRow struct {
	Date, Amount string
	Width        int
}

type analyticsData struct {
	Empty       bool
	Total       string
	ByCategory  []categoryRow
	Series      []pointRow
	DailyTotals bool
}

type settingsData struct {
	HasBudget    bool
	MonthlyLimit string
	DailyLimit   string
	MonthlyInput string
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	v, err := ParseView(chi.URLParam(r, "view"))
	if err != nil {
		http.Error(w, "page not found", http.StatusNotFound)
		return
	}
	st := stateFrom(r.Context())

	var data any
	switch v {
	case AddExpense:
		data = addExpenseData{Today: s.today().String(), Categories: st.Categories()}
	case ViewExpenses:
		data = s.expensesData(st)
	case ManageCategories:
		data = categoriesData{Categories: st.Categories()}
	case Analytics:
		data = s.analyticsData(st)
	case Settings:
		data = s.settingsData(st)
	case Logout:
		// Rendering only; the session ends on POST /logout.
	default:
		panic(fmt.Sprintf("unhandled view %d", v))
	}

	s.render(w, r, http.StatusOK, v.Slug()+".html", viewPage{
		chrome: chrome{Title: v.Title(), User: st.Username(), View: v, Views: Views},
		Data:   data,
	})
}

func (s *Server) expensesData(st *session.State) expensesData {
	expenses := st.Expenses()
	d := expensesData{Empty: len(expenses) == 0, Total: s.opts.Currency.Money(core.Total(expenses))}
	for _, e := range expenses {
		d.Rows = append(d.Rows, expenseRow{
			Date:        e.Date.String(),
			Category:    e.Category,
			Description: e.Description,
			Amount:      s.opts.Currency.Money(e.Amount),
		})
	}
	return d
}

func (s *Server) analyticsData(st *session.State) analyticsData {
	expenses := st.Expenses()
	d := analyticsData{Empty: len(expenses) == 0, DailyTotals: s.opts.DailyTotals}
	if d.Empty {
		return d
	}
	d.Total = s.opts.Currency.Money(core.Total(expenses))

	groups := core.ByCategory(expenses)
	var maxCat int64
	for _, g := range groups {
		maxCat = max(maxCat, g.Amount.Cents)
	}
	for _, g := range groups {
		d.ByCategory = append(d.ByCategory, categoryRow{
			Name:   g.Name,
			Slug:   core.Slug(g.Name),
			Amount: s.opts.Currency.Money(g.Amount),
			Width:  barWidth(g.Amount.Cents, maxCat),
		})
	}

	points := s.series(expenses)
	var maxPoint int64
	for _, p := range points {
		maxPoint = max(maxPoint, p.Amount.Cents)
	}
	for _, p := range points {
		d.Series = append(d.Series, pointRow{
			Date:   p.Date.String(),
			Amount: s.opts.Currency.Money(p.Amount),
			Width:  barWidth(p.Amount.Cents, maxPoint),
		})
	}
	return d
}

// series picks the time series variant selected by configuration.
func (s *Server) series(expenses []core.Expense) []core.DatePoint {
	if s.opts.DailyTotals {
		return core.DailyTotals(expenses)
	}
	return core.ByDate(expenses)
}

func (s *Server) settingsData(st *session.State) settingsData {
	b, ok := st.Budget()
	if !ok {
		return settingsData{}
	}
	return settingsData{
		HasBudget:    true,
		MonthlyLimit: s.opts.Currency.Money(b.MonthlyLimit),
		DailyLimit:   s.opts.Currency.Decimal(b.DailyLimit),
		MonthlyInput: b.MonthlyLimit.String(),
	}
}

// respond finishes a form post: htmx gets the fragment, plain forms are
// redirected back to view.
func respond(w http.ResponseWriter, r *http.Request, b *HTMXResponseBuilder, v View) {
	if isHTMX(r) {
		b.Write(w)
		return
	}
	http.Redirect(w, r, v.Path(), http.StatusSeeOther)
}

func (s *Server) handleAddExpense(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	st := stateFrom(ctx)

	if err := r.ParseForm(); err != nil {
		ErrorResponse(http.StatusBadRequest, "Invalid request format").Write(w)
		return
	}
	e, err := ParseExpenseForm(r.PostForm, s.today())
	if err != nil {
		var fe *FieldError
		if errors.As(err, &fe) {
			UnprocessableEntityError(fe.Message).Write(w)
			return
		}
		UnprocessableEntityError("Invalid expense").Write(w)
		return
	}

	if err := s.deps.Ledger.AddExpense(ctx, st, e); err != nil {
		log.LogError(ctx, "Add expense failed", err, log.ComponentLedger, log.OpAdd,
			log.NewFields().WithExpense(e.Date.String(), e.Category, e.Description, e.Amount.String()))
		UnprocessableEntityError("Invalid expense").Write(w)
		return
	}

	msg := fmt.Sprintf("Expense added: %s %s", s.opts.Currency.Money(e.Amount), e.Category)
	b := NewHTMXResponse().
		TriggerExpenseAdded(len(st.Expenses())).
		TriggerFormReset().
		TriggerSuccessNotification(msg).
		Message(NotificationSuccess, msg)
	respond(w, r, b, AddExpense)
}

func (s *Server) handleAddCategory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	st := stateFrom(ctx)

	if err := r.ParseForm(); err != nil {
		ErrorResponse(http.StatusBadRequest, "Invalid request format").Write(w)
		return
	}
	name := stripControl(r.PostForm.Get("name"))
	similar := s.deps.Ledger.AddCategory(ctx, st, name)

	b := NewHTMXResponse().TriggerCategoryAdded(name).TriggerFormReset()
	if len(similar) > 0 {
		msg := fmt.Sprintf("Category %q added. It looks like: %s", name, strings.Join(similar, ", "))
		b.TriggerWarningNotification(msg).Message(NotificationWarning, msg)
	} else {
		msg := fmt.Sprintf("Category %q added", name)
		b.TriggerSuccessNotification(msg).Message(NotificationSuccess, msg)
	}
	respond(w, r, b, ManageCategories)
}

func (s *Server) handleSaveBudget(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	st := stateFrom(ctx)

	if err := r.ParseForm(); err != nil {
		ErrorResponse(http.StatusBadRequest, "Invalid request format").Write(w)
		return
	}
	monthly, err := ParseMoneyField(r.PostForm, "monthly_limit")
	if err != nil {
		UnprocessableEntityError("Monthly limit must be a non-negative number").Write(w)
		return
	}

	b, err := s.deps.Ledger.SaveBudget(ctx, st, monthly)
	if err != nil {
		UnprocessableEntityError("Monthly limit must be a non-negative number").Write(w)
		return
	}

	msg := fmt.Sprintf("Budget saved: %s per month, %s per day",
		s.opts.Currency.Money(b.MonthlyLimit), s.opts.Currency.Decimal(b.DailyLimit))
	resp := NewHTMXResponse().TriggerBudgetSaved().TriggerSuccessNotification(msg).Message(NotificationSuccess, msg)
	respond(w, r, resp, Settings)
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	st := stateFrom(r.Context())

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename))
	if err := export.WriteCSV(w, st.Expenses()); err != nil {
		log.LogError(r.Context(), "CSV export failed", err, log.ComponentHTTP, log.OpExport, nil)
	}
}

type budgetPreview struct {
	MonthlyLimit string `json:"monthly_limit"`
	DailyLimit   string `json:"daily_limit"`
	Display      string `json:"display"`
}

// handleBudgetPreview computes the daily limit for the typed monthly limit
// without saving it.
func (s *Server) handleBudgetPreview(w http.ResponseWriter, r *http.Request) {
	monthly, err := ParseMoneyField(r.URL.Query(), "monthly_limit")
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
		return
	}
	daily := s.deps.Ledger.PreviewDailyLimit(monthly)
	writeJSON(w, http.StatusOK, budgetPreview{
		MonthlyLimit: monthly.String(),
		DailyLimit:   daily.StringFixed(2),
		Display:      s.opts.Currency.Decimal(daily),
	})
}

// decimalJSON renders d as a JSON number with cent precision.
func decimalJSON(d decimal.Decimal) float64 {
	f, _ := d.Round(2).Float64()
	return f
}
