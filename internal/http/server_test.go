package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"expensetracker/internal/auth"
	"expensetracker/internal/log"
	"expensetracker/internal/services"
	"expensetracker/internal/session"
)

var january = time.Date(2024, time.January, 15, 10, 0, 0, 0, time.UTC)

type harness struct {
	t        *testing.T
	srv      *Server
	sessions *session.Manager
}

func newHarness(t *testing.T, mutate func(*Options, *Deps)) *harness {
	t.Helper()
	clock := func() time.Time { return january }
	sessions := session.NewManager(session.Config{Now: clock})
	opts := Options{
		Currency:           Currency{Symbol: "$"},
		RateLimitPerMinute: 1000,
		Now:                clock,
	}
	deps := Deps{
		Auth:     auth.NewService(auth.NewMemoryStore()).WithCost(bcrypt.MinCost),
		Ledger:   services.NewLedgerService(sessions, nil, services.WithClock(clock)),
		Sessions: sessions,
		Logger:   log.New(log.Config{Output: io.Discard}),
	}
	if mutate != nil {
		mutate(&opts, &deps)
	}
	srv, err := NewServer(opts, deps)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return &harness{t: t, srv: srv, sessions: sessions}
}

func (h *harness) do(method, path string, form url.Values, token string, htmx bool) *httptest.ResponseRecorder {
	h.t.Helper()
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, path, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if token != "" {
		req.AddCookie(&http.Cookie{Name: session.CookieName, Value: token})
	}
	if htmx {
		req.Header.Set("HX-Request", "true")
	}
	rr := httptest.NewRecorder()
	h.srv.Handler.ServeHTTP(rr, req)
	return rr
}

func sessionCookie(rr *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rr.Result().Cookies() {
		if c.Name == session.CookieName {
			return c
		}
	}
	return nil
}

// login signs up and logs in username, returning the session token.
func (h *harness) login(username string) string {
	h.t.Helper()
	creds := url.Values{"username": {username}, "password": {"pw-" + username}}
	if rr := h.do(http.MethodPost, "/signup", creds, "", false); rr.Code != http.StatusSeeOther {
		h.t.Fatalf("signup status=%d body=%s", rr.Code, rr.Body.String())
	}
	rr := h.do(http.MethodPost, "/login", creds, "", false)
	if rr.Code != http.StatusSeeOther {
		h.t.Fatalf("login status=%d body=%s", rr.Code, rr.Body.String())
	}
	c := sessionCookie(rr)
	if c == nil || c.Value == "" {
		h.t.Fatalf("login did not set a session cookie")
	}
	return c.Value
}

func TestHealthAndReady(t *testing.T) {
	h := newHarness(t, nil)
	for _, path := range []string{"/healthz", "/readyz"} {
		if rr := h.do(http.MethodGet, path, nil, "", false); rr.Code != http.StatusOK {
			t.Fatalf("%s status=%d", path, rr.Code)
		}
	}
}

func TestReadyReportsFailingCheck(t *testing.T) {
	h := newHarness(t, func(_ *Options, d *Deps) {
		d.Ready = map[string]Checker{"db": func(context.Context) error { return errors.New("down") }}
	})
	rr := h.do(http.MethodGet, "/readyz", nil, "", false)
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status=%d", rr.Code)
	}
}

func TestSignupAndLoginFlow(t *testing.T) {
	h := newHarness(t, nil)

	rr := h.do(http.MethodGet, "/login", nil, "", false)
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), `action="/login"`) {
		t.Fatalf("login page status=%d", rr.Code)
	}

	creds := url.Values{"username": {"alice"}, "password": {"s3cret"}}
	rr = h.do(http.MethodPost, "/signup", creds, "", false)
	if rr.Code != http.StatusSeeOther || rr.Header().Get("Location") != "/login?signup=ok" {
		t.Fatalf("signup status=%d location=%q", rr.Code, rr.Header().Get("Location"))
	}

	rr = h.do(http.MethodPost, "/signup", creds, "", false)
	if rr.Code != http.StatusConflict || !strings.Contains(rr.Body.String(), "Username already exists") {
		t.Fatalf("duplicate signup status=%d", rr.Code)
	}

	rr = h.do(http.MethodPost, "/login", url.Values{"username": {"alice"}, "password": {"wrong"}}, "", false)
	if rr.Code != http.StatusUnauthorized || sessionCookie(rr) != nil {
		t.Fatalf("bad login status=%d", rr.Code)
	}

	rr = h.do(http.MethodPost, "/login", creds, "", false)
	if rr.Code != http.StatusSeeOther || rr.Header().Get("Location") != DefaultView.Path() {
		t.Fatalf("login status=%d location=%q", rr.Code, rr.Header().Get("Location"))
	}
	c := sessionCookie(rr)
	if c == nil || !c.HttpOnly || c.SameSite != http.SameSiteLaxMode {
		t.Fatalf("unexpected session cookie %+v", c)
	}

	rr = h.do(http.MethodGet, DefaultView.Path(), nil, c.Value, false)
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "Welcome, alice") {
		t.Fatalf("default view status=%d", rr.Code)
	}
}

func TestSignupRequiresCredentials(t *testing.T) {
	h := newHarness(t, nil)
	rr := h.do(http.MethodPost, "/signup", url.Values{"username": {"bob"}}, "", false)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status=%d", rr.Code)
	}
}

func TestSignupRejectsOverlongPassword(t *testing.T) {
	h := newHarness(t, nil)
	form := url.Values{"username": {"bob"}, "password": {strings.Repeat("x", 73)}}
	rr := h.do(http.MethodPost, "/signup", form, "", false)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status=%d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "too long") {
		t.Fatalf("body missing validation message: %s", rr.Body.String())
	}
}

func TestProtectedRoutesRequireSession(t *testing.T) {
	h := newHarness(t, nil)
	for _, path := range []string{"/view/expenses", "/expenses.csv", "/api/analytics"} {
		rr := h.do(http.MethodGet, path, nil, "", false)
		if rr.Code != http.StatusSeeOther || rr.Header().Get("Location") != "/login" {
			t.Fatalf("%s status=%d location=%q", path, rr.Code, rr.Header().Get("Location"))
		}
	}
	rr := h.do(http.MethodPost, "/expenses", url.Values{"amount": {"1"}}, "bogus", true)
	if rr.Code != http.StatusUnauthorized || rr.Header().Get("HX-Redirect") != "/login" {
		t.Fatalf("htmx status=%d redirect=%q", rr.Code, rr.Header().Get("HX-Redirect"))
	}
}

func TestIndexRedirects(t *testing.T) {
	h := newHarness(t, nil)
	if rr := h.do(http.MethodGet, "/", nil, "", false); rr.Header().Get("Location") != "/login" {
		t.Fatalf("anonymous index location=%q", rr.Header().Get("Location"))
	}
	token := h.login("alice")
	if rr := h.do(http.MethodGet, "/", nil, token, false); rr.Header().Get("Location") != DefaultView.Path() {
		t.Fatalf("index location=%q", rr.Header().Get("Location"))
	}
}

func TestUnknownViewIsNotFound(t *testing.T) {
	h := newHarness(t, nil)
	token := h.login("alice")
	if rr := h.do(http.MethodGet, "/view/nope", nil, token, false); rr.Code != http.StatusNotFound {
		t.Fatalf("status=%d", rr.Code)
	}
}

func TestEveryViewRenders(t *testing.T) {
	h := newHarness(t, nil)
	token := h.login("alice")
	for _, v := range Views {
		rr := h.do(http.MethodGet, v.Path(), nil, token, false)
		if rr.Code != http.StatusOK {
			t.Fatalf("%s status=%d body=%s", v, rr.Code, rr.Body.String())
		}
		if !strings.Contains(rr.Body.String(), "<h2>"+v.Title()+"</h2>") {
			t.Fatalf("%s missing heading", v)
		}
	}
}

func TestAddExpenseAndExport(t *testing.T) {
	h := newHarness(t, nil)
	token := h.login("alice")

	form := url.Values{"date": {"2024-01-10"}, "category": {"Food"}, "description": {"Lunch"}, "amount": {"12,50"}}
	rr := h.do(http.MethodPost, "/expenses", form, token, true)
	if rr.Code != http.StatusOK {
		t.Fatalf("add status=%d body=%s", rr.Code, rr.Body.String())
	}
	if !strings.Contains(rr.Body.String(), "Expense added: $12.50 Food") {
		t.Fatalf("unexpected fragment %q", rr.Body.String())
	}
	if !strings.Contains(rr.Header().Get("HX-Trigger"), "expense:added") {
		t.Fatalf("missing trigger: %q", rr.Header().Get("HX-Trigger"))
	}

	// Plain form posts redirect back to the view.
	form = url.Values{"category": {"Transport"}, "amount": {"3"}}
	rr = h.do(http.MethodPost, "/expenses", form, token, false)
	if rr.Code != http.StatusSeeOther || rr.Header().Get("Location") != AddExpense.Path() {
		t.Fatalf("plain add status=%d location=%q", rr.Code, rr.Header().Get("Location"))
	}

	rr = h.do(http.MethodGet, "/expenses.csv", nil, token, false)
	if rr.Code != http.StatusOK {
		t.Fatalf("export status=%d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Fatalf("content type %q", ct)
	}
	if cd := rr.Header().Get("Content-Disposition"); !strings.Contains(cd, "expenses.csv") {
		t.Fatalf("content disposition %q", cd)
	}
	want := "Date,Category,Description,Amount\n2024-01-10,Food,Lunch,12.50\n2024-01-15,Transport,,3.00\n"
	if got := rr.Body.String(); got != want {
		t.Fatalf("csv =\n%s\nwant\n%s", got, want)
	}

	rr = h.do(http.MethodGet, ViewExpenses.Path(), nil, token, false)
	if !strings.Contains(rr.Body.String(), "$15.50") {
		t.Fatalf("expenses view missing total")
	}
}

func TestAddExpenseValidation(t *testing.T) {
	h := newHarness(t, nil)
	token := h.login("alice")

	tests := []struct {
		name string
		form url.Values
	}{
		{"missing amount", url.Values{"category": {"Food"}}},
		{"negative amount", url.Values{"category": {"Food"}, "amount": {"-1"}}},
		{"bad date", url.Values{"date": {"15/01/2024"}, "amount": {"1"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := h.do(http.MethodPost, "/expenses", tt.form, token, true)
			if rr.Code != http.StatusUnprocessableEntity {
				t.Fatalf("status=%d", rr.Code)
			}
		})
	}

	st, err := h.sessions.Get(token)
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	if st.HasExpenses() {
		t.Fatalf("invalid expenses must not be recorded")
	}
}

func TestAddCategoryWarnsOnSimilarName(t *testing.T) {
	h := newHarness(t, nil)
	token := h.login("alice")

	rr := h.do(http.MethodPost, "/categories", url.Values{"name": {"food"}}, token, true)
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "warning") {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}

	rr = h.do(http.MethodPost, "/categories", url.Values{"name": {"Travel"}}, token, true)
	if !strings.Contains(rr.Body.String(), "success") {
		t.Fatalf("body=%s", rr.Body.String())
	}

	rr = h.do(http.MethodGet, ManageCategories.Path(), nil, token, false)
	if !strings.Contains(rr.Body.String(), `id="cat-travel"`) {
		t.Fatalf("new category not listed")
	}
}

func TestSaveBudgetSplitsOverMonth(t *testing.T) {
	h := newHarness(t, nil)
	token := h.login("alice")

	rr := h.do(http.MethodPost, "/settings", url.Values{"monthly_limit": {"3100"}}, token, true)
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	if !strings.Contains(rr.Body.String(), "$100.00 per day") {
		t.Fatalf("unexpected fragment %q", rr.Body.String())
	}

	rr = h.do(http.MethodPost, "/settings", url.Values{"monthly_limit": {"-5"}}, token, true)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("negative limit status=%d", rr.Code)
	}

	rr = h.do(http.MethodGet, Settings.Path(), nil, token, false)
	if !strings.Contains(rr.Body.String(), "$3100.00 per month") {
		t.Fatalf("settings view missing saved budget")
	}
}

func TestBudgetPreview(t *testing.T) {
	h := newHarness(t, nil)
	token := h.login("alice")

	rr := h.do(http.MethodGet, "/api/budget/preview?monthly_limit=310", nil, token, false)
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	var got budgetPreview
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.DailyLimit != "10.00" || got.Display != "$10.00" {
		t.Fatalf("unexpected preview %+v", got)
	}

	st, _ := h.sessions.Get(token)
	if _, ok := st.Budget(); ok {
		t.Fatalf("preview must not save a budget")
	}
}

func TestAnalyticsJSON(t *testing.T) {
	for _, daily := range []bool{false, true} {
		h := newHarness(t, func(o *Options, _ *Deps) { o.DailyTotals = daily })
		token := h.login("alice")
		for _, f := range []url.Values{
			{"date": {"2024-01-10"}, "category": {"Food"}, "amount": {"10"}},
			{"date": {"2024-01-10"}, "category": {"Transport"}, "amount": {"5"}},
			{"date": {"2024-01-11"}, "category": {"Food"}, "amount": {"2.5"}},
		} {
			if rr := h.do(http.MethodPost, "/expenses", f, token, true); rr.Code != http.StatusOK {
				t.Fatalf("add status=%d", rr.Code)
			}
		}

		rr := h.do(http.MethodGet, "/api/analytics", nil, token, false)
		var got analyticsJSON
		if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if got.TotalCents != 1750 || got.Count != 3 {
			t.Fatalf("total=%d count=%d", got.TotalCents, got.Count)
		}
		if len(got.ByCategory) != 2 || got.ByCategory[0].Name != "Food" || got.ByCategory[0].AmountCents != 1250 {
			t.Fatalf("by category %+v", got.ByCategory)
		}

		wantPoints, wantKind := 3, seriesPerExpense
		if daily {
			wantPoints, wantKind = 2, seriesDailyTotals
		}
		if len(got.Series) != wantPoints || got.SeriesKind != wantKind {
			t.Fatalf("daily=%v series=%+v kind=%s", daily, got.Series, got.SeriesKind)
		}
	}
}

func TestAnalyticsEmpty(t *testing.T) {
	h := newHarness(t, nil)
	token := h.login("alice")
	rr := h.do(http.MethodGet, Analytics.Path(), nil, token, false)
	if !strings.Contains(rr.Body.String(), "Add some expenses") {
		t.Fatalf("empty analytics should show a prompt")
	}
	rr = h.do(http.MethodGet, "/api/analytics", nil, token, false)
	if !strings.Contains(rr.Body.String(), `"by_category":[]`) {
		t.Fatalf("body=%s", rr.Body.String())
	}
}

func TestSessionsAreIsolated(t *testing.T) {
	h := newHarness(t, nil)
	alice := h.login("alice")
	bob := h.login("bob")

	h.do(http.MethodPost, "/expenses", url.Values{"category": {"Food"}, "amount": {"9"}}, alice, true)

	rr := h.do(http.MethodGet, "/expenses.csv", nil, bob, false)
	if strings.Count(rr.Body.String(), "\n") != 1 {
		t.Fatalf("bob sees alice's expenses: %q", rr.Body.String())
	}
}

func TestLogoutEndsSession(t *testing.T) {
	h := newHarness(t, nil)
	token := h.login("alice")
	h.do(http.MethodPost, "/expenses", url.Values{"category": {"Food"}, "amount": {"9"}}, token, true)

	// The logout view only offers the form.
	rr := h.do(http.MethodGet, Logout.Path(), nil, token, false)
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), `action="/logout"`) {
		t.Fatalf("logout view status=%d", rr.Code)
	}
	if _, err := h.sessions.Get(token); err != nil {
		t.Fatalf("GET must not end the session: %v", err)
	}

	rr = h.do(http.MethodPost, "/logout", url.Values{}, token, false)
	if rr.Code != http.StatusSeeOther || rr.Header().Get("Location") != "/login" {
		t.Fatalf("logout status=%d", rr.Code)
	}
	if c := sessionCookie(rr); c == nil || c.MaxAge >= 0 {
		t.Fatalf("logout must clear the cookie")
	}
	if _, err := h.sessions.Get(token); !errors.Is(err, session.ErrInvalidSession) {
		t.Fatalf("session still alive: %v", err)
	}

	// Logging in again starts from an empty ledger.
	rr = h.do(http.MethodPost, "/login", url.Values{"username": {"alice"}, "password": {"pw-alice"}}, "", false)
	fresh := sessionCookie(rr).Value
	st, _ := h.sessions.Get(fresh)
	if st.HasExpenses() {
		t.Fatalf("new session inherited expenses")
	}
}

func TestCategoryPaddingIsKept(t *testing.T) {
	h := newHarness(t, nil)
	token := h.login("alice")
	for _, cat := range []string{"Food", "Food "} {
		f := url.Values{"category": {cat}, "amount": {"1"}}
		if rr := h.do(http.MethodPost, "/expenses", f, token, true); rr.Code != http.StatusOK {
			t.Fatalf("add status=%d", rr.Code)
		}
	}
	rr := h.do(http.MethodGet, "/api/analytics", nil, token, false)
	var got analyticsJSON
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got.ByCategory) != 2 {
		t.Fatalf("categories differing by padding must stay separate: %+v", got.ByCategory)
	}
}

func TestRateLimitOnPosts(t *testing.T) {
	h := newHarness(t, func(o *Options, _ *Deps) { o.RateLimitPerMinute = 2 })
	creds := url.Values{"username": {"x"}, "password": {"y"}}
	var last int
	for i := 0; i < 3; i++ {
		last = h.do(http.MethodPost, "/login", creds, "", false).Code
	}
	if last != http.StatusTooManyRequests {
		t.Fatalf("third post status=%d", last)
	}
	if rr := h.do(http.MethodGet, "/login", nil, "", false); rr.Code != http.StatusOK {
		t.Fatalf("GET must not be limited, status=%d", rr.Code)
	}
}
