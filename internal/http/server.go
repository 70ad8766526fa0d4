// Package http serves the expense dashboard: login and signup, the view
// screens, form posts that mutate the session, CSV export and the
// analytics feed.
package http

import (
	"context"
	"errors"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"expensetracker/internal/auth"
	"expensetracker/internal/core"
	"expensetracker/internal/log"
	"expensetracker/internal/middleware/ratelimit"
	"expensetracker/internal/middleware/security"
	"expensetracker/internal/middleware/trace"
	"expensetracker/internal/services"
	"expensetracker/internal/session"
	appweb "expensetracker/web"
)

// Checker reports whether a dependency is ready to serve traffic.
type Checker func(ctx context.Context) error

// Options are the presentation and transport settings of the server.
type Options struct {
	Addr               string
	Currency           Currency
	DailyTotals        bool
	SecureCookies      bool
	SessionTTL         time.Duration
	RateLimitPerMinute int
	// Now overrides the clock used for form defaults.
	Now func() time.Time
}

// Deps are the collaborators the handlers call into.
type Deps struct {
	Auth     *auth.Service
	Ledger   *services.LedgerService
	Sessions *session.Manager
	Logger   *log.Logger
	Ready    map[string]Checker
}

type Server struct {
	http.Server
	opts      Options
	deps      Deps
	templates *template.Template
	limiter   *ratelimit.Limiter
	tracer    *trace.Middleware

	shutdownOnce sync.Once
}

// NewServer parses the embedded templates and wires the routes.
func NewServer(opts Options, deps Deps) (*Server, error) {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = session.DefaultTTL
	}
	if deps.Logger == nil {
		deps.Logger = log.New(log.DefaultConfig())
	}
	if deps.Auth == nil || deps.Ledger == nil || deps.Sessions == nil {
		return nil, errors.New("http server requires auth, ledger and session dependencies")
	}

	s := &Server{opts: opts, deps: deps}

	t, err := template.New("").Funcs(template.FuncMap{
		"money": opts.Currency.Money,
		"slug":  core.Slug,
	}).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	s.templates = t

	clientIP, err := security.NewClientIP()
	if err != nil {
		return nil, err
	}
	s.limiter = ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute})
	s.tracer = trace.New(clientIP.Extract)

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           s.routes(clientIP),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
	return s, nil
}

func (s *Server) routes(clientIP *security.ClientIP) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(log.Middleware(s.deps.Logger.WithComponent(log.ComponentHTTP), trace.RequestID))
	r.Use(s.tracer.Handler)
	r.Use(middleware.Recoverer)
	r.Use(security.Headers(security.DefaultHeadersConfig()))

	r.Get("/healthz", handleHealth)
	r.Get("/readyz", s.handleReady)

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		r.With(security.StaticAssets(3600)).
			Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(sub))))
	}

	r.Group(func(r chi.Router) {
		r.Use(security.NoStore)
		r.Use(s.limiter.Middleware(clientIP.Extract, s.rateLimited, http.MethodPost))

		r.Get("/", s.handleIndex)
		r.Get("/login", s.handleLoginPage)
		r.Post("/login", s.handleLogin)
		r.Get("/signup", s.handleSignupPage)
		r.Post("/signup", s.handleSignup)
		r.Post("/logout", s.logout)

		r.Group(func(r chi.Router) {
			r.Use(s.requireSession)

			r.Get("/view/{view}", s.handleView)
			r.Post("/expenses", s.handleAddExpense)
			r.Get("/expenses.csv", s.handleExportCSV)
			r.Post("/categories", s.handleAddCategory)
			r.Post("/settings", s.handleSaveBudget)
			r.Get("/api/analytics", s.handleAnalytics)
			r.Get("/api/budget/preview", s.handleBudgetPreview)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "page not found", http.StatusNotFound)
	})
	return r
}

// Shutdown stops accepting requests and releases background workers.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func (s *Server) today() core.Date {
	return core.DateOf(s.opts.Now())
}

func (s *Server) rateLimited(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WithComponent(log.ComponentRateLimit).
		WarnContext(r.Context(), "Rate limit exceeded", log.FieldPath, r.URL.Path)
	ErrorResponse(http.StatusTooManyRequests, "Too many requests. Please try again in a minute.").Write(w)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	for name, check := range s.deps.Ready {
		if err := check(ctx); err != nil {
			log.FromContext(ctx).WarnContext(ctx, "Readiness check failed", "check", name, log.FieldError, err)
			http.Error(w, name+" not ready", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// isHTMX reports whether r was issued by htmx and expects a fragment.
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		log.LogError(r.Context(), "Template execution failed", err, log.ComponentTemplate, log.OpRender,
			log.NewFields().WithOperation(log.OpRender))
	}
}
