package http

import (
	"context"
	"net/http"

	"expensetracker/internal/session"
)

type stateKey struct{}

func withState(ctx context.Context, st *session.State) context.Context {
	return context.WithValue(ctx, stateKey{}, st)
}

// stateFrom returns the session installed by requireSession.
func stateFrom(ctx context.Context) *session.State {
	st, _ := ctx.Value(stateKey{}).(*session.State)
	return st
}

// currentSession looks up the session named by the request cookie.
func (s *Server) currentSession(r *http.Request) (string, *session.State, bool) {
	c, err := r.Cookie(session.CookieName)
	if err != nil {
		return "", nil, false
	}
	st, err := s.deps.Sessions.Get(c.Value)
	if err != nil {
		return "", nil, false
	}
	return c.Value, st, true
}

// requireSession rejects requests without a live session. Browsers are sent
// to the login page; htmx requests get an HX-Redirect.
func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, st, ok := s.currentSession(r)
		if !ok {
			s.clearSessionCookie(w)
			if isHTMX(r) {
				w.Header().Set("HX-Redirect", "/login")
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r.WithContext(withState(r.Context(), st)))
	})
}

func (s *Server) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     session.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.opts.SessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   s.opts.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     session.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.opts.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}
