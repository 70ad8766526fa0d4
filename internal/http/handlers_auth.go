package http

import (
	"errors"
	"fmt"
	"net/http"

	"expensetracker/internal/auth"
	"expensetracker/internal/log"
)

// chrome is the data the shared header reads. Views is empty on the
// logged-out pages, which hides the navigation.
type chrome struct {
	Title string
	User  string
	View  View
	Views []View
}

type authPage struct {
	chrome
	Username string
	Error    string
	Warning  string
	Notice   string
}

func loginPage(username string) authPage {
	return authPage{chrome: chrome{Title: "Login"}, Username: username}
}

func signupPage(username string) authPage {
	return authPage{chrome: chrome{Title: "Sign up"}, Username: username}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if _, _, ok := s.currentSession(r); ok {
		http.Redirect(w, r, DefaultView.Path(), http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if _, _, ok := s.currentSession(r); ok {
		http.Redirect(w, r, DefaultView.Path(), http.StatusSeeOther)
		return
	}
	p := loginPage("")
	if r.URL.Query().Get("signup") == "ok" {
		p.Notice = "Account created. Please log in."
	}
	s.render(w, r, http.StatusOK, "login.html", p)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := log.FromContext(ctx).WithComponent(log.ComponentAuth)

	if err := r.ParseForm(); err != nil {
		s.render(w, r, http.StatusBadRequest, "login.html", withError(loginPage(""), "Invalid request."))
		return
	}
	username, password := ParseCredentials(r.PostForm)

	user, err := s.deps.Auth.Login(ctx, username, password)
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		logger.WarnContext(ctx, "Login failed", log.FieldUsername, username)
		s.render(w, r, http.StatusUnauthorized, "login.html",
			withError(loginPage(username), "Invalid username or password."))
		return
	case err != nil:
		log.LogError(ctx, "Login error", err, log.ComponentAuth, log.OpLogin, log.NewFields().WithUsername(username))
		s.render(w, r, http.StatusInternalServerError, "login.html",
			withError(loginPage(username), "Login is temporarily unavailable."))
		return
	}

	// A fresh session per login; any previous token from this browser is dropped.
	if token, _, ok := s.currentSession(r); ok {
		s.deps.Ledger.EndSession(ctx, token)
	}
	token, _ := s.deps.Ledger.StartSession(ctx, user.Username)
	s.setSessionCookie(w, token)
	logger.InfoContext(ctx, "User logged in", log.FieldUsername, user.Username)
	http.Redirect(w, r, DefaultView.Path(), http.StatusSeeOther)
}

func (s *Server) handleSignupPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "signup.html", signupPage(""))
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := log.FromContext(ctx).WithComponent(log.ComponentAuth)

	if err := r.ParseForm(); err != nil {
		s.render(w, r, http.StatusBadRequest, "signup.html", withError(signupPage(""), "Invalid request."))
		return
	}
	username, password := ParseCredentials(r.PostForm)

	_, err := s.deps.Auth.Signup(ctx, username, password)
	switch {
	case errors.Is(err, auth.ErrMissingCredentials):
		s.render(w, r, http.StatusUnprocessableEntity, "signup.html",
			withError(signupPage(username), "Username and password are required."))
		return
	case errors.Is(err, auth.ErrPasswordTooLong):
		s.render(w, r, http.StatusUnprocessableEntity, "signup.html",
			withError(signupPage(username), fmt.Sprintf("Password is too long (at most %d bytes).", auth.MaxPasswordBytes)))
		return
	case errors.Is(err, auth.ErrUsernameTaken):
		logger.WarnContext(ctx, "Signup with existing username", log.FieldUsername, username)
		s.render(w, r, http.StatusConflict, "signup.html",
			withWarning(signupPage(username), "Username already exists."))
		return
	case err != nil:
		log.LogError(ctx, "Signup error", err, log.ComponentAuth, log.OpSignup, log.NewFields().WithUsername(username))
		s.render(w, r, http.StatusInternalServerError, "signup.html",
			withError(signupPage(username), "Signup is temporarily unavailable."))
		return
	}

	logger.InfoContext(ctx, "Account created", log.FieldUsername, username)
	http.Redirect(w, r, "/login?signup=ok", http.StatusSeeOther)
}

// logout ends the session. It is POST-only so that a cross-site link or
// image cannot sign the user out.
func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	if token, _, ok := s.currentSession(r); ok {
		s.deps.Ledger.EndSession(r.Context(), token)
	}
	s.clearSessionCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func withError(p authPage, msg string) authPage {
	p.Error = msg
	return p
}

func withWarning(p authPage, msg string) authPage {
	p.Warning = msg
	return p
}
