package http

import (
	"errors"
	"net/http"

	"gstdash/internal/log"
	"gstdash/internal/session"
)

const landingPath = "/vendors"

type loginView struct {
	Username string
	Next     string
	Errors   map[string]string
	Message  string
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	form := session.LoginForm{Next: r.URL.Query().Get("next")}
	if session.FromContext(r.Context()).Authenticated {
		redirect(w, r, form.SafeNext(landingPath))
		return
	}
	s.render(w, r, http.StatusOK, pageLogin, page{
		Title: "Sign in",
		Data:  loginView{Next: form.SafeNext("")},
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if b := ParseFormOrFail(r); b != nil {
		b.Write(w)
		return
	}
	ctx := r.Context()
	form := parseLoginForm(r)
	view := loginView{Username: form.Username, Next: form.SafeNext("")}

	if errs := form.Validate(); errs != nil {
		log.FromContext(ctx).DebugContext(ctx, "Login form rejected",
			log.FieldOperation, log.OpLogin, log.FieldErrorType, log.ErrorTypeValidation, "fields", len(errs))
		view.Errors = errs
		s.render(w, r, http.StatusUnprocessableEntity, pageLogin, page{Title: "Sign in", Data: view})
		return
	}

	// A successful login always gets a new id so a planted cookie never
	// becomes authenticated.
	sid := session.NewID()
	sess, err := s.guard.Login(ctx, sid, form.Username, form.Password)
	switch {
	case errors.Is(err, session.ErrInvalidCredentials):
		view.Message = "Invalid username or password"
		s.render(w, r, http.StatusUnauthorized, pageLogin, page{Title: "Sign in", Data: view})
		return
	case err != nil:
		log.FromContext(ctx).ErrorContext(ctx, "Login could not be stored",
			log.NewFields().WithOperation(log.OpLogin).WithError(err).ToSlice()...)
		view.Message = "Could not sign you in right now. Please try again."
		s.render(w, r, http.StatusInternalServerError, pageLogin, page{Title: "Sign in", Data: view})
		return
	}

	s.setSessionCookie(w, r, sess.ID)
	redirect(w, r, form.SafeNext(landingPath))
}

func (s *Server) handleLoginLimited(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log.FromContext(ctx).WithComponent(log.ComponentRateLimit).WarnContext(ctx, "Login rate limit exceeded",
		log.FieldClientIP, s.detector.ExtractClientIP(r))
	s.render(w, r, http.StatusTooManyRequests, pageLogin, page{
		Title: "Sign in",
		Data:  loginView{Message: "Too many sign-in attempts. Please wait a minute and try again."},
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := session.FromContext(ctx)
	if err := s.guard.Logout(ctx, sess.ID); err != nil {
		log.FromContext(ctx).ErrorContext(ctx, "Logout failed",
			log.NewFields().WithOperation(log.OpLogout).WithError(err).ToSlice()...)
	}
	redirect(w, r, "/login")
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, landingPath, http.StatusSeeOther)
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusNotFound, pageNotFound, page{Title: "Not found"})
}
