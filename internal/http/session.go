package http

import (
	"net/http"
	"net/url"

	"gstdash/internal/log"
	"gstdash/internal/session"
)

// withSession resolves the session cookie into a *session.Session on the
// request context. A missing or malformed id is replaced with a fresh one.
func (s *Server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sid := ""
		if c, err := r.Cookie(session.CookieName); err == nil && session.ValidID(c.Value) {
			sid = c.Value
		}
		if sid == "" {
			sid = session.NewID()
			s.setSessionCookie(w, r, sid)
		}

		sess := s.guard.Load(r.Context(), sid)
		ctx := session.NewContext(r.Context(), sess)
		if sess.Authenticated {
			ctx = log.NewContext(ctx, log.FromContext(ctx).With(log.FieldUsername, sess.Username))
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) setSessionCookie(w http.ResponseWriter, r *http.Request, sid string) {
	c := &http.Cookie{
		Name:     session.CookieName,
		Value:    sid,
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	}
	if s.sessionTTL > 0 {
		c.MaxAge = int(s.sessionTTL.Seconds())
	}
	http.SetCookie(w, c)
}

// requireAuth sends unauthenticated requests to the login page, keeping
// where they were going in next.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if session.FromContext(r.Context()).Authenticated {
			next.ServeHTTP(w, r)
			return
		}

		target := "/login"
		if dest := r.URL.RequestURI(); dest != "/" {
			target += "?next=" + url.QueryEscape(dest)
		}
		if IsHTMX(r) {
			NewHTMXResponse().
				Status(http.StatusUnauthorized).
				Redirect(target).
				Write(w)
			return
		}
		http.Redirect(w, r, target, http.StatusSeeOther)
	})
}

// redirect navigates the browser to target, through htmx when the request
// came from it.
func redirect(w http.ResponseWriter, r *http.Request, target string) {
	if r.Header.Get(HeaderHXRequest) == "true" {
		NewHTMXResponse().Redirect(target).Write(w)
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}
