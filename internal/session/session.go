// Package session gates the dashboard behind a single configured login.
// The authenticated flag is kept in a pluggable Store and resolved once per
// request into an explicit *Session carried on the request context.
package session

import (
	"context"

	"github.com/google/uuid"
)

const (
	// CookieName holds the opaque session id.
	CookieName = "gstdash_session"

	// KeyAuth is set to AuthValue while the session is authenticated.
	KeyAuth = "gst-auth"
	// KeyUser records who logged in.
	KeyUser = "gst-user"

	AuthValue = "true"
)

// Session is the per-request view of the stored session.
type Session struct {
	ID            string
	Authenticated bool
	Username      string
}

type ctxKey struct{}

func NewContext(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the request's session. A request that never passed
// through the session middleware gets an anonymous, unauthenticated one.
func FromContext(ctx context.Context) *Session {
	if s, ok := ctx.Value(ctxKey{}).(*Session); ok && s != nil {
		return s
	}
	return &Session{}
}

// NewID returns a fresh random session id.
func NewID() string {
	return uuid.NewString()
}

// ValidID reports whether id looks like one NewID produced. Anything else
// from a cookie is discarded and replaced.
func ValidID(id string) bool {
	u, err := uuid.Parse(id)
	return err == nil && u.Version() == 4
}
