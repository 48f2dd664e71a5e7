package session

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"gstdash/internal/log"
)

var ErrInvalidCredentials = errors.New("invalid username or password")

// Credentials is the single account allowed into the dashboard.
type Credentials struct {
	Username string
	Password string
}

// DefaultCredentials are used when none are configured.
var DefaultCredentials = Credentials{Username: "admin", Password: "12345"}

// Guard resolves and mutates session authentication state.
type Guard struct {
	store  Store
	creds  Credentials
	events EventSink
	logger *log.Logger
	now    func() time.Time
}

type GuardOption func(*Guard)

func WithEventSink(s EventSink) GuardOption {
	return func(g *Guard) {
		if s != nil {
			g.events = s
		}
	}
}

func WithLogger(l *log.Logger) GuardOption {
	return func(g *Guard) { g.logger = l.WithComponent(log.ComponentSession) }
}

func NewGuard(store Store, creds Credentials, opts ...GuardOption) *Guard {
	if creds.Username == "" && creds.Password == "" {
		creds = DefaultCredentials
	}
	g := &Guard{
		store:  store,
		creds:  creds,
		events: NopSink{},
		logger: log.New(log.DefaultConfig()).WithComponent(log.ComponentSession),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Load reads the session sid from storage. Storage failures are logged and
// yield an unauthenticated session rather than an error.
func (g *Guard) Load(ctx context.Context, sid string) *Session {
	s := &Session{ID: sid}
	v, ok, err := g.store.Get(ctx, sid, KeyAuth)
	if err != nil {
		g.logger.WarnContext(ctx, "Session store read failed, treating as unauthenticated",
			log.NewFields().WithOperation(log.OpRead).WithError(err).ToSlice()...)
		return s
	}
	if !ok || v != AuthValue {
		return s
	}
	s.Authenticated = true
	if user, ok, err := g.store.Get(ctx, sid, KeyUser); err == nil && ok {
		s.Username = user
	}
	return s
}

// Login authenticates sid when username and password match the configured
// pair exactly. Nothing is written on failure.
func (g *Guard) Login(ctx context.Context, sid, username, password string) (*Session, error) {
	if !g.matches(username, password) {
		g.logger.InfoContext(ctx, "Login rejected",
			log.FieldUsername, username, log.FieldOperation, log.OpLogin, log.FieldErrorType, log.ErrorTypeAuth)
		g.emit(ctx, EventLoginFailed, sid, username)
		return &Session{ID: sid}, ErrInvalidCredentials
	}

	// The auth flag goes last so a partial write never authenticates.
	if err := g.store.Set(ctx, sid, KeyUser, username); err != nil {
		return &Session{ID: sid}, fmt.Errorf("persist session user: %w", err)
	}
	if err := g.store.Set(ctx, sid, KeyAuth, AuthValue); err != nil {
		return &Session{ID: sid}, fmt.Errorf("persist session auth: %w", err)
	}

	g.logger.InfoContext(ctx, "Login succeeded", log.FieldUsername, username)
	g.emit(ctx, EventLogin, sid, username)
	return &Session{ID: sid, Authenticated: true, Username: username}, nil
}

// Logout clears the persisted state of sid.
func (g *Guard) Logout(ctx context.Context, sid string) error {
	user, _, _ := g.store.Get(ctx, sid, KeyUser)
	if err := g.store.Delete(ctx, sid, KeyAuth); err != nil {
		return fmt.Errorf("clear session auth: %w", err)
	}
	if err := g.store.Delete(ctx, sid, KeyUser); err != nil {
		return fmt.Errorf("clear session user: %w", err)
	}
	g.emit(ctx, EventLogout, sid, user)
	return nil
}

func (g *Guard) matches(username, password string) bool {
	u := subtle.ConstantTimeCompare([]byte(username), []byte(g.creds.Username))
	p := subtle.ConstantTimeCompare([]byte(password), []byte(g.creds.Password))
	return u&p == 1
}

func (g *Guard) emit(ctx context.Context, typ EventType, sid, username string) {
	ev := Event{Type: typ, SessionID: sid, Username: username, Timestamp: g.now().UTC()}
	if err := g.events.PublishSessionEvent(ctx, ev); err != nil {
		g.logger.WarnContext(ctx, "Failed to publish session event",
			log.NewFields().WithOperation(log.OpPublish).WithError(err).ToSlice()...)
	}
}
