package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (r *recordingSink) PublishSessionEvent(_ context.Context, ev Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return r.err
}

func (r *recordingSink) types() []EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]EventType, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Type
	}
	return out
}

type failingStore struct{ err error }

func (f failingStore) Get(context.Context, string, string) (string, bool, error) {
	return "", false, f.err
}
func (f failingStore) Set(context.Context, string, string, string) error { return f.err }
func (f failingStore) Delete(context.Context, string, string) error      { return f.err }

func TestGuard_LoginSuccess(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	sink := &recordingSink{}
	g := NewGuard(store, Credentials{}, WithEventSink(sink))
	ctx := context.Background()
	sid := NewID()

	s, err := g.Login(ctx, sid, "admin", "12345")
	require.NoError(t, err)
	assert.True(t, s.Authenticated)
	assert.Equal(t, "admin", s.Username)

	v, ok, err := store.Get(ctx, sid, KeyAuth)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "true", v)

	loaded := g.Load(ctx, sid)
	assert.True(t, loaded.Authenticated)
	assert.Equal(t, "admin", loaded.Username)
	assert.Equal(t, []EventType{EventLogin}, sink.types())
}

func TestGuard_LoginRejectsAndPersistsNothing(t *testing.T) {
	tests := []struct {
		name     string
		username string
		password string
	}{
		{"wrong password", "admin", "wrong"},
		{"wrong user", "root", "12345"},
		{"both empty", "", ""},
		{"case differs", "Admin", "12345"},
		{"password prefix", "admin", "1234"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewMemoryStore(time.Hour)
			sink := &recordingSink{}
			g := NewGuard(store, DefaultCredentials, WithEventSink(sink))
			ctx := context.Background()
			sid := NewID()

			s, err := g.Login(ctx, sid, tt.username, tt.password)
			assert.ErrorIs(t, err, ErrInvalidCredentials)
			assert.False(t, s.Authenticated)

			_, ok, _ := store.Get(ctx, sid, KeyAuth)
			assert.False(t, ok)
			_, ok, _ = store.Get(ctx, sid, KeyUser)
			assert.False(t, ok)
			assert.Equal(t, 0, store.Cache().Size())
			assert.Equal(t, []EventType{EventLoginFailed}, sink.types())
		})
	}
}

func TestGuard_ConfiguredCredentials(t *testing.T) {
	g := NewGuard(NewMemoryStore(0), Credentials{Username: "ops", Password: "s3cret"})
	ctx := context.Background()

	_, err := g.Login(ctx, NewID(), "admin", "12345")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	s, err := g.Login(ctx, NewID(), "ops", "s3cret")
	require.NoError(t, err)
	assert.True(t, s.Authenticated)
}

func TestGuard_Logout(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	sink := &recordingSink{}
	g := NewGuard(store, DefaultCredentials, WithEventSink(sink))
	ctx := context.Background()
	sid := NewID()

	_, err := g.Login(ctx, sid, "admin", "12345")
	require.NoError(t, err)
	require.NoError(t, g.Logout(ctx, sid))

	assert.False(t, g.Load(ctx, sid).Authenticated)
	assert.Equal(t, []EventType{EventLogin, EventLogout}, sink.types())
	assert.Equal(t, "admin", sink.events[1].Username)
}

func TestGuard_LoadOnlyAcceptsLiteralTrue(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	g := NewGuard(store, DefaultCredentials)
	ctx := context.Background()

	for _, v := range []string{"TRUE", "1", "yes", ""} {
		require.NoError(t, store.Set(ctx, "sid", KeyAuth, v))
		assert.False(t, g.Load(ctx, "sid").Authenticated, "value %q", v)
	}
	require.NoError(t, store.Set(ctx, "sid", KeyAuth, "true"))
	assert.True(t, g.Load(ctx, "sid").Authenticated)
}

func TestGuard_StoreFailureIsUnauthenticated(t *testing.T) {
	g := NewGuard(failingStore{err: errors.New("disk on fire")}, DefaultCredentials)
	s := g.Load(context.Background(), "sid")
	assert.False(t, s.Authenticated)
	assert.Equal(t, "sid", s.ID)

	_, err := g.Login(context.Background(), "sid", "admin", "12345")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)
}

func TestGuard_SinkFailureDoesNotFailLogin(t *testing.T) {
	sink := &recordingSink{err: errors.New("broker down")}
	g := NewGuard(NewMemoryStore(time.Hour), DefaultCredentials, WithEventSink(sink))

	s, err := g.Login(context.Background(), NewID(), "admin", "12345")
	require.NoError(t, err)
	assert.True(t, s.Authenticated)
}

func TestMemoryStore_Expiry(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	now := time.Now()
	store.Cache().WithClock(func() time.Time { return now })
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "sid", KeyAuth, AuthValue))
	now = now.Add(2 * time.Minute)

	_, ok, err := store.Get(ctx, "sid", KeyAuth)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestContextRoundTrip(t *testing.T) {
	assert.False(t, FromContext(context.Background()).Authenticated)

	s := &Session{ID: "x", Authenticated: true}
	assert.Same(t, s, FromContext(NewContext(context.Background(), s)))
}

func TestValidID(t *testing.T) {
	assert.True(t, ValidID(NewID()))
	assert.False(t, ValidID(""))
	assert.False(t, ValidID("not-a-uuid"))
	assert.False(t, ValidID("6ba7b810-9dad-11d1-80b4-00c04fd430c8"), "v1 uuids are rejected")
}

func TestLoginForm(t *testing.T) {
	errs := LoginForm{}.Validate()
	assert.Equal(t, "username is required", errs["username"])
	assert.Equal(t, "password is required", errs["password"])

	assert.Nil(t, LoginForm{Username: "admin", Password: "12345"}.Validate())

	long := LoginForm{Username: string(make([]byte, 65)), Password: "x"}
	assert.Contains(t, long.Validate(), "username")
}

func TestLoginForm_SafeNext(t *testing.T) {
	tests := []struct {
		next string
		want string
	}{
		{"", "/vendors"},
		{"/all-filings?sort=due_date.asc", "/all-filings?sort=due_date.asc"},
		{"https://evil.example", "/vendors"},
		{"//evil.example", "/vendors"},
		{"/login", "/vendors"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, LoginForm{Next: tt.next}.SafeNext("/vendors"), tt.next)
	}
}
