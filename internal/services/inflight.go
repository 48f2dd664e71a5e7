package services

import (
	"context"
	"errors"
	"sync"
)

// ErrStale marks a response superseded by a newer request for the same view.
var ErrStale = errors.New("superseded by a newer request")

// Inflight tracks the newest request per (session, view) key. Beginning a
// request cancels the previous one for the same key, and a finished request
// can check whether its result is still wanted.
type Inflight struct {
	mu      sync.Mutex
	seq     uint64
	entries map[string]*inflightEntry
}

type inflightEntry struct {
	gen    uint64
	cancel context.CancelFunc
}

func NewInflight() *Inflight {
	return &Inflight{entries: make(map[string]*inflightEntry)}
}

// Ticket identifies one tracked request.
type Ticket struct {
	in     *Inflight
	key    string
	gen    uint64
	cancel context.CancelCauseFunc
}

// Key joins a session id and a view name.
func Key(sessionID, view string) string {
	return sessionID + "|" + view
}

// Begin registers a new generation for key and returns a context that is
// canceled when a newer request for key begins or the ticket is released.
func (in *Inflight) Begin(ctx context.Context, key string) (context.Context, Ticket) {
	ctx, cancel := context.WithCancelCause(ctx)

	in.mu.Lock()
	defer in.mu.Unlock()

	// Generations come from one counter so a released key never reuses
	// a number an older ticket still holds.
	in.seq++
	gen := in.seq
	if prev, ok := in.entries[key]; ok {
		prev.cancel()
	}
	in.entries[key] = &inflightEntry{
		gen:    gen,
		cancel: func() { cancel(ErrStale) },
	}
	return ctx, Ticket{in: in, key: key, gen: gen, cancel: cancel}
}

// Generation is the ticket's sequence number; later requests have larger ones.
func (t Ticket) Generation() uint64 { return t.gen }

// Current reports whether no newer request for the key has begun.
func (t Ticket) Current() bool {
	if t.in == nil {
		return true
	}
	t.in.mu.Lock()
	defer t.in.mu.Unlock()
	e, ok := t.in.entries[t.key]
	return ok && e.gen == t.gen
}

// Done releases the ticket and its context. The entry is dropped only if
// it is still the current one, so a stale request cannot evict its
// successor.
func (t Ticket) Done() {
	if t.in == nil {
		return
	}
	t.cancel(context.Canceled)
	t.in.mu.Lock()
	defer t.in.mu.Unlock()
	if e, ok := t.in.entries[t.key]; ok && e.gen == t.gen {
		delete(t.in.entries, t.key)
	}
}

// Len is the number of keys with a live request.
func (in *Inflight) Len() int {
	in.mu.Lock()
	defer in.mu.Unlock()
	return len(in.entries)
}
