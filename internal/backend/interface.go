// Package backend assembles the data source, session store and event sink
// selected by configuration.
package backend

import (
	"context"
	"errors"
	"slices"
	"sort"
	"time"

	"gstdash/internal/api"
	"gstdash/internal/cache"
	"gstdash/internal/session"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// Resources is everything the dashboard needs from the outside world.
type Resources struct {
	Source   api.Source
	Sessions session.Store
	Events   session.EventSink
	Cache    *cache.Manager

	checks   map[string]Pinger
	cleanups []CleanupFunc
}

func (r *Resources) addCheck(name string, p Pinger) {
	if r.checks == nil {
		r.checks = make(map[string]Pinger)
	}
	r.checks[name] = p
}

func (r *Resources) addCleanup(fn CleanupFunc) {
	r.cleanups = append(r.cleanups, fn)
}

// Checks lists the names of the registered readiness checks.
func (r *Resources) Checks() []string {
	names := make([]string, 0, len(r.checks))
	for name := range r.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Ready pings every registered dependency and returns the failures by name.
// An empty map means ready.
func (r *Resources) Ready(ctx context.Context) map[string]error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	failed := make(map[string]error)
	for name, p := range r.checks {
		if err := p.Ping(ctx); err != nil {
			failed[name] = err
		}
	}
	return failed
}

// Close releases resources in reverse order of acquisition.
func (r *Resources) Close() error {
	var errs []error
	for _, fn := range slices.Backward(r.cleanups) {
		if err := fn(); err != nil {
			errs = append(errs, err)
		}
	}
	r.cleanups = nil
	return errors.Join(errs...)
}

// Config holds configuration for backend creation
type Config struct {
	Data DataType

	// http data source
	APIBaseURL string
	APIKey     string
	CacheTTL   time.Duration

	// memory data source
	DataDirectory string

	Sessions   SessionType
	SessionTTL time.Duration

	SQLiteDBPath string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// AMQP session events, optional
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// DataType selects where vendors and filings come from.
type DataType string

const (
	HTTPData   DataType = "http"
	MemoryData DataType = "memory"
)

func (t DataType) String() string { return string(t) }

func (t DataType) IsValid() bool {
	switch t {
	case HTTPData, MemoryData:
		return true
	default:
		return false
	}
}

// SessionType selects where session values are kept.
type SessionType string

const (
	MemorySessions SessionType = "memory"
	SQLiteSessions SessionType = "sqlite"
	RedisSessions  SessionType = "redis"
)

func (t SessionType) String() string { return string(t) }

func (t SessionType) IsValid() bool {
	switch t {
	case MemorySessions, SQLiteSessions, RedisSessions:
		return true
	default:
		return false
	}
}
