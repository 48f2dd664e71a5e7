package session

import (
	"context"
	"time"
)

type EventType string

const (
	EventLogin       EventType = "login"
	EventLoginFailed EventType = "login_failed"
	EventLogout      EventType = "logout"
)

// Event is an audit record of a session transition.
type Event struct {
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id"`
	Username  string    `json:"username,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// EventSink receives audit events. Failures are logged by the Guard and
// never fail the operation that produced the event.
type EventSink interface {
	PublishSessionEvent(ctx context.Context, ev Event) error
}

// NopSink discards every event.
type NopSink struct{}

func (NopSink) PublishSessionEvent(context.Context, Event) error { return nil }
