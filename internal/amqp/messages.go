package amqp

import (
	"encoding/json"
	"time"

	"gstdash/internal/session"
)

// SessionEventMessage is the wire form of a session audit event.
type SessionEventMessage struct {
	Type      string    `json:"type"`
	SessionID string    `json:"session_id"`
	Username  string    `json:"username,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func NewSessionEventMessage(ev session.Event) *SessionEventMessage {
	ts := ev.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	return &SessionEventMessage{
		Type:      string(ev.Type),
		SessionID: ev.SessionID,
		Username:  ev.Username,
		Timestamp: ts,
	}
}

func (m *SessionEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func SessionEventMessageFromJSON(data []byte) (*SessionEventMessage, error) {
	var msg SessionEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
