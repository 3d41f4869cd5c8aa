package analytics

import "context"

// SessionSink adapts a SessionStore into an EventSink: session_start and
// session_end events become session rows, everything else is ignored.
type SessionSink struct {
	store SessionStore
}

// NewSessionSink wraps a session store.
func NewSessionSink(store SessionStore) *SessionSink {
	return &SessionSink{store: store}
}

// Name identifies the sink in metrics.
func (s *SessionSink) Name() string { return "sessions" }

// WriteEvent persists session lifecycle events. The connection id doubles
// as the session id; a connection has at most one open session.
func (s *SessionSink) WriteEvent(ctx context.Context, ev GameEvent) error {
	switch ev.EventType {
	case EventSessionStart:
		return s.store.CreateSession(ctx, &PlayerSession{
			SessionID:   ev.ConnID,
			ConnID:      ev.ConnID,
			TableName:   ev.TableName,
			Seat:        ev.Seat,
			ConnectedAt: ev.Timestamp,
		})
	case EventSessionEnd:
		return s.store.EndSession(ctx, ev.ConnID)
	}
	return nil
}

// Close closes the underlying store.
func (s *SessionSink) Close() error {
	return s.store.Close()
}
