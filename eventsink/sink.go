// Package eventsink defines the observability event stream and a
// gorilla/websocket-backed broadcaster bound to the local dashboard port,
// grounded on the {type, ts_ms, payload} wire shape used by the overlay's
// original dashboard broadcaster.
package eventsink

import "time"

// Event is a single observability event emitted to the dashboard sink.
type Event struct {
	Type      string         `json:"type"`
	Timestamp int64          `json:"ts_ms"`
	Payload   map[string]any `json:"payload,omitempty"`
}

// NewEvent stamps an Event with the current time.
func NewEvent(eventType string, payload map[string]any) Event {
	return Event{Type: eventType, Timestamp: time.Now().UnixMilli(), Payload: payload}
}

// Sink receives observability events. Emit must not block the caller for
// long; implementations that fan out over the network use a bounded queue
// and drop the oldest event on overflow rather than apply backpressure to
// the router.
type Sink interface {
	Emit(Event)
}

// NopSink discards every event; used when no dashboard is configured.
type NopSink struct{}

func (NopSink) Emit(Event) {}
