package broadcast

import "time"

// EventType names the kinds of change notices exchanged between contexts.
type EventType string

const (
	EventSlides      EventType = "slides"
	EventSettings    EventType = "settings"
	EventAPIData     EventType = "api-data"
	EventForceReload EventType = "force-reload"
)

// Source identifies who produced an envelope.
type Source string

const (
	SourceEditor Source = "editor"
	SourceFeed   Source = "feed"
	SourceSystem Source = "system"
)

// Envelope is the wire shape written to the shared channel slot. Delivery is
// best-effort and at most once per observer per publish; the periodic
// poll/reconcile path remains the durable fallback.
type Envelope struct {
	Type      EventType      `json:"type"`
	Data      map[string]any `json:"data"`
	Timestamp string         `json:"timestamp"` // ISO-8601
	Source    Source         `json:"source"`
}

// NewEnvelope stamps an envelope with the current time.
func NewEnvelope(t EventType, data map[string]any, source Source) Envelope {
	if data == nil {
		data = map[string]any{}
	}
	return Envelope{
		Type:      t,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Source:    source,
	}
}

// Handler receives envelopes for a subscribed event type.
type Handler func(Envelope)

// Broadcaster propagates change notices to same-context listeners and to
// other concurrently open contexts on the same machine.
type Broadcaster interface {
	Publish(env Envelope) error
	Subscribe(t EventType, h Handler) (unsubscribe func())
	Close() error
}
