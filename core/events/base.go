package events

import "time"

// Kind names an event type. Kinds are namespaced strings listed in doc.go.
type Kind string

// Event is implemented by every conversation event. Consumers switch on the
// concrete type; Kind exists for logging and filtering.
type Event interface {
	Kind() Kind
	Timestamp() time.Time
}

// Base carries the fields shared by all events. Embed it and construct it
// through NewBase so the timestamp is always set.
type Base struct {
	kind       Kind
	occurredAt time.Time
}

func NewBase(kind Kind) Base {
	return Base{kind: kind, occurredAt: time.Now()}
}

func (b Base) Kind() Kind { return b.kind }

func (b Base) Timestamp() time.Time { return b.occurredAt }
