// Package event defines the immutable unit of intent and its canonical
// total order. The append-only log of events is the single source of
// truth: every document any device holds is a fold of this log.
package event

import (
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/roach88/rolo/internal/model"
)

// TimestampLayout is the fixed-width RFC 3339 UTC layout used for event
// timestamps. Unlike time.RFC3339Nano it never trims trailing zeros, so
// lexicographic order on the strings IS chronological order. Replay
// ordering depends on this.
const TimestampLayout = "2006-01-02T15:04:05.000000000Z"

// Event is the atomic record of intent. Constructed once by a Builder at
// user-action time, appended to the log, never mutated or deleted.
type Event struct {
	// ID is a globally unique identifier, generated client-side.
	ID string `json:"id"`

	// Type is drawn from the closed vocabulary in types.go.
	Type Type `json:"type"`

	// EntityID names the primary entity the event concerns. Empty for
	// pure-creation events that mint their id from the payload.
	EntityID string `json:"entityId,omitempty"`

	// Payload is the type-specific body. Its shape is validated at apply
	// time (schema-on-read), not at construction.
	Payload model.Object `json:"payload"`

	// Timestamp is the construction time in TimestampLayout. Used for
	// replay ordering and as the only time source reducers may see.
	Timestamp string `json:"timestamp"`

	// DeviceID identifies the originating device. Provenance, plus the
	// scope key for device-local settings.
	DeviceID string `json:"deviceId"`
}

// Less reports whether a orders before b in the canonical total order:
// timestamp first, then id (byte order) as the tie-break. Two devices can
// stamp the same instant; without the id tie-break there would be no total
// order and replay would not be deterministic.
func Less(a, b Event) bool {
	if a.Timestamp != b.Timestamp {
		return a.Timestamp < b.Timestamp
	}
	return a.ID < b.ID
}

// Compare is the three-way form of Less for use with slices.SortFunc.
func Compare(a, b Event) int {
	if a.Timestamp != b.Timestamp {
		if a.Timestamp < b.Timestamp {
			return -1
		}
		return 1
	}
	switch {
	case a.ID < b.ID:
		return -1
	case a.ID > b.ID:
		return 1
	default:
		return 0
	}
}

// Sort orders events in place by the canonical total order. Storage order
// is never trusted; callers sort after every read.
func Sort(events []Event) {
	slices.SortFunc(events, Compare)
}

// After returns the events strictly newer than the given timestamp,
// preserving order. Used to pick the trailing events on top of a snapshot.
func After(events []Event, timestamp string) []Event {
	var out []Event
	for _, ev := range events {
		if ev.Timestamp > timestamp {
			out = append(out, ev)
		}
	}
	return out
}

// IDGenerator mints event ids. Implemented by UUIDGenerator (production)
// and testutil.SequenceIDs (tests).
type IDGenerator interface {
	NewID() string
}

// UUIDGenerator generates random UUIDv4 ids.
type UUIDGenerator struct{}

// NewID returns a fresh UUID string.
func (UUIDGenerator) NewID() string {
	return uuid.NewString()
}

// Builder constructs events for one device. It assigns ids and
// timestamps; it performs no payload validation.
type Builder struct {
	deviceID string
	ids      IDGenerator
	now      func() time.Time
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithIDGenerator substitutes the id source. Tests use a deterministic
// sequence so golden files stay stable.
func WithIDGenerator(g IDGenerator) BuilderOption {
	return func(b *Builder) {
		b.ids = g
	}
}

// WithNow substitutes the wall clock. This is the only place in the core
// that reads a clock; reducers take all time from the event.
func WithNow(now func() time.Time) BuilderOption {
	return func(b *Builder) {
		b.now = now
	}
}

// NewBuilder creates a Builder stamping events with the given device id.
func NewBuilder(deviceID string, opts ...BuilderOption) *Builder {
	b := &Builder{
		deviceID: deviceID,
		ids:      UUIDGenerator{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build constructs an Event with a fresh id and a UTC timestamp. The
// payload reference is frozen: callers must not retain and mutate it.
func (b *Builder) Build(t Type, entityID string, payload model.Object) Event {
	if payload == nil {
		payload = model.Object{}
	}
	return Event{
		ID:        b.ids.NewID(),
		Type:      t,
		EntityID:  entityID,
		Payload:   payload,
		Timestamp: b.now().UTC().Format(TimestampLayout),
		DeviceID:  b.deviceID,
	}
}

// DeviceID returns the device this builder stamps events with.
func (b *Builder) DeviceID() string {
	return b.deviceID
}
