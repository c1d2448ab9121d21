// Package session owns the live document and orchestrates dispatch: fold
// the batch, swap the document, persist asynchronously.
//
// Concurrency model: dispatch is single-writer. A mutex serializes
// applications, and the document is replace-only, so readers always see a
// fully formed, internally consistent document; there is no partially
// applied state to observe. The only asynchronous boundary is the durable
// write path, which is explicitly decoupled: the in-memory commit is
// visible immediately, and a crash before the flush loses only the most
// recent events. That tradeoff is accepted, not hidden.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/roach88/rolo/internal/document"
	"github.com/roach88/rolo/internal/event"
	"github.com/roach88/rolo/internal/model"
	"github.com/roach88/rolo/internal/reduce"
	"github.com/roach88/rolo/internal/schema"
	"github.com/roach88/rolo/internal/store"
)

// DefaultSnapshotEvery is the default number of committed events between
// snapshots.
const DefaultSnapshotEvery = 100

// DispatchResult is the outward contract of dispatch. The session is the
// single place reducer errors are translated into a caller-facing result.
type DispatchResult struct {
	Success bool
	Err     error
}

// ErrorMessage returns a short user-facing message, empty on success.
func (r DispatchResult) ErrorMessage() string {
	if r.Success || r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// Session holds the live document and the full in-memory event list. The
// event list is retained for history views (timelines, audit trails), not
// just current state.
type Session struct {
	mu            sync.Mutex
	doc           document.Document
	events        []event.Event
	pending       []event.Event
	sinceSnapshot int

	// flushMu serializes drain cycles (copy pending, append, trim) so a
	// direct Flush or Snapshot can never race the Run goroutine's cycle.
	flushMu sync.Mutex

	registry  *reduce.Registry
	store     *store.Store
	builder   *event.Builder
	validator *schema.Validator

	snapshotEvery int
	signal        chan struct{}
}

// Option configures a Session.
type Option func(*Session)

// WithSnapshotEvery sets the snapshot cadence in committed events.
// Zero disables automatic snapshots.
func WithSnapshotEvery(n int) Option {
	return func(s *Session) {
		s.snapshotEvery = n
	}
}

// WithValidator enables strict payload validation at dispatch time.
// Replay is never validated: events already in the log must keep folding.
func WithValidator(v *schema.Validator) Option {
	return func(s *Session) {
		s.validator = v
	}
}

// New creates a session over an empty document. Most callers want Load.
func New(st *store.Store, reg *reduce.Registry, b *event.Builder, opts ...Option) *Session {
	s := &Session{
		doc:           document.New(),
		events:        []event.Event{},
		registry:      reg,
		store:         st,
		builder:       b,
		snapshotEvery: DefaultSnapshotEvery,
		signal:        make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load reconstructs the document from the latest snapshot plus trailing
// events and returns a session holding it.
//
// A corrupt snapshot is survivable and demoted to a warning: the log is
// always sufficient, so the load falls back to full replay. A reducer
// failure during replay is fatal for the load attempt; the returned error
// identifies the offending event id and type, because silently skipping
// an event would corrupt the reconstruction relative to other devices.
func Load(ctx context.Context, st *store.Store, reg *reduce.Registry, b *event.Builder, opts ...Option) (*Session, error) {
	s := New(st, reg, b, opts...)

	snap, err := st.LatestSnapshot(ctx)
	if err != nil {
		if !store.IsCorrupt(err) {
			return nil, fmt.Errorf("load: %w", err)
		}
		slog.Warn("snapshot unreadable, falling back to full replay", "error", err)
		snap = nil
	}

	events, err := st.ReadEvents(ctx)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}

	var doc document.Document
	if snap != nil {
		doc, err = reg.ApplyAll(snap.Doc, event.After(events, snap.Through))
	} else {
		doc, err = reg.ApplyAll(document.New(), events)
	}
	if err != nil {
		return nil, fmt.Errorf("load: replay: %w", err)
	}

	s.doc = doc
	s.events = events
	slog.Info("document loaded",
		"events", len(events),
		"from_snapshot", snap != nil,
	)
	return s, nil
}

// BuildEvent constructs an event stamped with this session's device id.
func (s *Session) BuildEvent(t event.Type, entityID string, payload model.Object) event.Event {
	return s.builder.Build(t, entityID, payload)
}

// Dispatch folds a batch of events into the live document. On success the
// new document is swapped in atomically and the events are queued for
// durable append. On any reducer error the live document is untouched; no
// partial application is ever visible.
func (s *Session) Dispatch(events []event.Event) DispatchResult {
	if len(events) == 0 {
		return DispatchResult{Success: true}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.validator != nil {
		for _, ev := range events {
			if err := s.validator.Validate(ev); err != nil {
				slog.Warn("dispatch rejected: invalid payload",
					"event_id", ev.ID,
					"event_type", ev.Type,
					"error", err,
				)
				return DispatchResult{Err: err}
			}
		}
	}

	next, err := s.registry.ApplyAll(s.doc, events)
	if err != nil {
		slog.Warn("dispatch rejected", "error", err, "batch_size", len(events))
		return DispatchResult{Err: err}
	}

	s.doc = next
	s.events = append(s.events, events...)
	s.pending = append(s.pending, events...)

	slog.Debug("dispatch committed",
		"batch_size", len(events),
		"total_events", len(s.events),
		"pending_writes", len(s.pending),
	)

	s.nudge()
	return DispatchResult{Success: true}
}

// Document returns the current document. The returned value is a fold
// result that is never mutated afterwards; callers may read it freely.
func (s *Session) Document() document.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc
}

// Events returns the full in-memory event list in commit order.
func (s *Session) Events() []event.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]event.Event, len(s.events))
	copy(out, s.events)
	return out
}

// PendingWrites reports how many committed events still await durable
// append. Non-zero is surfaced to users as a sync-pending indicator.
func (s *Session) PendingWrites() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// nudge wakes the flusher without blocking. Callers hold s.mu.
func (s *Session) nudge() {
	select {
	case s.signal <- struct{}{}:
	default:
	}
}
