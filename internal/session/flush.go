package session

import (
	"context"
	"log/slog"
	"time"

	"github.com/roach88/rolo/internal/event"
)

// Backoff bounds for the durable-write retry loop.
const (
	initialBackoff = 250 * time.Millisecond
	maxBackoff     = 30 * time.Second
)

// Run drains the pending queue to durable storage until the context is
// cancelled. Call from one goroutine; Dispatch nudges it after every
// commit.
//
// Persistence failures never roll back in-memory state. They are retried
// with exponential backoff, and the events stay in the pending queue (and
// in PendingWrites) until the append succeeds.
func (s *Session) Run(ctx context.Context) error {
	slog.Info("session flusher starting")
	backoff := initialBackoff

	for {
		select {
		case <-ctx.Done():
			slog.Info("session flusher stopping", "pending_writes", s.PendingWrites())
			return ctx.Err()
		case <-s.signal:
		}

		for {
			err := s.Flush(ctx)
			if err == nil {
				backoff = initialBackoff
				break
			}
			slog.Warn("durable append failed, retrying",
				"error", err,
				"backoff", backoff,
				"pending_writes", s.PendingWrites(),
			)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff = min(backoff*2, maxBackoff)
		}
	}
}

// Flush synchronously appends all pending events and, when the cadence is
// due, writes a snapshot. Safe to call directly (the CLI and shutdown
// paths do); concurrent flushes serialize on flushMu.
func (s *Session) Flush(ctx context.Context) error {
	s.flushMu.Lock()
	defer s.flushMu.Unlock()
	return s.flush(ctx)
}

// flush is a single drain cycle. Callers hold flushMu, so at most one
// cycle is in flight: dispatches can grow the tail of the pending queue
// while the append is running, but its head cannot change between the
// copy and the trim.
func (s *Session) flush(ctx context.Context) error {
	s.mu.Lock()
	batch := append([]event.Event(nil), s.pending...)
	s.mu.Unlock()

	if len(batch) > 0 {
		if err := s.store.AppendEvents(ctx, batch); err != nil {
			return err
		}
	}

	s.mu.Lock()
	s.pending = s.pending[len(batch):]
	s.sinceSnapshot += len(batch)
	due := s.snapshotEvery > 0 && s.sinceSnapshot >= s.snapshotEvery && len(s.pending) == 0
	doc := s.doc
	var through string
	if due {
		through = s.maxTimestampLocked()
		s.sinceSnapshot = 0
	}
	s.mu.Unlock()

	if due {
		// Snapshots are an optimization, never a correctness requirement:
		// a failed write is logged and the log remains authoritative.
		if id, err := s.store.WriteSnapshot(ctx, doc, through); err != nil {
			slog.Warn("snapshot write failed", "error", err)
		} else {
			slog.Info("snapshot written", "snapshot_id", id, "through", through)
		}
	}
	return nil
}

// Snapshot forces a snapshot of the current document, regardless of
// cadence. Pending events are flushed first, and the document and its
// through-timestamp are captured only while the queue is observed empty,
// so a snapshot never covers an event the durable log does not yet hold.
func (s *Session) Snapshot(ctx context.Context) (string, error) {
	s.flushMu.Lock()
	defer s.flushMu.Unlock()

	for {
		if err := s.flush(ctx); err != nil {
			return "", err
		}

		s.mu.Lock()
		if len(s.pending) > 0 {
			// A dispatch landed during the drain; go around again.
			s.mu.Unlock()
			continue
		}
		doc := s.doc
		through := s.maxTimestampLocked()
		s.sinceSnapshot = 0
		s.mu.Unlock()

		return s.store.WriteSnapshot(ctx, doc, through)
	}
}

// maxTimestampLocked returns the greatest event timestamp committed so
// far. Commit order and timestamp order can differ once merged logs from
// other devices are imported, so this scans rather than taking the tail.
// Callers hold s.mu.
func (s *Session) maxTimestampLocked() string {
	var through string
	for _, ev := range s.events {
		if ev.Timestamp > through {
			through = ev.Timestamp
		}
	}
	return through
}
