package store

import (
	"context"
	"database/sql"

	"github.com/roach88/rolo/internal/event"
	"github.com/roach88/rolo/internal/model"
)

// AppendEvents inserts a batch of events in a single transaction.
// Payloads are stored as canonical JSON text.
//
// Uses ON CONFLICT(id) DO NOTHING: re-appending an already-durable event
// (e.g. a retry after a crash between commit and acknowledgment) is a
// no-op, never a duplicate row. History is never rewritten.
func (s *Store) AppendEvents(ctx context.Context, events []event.Event) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &PersistenceError{Code: ErrCodeIO, Op: "append events: begin tx", Err: err}
	}
	defer tx.Rollback() // No-op if committed

	for _, ev := range events {
		payloadJSON, err := model.MarshalCanonical(ev.Payload)
		if err != nil {
			return &PersistenceError{Code: ErrCodeCorrupt, Op: "append events: marshal payload", Err: err}
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO events (id, type, entity_id, payload, timestamp, device_id)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO NOTHING
		`,
			ev.ID,
			string(ev.Type),
			nullable(ev.EntityID),
			string(payloadJSON),
			ev.Timestamp,
			ev.DeviceID,
		)
		if err != nil {
			return &PersistenceError{Code: ErrCodeIO, Op: "append events: insert", Err: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return &PersistenceError{Code: ErrCodeIO, Op: "append events: commit", Err: err}
	}
	return nil
}

// ReadEvents returns every event in the log, sorted into canonical order
// in memory.
func (s *Store) ReadEvents(ctx context.Context) ([]event.Event, error) {
	return s.readEvents(ctx, `
		SELECT id, type, entity_id, payload, timestamp, device_id FROM events
	`)
}

// ReadEventsAfter returns events strictly newer than the timestamp, in
// canonical order. Used to pick the trailing events on top of a snapshot.
func (s *Store) ReadEventsAfter(ctx context.Context, timestamp string) ([]event.Event, error) {
	return s.readEvents(ctx, `
		SELECT id, type, entity_id, payload, timestamp, device_id FROM events
		WHERE timestamp > ?
	`, timestamp)
}

// CountEvents returns the number of rows in the log.
func (s *Store) CountEvents(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM events`).Scan(&n); err != nil {
		return 0, &PersistenceError{Code: ErrCodeIO, Op: "count events", Err: err}
	}
	return n, nil
}

func (s *Store) readEvents(ctx context.Context, query string, args ...any) ([]event.Event, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &PersistenceError{Code: ErrCodeIO, Op: "read events", Err: err}
	}
	defer rows.Close()

	var events []event.Event
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, &PersistenceError{Code: ErrCodeIO, Op: "read events: iterate", Err: err}
	}

	if events == nil {
		events = []event.Event{}
	}
	event.Sort(events)
	return events, nil
}

func scanEvent(rows *sql.Rows) (event.Event, error) {
	var ev event.Event
	var evType string
	var entityID sql.NullString
	var payloadJSON string

	if err := rows.Scan(&ev.ID, &evType, &entityID, &payloadJSON, &ev.Timestamp, &ev.DeviceID); err != nil {
		return event.Event{}, &PersistenceError{Code: ErrCodeIO, Op: "read events: scan", Err: err}
	}
	ev.Type = event.Type(evType)
	if entityID.Valid {
		ev.EntityID = entityID.String
	}

	payload, err := model.DecodeObject([]byte(payloadJSON))
	if err != nil {
		return event.Event{}, &PersistenceError{Code: ErrCodeCorrupt, Op: "read events: decode payload", Err: err}
	}
	ev.Payload = payload
	return ev, nil
}

// nullable maps "" to NULL for optional columns.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
