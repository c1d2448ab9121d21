package store

import (
	"context"
	"fmt"

	"github.com/oklog/ulid/v2"

	"github.com/roach88/rolo/internal/document"
)

// Snapshot is a persisted document plus the event timestamp it was
// computed through. Loading folds only events newer than Through on top.
type Snapshot struct {
	ID      string
	Doc     document.Document
	Through string
}

// WriteSnapshot persists the document as of the given through-timestamp.
// Snapshot ids are ULIDs, so id order is also creation order.
func (s *Store) WriteSnapshot(ctx context.Context, doc document.Document, through string) (string, error) {
	docJSON, err := doc.MarshalCanonical()
	if err != nil {
		return "", &PersistenceError{Code: ErrCodeCorrupt, Op: "write snapshot: marshal", Err: err}
	}

	id := ulid.Make().String()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO snapshots (id, doc, timestamp) VALUES (?, ?, ?)
	`, id, string(docJSON), through)
	if err != nil {
		return "", &PersistenceError{Code: ErrCodeIO, Op: "write snapshot: insert", Err: err}
	}
	return id, nil
}

// LatestSnapshot returns the snapshot with the greatest through-timestamp
// (ULID id as tie-break), or nil when none exists.
//
// The max is picked in memory rather than by ORDER BY: storage ordering
// is never trusted, for snapshots any more than for events.
//
// An unparseable snapshot document yields ErrCodeCorrupt. Callers treat
// that as "no snapshot" and fall back to full replay; the log is always
// sufficient to reconstruct state.
func (s *Store) LatestSnapshot(ctx context.Context) (*Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, doc, timestamp FROM snapshots`)
	if err != nil {
		return nil, &PersistenceError{Code: ErrCodeIO, Op: "latest snapshot", Err: err}
	}
	defer rows.Close()

	var best struct {
		id, doc, ts string
		found       bool
	}
	for rows.Next() {
		var id, docJSON, ts string
		if err := rows.Scan(&id, &docJSON, &ts); err != nil {
			return nil, &PersistenceError{Code: ErrCodeIO, Op: "latest snapshot: scan", Err: err}
		}
		if !best.found || ts > best.ts || (ts == best.ts && id > best.id) {
			best.id, best.doc, best.ts, best.found = id, docJSON, ts, true
		}
	}
	if err := rows.Err(); err != nil {
		return nil, &PersistenceError{Code: ErrCodeIO, Op: "latest snapshot: iterate", Err: err}
	}
	if !best.found {
		return nil, nil
	}

	doc, err := document.Decode([]byte(best.doc))
	if err != nil {
		return nil, &PersistenceError{
			Code: ErrCodeCorrupt,
			Op:   fmt.Sprintf("latest snapshot: decode %s", best.id),
			Err:  err,
		}
	}
	return &Snapshot{ID: best.id, Doc: doc, Through: best.ts}, nil
}

// PruneSnapshots deletes all but the newest keep snapshots. Snapshots are
// disposable by design, so pruning can never lose state.
func (s *Store) PruneSnapshots(ctx context.Context, keep int) (int64, error) {
	if keep < 1 {
		keep = 1
	}
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM snapshots WHERE id NOT IN (
			SELECT id FROM snapshots ORDER BY timestamp DESC, id DESC LIMIT ?
		)
	`, keep)
	if err != nil {
		return 0, &PersistenceError{Code: ErrCodeIO, Op: "prune snapshots", Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, &PersistenceError{Code: ErrCodeIO, Op: "prune snapshots: rows affected", Err: err}
	}
	return n, nil
}

// CountSnapshots returns the number of stored snapshots.
func (s *Store) CountSnapshots(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM snapshots`).Scan(&n); err != nil {
		return 0, &PersistenceError{Code: ErrCodeIO, Op: "count snapshots", Err: err}
	}
	return n, nil
}
