package store

import (
	"errors"
	"fmt"
)

// ErrCode categorizes persistence failures.
type ErrCode string

const (
	// ErrCodeIO is a read/write failure against the database. Recoverable
	// by retry at a higher layer; never corrupts the in-memory document.
	ErrCodeIO ErrCode = "PERSISTENCE_IO"

	// ErrCodeCorrupt means stored bytes could not be parsed. For
	// snapshots this is survivable: the event log can always reconstruct
	// the document from scratch.
	ErrCodeCorrupt ErrCode = "PERSISTENCE_CORRUPT"
)

// PersistenceError is a storage failure with the operation that hit it.
type PersistenceError struct {
	Code ErrCode
	Op   string
	Err  error
}

// Error implements the error interface.
func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Code, e.Op, e.Err)
}

// Unwrap exposes the underlying error for errors.Is/As.
func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// IsCorrupt reports whether err is a corrupt-data error.
// Uses errors.As to handle wrapped errors.
func IsCorrupt(err error) bool {
	var pe *PersistenceError
	if errors.As(err, &pe) {
		return pe.Code == ErrCodeCorrupt
	}
	return false
}

// IsIO reports whether err is an I/O persistence error.
func IsIO(err error) bool {
	var pe *PersistenceError
	if errors.As(err, &pe) {
		return pe.Code == ErrCodeIO
	}
	return false
}
