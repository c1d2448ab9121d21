package reduce

import (
	"errors"
	"fmt"

	"github.com/roach88/rolo/internal/event"
)

// ErrorCode categorizes reducer failures.
type ErrorCode string

const (
	// ErrCodeUnregisteredType means no reducer is registered for the event
	// type. Fatal by design: an event from a newer client must never be
	// silently dropped, since that would silently desynchronize devices.
	ErrCodeUnregisteredType ErrorCode = "UNREGISTERED_EVENT_TYPE"

	// ErrCodeDuplicateEntity means a creation event targeted an id that
	// already exists. Indicates a replay bug or colliding id generator.
	ErrCodeDuplicateEntity ErrorCode = "DUPLICATE_ENTITY"

	// ErrCodeEntityNotFound means an update or relation event targeted a
	// missing id. Typically an out-of-order or lost event.
	ErrCodeEntityNotFound ErrorCode = "ENTITY_NOT_FOUND"

	// ErrCodeInvariant means applying the event would violate a document
	// invariant (e.g. two primaries for the same role).
	ErrCodeInvariant ErrorCode = "INVARIANT_VIOLATION"

	// ErrCodeBadPayload means the payload could not be decoded into the
	// shape the reducer expects.
	ErrCodeBadPayload ErrorCode = "BAD_PAYLOAD"
)

// Error is a reducer failure with enough context to identify the
// offending event in a replay diagnostic.
type Error struct {
	Code      ErrorCode
	EventID   string
	EventType event.Type
	EntityID  string
	Message   string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.EntityID != "" {
		return fmt.Sprintf("%s: %s (event=%s type=%s entity=%s)", e.Code, e.Message, e.EventID, e.EventType, e.EntityID)
	}
	return fmt.Sprintf("%s: %s (event=%s type=%s)", e.Code, e.Message, e.EventID, e.EventType)
}

// IsUnregisteredType reports whether err is an unregistered-type error.
// Uses errors.As to handle wrapped errors.
func IsUnregisteredType(err error) bool {
	return hasCode(err, ErrCodeUnregisteredType)
}

// IsDuplicateEntity reports whether err is a duplicate-creation error.
func IsDuplicateEntity(err error) bool {
	return hasCode(err, ErrCodeDuplicateEntity)
}

// IsEntityNotFound reports whether err is a missing-target error.
func IsEntityNotFound(err error) bool {
	return hasCode(err, ErrCodeEntityNotFound)
}

// IsInvariantViolation reports whether err is an invariant violation.
func IsInvariantViolation(err error) bool {
	return hasCode(err, ErrCodeInvariant)
}

func hasCode(err error, code ErrorCode) bool {
	var re *Error
	if errors.As(err, &re) {
		return re.Code == code
	}
	return false
}

func newDuplicateError(ev event.Event, entityID string) *Error {
	return &Error{
		Code:      ErrCodeDuplicateEntity,
		EventID:   ev.ID,
		EventType: ev.Type,
		EntityID:  entityID,
		Message:   "entity id already exists",
	}
}

func newNotFoundError(ev event.Event, entityID string) *Error {
	return &Error{
		Code:      ErrCodeEntityNotFound,
		EventID:   ev.ID,
		EventType: ev.Type,
		EntityID:  entityID,
		Message:   "entity does not exist",
	}
}

func newInvariantError(ev event.Event, entityID, msg string) *Error {
	return &Error{
		Code:      ErrCodeInvariant,
		EventID:   ev.ID,
		EventType: ev.Type,
		EntityID:  entityID,
		Message:   msg,
	}
}

func newPayloadError(ev event.Event, err error) *Error {
	return &Error{
		Code:      ErrCodeBadPayload,
		EventID:   ev.ID,
		EventType: ev.Type,
		EntityID:  ev.EntityID,
		Message:   err.Error(),
	}
}
