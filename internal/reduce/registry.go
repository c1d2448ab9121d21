// Package reduce maps event types to pure state-transition functions and
// folds event sequences into documents.
//
// Determinism is the load-bearing property: the same event list, in the
// same order, folded from the same starting document, yields a
// structurally identical document on any device at any time. Convergence
// across devices follows from that plus the canonical total order on
// events; no field-level merge functions are needed.
package reduce

import (
	"fmt"

	"github.com/roach88/rolo/internal/document"
	"github.com/roach88/rolo/internal/event"
)

// Reducer folds one event into a new document. Reducers receive a private
// clone and may write to it freely, but must be pure: no I/O, no clock
// reads, no randomness. All timestamps come from the event.
type Reducer func(document.Document, event.Event) (document.Document, error)

// Registry maps event types to reducers. Populated once at process start;
// registration order carries no meaning (dispatch is by type, not order).
type Registry struct {
	reducers map[event.Type]Reducer
}

// NewRegistry returns a registry with every built-in reducer registered.
func NewRegistry() *Registry {
	r := &Registry{reducers: make(map[event.Type]Reducer, len(event.Types))}
	r.mustRegister(event.TypeOrganizationCreated, applyOrganizationCreated)
	r.mustRegister(event.TypeOrganizationUpdated, applyOrganizationUpdated)
	r.mustRegister(event.TypeOrganizationDeleted, applyOrganizationDeleted)
	r.mustRegister(event.TypeAccountCreated, applyAccountCreated)
	r.mustRegister(event.TypeAccountUpdated, applyAccountUpdated)
	r.mustRegister(event.TypeAccountStatusUpdated, applyAccountStatusUpdated)
	r.mustRegister(event.TypeAccountDeleted, applyAccountDeleted)
	r.mustRegister(event.TypeContactCreated, applyContactCreated)
	r.mustRegister(event.TypeContactUpdated, applyContactUpdated)
	r.mustRegister(event.TypeContactDeleted, applyContactDeleted)
	r.mustRegister(event.TypeContactMethodAdded, applyContactMethodAdded)
	r.mustRegister(event.TypeContactMethodRemoved, applyContactMethodRemoved)
	r.mustRegister(event.TypeNoteCreated, applyNoteCreated)
	r.mustRegister(event.TypeNoteUpdated, applyNoteUpdated)
	r.mustRegister(event.TypeNoteDeleted, applyNoteDeleted)
	r.mustRegister(event.TypeInteractionLogged, applyInteractionLogged)
	r.mustRegister(event.TypeInteractionUpdated, applyInteractionUpdated)
	r.mustRegister(event.TypeInteractionDeleted, applyInteractionDeleted)
	r.mustRegister(event.TypeAuditLogged, applyAuditLogged)
	r.mustRegister(event.TypeCodeCreated, applyCodeCreated)
	r.mustRegister(event.TypeCodeUpdated, applyCodeUpdated)
	r.mustRegister(event.TypeCodeDeleted, applyCodeDeleted)
	r.mustRegister(event.TypeCalendarScheduled, applyCalendarScheduled)
	r.mustRegister(event.TypeCalendarUpdated, applyCalendarUpdated)
	r.mustRegister(event.TypeCalendarDeleted, applyCalendarDeleted)
	r.mustRegister(event.TypeSettingsUpdated, applySettingsUpdated)
	r.mustRegister(event.TypeAccountContactLinked, applyAccountContactLinked)
	r.mustRegister(event.TypeAccountContactUnlinked, applyAccountContactUnlinked)
	r.mustRegister(event.TypeAccountContactSetPrimary, applyAccountContactSetPrimary)
	r.mustRegister(event.TypeEntityLinked, applyEntityLinked)
	r.mustRegister(event.TypeEntityUnlinked, applyEntityUnlinked)
	return r
}

// Register adds a reducer for an event type. Registering the same type
// twice is an error: two reducers for one type would make the fold
// ambiguous.
func (r *Registry) Register(t event.Type, fn Reducer) error {
	if _, exists := r.reducers[t]; exists {
		return fmt.Errorf("reducer already registered for %s", t)
	}
	r.reducers[t] = fn
	return nil
}

func (r *Registry) mustRegister(t event.Type, fn Reducer) {
	if err := r.Register(t, fn); err != nil {
		panic(err)
	}
}

// Registered reports whether a reducer exists for the type.
func (r *Registry) Registered(t event.Type) bool {
	_, ok := r.reducers[t]
	return ok
}

// Apply folds one event into a new document. The input document is never
// touched: the reducer runs against a clone, and on any error the clone
// is discarded and the untouched input is returned alongside the error.
func (r *Registry) Apply(doc document.Document, ev event.Event) (document.Document, error) {
	fn, ok := r.reducers[ev.Type]
	if !ok {
		return doc, &Error{
			Code:      ErrCodeUnregisteredType,
			EventID:   ev.ID,
			EventType: ev.Type,
			Message:   "no reducer registered",
		}
	}
	next, err := fn(doc.Clone(), ev)
	if err != nil {
		return doc, err
	}
	return next, nil
}

// ApplyAll folds events left-to-right. Fail-fast: the first reducer error
// aborts the fold and the untouched starting document is returned, so no
// partially applied state is ever visible to the caller.
//
// Callers are responsible for passing events in canonical order
// (event.Sort); ApplyAll applies exactly the order given.
func (r *Registry) ApplyAll(doc document.Document, events []event.Event) (document.Document, error) {
	next := doc
	for _, ev := range events {
		var err error
		next, err = r.Apply(next, ev)
		if err != nil {
			return doc, fmt.Errorf("apply event %s (%s): %w", ev.ID, ev.Type, err)
		}
	}
	return next, nil
}
