package reduce

import (
	"github.com/roach88/rolo/internal/document"
	"github.com/roach88/rolo/internal/event"
)

func applyAccountCreated(doc document.Document, ev event.Event) (document.Document, error) {
	a, err := document.DecodeAccount(ev.Payload, document.Account{})
	if err != nil {
		return doc, newPayloadError(ev, err)
	}
	if a.ID == "" {
		id, idErr := requireID(ev)
		if idErr != nil {
			return doc, idErr
		}
		a.ID = id
	}
	if _, exists := doc.Accounts[a.ID]; exists {
		return doc, newDuplicateError(ev, a.ID)
	}
	a.CreatedAt, a.UpdatedAt = ev.Timestamp, ev.Timestamp
	doc.Accounts[a.ID] = a
	return doc, nil
}

func applyAccountUpdated(doc document.Document, ev event.Event) (document.Document, error) {
	id, err := requireID(ev)
	if err != nil {
		return doc, err
	}
	existing, ok := doc.Accounts[id]
	if !ok {
		return doc, newNotFoundError(ev, id)
	}
	a, err := document.DecodeAccount(ev.Payload, existing)
	if err != nil {
		return doc, newPayloadError(ev, err)
	}
	a.ID = id
	a.UpdatedAt = ev.Timestamp
	doc.Accounts[id] = a
	return doc, nil
}

// applyAccountStatusUpdated changes only the status field. A dedicated
// event (rather than a generic update) keeps status transitions
// distinguishable in the log for audit timelines.
func applyAccountStatusUpdated(doc document.Document, ev event.Event) (document.Document, error) {
	id, err := requireID(ev)
	if err != nil {
		return doc, err
	}
	a, ok := doc.Accounts[id]
	if !ok {
		return doc, newNotFoundError(ev, id)
	}
	updated, err := document.DecodeAccount(ev.Payload, a)
	if err != nil {
		return doc, newPayloadError(ev, err)
	}
	a.Status = updated.Status
	a.UpdatedAt = ev.Timestamp
	doc.Accounts[id] = a
	return doc, nil
}

// applyAccountDeleted removes the account only. Relation records
// referencing it stay until their own unlink events arrive; the read side
// filters the dangling records in the meantime.
func applyAccountDeleted(doc document.Document, ev event.Event) (document.Document, error) {
	id, err := requireID(ev)
	if err != nil {
		return doc, err
	}
	if _, ok := doc.Accounts[id]; !ok {
		return doc, newNotFoundError(ev, id)
	}
	delete(doc.Accounts, id)
	return doc, nil
}
