package reduce

import (
	"github.com/roach88/rolo/internal/document"
	"github.com/roach88/rolo/internal/event"
)

// Relation reducers enforce referential integrity on the write side: a
// link may only be created while both endpoints exist. The read side
// still filters dangling records, because an endpoint may be deleted
// later without an unlink event (cascades are explicit, never implied).

func applyAccountContactLinked(doc document.Document, ev event.Event) (document.Document, error) {
	r, err := document.DecodeAccountContact(ev.Payload, document.AccountContact{})
	if err != nil {
		return doc, newPayloadError(ev, err)
	}
	if r.ID == "" {
		id, idErr := requireID(ev)
		if idErr != nil {
			return doc, idErr
		}
		r.ID = id
	}
	if _, exists := doc.Relations.AccountContacts[r.ID]; exists {
		return doc, newDuplicateError(ev, r.ID)
	}
	if !doc.Has(document.KindAccount, r.AccountID) {
		return doc, newNotFoundError(ev, r.AccountID)
	}
	if !doc.Has(document.KindContact, r.ContactID) {
		return doc, newNotFoundError(ev, r.ContactID)
	}
	if r.Primary {
		demotePrimary(doc, r.AccountID, r.Role, ev.Timestamp)
	}
	r.CreatedAt, r.UpdatedAt = ev.Timestamp, ev.Timestamp
	doc.Relations.AccountContacts[r.ID] = r
	return doc, nil
}

func applyAccountContactUnlinked(doc document.Document, ev event.Event) (document.Document, error) {
	id, err := requireID(ev)
	if err != nil {
		return doc, err
	}
	if _, ok := doc.Relations.AccountContacts[id]; !ok {
		return doc, newNotFoundError(ev, id)
	}
	delete(doc.Relations.AccountContacts, id)
	return doc, nil
}

// applyAccountContactSetPrimary promotes one relation to primary for its
// (account, role) scope, demoting any current primary first. The
// demote-then-promote order keeps the at-most-one-primary invariant true
// at every point the reducer could return.
func applyAccountContactSetPrimary(doc document.Document, ev event.Event) (document.Document, error) {
	id, err := requireID(ev)
	if err != nil {
		return doc, err
	}
	r, ok := doc.Relations.AccountContacts[id]
	if !ok {
		return doc, newNotFoundError(ev, id)
	}
	demotePrimary(doc, r.AccountID, r.Role, ev.Timestamp)
	r.Primary = true
	r.UpdatedAt = ev.Timestamp
	doc.Relations.AccountContacts[id] = r
	return doc, nil
}

// demotePrimary clears the primary flag on every relation in the
// (account, role) scope.
func demotePrimary(doc document.Document, accountID, role, timestamp string) {
	for id, rel := range doc.Relations.AccountContacts {
		if rel.AccountID == accountID && rel.Role == role && rel.Primary {
			rel.Primary = false
			rel.UpdatedAt = timestamp
			doc.Relations.AccountContacts[id] = rel
		}
	}
}

func applyEntityLinked(doc document.Document, ev event.Event) (document.Document, error) {
	l, err := document.DecodeEntityLink(ev.Payload, document.EntityLink{})
	if err != nil {
		return doc, newPayloadError(ev, err)
	}
	if l.ID == "" {
		id, idErr := requireID(ev)
		if idErr != nil {
			return doc, idErr
		}
		l.ID = id
	}
	if _, exists := doc.Relations.EntityLinks[l.ID]; exists {
		return doc, newDuplicateError(ev, l.ID)
	}
	if !doc.Has(l.FromKind, l.FromID) {
		return doc, newNotFoundError(ev, l.FromID)
	}
	if !doc.Has(l.ToKind, l.ToID) {
		return doc, newNotFoundError(ev, l.ToID)
	}
	l.CreatedAt = ev.Timestamp
	doc.Relations.EntityLinks[l.ID] = l
	return doc, nil
}

func applyEntityUnlinked(doc document.Document, ev event.Event) (document.Document, error) {
	id, err := requireID(ev)
	if err != nil {
		return doc, err
	}
	if _, ok := doc.Relations.EntityLinks[id]; !ok {
		return doc, newNotFoundError(ev, id)
	}
	delete(doc.Relations.EntityLinks, id)
	return doc, nil
}
