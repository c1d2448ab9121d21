package reduce

import (
	"github.com/roach88/rolo/internal/document"
	"github.com/roach88/rolo/internal/event"
)

func applyContactCreated(doc document.Document, ev event.Event) (document.Document, error) {
	c, err := document.DecodeContact(ev.Payload, document.Contact{})
	if err != nil {
		return doc, newPayloadError(ev, err)
	}
	if c.ID == "" {
		id, idErr := requireID(ev)
		if idErr != nil {
			return doc, idErr
		}
		c.ID = id
	}
	if _, exists := doc.Contacts[c.ID]; exists {
		return doc, newDuplicateError(ev, c.ID)
	}
	c.CreatedAt, c.UpdatedAt = ev.Timestamp, ev.Timestamp
	doc.Contacts[c.ID] = c
	return doc, nil
}

func applyContactUpdated(doc document.Document, ev event.Event) (document.Document, error) {
	id, err := requireID(ev)
	if err != nil {
		return doc, err
	}
	existing, ok := doc.Contacts[id]
	if !ok {
		return doc, newNotFoundError(ev, id)
	}
	c, err := document.DecodeContact(ev.Payload, existing)
	if err != nil {
		return doc, newPayloadError(ev, err)
	}
	c.ID = id
	c.UpdatedAt = ev.Timestamp
	doc.Contacts[id] = c
	return doc, nil
}

func applyContactDeleted(doc document.Document, ev event.Event) (document.Document, error) {
	id, err := requireID(ev)
	if err != nil {
		return doc, err
	}
	if _, ok := doc.Contacts[id]; !ok {
		return doc, newNotFoundError(ev, id)
	}
	delete(doc.Contacts, id)
	return doc, nil
}

// applyContactMethodAdded appends one contact method. Duplicate
// (kind, value) pairs are an invariant violation: the same address added
// twice indicates a lost-unlink or double-dispatch bug.
func applyContactMethodAdded(doc document.Document, ev event.Event) (document.Document, error) {
	id, err := requireID(ev)
	if err != nil {
		return doc, err
	}
	c, ok := doc.Contacts[id]
	if !ok {
		return doc, newNotFoundError(ev, id)
	}
	m, err := document.DecodeContactMethod(ev.Payload)
	if err != nil {
		return doc, newPayloadError(ev, err)
	}
	for _, existing := range c.Methods {
		if existing.Kind == m.Kind && existing.Value == m.Value {
			return doc, newInvariantError(ev, id, "contact method already present")
		}
	}
	c.Methods = append(c.Methods, m)
	c.UpdatedAt = ev.Timestamp
	doc.Contacts[id] = c
	return doc, nil
}

func applyContactMethodRemoved(doc document.Document, ev event.Event) (document.Document, error) {
	id, err := requireID(ev)
	if err != nil {
		return doc, err
	}
	c, ok := doc.Contacts[id]
	if !ok {
		return doc, newNotFoundError(ev, id)
	}
	m, err := document.DecodeContactMethod(ev.Payload)
	if err != nil {
		return doc, newPayloadError(ev, err)
	}
	kept := c.Methods[:0]
	removed := false
	for _, existing := range c.Methods {
		if existing.Kind == m.Kind && existing.Value == m.Value {
			removed = true
			continue
		}
		kept = append(kept, existing)
	}
	if !removed {
		return doc, newNotFoundError(ev, id)
	}
	c.Methods = kept
	c.UpdatedAt = ev.Timestamp
	doc.Contacts[id] = c
	return doc, nil
}
