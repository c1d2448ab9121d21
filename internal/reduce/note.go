package reduce

import (
	"github.com/roach88/rolo/internal/document"
	"github.com/roach88/rolo/internal/event"
)

func applyNoteCreated(doc document.Document, ev event.Event) (document.Document, error) {
	n, err := document.DecodeNote(ev.Payload, document.Note{})
	if err != nil {
		return doc, newPayloadError(ev, err)
	}
	if n.ID == "" {
		id, idErr := requireID(ev)
		if idErr != nil {
			return doc, idErr
		}
		n.ID = id
	}
	if _, exists := doc.Notes[n.ID]; exists {
		return doc, newDuplicateError(ev, n.ID)
	}
	n.CreatedAt, n.UpdatedAt = ev.Timestamp, ev.Timestamp
	doc.Notes[n.ID] = n
	return doc, nil
}

func applyNoteUpdated(doc document.Document, ev event.Event) (document.Document, error) {
	id, err := requireID(ev)
	if err != nil {
		return doc, err
	}
	existing, ok := doc.Notes[id]
	if !ok {
		return doc, newNotFoundError(ev, id)
	}
	n, err := document.DecodeNote(ev.Payload, existing)
	if err != nil {
		return doc, newPayloadError(ev, err)
	}
	n.ID = id
	n.UpdatedAt = ev.Timestamp
	doc.Notes[id] = n
	return doc, nil
}

func applyNoteDeleted(doc document.Document, ev event.Event) (document.Document, error) {
	id, err := requireID(ev)
	if err != nil {
		return doc, err
	}
	if _, ok := doc.Notes[id]; !ok {
		return doc, newNotFoundError(ev, id)
	}
	delete(doc.Notes, id)
	return doc, nil
}
