package reduce

import (
	"github.com/roach88/rolo/internal/document"
	"github.com/roach88/rolo/internal/event"
)

func applyInteractionLogged(doc document.Document, ev event.Event) (document.Document, error) {
	it, err := document.DecodeInteraction(ev.Payload, document.Interaction{})
	if err != nil {
		return doc, newPayloadError(ev, err)
	}
	if it.ID == "" {
		id, idErr := requireID(ev)
		if idErr != nil {
			return doc, idErr
		}
		it.ID = id
	}
	if _, exists := doc.Interactions[it.ID]; exists {
		return doc, newDuplicateError(ev, it.ID)
	}
	it.CreatedAt, it.UpdatedAt = ev.Timestamp, ev.Timestamp
	doc.Interactions[it.ID] = it
	return doc, nil
}

func applyInteractionUpdated(doc document.Document, ev event.Event) (document.Document, error) {
	id, err := requireID(ev)
	if err != nil {
		return doc, err
	}
	existing, ok := doc.Interactions[id]
	if !ok {
		return doc, newNotFoundError(ev, id)
	}
	it, err := document.DecodeInteraction(ev.Payload, existing)
	if err != nil {
		return doc, newPayloadError(ev, err)
	}
	it.ID = id
	it.UpdatedAt = ev.Timestamp
	doc.Interactions[id] = it
	return doc, nil
}

func applyInteractionDeleted(doc document.Document, ev event.Event) (document.Document, error) {
	id, err := requireID(ev)
	if err != nil {
		return doc, err
	}
	if _, ok := doc.Interactions[id]; !ok {
		return doc, newNotFoundError(ev, id)
	}
	delete(doc.Interactions, id)
	return doc, nil
}
