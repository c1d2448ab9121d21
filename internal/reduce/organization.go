package reduce

import (
	"github.com/roach88/rolo/internal/document"
	"github.com/roach88/rolo/internal/event"
)

func applyOrganizationCreated(doc document.Document, ev event.Event) (document.Document, error) {
	o, err := document.DecodeOrganization(ev.Payload, document.Organization{})
	if err != nil {
		return doc, newPayloadError(ev, err)
	}
	if o.ID == "" {
		id, idErr := requireID(ev)
		if idErr != nil {
			return doc, idErr
		}
		o.ID = id
	}
	if _, exists := doc.Organizations[o.ID]; exists {
		return doc, newDuplicateError(ev, o.ID)
	}
	o.CreatedAt, o.UpdatedAt = ev.Timestamp, ev.Timestamp
	doc.Organizations[o.ID] = o
	return doc, nil
}

func applyOrganizationUpdated(doc document.Document, ev event.Event) (document.Document, error) {
	id, err := requireID(ev)
	if err != nil {
		return doc, err
	}
	existing, ok := doc.Organizations[id]
	if !ok {
		return doc, newNotFoundError(ev, id)
	}
	o, err := document.DecodeOrganization(ev.Payload, existing)
	if err != nil {
		return doc, newPayloadError(ev, err)
	}
	o.ID = id
	o.UpdatedAt = ev.Timestamp
	doc.Organizations[id] = o
	return doc, nil
}

func applyOrganizationDeleted(doc document.Document, ev event.Event) (document.Document, error) {
	id, err := requireID(ev)
	if err != nil {
		return doc, err
	}
	if _, ok := doc.Organizations[id]; !ok {
		return doc, newNotFoundError(ev, id)
	}
	delete(doc.Organizations, id)
	return doc, nil
}
