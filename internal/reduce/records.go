package reduce

import (
	"github.com/roach88/rolo/internal/document"
	"github.com/roach88/rolo/internal/event"
)

// Audits, codes, and calendar events share the plain create/update/delete
// shape of the other collections.

// applyAuditLogged appends an audit trail record. Audits have no update
// or delete events: the trail is append-only like the log itself.
func applyAuditLogged(doc document.Document, ev event.Event) (document.Document, error) {
	a, err := document.DecodeAudit(ev.Payload, document.Audit{})
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
	if _, exists := doc.Audits[a.ID]; exists {
		return doc, newDuplicateError(ev, a.ID)
	}
	if a.ActorID == "" {
		a.ActorID = ev.DeviceID
	}
	a.CreatedAt = ev.Timestamp
	doc.Audits[a.ID] = a
	return doc, nil
}

func applyCodeCreated(doc document.Document, ev event.Event) (document.Document, error) {
	c, err := document.DecodeCode(ev.Payload, document.Code{})
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
	if _, exists := doc.Codes[c.ID]; exists {
		return doc, newDuplicateError(ev, c.ID)
	}
	c.CreatedAt, c.UpdatedAt = ev.Timestamp, ev.Timestamp
	doc.Codes[c.ID] = c
	return doc, nil
}

func applyCodeUpdated(doc document.Document, ev event.Event) (document.Document, error) {
	id, err := requireID(ev)
	if err != nil {
		return doc, err
	}
	existing, ok := doc.Codes[id]
	if !ok {
		return doc, newNotFoundError(ev, id)
	}
	c, err := document.DecodeCode(ev.Payload, existing)
	if err != nil {
		return doc, newPayloadError(ev, err)
	}
	c.ID = id
	c.UpdatedAt = ev.Timestamp
	doc.Codes[id] = c
	return doc, nil
}

func applyCodeDeleted(doc document.Document, ev event.Event) (document.Document, error) {
	id, err := requireID(ev)
	if err != nil {
		return doc, err
	}
	if _, ok := doc.Codes[id]; !ok {
		return doc, newNotFoundError(ev, id)
	}
	delete(doc.Codes, id)
	return doc, nil
}

func applyCalendarScheduled(doc document.Document, ev event.Event) (document.Document, error) {
	ce, err := document.DecodeCalendarEvent(ev.Payload, document.CalendarEvent{})
	if err != nil {
		return doc, newPayloadError(ev, err)
	}
	if ce.ID == "" {
		id, idErr := requireID(ev)
		if idErr != nil {
			return doc, idErr
		}
		ce.ID = id
	}
	if _, exists := doc.CalendarEvents[ce.ID]; exists {
		return doc, newDuplicateError(ev, ce.ID)
	}
	ce.CreatedAt, ce.UpdatedAt = ev.Timestamp, ev.Timestamp
	doc.CalendarEvents[ce.ID] = ce
	return doc, nil
}

func applyCalendarUpdated(doc document.Document, ev event.Event) (document.Document, error) {
	id, err := requireID(ev)
	if err != nil {
		return doc, err
	}
	existing, ok := doc.CalendarEvents[id]
	if !ok {
		return doc, newNotFoundError(ev, id)
	}
	ce, err := document.DecodeCalendarEvent(ev.Payload, existing)
	if err != nil {
		return doc, newPayloadError(ev, err)
	}
	ce.ID = id
	ce.UpdatedAt = ev.Timestamp
	doc.CalendarEvents[id] = ce
	return doc, nil
}

func applyCalendarDeleted(doc document.Document, ev event.Event) (document.Document, error) {
	id, err := requireID(ev)
	if err != nil {
		return doc, err
	}
	if _, ok := doc.CalendarEvents[id]; !ok {
		return doc, newNotFoundError(ev, id)
	}
	delete(doc.CalendarEvents, id)
	return doc, nil
}

// applySettingsUpdated upserts the settings row for the originating
// device. The row key is the event's DeviceID, never a payload field, so
// one device can never overwrite another device's local settings.
func applySettingsUpdated(doc document.Document, ev event.Event) (document.Document, error) {
	existing := doc.Settings[ev.DeviceID]
	s, err := document.DecodeSettings(ev.Payload, existing)
	if err != nil {
		return doc, newPayloadError(ev, err)
	}
	s.DeviceID = ev.DeviceID
	s.UpdatedAt = ev.Timestamp
	doc.Settings[ev.DeviceID] = s
	return doc, nil
}
