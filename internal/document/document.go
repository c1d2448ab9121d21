// Package document defines the normalized in-memory representation of all
// CRM state: one map per entity collection plus the relation tables.
//
// A Document is never mutated in place. Every reducer produces a new
// Document and the old one is discarded; the Document a reader holds is
// always exactly the fold of the event log up to some point, in canonical
// order, and is never derived any other way.
package document

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/roach88/rolo/internal/model"
)

// Kind names an entity collection. Used by generic entity links and by
// the existence checks relation reducers perform.
type Kind string

const (
	KindOrganization  Kind = "organization"
	KindAccount       Kind = "account"
	KindContact       Kind = "contact"
	KindNote          Kind = "note"
	KindInteraction   Kind = "interaction"
	KindAudit         Kind = "audit"
	KindCode          Kind = "code"
	KindCalendarEvent Kind = "calendarEvent"
)

// Document is the reconstructed snapshot of current state. Identity is
// structural: two documents with equal Fingerprints are the same document.
type Document struct {
	Organizations  map[string]Organization
	Accounts       map[string]Account
	Contacts       map[string]Contact
	Notes          map[string]Note
	Interactions   map[string]Interaction
	Audits         map[string]Audit
	Codes          map[string]Code
	CalendarEvents map[string]CalendarEvent
	Settings       map[string]Settings
	Relations      Relations
}

// New returns an empty Document with every collection initialized. New
// collections added to the schema over time get empty defaults here, so
// old event logs replay cleanly against the newer shape.
func New() Document {
	return Document{
		Organizations:  map[string]Organization{},
		Accounts:       map[string]Account{},
		Contacts:       map[string]Contact{},
		Notes:          map[string]Note{},
		Interactions:   map[string]Interaction{},
		Audits:         map[string]Audit{},
		Codes:          map[string]Code{},
		CalendarEvents: map[string]CalendarEvent{},
		Settings:       map[string]Settings{},
		Relations: Relations{
			AccountContacts: map[string]AccountContact{},
			EntityLinks:     map[string]EntityLink{},
		},
	}
}

// Clone deep-copies the document. Reducers clone before writing, so the
// caller's document is untouched whether the reducer succeeds or fails.
func (d Document) Clone() Document {
	out := New()
	for id, e := range d.Organizations {
		out.Organizations[id] = e
	}
	for id, e := range d.Accounts {
		out.Accounts[id] = e
	}
	for id, e := range d.Contacts {
		// Methods is the one slice-valued entity field.
		if e.Methods != nil {
			methods := make([]ContactMethod, len(e.Methods))
			copy(methods, e.Methods)
			e.Methods = methods
		}
		out.Contacts[id] = e
	}
	for id, e := range d.Notes {
		out.Notes[id] = e
	}
	for id, e := range d.Interactions {
		out.Interactions[id] = e
	}
	for id, e := range d.Audits {
		out.Audits[id] = e
	}
	for id, e := range d.Codes {
		out.Codes[id] = e
	}
	for id, e := range d.CalendarEvents {
		out.CalendarEvents[id] = e
	}
	for id, e := range d.Settings {
		if e.Values != nil {
			e.Values = model.Clone(e.Values).(model.Object)
		}
		out.Settings[id] = e
	}
	for id, r := range d.Relations.AccountContacts {
		out.Relations.AccountContacts[id] = r
	}
	for id, l := range d.Relations.EntityLinks {
		out.Relations.EntityLinks[id] = l
	}
	return out
}

// Has reports whether an entity of the given kind exists. Relation
// reducers use this to refuse links to missing endpoints.
func (d Document) Has(kind Kind, id string) bool {
	switch kind {
	case KindOrganization:
		_, ok := d.Organizations[id]
		return ok
	case KindAccount:
		_, ok := d.Accounts[id]
		return ok
	case KindContact:
		_, ok := d.Contacts[id]
		return ok
	case KindNote:
		_, ok := d.Notes[id]
		return ok
	case KindInteraction:
		_, ok := d.Interactions[id]
		return ok
	case KindAudit:
		_, ok := d.Audits[id]
		return ok
	case KindCode:
		_, ok := d.Codes[id]
		return ok
	case KindCalendarEvent:
		_, ok := d.CalendarEvents[id]
		return ok
	default:
		return false
	}
}

// Encode converts the document to the model value domain for snapshot
// serialization.
func (d Document) Encode() model.Object {
	return model.Object{
		"organizations":  encodeCollection(d.Organizations, Organization.Encode),
		"accounts":       encodeCollection(d.Accounts, Account.Encode),
		"contacts":       encodeCollection(d.Contacts, Contact.Encode),
		"notes":          encodeCollection(d.Notes, Note.Encode),
		"interactions":   encodeCollection(d.Interactions, Interaction.Encode),
		"audits":         encodeCollection(d.Audits, Audit.Encode),
		"codes":          encodeCollection(d.Codes, Code.Encode),
		"calendarEvents": encodeCollection(d.CalendarEvents, CalendarEvent.Encode),
		"settings":       encodeCollection(d.Settings, Settings.Encode),
		"relations": model.Object{
			"accountContacts": encodeCollection(d.Relations.AccountContacts, AccountContact.Encode),
			"entityLinks":     encodeCollection(d.Relations.EntityLinks, EntityLink.Encode),
		},
	}
}

func encodeCollection[E any](coll map[string]E, encode func(E) model.Object) model.Object {
	out := make(model.Object, len(coll))
	for id, e := range coll {
		out[id] = encode(e)
	}
	return out
}

// MarshalCanonical returns the RFC 8785 canonical serialization of the
// document. This is what snapshots store and what fingerprints hash.
func (d Document) MarshalCanonical() ([]byte, error) {
	return model.MarshalCanonical(d.Encode())
}

// Fingerprint returns the hex SHA-256 of the canonical serialization.
// Structural document equality is fingerprint equality.
func (d Document) Fingerprint() (string, error) {
	data, err := d.MarshalCanonical()
	if err != nil {
		return "", fmt.Errorf("fingerprint: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// Decode reconstructs a Document from snapshot JSON. Collections missing
// from older snapshots come back as empty defaults; unknown collections
// are ignored. Malformed entities are errors, not skips.
func Decode(data []byte) (Document, error) {
	obj, err := model.DecodeObject(data)
	if err != nil {
		return Document{}, fmt.Errorf("decode document: %w", err)
	}

	d := New()
	if err := decodeCollection(obj, "organizations", d.Organizations, decodeWithTimestamps(DecodeOrganization,
		func(e *Organization) (*string, *string) { return &e.CreatedAt, &e.UpdatedAt })); err != nil {
		return Document{}, err
	}
	if err := decodeCollection(obj, "accounts", d.Accounts, decodeWithTimestamps(DecodeAccount,
		func(e *Account) (*string, *string) { return &e.CreatedAt, &e.UpdatedAt })); err != nil {
		return Document{}, err
	}
	if err := decodeCollection(obj, "contacts", d.Contacts, decodeWithTimestamps(DecodeContact,
		func(e *Contact) (*string, *string) { return &e.CreatedAt, &e.UpdatedAt })); err != nil {
		return Document{}, err
	}
	if err := decodeCollection(obj, "notes", d.Notes, decodeWithTimestamps(DecodeNote,
		func(e *Note) (*string, *string) { return &e.CreatedAt, &e.UpdatedAt })); err != nil {
		return Document{}, err
	}
	if err := decodeCollection(obj, "interactions", d.Interactions, decodeWithTimestamps(DecodeInteraction,
		func(e *Interaction) (*string, *string) { return &e.CreatedAt, &e.UpdatedAt })); err != nil {
		return Document{}, err
	}
	if err := decodeCollection(obj, "audits", d.Audits, decodeWithTimestamps(DecodeAudit,
		func(e *Audit) (*string, *string) { return &e.CreatedAt, nil })); err != nil {
		return Document{}, err
	}
	if err := decodeCollection(obj, "codes", d.Codes, decodeWithTimestamps(DecodeCode,
		func(e *Code) (*string, *string) { return &e.CreatedAt, &e.UpdatedAt })); err != nil {
		return Document{}, err
	}
	if err := decodeCollection(obj, "calendarEvents", d.CalendarEvents, decodeWithTimestamps(DecodeCalendarEvent,
		func(e *CalendarEvent) (*string, *string) { return &e.CreatedAt, &e.UpdatedAt })); err != nil {
		return Document{}, err
	}
	if err := decodeCollection(obj, "settings", d.Settings, decodeWithTimestamps(DecodeSettings,
		func(e *Settings) (*string, *string) { return nil, &e.UpdatedAt })); err != nil {
		return Document{}, err
	}

	if v, ok := obj["relations"]; ok {
		rels, ok := v.(model.Object)
		if !ok {
			return Document{}, fmt.Errorf("decode document: relations: expected object, got %T", v)
		}
		if err := decodeCollection(rels, "accountContacts", d.Relations.AccountContacts, decodeWithTimestamps(DecodeAccountContact,
			func(e *AccountContact) (*string, *string) { return &e.CreatedAt, &e.UpdatedAt })); err != nil {
			return Document{}, err
		}
		if err := decodeCollection(rels, "entityLinks", d.Relations.EntityLinks, decodeWithTimestamps(DecodeEntityLink,
			func(e *EntityLink) (*string, *string) { return &e.CreatedAt, nil })); err != nil {
			return Document{}, err
		}
	}
	return d, nil
}

// decodeCollection decodes one named collection into dst.
func decodeCollection[E any](obj model.Object, name string, dst map[string]E, decode func(model.Object) (E, error)) error {
	v, ok := obj[name]
	if !ok {
		return nil
	}
	coll, ok := v.(model.Object)
	if !ok {
		return fmt.Errorf("decode document: %s: expected object, got %T", name, v)
	}
	for id, raw := range coll {
		entObj, ok := raw.(model.Object)
		if !ok {
			return fmt.Errorf("decode document: %s[%q]: expected object, got %T", name, id, raw)
		}
		e, err := decode(entObj)
		if err != nil {
			return fmt.Errorf("decode document: %s[%q]: %w", name, id, err)
		}
		dst[id] = e
	}
	return nil
}

// decodeWithTimestamps wraps an entity decoder so that createdAt/updatedAt
// (which live outside the event-payload field set) round-trip from
// snapshots.
func decodeWithTimestamps[E any](decode func(model.Object, E) (E, error), timestamps func(*E) (created, updated *string)) func(model.Object) (E, error) {
	return func(p model.Object) (E, error) {
		var zero E
		e, err := decode(p, zero)
		if err != nil {
			return zero, err
		}
		created, updated := timestamps(&e)
		if created != nil {
			if err := mergeString(p, "createdAt", created); err != nil {
				return zero, err
			}
		}
		if updated != nil {
			if err := mergeString(p, "updatedAt", updated); err != nil {
				return zero, err
			}
		}
		return e, nil
	}
}
