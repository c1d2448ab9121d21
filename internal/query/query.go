// Package query provides read-only derivations over a document: linked
// entities, primary-contact resolution, timelines.
//
// Selectors never mutate their document argument, and they tolerate
// dangling relation records by filtering links whose endpoint is missing.
// The write side guarantees referential integrity at link time, but an
// endpoint may have been deleted since (cascades are explicit events, not
// side effects), and documents loaded from older snapshots may predate a
// migration.
package query

import (
	"slices"

	"github.com/roach88/rolo/internal/document"
	"github.com/roach88/rolo/internal/event"
	"github.com/roach88/rolo/internal/model"
)

// PrimaryContacts returns the contact ids marked primary for the account,
// across all roles, sorted for stable output. Dangling relations are
// skipped.
func PrimaryContacts(doc document.Document, accountID string) []string {
	var out []string
	for _, rel := range doc.Relations.AccountContacts {
		if rel.AccountID != accountID || !rel.Primary {
			continue
		}
		if _, ok := doc.Contacts[rel.ContactID]; !ok {
			continue
		}
		out = append(out, rel.ContactID)
	}
	slices.Sort(out)
	return out
}

// PrimaryContactForRole resolves the single primary contact for
// (account, role). Returns false when no live primary exists.
func PrimaryContactForRole(doc document.Document, accountID, role string) (document.Contact, bool) {
	for _, rel := range doc.Relations.AccountContacts {
		if rel.AccountID != accountID || rel.Role != role || !rel.Primary {
			continue
		}
		c, ok := doc.Contacts[rel.ContactID]
		if !ok {
			continue
		}
		return c, true
	}
	return document.Contact{}, false
}

// ContactsForAccount returns the live account-contact relations for an
// account, sorted by relation id. Relations whose contact no longer
// exists are filtered.
func ContactsForAccount(doc document.Document, accountID string) []document.AccountContact {
	var out []document.AccountContact
	for _, rel := range doc.Relations.AccountContacts {
		if rel.AccountID != accountID {
			continue
		}
		if _, ok := doc.Contacts[rel.ContactID]; !ok {
			continue
		}
		out = append(out, rel)
	}
	slices.SortFunc(out, func(a, b document.AccountContact) int {
		return compareStrings(a.ID, b.ID)
	})
	return out
}

// AccountsForContact is the reverse direction of ContactsForAccount.
func AccountsForContact(doc document.Document, contactID string) []document.AccountContact {
	var out []document.AccountContact
	for _, rel := range doc.Relations.AccountContacts {
		if rel.ContactID != contactID {
			continue
		}
		if _, ok := doc.Accounts[rel.AccountID]; !ok {
			continue
		}
		out = append(out, rel)
	}
	slices.SortFunc(out, func(a, b document.AccountContact) int {
		return compareStrings(a.ID, b.ID)
	})
	return out
}

// LinkedEntity describes one endpoint reachable from an entity link.
type LinkedEntity struct {
	Kind     document.Kind
	ID       string
	LinkType string
	LinkID   string
}

// LinkedEntities returns the live links touching (kind, id), from either
// side, with the far endpoint resolved. Links whose far endpoint is
// missing are filtered.
func LinkedEntities(doc document.Document, kind document.Kind, id string) []LinkedEntity {
	var out []LinkedEntity
	for _, l := range doc.Relations.EntityLinks {
		var farKind document.Kind
		var farID string
		switch {
		case l.FromKind == kind && l.FromID == id:
			farKind, farID = l.ToKind, l.ToID
		case l.ToKind == kind && l.ToID == id:
			farKind, farID = l.FromKind, l.FromID
		default:
			continue
		}
		if !doc.Has(farKind, farID) {
			continue
		}
		out = append(out, LinkedEntity{Kind: farKind, ID: farID, LinkType: l.LinkType, LinkID: l.ID})
	}
	slices.SortFunc(out, func(a, b LinkedEntity) int {
		return compareStrings(a.LinkID, b.LinkID)
	})
	return out
}

// EntitiesForNote resolves everything a note is attached to.
func EntitiesForNote(doc document.Document, noteID string) []LinkedEntity {
	return LinkedEntities(doc, document.KindNote, noteID)
}

// Timeline returns the events concerning an entity, in canonical order.
// The full event list is kept in memory precisely so history views can be
// rendered without re-reading storage.
func Timeline(events []event.Event, entityID string) []event.Event {
	var out []event.Event
	for _, ev := range events {
		if ev.EntityID == entityID || payloadID(ev) == entityID {
			out = append(out, ev)
		}
	}
	event.Sort(out)
	return out
}

// DeviceSettings returns the settings row for a device, or an empty row.
func DeviceSettings(doc document.Document, deviceID string) document.Settings {
	if s, ok := doc.Settings[deviceID]; ok {
		return s
	}
	return document.Settings{DeviceID: deviceID, Values: model.Object{}}
}

func payloadID(ev event.Event) string {
	if v, ok := ev.Payload["id"].(model.String); ok {
		return string(v)
	}
	return ""
}

func compareStrings(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
