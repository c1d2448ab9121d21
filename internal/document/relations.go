package document

import (
	"github.com/roach88/rolo/internal/model"
)

// Relation records are lightweight join entities with their own synthetic
// ids. They are created and removed only by their own explicit link/unlink
// events: deleting an endpoint entity never removes its relations as a
// side effect, so every removal stays auditable in the log. The read side
// filters the resulting dangling records instead.

// AccountContact links a contact to an account with a role. At most one
// relation per (account, role) may be primary.
type AccountContact struct {
	ID        string
	AccountID string
	ContactID string
	Role      string
	Primary   bool
	CreatedAt string
	UpdatedAt string
}

// EntityLink is a generic typed link between any two entities, also used
// for attaching notes.
type EntityLink struct {
	ID        string
	FromKind  Kind
	FromID    string
	ToKind    Kind
	ToID      string
	LinkType  string
	CreatedAt string
}

// Relations holds the many-to-many link tables of the document.
type Relations struct {
	AccountContacts map[string]AccountContact
	EntityLinks     map[string]EntityLink
}

// DecodeAccountContact folds payload fields over the fallback record.
func DecodeAccountContact(p model.Object, fallback AccountContact) (AccountContact, error) {
	r := fallback
	if err := mergeString(p, "id", &r.ID); err != nil {
		return fallback, err
	}
	if err := mergeString(p, "accountId", &r.AccountID); err != nil {
		return fallback, err
	}
	if err := mergeString(p, "contactId", &r.ContactID); err != nil {
		return fallback, err
	}
	if err := mergeString(p, "role", &r.Role); err != nil {
		return fallback, err
	}
	if v, ok := p["primary"]; ok {
		b, err := asBool(v, "primary")
		if err != nil {
			return fallback, err
		}
		r.Primary = b
	}
	return r, nil
}

// DecodeEntityLink folds payload fields over the fallback record.
func DecodeEntityLink(p model.Object, fallback EntityLink) (EntityLink, error) {
	l := fallback
	if err := mergeString(p, "id", &l.ID); err != nil {
		return fallback, err
	}
	var fromKind, toKind string
	fromKind, toKind = string(l.FromKind), string(l.ToKind)
	if err := mergeString(p, "fromKind", &fromKind); err != nil {
		return fallback, err
	}
	if err := mergeString(p, "fromId", &l.FromID); err != nil {
		return fallback, err
	}
	if err := mergeString(p, "toKind", &toKind); err != nil {
		return fallback, err
	}
	if err := mergeString(p, "toId", &l.ToID); err != nil {
		return fallback, err
	}
	if err := mergeString(p, "linkType", &l.LinkType); err != nil {
		return fallback, err
	}
	l.FromKind, l.ToKind = Kind(fromKind), Kind(toKind)
	return l, nil
}

// Encode serializes the relation for snapshots.
func (r AccountContact) Encode() model.Object {
	return model.Object{
		"id":        model.String(r.ID),
		"accountId": model.String(r.AccountID),
		"contactId": model.String(r.ContactID),
		"role":      model.String(r.Role),
		"primary":   model.Bool(r.Primary),
		"createdAt": model.String(r.CreatedAt),
		"updatedAt": model.String(r.UpdatedAt),
	}
}

// Encode serializes the link for snapshots.
func (l EntityLink) Encode() model.Object {
	return model.Object{
		"id":        model.String(l.ID),
		"fromKind":  model.String(l.FromKind),
		"fromId":    model.String(l.FromID),
		"toKind":    model.String(l.ToKind),
		"toId":      model.String(l.ToID),
		"linkType":  model.String(l.LinkType),
		"createdAt": model.String(l.CreatedAt),
	}
}
