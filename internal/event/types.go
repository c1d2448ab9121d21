package event

// Type identifies an event in the closed, versioned vocabulary. Unknown
// types are a hard error at apply time, never silently dropped: an event
// from a newer client that this build cannot fold would silently
// desynchronize devices if skipped.
type Type string

const (
	TypeOrganizationCreated Type = "organization.created"
	TypeOrganizationUpdated Type = "organization.updated"
	TypeOrganizationDeleted Type = "organization.deleted"

	TypeAccountCreated       Type = "account.created"
	TypeAccountUpdated       Type = "account.updated"
	TypeAccountStatusUpdated Type = "account.status.updated"
	TypeAccountDeleted       Type = "account.deleted"

	TypeContactCreated       Type = "contact.created"
	TypeContactUpdated       Type = "contact.updated"
	TypeContactDeleted       Type = "contact.deleted"
	TypeContactMethodAdded   Type = "contact.method.added"
	TypeContactMethodRemoved Type = "contact.method.removed"

	TypeNoteCreated Type = "note.created"
	TypeNoteUpdated Type = "note.updated"
	TypeNoteDeleted Type = "note.deleted"

	TypeInteractionLogged  Type = "interaction.logged"
	TypeInteractionUpdated Type = "interaction.updated"
	TypeInteractionDeleted Type = "interaction.deleted"

	TypeAuditLogged Type = "audit.logged"

	TypeCodeCreated Type = "code.created"
	TypeCodeUpdated Type = "code.updated"
	TypeCodeDeleted Type = "code.deleted"

	TypeCalendarScheduled Type = "calendar.scheduled"
	TypeCalendarUpdated   Type = "calendar.updated"
	TypeCalendarDeleted   Type = "calendar.deleted"

	TypeSettingsUpdated Type = "settings.updated"

	TypeAccountContactLinked     Type = "account.contact.linked"
	TypeAccountContactUnlinked   Type = "account.contact.unlinked"
	TypeAccountContactSetPrimary Type = "account.contact.setPrimary"

	TypeEntityLinked   Type = "entity.linked"
	TypeEntityUnlinked Type = "entity.unlinked"
)

// Types lists the full vocabulary in a stable order.
var Types = []Type{
	TypeOrganizationCreated,
	TypeOrganizationUpdated,
	TypeOrganizationDeleted,
	TypeAccountCreated,
	TypeAccountUpdated,
	TypeAccountStatusUpdated,
	TypeAccountDeleted,
	TypeContactCreated,
	TypeContactUpdated,
	TypeContactDeleted,
	TypeContactMethodAdded,
	TypeContactMethodRemoved,
	TypeNoteCreated,
	TypeNoteUpdated,
	TypeNoteDeleted,
	TypeInteractionLogged,
	TypeInteractionUpdated,
	TypeInteractionDeleted,
	TypeAuditLogged,
	TypeCodeCreated,
	TypeCodeUpdated,
	TypeCodeDeleted,
	TypeCalendarScheduled,
	TypeCalendarUpdated,
	TypeCalendarDeleted,
	TypeSettingsUpdated,
	TypeAccountContactLinked,
	TypeAccountContactUnlinked,
	TypeAccountContactSetPrimary,
	TypeEntityLinked,
	TypeEntityUnlinked,
}

var knownTypes = func() map[Type]bool {
	m := make(map[Type]bool, len(Types))
	for _, t := range Types {
		m[t] = true
	}
	return m
}()

// KnownType reports whether t is part of the vocabulary this build speaks.
func KnownType(t Type) bool {
	return knownTypes[t]
}
