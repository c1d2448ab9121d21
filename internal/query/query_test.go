package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rolo/internal/document"
	"github.com/roach88/rolo/internal/event"
	"github.com/roach88/rolo/internal/model"
)

// fixtureDocument builds a document with one account, two contacts, two
// account-contact relations (one primary), a dangling relation, and a
// note linked to the account.
func fixtureDocument() document.Document {
	d := document.New()
	d.Accounts["acct-1"] = document.Account{ID: "acct-1", Name: "Globex West"}
	d.Contacts["cont-1"] = document.Contact{ID: "cont-1", FirstName: "Hank"}
	d.Contacts["cont-2"] = document.Contact{ID: "cont-2", FirstName: "Frank"}
	d.Notes["note-1"] = document.Note{ID: "note-1", Body: "quarterly review"}

	d.Relations.AccountContacts["link-1"] = document.AccountContact{
		ID: "link-1", AccountID: "acct-1", ContactID: "cont-1", Role: "ceo", Primary: true,
	}
	d.Relations.AccountContacts["link-2"] = document.AccountContact{
		ID: "link-2", AccountID: "acct-1", ContactID: "cont-2", Role: "billing",
	}
	// Dangling: the contact was deleted after linking.
	d.Relations.AccountContacts["link-3"] = document.AccountContact{
		ID: "link-3", AccountID: "acct-1", ContactID: "cont-gone", Role: "ceo", Primary: true,
	}

	d.Relations.EntityLinks["el-1"] = document.EntityLink{
		ID: "el-1", FromKind: document.KindNote, FromID: "note-1",
		ToKind: document.KindAccount, ToID: "acct-1", LinkType: "about",
	}
	// Dangling: points at a deleted note.
	d.Relations.EntityLinks["el-2"] = document.EntityLink{
		ID: "el-2", FromKind: document.KindNote, FromID: "note-gone",
		ToKind: document.KindAccount, ToID: "acct-1", LinkType: "about",
	}
	return d
}

func TestPrimaryContacts_FiltersDangling(t *testing.T) {
	d := fixtureDocument()
	assert.Equal(t, []string{"cont-1"}, PrimaryContacts(d, "acct-1"))
	assert.Empty(t, PrimaryContacts(d, "acct-none"))
}

func TestPrimaryContactForRole(t *testing.T) {
	d := fixtureDocument()

	c, ok := PrimaryContactForRole(d, "acct-1", "ceo")
	require.True(t, ok)
	assert.Equal(t, "cont-1", c.ID)

	// billing relation exists but is not primary
	_, ok = PrimaryContactForRole(d, "acct-1", "billing")
	assert.False(t, ok)

	_, ok = PrimaryContactForRole(d, "acct-1", "cfo")
	assert.False(t, ok)
}

func TestContactsForAccount_SortedAndFiltered(t *testing.T) {
	d := fixtureDocument()

	rels := ContactsForAccount(d, "acct-1")
	require.Len(t, rels, 2)
	assert.Equal(t, "link-1", rels[0].ID)
	assert.Equal(t, "link-2", rels[1].ID)
}

func TestAccountsForContact(t *testing.T) {
	d := fixtureDocument()

	rels := AccountsForContact(d, "cont-2")
	require.Len(t, rels, 1)
	assert.Equal(t, "acct-1", rels[0].AccountID)

	assert.Empty(t, AccountsForContact(d, "cont-gone"))
}

func TestLinkedEntities_BothDirections(t *testing.T) {
	d := fixtureDocument()

	// From the note's side.
	fromNote := LinkedEntities(d, document.KindNote, "note-1")
	require.Len(t, fromNote, 1)
	assert.Equal(t, document.KindAccount, fromNote[0].Kind)
	assert.Equal(t, "acct-1", fromNote[0].ID)
	assert.Equal(t, "about", fromNote[0].LinkType)

	// From the account's side the dangling el-2 is filtered.
	fromAccount := LinkedEntities(d, document.KindAccount, "acct-1")
	require.Len(t, fromAccount, 1)
	assert.Equal(t, "note-1", fromAccount[0].ID)
}

func TestEntitiesForNote(t *testing.T) {
	d := fixtureDocument()

	got := EntitiesForNote(d, "note-1")
	require.Len(t, got, 1)
	assert.Equal(t, "acct-1", got[0].ID)
}

func TestTimeline_MatchesEntityAndPayloadID(t *testing.T) {
	events := []event.Event{
		{ID: "e3", Type: event.TypeAccountStatusUpdated, EntityID: "acct-1", Timestamp: "2024-01-01T00:00:03.000000000Z"},
		{ID: "e1", Type: event.TypeAccountCreated, Timestamp: "2024-01-01T00:00:01.000000000Z",
			Payload: model.Object{"id": model.String("acct-1")}},
		{ID: "e2", Type: event.TypeContactCreated, Timestamp: "2024-01-01T00:00:02.000000000Z",
			Payload: model.Object{"id": model.String("cont-1")}},
	}

	tl := Timeline(events, "acct-1")
	require.Len(t, tl, 2)
	assert.Equal(t, "e1", tl[0].ID)
	assert.Equal(t, "e3", tl[1].ID)
}

func TestDeviceSettings_MissingRowIsEmpty(t *testing.T) {
	d := document.New()
	d.Settings["laptop"] = document.Settings{
		DeviceID: "laptop",
		Values:   model.Object{"theme": model.String("dark")},
	}

	s := DeviceSettings(d, "laptop")
	assert.Equal(t, model.String("dark"), s.Values["theme"])

	empty := DeviceSettings(d, "phone")
	assert.Equal(t, "phone", empty.DeviceID)
	assert.NotNil(t, empty.Values)
	assert.Empty(t, empty.Values)
}

func TestSelectors_DoNotMutateDocument(t *testing.T) {
	d := fixtureDocument()
	before, err := d.Fingerprint()
	require.NoError(t, err)

	PrimaryContacts(d, "acct-1")
	PrimaryContactForRole(d, "acct-1", "ceo")
	ContactsForAccount(d, "acct-1")
	AccountsForContact(d, "cont-1")
	LinkedEntities(d, document.KindAccount, "acct-1")
	DeviceSettings(d, "laptop")

	after, err := d.Fingerprint()
	require.NoError(t, err)
	assert.Equal(t, before, after)
}
