package reduce

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rolo/internal/document"
	"github.com/roach88/rolo/internal/event"
	"github.com/roach88/rolo/internal/model"
	"github.com/roach88/rolo/internal/testutil"
)

// newTestBuilder returns a builder producing deterministic ids and
// timestamps one second apart.
func newTestBuilder() *event.Builder {
	return event.NewBuilder("device-test",
		event.WithIDGenerator(testutil.NewSequenceIDs()),
		event.WithNow(testutil.NewClock().Now),
	)
}

// seedAccountAndContact folds an account and a contact into a fresh
// document and returns it with the builder used.
func seedAccountAndContact(t *testing.T, reg *Registry) (document.Document, *event.Builder) {
	t.Helper()
	b := newTestBuilder()
	doc, err := reg.ApplyAll(document.New(), []event.Event{
		b.Build(event.TypeAccountCreated, "", model.Object{
			"id":   model.String("acct-1"),
			"name": model.String("Globex West"),
		}),
		b.Build(event.TypeContactCreated, "", model.Object{
			"id":        model.String("cont-1"),
			"firstName": model.String("Hank"),
		}),
	})
	require.NoError(t, err)
	return doc, b
}

func TestRegistry_AllTypesRegistered(t *testing.T) {
	reg := NewRegistry()
	for _, typ := range event.Types {
		assert.True(t, reg.Registered(typ), "no reducer for %s", typ)
	}
}

func TestRegistry_DuplicateRegistrationRejected(t *testing.T) {
	reg := NewRegistry()
	err := reg.Register(event.TypeAccountCreated, applyAccountCreated)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")
}

func TestApply_UnregisteredType(t *testing.T) {
	reg := NewRegistry()
	doc := document.New()

	got, err := reg.Apply(doc, event.Event{ID: "e1", Type: "account.exploded"})
	require.Error(t, err)
	assert.True(t, IsUnregisteredType(err))
	assert.Empty(t, got.Accounts)
}

func TestApply_InputDocumentNeverMutated(t *testing.T) {
	reg := NewRegistry()
	doc, b := seedAccountAndContact(t, reg)

	before, err := doc.Fingerprint()
	require.NoError(t, err)

	_, err = reg.Apply(doc, b.Build(event.TypeAccountUpdated, "acct-1", model.Object{
		"name": model.String("Renamed"),
	}))
	require.NoError(t, err)

	after, err := doc.Fingerprint()
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestApply_DuplicateCreationRejected(t *testing.T) {
	reg := NewRegistry()
	doc, b := seedAccountAndContact(t, reg)

	got, err := reg.Apply(doc, b.Build(event.TypeAccountCreated, "", model.Object{
		"id":   model.String("acct-1"),
		"name": model.String("Impostor"),
	}))
	require.Error(t, err)
	assert.True(t, IsDuplicateEntity(err))
	assert.Equal(t, "Globex West", got.Accounts["acct-1"].Name)
}

func TestApply_UpdateMissingEntityRejected(t *testing.T) {
	reg := NewRegistry()
	b := newTestBuilder()

	_, err := reg.Apply(document.New(), b.Build(event.TypeAccountUpdated, "ghost", model.Object{
		"name": model.String("x"),
	}))
	require.Error(t, err)
	assert.True(t, IsEntityNotFound(err))
}

func TestApply_PartialUpdatePreservesOtherFields(t *testing.T) {
	reg := NewRegistry()
	b := newTestBuilder()

	doc, err := reg.ApplyAll(document.New(), []event.Event{
		b.Build(event.TypeAccountCreated, "", model.Object{
			"id":      model.String("acct-1"),
			"name":    model.String("Globex West"),
			"status":  model.String("active"),
			"website": model.String("west.globex.test"),
		}),
		b.Build(event.TypeAccountUpdated, "acct-1", model.Object{
			"name": model.String("Globex Coast"),
		}),
	})
	require.NoError(t, err)

	a := doc.Accounts["acct-1"]
	assert.Equal(t, "Globex Coast", a.Name)
	assert.Equal(t, "active", a.Status)
	assert.Equal(t, "west.globex.test", a.Website)
	assert.NotEqual(t, a.CreatedAt, a.UpdatedAt)
}

func TestApply_StatusUpdateChangesOnlyStatus(t *testing.T) {
	reg := NewRegistry()
	b := newTestBuilder()

	doc, err := reg.ApplyAll(document.New(), []event.Event{
		b.Build(event.TypeAccountCreated, "", model.Object{
			"id":     model.String("acct-1"),
			"name":   model.String("Globex West"),
			"status": model.String("active"),
		}),
		b.Build(event.TypeAccountStatusUpdated, "acct-1", model.Object{
			"status": model.String("churned"),
			"name":   model.String("should be ignored"),
		}),
	})
	require.NoError(t, err)

	a := doc.Accounts["acct-1"]
	assert.Equal(t, "churned", a.Status)
	assert.Equal(t, "Globex West", a.Name)
}

func TestApply_TimestampsComeFromEvent(t *testing.T) {
	reg := NewRegistry()
	b := newTestBuilder()

	ev := b.Build(event.TypeNoteCreated, "", model.Object{
		"id":   model.String("n-1"),
		"body": model.String("hello"),
	})
	doc, err := reg.Apply(document.New(), ev)
	require.NoError(t, err)

	n := doc.Notes["n-1"]
	assert.Equal(t, ev.Timestamp, n.CreatedAt)
	assert.Equal(t, ev.Timestamp, n.UpdatedAt)
}

func TestApply_DeleteLeavesRelationDangling(t *testing.T) {
	reg := NewRegistry()
	doc, b := seedAccountAndContact(t, reg)

	doc, err := reg.ApplyAll(doc, []event.Event{
		b.Build(event.TypeAccountContactLinked, "", model.Object{
			"id":        model.String("link-1"),
			"accountId": model.String("acct-1"),
			"contactId": model.String("cont-1"),
			"role":      model.String("ceo"),
		}),
		b.Build(event.TypeAccountDeleted, "acct-1", nil),
	})
	require.NoError(t, err)

	// Cascades are explicit: the relation row survives its endpoint.
	assert.NotContains(t, doc.Accounts, "acct-1")
	assert.Contains(t, doc.Relations.AccountContacts, "link-1")
}

func TestApply_ContactMethodDuplicateRejected(t *testing.T) {
	reg := NewRegistry()
	doc, b := seedAccountAndContact(t, reg)

	add := func() event.Event {
		return b.Build(event.TypeContactMethodAdded, "cont-1", model.Object{
			"kind":  model.String("email"),
			"value": model.String("hank@globex.test"),
		})
	}

	doc, err := reg.Apply(doc, add())
	require.NoError(t, err)
	require.Len(t, doc.Contacts["cont-1"].Methods, 1)

	_, err = reg.Apply(doc, add())
	require.Error(t, err)
	assert.True(t, IsInvariantViolation(err))
}

func TestApply_ContactMethodRemove(t *testing.T) {
	reg := NewRegistry()
	doc, b := seedAccountAndContact(t, reg)

	doc, err := reg.ApplyAll(doc, []event.Event{
		b.Build(event.TypeContactMethodAdded, "cont-1", model.Object{
			"kind":  model.String("email"),
			"value": model.String("hank@globex.test"),
		}),
		b.Build(event.TypeContactMethodRemoved, "cont-1", model.Object{
			"kind":  model.String("email"),
			"value": model.String("hank@globex.test"),
		}),
	})
	require.NoError(t, err)
	assert.Empty(t, doc.Contacts["cont-1"].Methods)

	// Removing a method that is not there is a not-found error.
	_, err = reg.Apply(doc, b.Build(event.TypeContactMethodRemoved, "cont-1", model.Object{
		"kind":  model.String("phone"),
		"value": model.String("555"),
	}))
	require.Error(t, err)
	assert.True(t, IsEntityNotFound(err))
}

func TestApply_LinkRequiresBothEndpoints(t *testing.T) {
	reg := NewRegistry()
	doc, b := seedAccountAndContact(t, reg)

	_, err := reg.Apply(doc, b.Build(event.TypeAccountContactLinked, "", model.Object{
		"id":        model.String("link-x"),
		"accountId": model.String("acct-ghost"),
		"contactId": model.String("cont-1"),
	}))
	require.Error(t, err)
	assert.True(t, IsEntityNotFound(err))

	_, err = reg.Apply(doc, b.Build(event.TypeAccountContactLinked, "", model.Object{
		"id":        model.String("link-x"),
		"accountId": model.String("acct-1"),
		"contactId": model.String("cont-ghost"),
	}))
	require.Error(t, err)
	assert.True(t, IsEntityNotFound(err))
}

func TestApply_PrimaryDemotion_LaterLinkWins(t *testing.T) {
	reg := NewRegistry()
	doc, b := seedAccountAndContact(t, reg)

	doc, err := reg.ApplyAll(doc, []event.Event{
		b.Build(event.TypeContactCreated, "", model.Object{
			"id": model.String("cont-2"),
		}),
		b.Build(event.TypeAccountContactLinked, "", model.Object{
			"id":        model.String("link-1"),
			"accountId": model.String("acct-1"),
			"contactId": model.String("cont-1"),
			"role":      model.String("ceo"),
			"primary":   model.Bool(true),
		}),
		b.Build(event.TypeAccountContactLinked, "", model.Object{
			"id":        model.String("link-2"),
			"accountId": model.String("acct-1"),
			"contactId": model.String("cont-2"),
			"role":      model.String("ceo"),
			"primary":   model.Bool(true),
		}),
	})
	require.NoError(t, err)

	assert.False(t, doc.Relations.AccountContacts["link-1"].Primary)
	assert.True(t, doc.Relations.AccountContacts["link-2"].Primary)
}

func TestApply_SetPrimary_DemotesWithinRoleScope(t *testing.T) {
	reg := NewRegistry()
	doc, b := seedAccountAndContact(t, reg)

	doc, err := reg.ApplyAll(doc, []event.Event{
		b.Build(event.TypeAccountContactLinked, "", model.Object{
			"id":        model.String("link-ceo"),
			"accountId": model.String("acct-1"),
			"contactId": model.String("cont-1"),
			"role":      model.String("ceo"),
			"primary":   model.Bool(true),
		}),
		b.Build(event.TypeAccountContactLinked, "", model.Object{
			"id":        model.String("link-billing"),
			"accountId": model.String("acct-1"),
			"contactId": model.String("cont-1"),
			"role":      model.String("billing"),
			"primary":   model.Bool(true),
		}),
		b.Build(event.TypeAccountContactLinked, "", model.Object{
			"id":        model.String("link-ceo-2"),
			"accountId": model.String("acct-1"),
			"contactId": model.String("cont-1"),
			"role":      model.String("ceo"),
		}),
		b.Build(event.TypeAccountContactSetPrimary, "link-ceo-2", nil),
	})
	require.NoError(t, err)

	// Promotion demotes only the ceo-scope primary; billing is untouched.
	assert.False(t, doc.Relations.AccountContacts["link-ceo"].Primary)
	assert.True(t, doc.Relations.AccountContacts["link-ceo-2"].Primary)
	assert.True(t, doc.Relations.AccountContacts["link-billing"].Primary)
}

func TestApply_SettingsKeyedByDevice(t *testing.T) {
	reg := NewRegistry()

	laptop := event.NewBuilder("laptop",
		event.WithIDGenerator(testutil.NewSequenceIDsWithPrefix("lap")),
		event.WithNow(testutil.NewClock().Now),
	)
	phone := event.NewBuilder("phone",
		event.WithIDGenerator(testutil.NewSequenceIDsWithPrefix("pho")),
		event.WithNow(testutil.NewClockAt(testutil.Epoch.Add(1000), 1).Now),
	)

	doc, err := reg.ApplyAll(document.New(), []event.Event{
		laptop.Build(event.TypeSettingsUpdated, "", model.Object{
			"values": model.Object{"theme": model.String("dark")},
		}),
		phone.Build(event.TypeSettingsUpdated, "", model.Object{
			"values": model.Object{"theme": model.String("light")},
		}),
	})
	require.NoError(t, err)

	require.Len(t, doc.Settings, 2)
	assert.Equal(t, model.String("dark"), doc.Settings["laptop"].Values["theme"])
	assert.Equal(t, model.String("light"), doc.Settings["phone"].Values["theme"])
}

func TestApplyAll_FailFastReturnsOriginal(t *testing.T) {
	reg := NewRegistry()
	b := newTestBuilder()
	start := document.New()

	got, err := reg.ApplyAll(start, []event.Event{
		b.Build(event.TypeAccountCreated, "", model.Object{
			"id":   model.String("acct-1"),
			"name": model.String("First"),
		}),
		b.Build(event.TypeAccountUpdated, "ghost", model.Object{
			"name": model.String("never"),
		}),
		b.Build(event.TypeAccountCreated, "", model.Object{
			"id":   model.String("acct-2"),
			"name": model.String("never either"),
		}),
	})
	require.Error(t, err)
	assert.True(t, IsEntityNotFound(err))

	// The batch is all-or-nothing: even the valid leading event is gone.
	assert.Empty(t, got.Accounts)
	assert.Empty(t, start.Accounts)
}

func TestApplyAll_Deterministic(t *testing.T) {
	reg := NewRegistry()

	build := func() []event.Event {
		b := newTestBuilder()
		return []event.Event{
			b.Build(event.TypeOrganizationCreated, "", model.Object{
				"id": model.String("org-1"), "name": model.String("Globex"),
			}),
			b.Build(event.TypeAccountCreated, "", model.Object{
				"id": model.String("acct-1"), "organizationId": model.String("org-1"),
				"name": model.String("West"),
			}),
			b.Build(event.TypeContactCreated, "", model.Object{
				"id": model.String("cont-1"), "firstName": model.String("Hank"),
			}),
			b.Build(event.TypeAccountContactLinked, "", model.Object{
				"id": model.String("link-1"), "accountId": model.String("acct-1"),
				"contactId": model.String("cont-1"), "role": model.String("ceo"),
			}),
		}
	}

	first, err := reg.ApplyAll(document.New(), build())
	require.NoError(t, err)
	second, err := reg.ApplyAll(document.New(), build())
	require.NoError(t, err)

	fp1, err := first.Fingerprint()
	require.NoError(t, err)
	fp2, err := second.Fingerprint()
	require.NoError(t, err)
	assert.Equal(t, fp1, fp2)
}

func TestApply_AuditIsAppendOnly(t *testing.T) {
	reg := NewRegistry()
	b := newTestBuilder()

	doc, err := reg.Apply(document.New(), b.Build(event.TypeAuditLogged, "", model.Object{
		"id":     model.String("au-1"),
		"action": model.String("login"),
	}))
	require.NoError(t, err)
	assert.Equal(t, "login", doc.Audits["au-1"].Action)

	// Same id again is a duplicate, not an update.
	_, err = reg.Apply(doc, b.Build(event.TypeAuditLogged, "", model.Object{
		"id":     model.String("au-1"),
		"action": model.String("logout"),
	}))
	require.Error(t, err)
	assert.True(t, IsDuplicateEntity(err))
}

func TestApply_EventWithNoID(t *testing.T) {
	reg := NewRegistry()
	b := newTestBuilder()

	_, err := reg.Apply(document.New(), b.Build(event.TypeAccountUpdated, "", model.Object{
		"name": model.String("x"),
	}))
	require.Error(t, err)
	var re *Error
	require.ErrorAs(t, err, &re)
	assert.Equal(t, ErrCodeBadPayload, re.Code)
}
