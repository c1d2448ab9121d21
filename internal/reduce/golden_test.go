package reduce

import (
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rolo/internal/document"
	"github.com/roach88/rolo/internal/event"
	"github.com/roach88/rolo/internal/model"
)

// TestGolden_AccountLifecycle folds a small fixed scenario and compares
// the canonical document bytes against the golden file. Any change to
// entity encoding, key ordering, or reducer semantics shows up as a
// byte-level diff here.
func TestGolden_AccountLifecycle(t *testing.T) {
	reg := NewRegistry()
	b := newTestBuilder()

	events := []event.Event{
		b.Build(event.TypeOrganizationCreated, "", model.Object{
			"id":     model.String("org-1"),
			"name":   model.String("Globex"),
			"domain": model.String("globex.test"),
		}),
		b.Build(event.TypeAccountCreated, "", model.Object{
			"id":             model.String("acct-1"),
			"organizationId": model.String("org-1"),
			"name":           model.String("Globex West"),
			"status":         model.String("active"),
		}),
		b.Build(event.TypeContactCreated, "", model.Object{
			"id":        model.String("cont-1"),
			"firstName": model.String("Hank"),
			"lastName":  model.String("Scorpio"),
		}),
		b.Build(event.TypeAccountContactLinked, "", model.Object{
			"id":        model.String("link-1"),
			"accountId": model.String("acct-1"),
			"contactId": model.String("cont-1"),
			"role":      model.String("ceo"),
			"primary":   model.Bool(true),
		}),
		b.Build(event.TypeAccountStatusUpdated, "acct-1", model.Object{
			"status": model.String("churned"),
		}),
	}

	doc, err := reg.ApplyAll(document.New(), events)
	require.NoError(t, err)

	data, err := doc.MarshalCanonical()
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "account_lifecycle", data)
}
