package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rolo/internal/event"
	"github.com/roach88/rolo/internal/model"
)

func newValidator(t *testing.T) *Validator {
	t.Helper()
	v, err := NewValidator()
	require.NoError(t, err)
	return v
}

func TestValidate_ValidPayloadPasses(t *testing.T) {
	v := newValidator(t)

	err := v.Validate(event.Event{
		ID:   "e1",
		Type: event.TypeAccountCreated,
		Payload: model.Object{
			"id":     model.String("acct-1"),
			"name":   model.String("Globex West"),
			"status": model.String("active"),
		},
	})
	assert.NoError(t, err)
}

func TestValidate_MissingRequiredField(t *testing.T) {
	v := newValidator(t)

	err := v.Validate(event.Event{
		ID:   "e1",
		Type: event.TypeAccountCreated,
		Payload: model.Object{
			"id": model.String("acct-1"),
			// name and status missing
		},
	})
	require.Error(t, err)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, event.TypeAccountCreated, ve.EventType)
	assert.Equal(t, "e1", ve.EventID)
}

func TestValidate_WrongFieldType(t *testing.T) {
	v := newValidator(t)

	err := v.Validate(event.Event{
		ID:   "e2",
		Type: event.TypeNoteCreated,
		Payload: model.Object{
			"id":   model.String("n-1"),
			"body": model.Int(42),
		},
	})
	require.Error(t, err)
}

func TestValidate_OptionalFieldsMayBeAbsent(t *testing.T) {
	v := newValidator(t)

	err := v.Validate(event.Event{
		ID:   "e3",
		Type: event.TypeOrganizationCreated,
		Payload: model.Object{
			"id":   model.String("org-1"),
			"name": model.String("Globex"),
			// domain is optional
		},
	})
	assert.NoError(t, err)
}

func TestValidate_OpenStructsAllowUnknownKeys(t *testing.T) {
	v := newValidator(t)

	err := v.Validate(event.Event{
		ID:   "e4",
		Type: event.TypeNoteCreated,
		Payload: model.Object{
			"id":         model.String("n-1"),
			"body":       model.String("hello"),
			"futureFlag": model.Bool(true),
		},
	})
	assert.NoError(t, err)
}

func TestValidate_NestedMethodShapes(t *testing.T) {
	v := newValidator(t)

	ok := v.Validate(event.Event{
		ID:   "e5",
		Type: event.TypeContactCreated,
		Payload: model.Object{
			"id":        model.String("c-1"),
			"firstName": model.String("Hank"),
			"methods": model.Array{
				model.Object{"kind": model.String("email"), "value": model.String("h@g.test")},
			},
		},
	})
	assert.NoError(t, ok)

	bad := v.Validate(event.Event{
		ID:   "e6",
		Type: event.TypeContactCreated,
		Payload: model.Object{
			"id":        model.String("c-1"),
			"firstName": model.String("Hank"),
			"methods": model.Array{
				model.Object{"kind": model.String("email")}, // value missing
			},
		},
	})
	assert.Error(t, bad)
}

func TestValidate_IntegerField(t *testing.T) {
	v := newValidator(t)

	err := v.Validate(event.Event{
		ID:   "e7",
		Type: event.TypeInteractionLogged,
		Payload: model.Object{
			"id":              model.String("i-1"),
			"kind":            model.String("call"),
			"occurredAt":      model.String("2024-01-01T10:00:00.000000000Z"),
			"durationMinutes": model.Int(30),
		},
	})
	assert.NoError(t, err)

	err = v.Validate(event.Event{
		ID:   "e8",
		Type: event.TypeInteractionLogged,
		Payload: model.Object{
			"id":              model.String("i-1"),
			"kind":            model.String("call"),
			"occurredAt":      model.String("2024-01-01T10:00:00.000000000Z"),
			"durationMinutes": model.String("thirty"),
		},
	})
	assert.Error(t, err)
}

func TestValidate_UndeclaredTypePasses(t *testing.T) {
	v := newValidator(t)

	// Shape coverage is best-effort; the registry decides what types
	// exist. A type with no declared shape is not a validation failure.
	err := v.Validate(event.Event{
		ID:      "e9",
		Type:    event.Type("custom.experimental"),
		Payload: model.Object{"whatever": model.Int(1)},
	})
	assert.NoError(t, err)
}

func TestValidate_EmptyShapeAcceptsAnything(t *testing.T) {
	v := newValidator(t)

	err := v.Validate(event.Event{
		ID:      "e10",
		Type:    event.TypeAccountDeleted,
		Payload: model.Object{"reason": model.String("churn")},
	})
	assert.NoError(t, err)
}
