package document

import (
	"fmt"

	"github.com/roach88/rolo/internal/model"
)

// Entities reference each other only by id, never by embedding, so the
// document stays normalized and relations stay mergeable.

// Organization is a company or institution accounts belong to.
type Organization struct {
	ID        string
	Name      string
	Domain    string
	CreatedAt string
	UpdatedAt string
}

// Account is a customer account, optionally tied to an organization.
type Account struct {
	ID             string
	OrganizationID string
	Name           string
	Status         string
	Website        string
	CreatedAt      string
	UpdatedAt      string
}

// ContactMethod is one way of reaching a contact (email, phone, ...).
type ContactMethod struct {
	Kind  string
	Value string
	Label string
}

// Contact is a person.
type Contact struct {
	ID        string
	FirstName string
	LastName  string
	Title     string
	Methods   []ContactMethod
	CreatedAt string
	UpdatedAt string
}

// Note is free-form text attached to other entities via entity links.
type Note struct {
	ID        string
	Body      string
	CreatedAt string
	UpdatedAt string
}

// Interaction records a touchpoint (call, meeting, email thread).
type Interaction struct {
	ID              string
	Kind            string
	Summary         string
	OccurredAt      string
	DurationMinutes int64
	CreatedAt       string
	UpdatedAt       string
}

// Audit is an immutable trail record. Audits are only ever created.
type Audit struct {
	ID        string
	Action    string
	ActorID   string
	Detail    string
	CreatedAt string
}

// Code is a lookup/reference value (statuses, roles, categories).
type Code struct {
	ID        string
	Category  string
	Value     string
	Label     string
	CreatedAt string
	UpdatedAt string
}

// CalendarEvent is a scheduled appointment.
type CalendarEvent struct {
	ID        string
	Title     string
	StartsAt  string
	EndsAt    string
	Location  string
	CreatedAt string
	UpdatedAt string
}

// Settings holds device-local preferences. Keyed by device id; a device
// only ever writes its own row, so settings never merge across devices.
type Settings struct {
	DeviceID  string
	Values    model.Object
	UpdatedAt string
}

// asString narrows a payload value to a string, with the field name in
// the error.
func asString(v model.Value, field string) (string, error) {
	s, ok := v.(model.String)
	if !ok {
		return "", fmt.Errorf("field %q: expected string, got %T", field, v)
	}
	return string(s), nil
}

// asInt narrows a payload value to an int64.
func asInt(v model.Value, field string) (int64, error) {
	n, ok := v.(model.Int)
	if !ok {
		return 0, fmt.Errorf("field %q: expected integer, got %T", field, v)
	}
	return int64(n), nil
}

// asBool narrows a payload value to a bool.
func asBool(v model.Value, field string) (bool, error) {
	b, ok := v.(model.Bool)
	if !ok {
		return false, fmt.Errorf("field %q: expected bool, got %T", field, v)
	}
	return bool(b), nil
}

// mergeString copies a payload field into dst if present. Fields absent
// from the payload keep the fallback value: update events carry only the
// fields they change.
func mergeString(p model.Object, field string, dst *string) error {
	v, ok := p[field]
	if !ok {
		return nil
	}
	s, err := asString(v, field)
	if err != nil {
		return err
	}
	*dst = s
	return nil
}

func mergeInt(p model.Object, field string, dst *int64) error {
	v, ok := p[field]
	if !ok {
		return nil
	}
	n, err := asInt(v, field)
	if err != nil {
		return err
	}
	*dst = n
	return nil
}

// DecodeOrganization folds payload fields over the fallback entity.
// Unknown payload keys are ignored for forward compatibility.
func DecodeOrganization(p model.Object, fallback Organization) (Organization, error) {
	o := fallback
	if err := mergeString(p, "id", &o.ID); err != nil {
		return fallback, err
	}
	if err := mergeString(p, "name", &o.Name); err != nil {
		return fallback, err
	}
	if err := mergeString(p, "domain", &o.Domain); err != nil {
		return fallback, err
	}
	return o, nil
}

// DecodeAccount folds payload fields over the fallback entity.
func DecodeAccount(p model.Object, fallback Account) (Account, error) {
	a := fallback
	if err := mergeString(p, "id", &a.ID); err != nil {
		return fallback, err
	}
	if err := mergeString(p, "organizationId", &a.OrganizationID); err != nil {
		return fallback, err
	}
	if err := mergeString(p, "name", &a.Name); err != nil {
		return fallback, err
	}
	if err := mergeString(p, "status", &a.Status); err != nil {
		return fallback, err
	}
	if err := mergeString(p, "website", &a.Website); err != nil {
		return fallback, err
	}
	return a, nil
}

// DecodeContact folds payload fields over the fallback entity. The
// methods list is only replaced wholesale by contact.created payloads;
// incremental changes go through contact.method.added/removed.
func DecodeContact(p model.Object, fallback Contact) (Contact, error) {
	c := fallback
	if err := mergeString(p, "id", &c.ID); err != nil {
		return fallback, err
	}
	if err := mergeString(p, "firstName", &c.FirstName); err != nil {
		return fallback, err
	}
	if err := mergeString(p, "lastName", &c.LastName); err != nil {
		return fallback, err
	}
	if err := mergeString(p, "title", &c.Title); err != nil {
		return fallback, err
	}
	if v, ok := p["methods"]; ok {
		arr, ok := v.(model.Array)
		if !ok {
			return fallback, fmt.Errorf("field %q: expected array, got %T", "methods", v)
		}
		methods := make([]ContactMethod, 0, len(arr))
		for i, elem := range arr {
			obj, ok := elem.(model.Object)
			if !ok {
				return fallback, fmt.Errorf("methods[%d]: expected object, got %T", i, elem)
			}
			m, err := DecodeContactMethod(obj)
			if err != nil {
				return fallback, fmt.Errorf("methods[%d]: %w", i, err)
			}
			methods = append(methods, m)
		}
		c.Methods = methods
	}
	return c, nil
}

// DecodeContactMethod decodes a single contact method object.
func DecodeContactMethod(p model.Object) (ContactMethod, error) {
	var m ContactMethod
	if err := mergeString(p, "kind", &m.Kind); err != nil {
		return ContactMethod{}, err
	}
	if err := mergeString(p, "value", &m.Value); err != nil {
		return ContactMethod{}, err
	}
	if err := mergeString(p, "label", &m.Label); err != nil {
		return ContactMethod{}, err
	}
	return m, nil
}

// DecodeNote folds payload fields over the fallback entity.
func DecodeNote(p model.Object, fallback Note) (Note, error) {
	n := fallback
	if err := mergeString(p, "id", &n.ID); err != nil {
		return fallback, err
	}
	if err := mergeString(p, "body", &n.Body); err != nil {
		return fallback, err
	}
	return n, nil
}

// DecodeInteraction folds payload fields over the fallback entity.
func DecodeInteraction(p model.Object, fallback Interaction) (Interaction, error) {
	it := fallback
	if err := mergeString(p, "id", &it.ID); err != nil {
		return fallback, err
	}
	if err := mergeString(p, "kind", &it.Kind); err != nil {
		return fallback, err
	}
	if err := mergeString(p, "summary", &it.Summary); err != nil {
		return fallback, err
	}
	if err := mergeString(p, "occurredAt", &it.OccurredAt); err != nil {
		return fallback, err
	}
	if err := mergeInt(p, "durationMinutes", &it.DurationMinutes); err != nil {
		return fallback, err
	}
	return it, nil
}

// DecodeAudit folds payload fields over the fallback entity.
func DecodeAudit(p model.Object, fallback Audit) (Audit, error) {
	a := fallback
	if err := mergeString(p, "id", &a.ID); err != nil {
		return fallback, err
	}
	if err := mergeString(p, "action", &a.Action); err != nil {
		return fallback, err
	}
	if err := mergeString(p, "actorId", &a.ActorID); err != nil {
		return fallback, err
	}
	if err := mergeString(p, "detail", &a.Detail); err != nil {
		return fallback, err
	}
	return a, nil
}

// DecodeCode folds payload fields over the fallback entity.
func DecodeCode(p model.Object, fallback Code) (Code, error) {
	c := fallback
	if err := mergeString(p, "id", &c.ID); err != nil {
		return fallback, err
	}
	if err := mergeString(p, "category", &c.Category); err != nil {
		return fallback, err
	}
	if err := mergeString(p, "value", &c.Value); err != nil {
		return fallback, err
	}
	if err := mergeString(p, "label", &c.Label); err != nil {
		return fallback, err
	}
	return c, nil
}

// DecodeCalendarEvent folds payload fields over the fallback entity.
func DecodeCalendarEvent(p model.Object, fallback CalendarEvent) (CalendarEvent, error) {
	ce := fallback
	if err := mergeString(p, "id", &ce.ID); err != nil {
		return fallback, err
	}
	if err := mergeString(p, "title", &ce.Title); err != nil {
		return fallback, err
	}
	if err := mergeString(p, "startsAt", &ce.StartsAt); err != nil {
		return fallback, err
	}
	if err := mergeString(p, "endsAt", &ce.EndsAt); err != nil {
		return fallback, err
	}
	if err := mergeString(p, "location", &ce.Location); err != nil {
		return fallback, err
	}
	return ce, nil
}

// Encode serializes the organization for snapshots.
func (o Organization) Encode() model.Object {
	return model.Object{
		"id":        model.String(o.ID),
		"name":      model.String(o.Name),
		"domain":    model.String(o.Domain),
		"createdAt": model.String(o.CreatedAt),
		"updatedAt": model.String(o.UpdatedAt),
	}
}

// Encode serializes the account for snapshots.
func (a Account) Encode() model.Object {
	return model.Object{
		"id":             model.String(a.ID),
		"organizationId": model.String(a.OrganizationID),
		"name":           model.String(a.Name),
		"status":         model.String(a.Status),
		"website":        model.String(a.Website),
		"createdAt":      model.String(a.CreatedAt),
		"updatedAt":      model.String(a.UpdatedAt),
	}
}

// Encode serializes the contact for snapshots.
func (c Contact) Encode() model.Object {
	methods := make(model.Array, len(c.Methods))
	for i, m := range c.Methods {
		methods[i] = model.Object{
			"kind":  model.String(m.Kind),
			"value": model.String(m.Value),
			"label": model.String(m.Label),
		}
	}
	return model.Object{
		"id":        model.String(c.ID),
		"firstName": model.String(c.FirstName),
		"lastName":  model.String(c.LastName),
		"title":     model.String(c.Title),
		"methods":   methods,
		"createdAt": model.String(c.CreatedAt),
		"updatedAt": model.String(c.UpdatedAt),
	}
}

// Encode serializes the note for snapshots.
func (n Note) Encode() model.Object {
	return model.Object{
		"id":        model.String(n.ID),
		"body":      model.String(n.Body),
		"createdAt": model.String(n.CreatedAt),
		"updatedAt": model.String(n.UpdatedAt),
	}
}

// Encode serializes the interaction for snapshots.
func (it Interaction) Encode() model.Object {
	return model.Object{
		"id":              model.String(it.ID),
		"kind":            model.String(it.Kind),
		"summary":         model.String(it.Summary),
		"occurredAt":      model.String(it.OccurredAt),
		"durationMinutes": model.Int(it.DurationMinutes),
		"createdAt":       model.String(it.CreatedAt),
		"updatedAt":       model.String(it.UpdatedAt),
	}
}

// Encode serializes the audit for snapshots.
func (a Audit) Encode() model.Object {
	return model.Object{
		"id":        model.String(a.ID),
		"action":    model.String(a.Action),
		"actorId":   model.String(a.ActorID),
		"detail":    model.String(a.Detail),
		"createdAt": model.String(a.CreatedAt),
	}
}

// Encode serializes the code for snapshots.
func (c Code) Encode() model.Object {
	return model.Object{
		"id":        model.String(c.ID),
		"category":  model.String(c.Category),
		"value":     model.String(c.Value),
		"label":     model.String(c.Label),
		"createdAt": model.String(c.CreatedAt),
		"updatedAt": model.String(c.UpdatedAt),
	}
}

// Encode serializes the calendar event for snapshots.
func (ce CalendarEvent) Encode() model.Object {
	return model.Object{
		"id":        model.String(ce.ID),
		"title":     model.String(ce.Title),
		"startsAt":  model.String(ce.StartsAt),
		"endsAt":    model.String(ce.EndsAt),
		"location":  model.String(ce.Location),
		"createdAt": model.String(ce.CreatedAt),
		"updatedAt": model.String(ce.UpdatedAt),
	}
}

// Encode serializes the settings row for snapshots.
func (s Settings) Encode() model.Object {
	values := s.Values
	if values == nil {
		values = model.Object{}
	}
	return model.Object{
		"deviceId":  model.String(s.DeviceID),
		"values":    model.Clone(values),
		"updatedAt": model.String(s.UpdatedAt),
	}
}

// DecodeSettings folds payload fields over the fallback row.
func DecodeSettings(p model.Object, fallback Settings) (Settings, error) {
	s := fallback
	if err := mergeString(p, "deviceId", &s.DeviceID); err != nil {
		return fallback, err
	}
	if v, ok := p["values"]; ok {
		obj, ok := v.(model.Object)
		if !ok {
			return fallback, fmt.Errorf("field %q: expected object, got %T", "values", v)
		}
		// Merge key-by-key: settings updates carry only changed keys.
		merged := make(model.Object, len(s.Values)+len(obj))
		for k, val := range s.Values {
			merged[k] = val
		}
		for k, val := range obj {
			merged[k] = model.Clone(val)
		}
		s.Values = merged
	}
	return s, nil
}
