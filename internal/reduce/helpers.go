package reduce

import (
	"fmt"

	"github.com/roach88/rolo/internal/event"
	"github.com/roach88/rolo/internal/model"
)

// targetID resolves the entity an event addresses: the event's EntityID
// when present, otherwise the payload's id field (pure-creation events
// mint their id from the payload).
func targetID(ev event.Event) string {
	if ev.EntityID != "" {
		return ev.EntityID
	}
	if v, ok := ev.Payload["id"].(model.String); ok {
		return string(v)
	}
	return ""
}

// requireID returns the target id or a payload error if the event names
// no entity at all.
func requireID(ev event.Event) (string, error) {
	id := targetID(ev)
	if id == "" {
		return "", newPayloadError(ev, fmt.Errorf("event carries no entity id"))
	}
	return id, nil
}
