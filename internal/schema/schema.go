// Package schema validates event payloads against declared shapes before
// dispatch. The shapes live in an embedded CUE file, compiled once with
// the CUE Go API.
//
// Validation is strictly a dispatch-time gate for catching malformed
// events close to their source. Replay NEVER validates: events already in
// the log must keep folding even if the declared shapes have tightened
// since they were written.
package schema

import (
	_ "embed"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/roach88/rolo/internal/event"
	"github.com/roach88/rolo/internal/model"
)

//go:embed payloads.cue
var payloadsCUE string

// ValidationError reports a payload that does not satisfy its declared
// shape.
type ValidationError struct {
	EventID   string
	EventType event.Type
	Message   string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid payload for %s (event=%s): %s", e.EventType, e.EventID, e.Message)
}

// Validator holds the compiled payload shapes.
//
// Not safe for concurrent use: cue.Context is not goroutine-safe. The
// session serializes all validation under its dispatch lock.
type Validator struct {
	ctx      *cue.Context
	payloads cue.Value
}

// NewValidator compiles the embedded shape declarations.
func NewValidator() (*Validator, error) {
	ctx := cuecontext.New()
	compiled := ctx.CompileString(payloadsCUE)
	if err := compiled.Err(); err != nil {
		return nil, fmt.Errorf("compile payload schemas: %w", err)
	}
	payloads := compiled.LookupPath(cue.ParsePath("payloads"))
	if !payloads.Exists() {
		return nil, fmt.Errorf("payload schemas: missing payloads struct")
	}
	return &Validator{ctx: ctx, payloads: payloads}, nil
}

// Validate unifies the event payload with the shape declared for its
// type. Types without a declared shape pass: the reducer registry is the
// authority on which types exist at all.
func (v *Validator) Validate(ev event.Event) error {
	shape := v.payloads.LookupPath(cue.MakePath(cue.Str(string(ev.Type))))
	if !shape.Exists() {
		return nil
	}

	payload := v.ctx.Encode(model.ToGo(ev.Payload))
	if err := payload.Err(); err != nil {
		return &ValidationError{
			EventID:   ev.ID,
			EventType: ev.Type,
			Message:   fmt.Sprintf("encode payload: %v", err),
		}
	}

	unified := shape.Unify(payload)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return &ValidationError{
			EventID:   ev.ID,
			EventType: ev.Type,
			Message:   err.Error(),
		}
	}
	return nil
}
