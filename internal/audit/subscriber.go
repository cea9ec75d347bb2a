package audit

import (
	"context"
	"fmt"
	"net/http"

	"github.com/JaimeStill/cct/internal/actor"
	"github.com/JaimeStill/cct/pkg/events"
)

// NewEvent builds a domain event for action, attributed to the actor on ctx.
func NewEvent(
	ctx context.Context,
	action Action,
	outcome Outcome,
	target, summary string,
	details map[string]any,
) events.Event {
	a := actor.FromContext(ctx)
	return events.Event{
		Type:      string(action),
		Target:    target,
		Outcome:   string(outcome),
		Actor:     a.ID,
		ActorRole: string(a.Role),
		Context:   summary,
		Details:   details,
	}
}

// Recorder returns an event handler that writes exactly one entry per event.
// Event types are audit action names.
func Recorder(sys System) events.Handler {
	return func(ctx context.Context, e events.Event) error {
		_, err := sys.Write(ctx, WriteCommand{
			Action:     Action(e.Type),
			Target:     e.Target,
			Outcome:    Outcome(e.Outcome),
			Actor:      e.Actor,
			ActorRole:  e.ActorRole,
			Context:    e.Context,
			Details:    e.Details,
			OccurredAt: e.OccurredAt,
		})
		if err != nil {
			return fmt.Errorf("record %s: %w", e.Type, err)
		}
		return nil
	}
}

// DeniedRecorder returns an actor.Require hook publishing PERMISSION_DENIED
// for the rejected request.
func DeniedRecorder(bus events.System) func(*http.Request) {
	return func(r *http.Request) {
		ctx := r.Context()
		bus.Publish(ctx, NewEvent(
			ctx,
			ActionPermissionDenied,
			OutcomeFailure,
			r.Method+" "+r.URL.Path,
			"Operation blocked for role",
			nil,
		))
	}
}
