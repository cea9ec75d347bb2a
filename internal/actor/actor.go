// Package actor identifies who performs an operation and which role-gated
// operations that role may perform.
package actor

import (
	"context"
	"net/http"
	"strings"
)

// Role is the authorization role of an actor.
type Role string

const (
	RoleAnalyst Role = "analyst"
	RoleManager Role = "manager"
	RoleAdmin   Role = "admin"
	RoleSystem  Role = "system"
)

// Header names carrying the authenticated actor from the session layer.
const (
	HeaderID   = "X-Actor-ID"
	HeaderRole = "X-Actor-Role"
)

// Actor is the identity attached to a mutation or audited read.
type Actor struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}

// System is the actor used when no identity is carried on the context.
var System = Actor{ID: "system", Role: RoleSystem}

// ParseRole normalizes s into a known user role. Unknown values yield false.
func ParseRole(s string) (Role, bool) {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case RoleAnalyst, RoleManager, RoleAdmin:
		return r, true
	}
	return "", false
}

func (r Role) elevated() bool {
	return r == RoleManager || r == RoleAdmin
}

func (r Role) investigator() bool {
	return r == RoleAnalyst || r.elevated()
}

// CanOpen reports whether r may open cases.
func CanOpen(r Role) bool { return r.investigator() }

// CanNote reports whether r may add or edit case notes.
func CanNote(r Role) bool { return r.investigator() }

// CanClose reports whether r may close cases.
func CanClose(r Role) bool { return r.investigator() }

// CanAssign reports whether r may assign or reassign investigators.
func CanAssign(r Role) bool { return r.elevated() }

// CanReopen reports whether r may move a case out of CLOSED.
func CanReopen(r Role) bool { return r.elevated() }

// CanExport reports whether r may produce compliance exports.
func CanExport(r Role) bool { return r.elevated() }

// CanCorrectClosed reports whether r may correct the assignment of a closed case.
func CanCorrectClosed(r Role) bool { return r.elevated() }

type contextKey struct{}

// WithActor returns a copy of ctx carrying a.
func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, contextKey{}, a)
}

// FromContext returns the actor carried by ctx, or System when none is set.
func FromContext(ctx context.Context) Actor {
	if a, ok := ctx.Value(contextKey{}).(Actor); ok && a.ID != "" {
		return a
	}
	return System
}

// Middleware reads the actor headers into the request context.
// Requests without an actor ID, or with an unknown role, proceed as System.
func Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimSpace(r.Header.Get(HeaderID))
			role, ok := ParseRole(r.Header.Get(HeaderRole))
			if id != "" && ok {
				r = r.WithContext(WithActor(r.Context(), Actor{ID: id, Role: role}))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Require returns middleware rejecting requests whose actor role fails allowed.
// Each denied hook runs before the 403 is written.
func Require(allowed func(Role) bool, denied ...func(*http.Request)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !allowed(FromContext(r.Context()).Role) {
				for _, hook := range denied {
					hook(r)
				}
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				w.Write([]byte(`{"error":"permission denied"}` + "\n"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
