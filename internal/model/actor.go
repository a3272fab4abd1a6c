package model

import "context"

// Role is the capability level of an authenticated caller.
type Role string

const (
	RoleEmployee   Role = "employee"
	RoleHRReviewer Role = "hr_reviewer"
	RoleHRAdmin    Role = "hr_admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleEmployee, RoleHRReviewer, RoleHRAdmin:
		return true
	}
	return false
}

// Actor is the caller on whose behalf an operation runs. For employees the ID
// is their employee id.
type Actor struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}

// SystemActor is recorded for actions taken by the worker.
var SystemActor = Actor{ID: "system", Role: RoleHRAdmin}

// CanReview reports whether the actor may approve or reject documents.
func (a Actor) CanReview() bool {
	return a.Role == RoleHRReviewer || a.Role == RoleHRAdmin
}

// CanAdminister reports whether the actor may manage holds, policies and
// settings.
func (a Actor) CanAdminister() bool {
	return a.Role == RoleHRAdmin
}

type actorCtxKey struct{}

// WithActor stores the actor in the context.
func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, actorCtxKey{}, a)
}

// ActorFromContext returns the actor stored by WithActor.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(actorCtxKey{}).(Actor)
	if !ok || a.ID == "" {
		return Actor{}, false
	}
	return a, true
}
