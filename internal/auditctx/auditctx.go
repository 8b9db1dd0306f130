// Package auditctx carries the authenticated caller from the auth middleware down
// to the audit sink, so service signatures do not have to thread it through.
package auditctx

import "context"

// Actor is who issued the request and from where.
type Actor struct {
	UserID    string
	Email     string
	IPAddress string
	UserAgent string
}

type actorKey struct{}

// WithActor returns a child of ctx carrying actor. A nil ctx is treated as Background.
func WithActor(ctx context.Context, actor Actor) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, actorKey{}, actor)
}

// FromContext returns the actor stored by WithActor. Background jobs such as the
// maintenance cleaner run without one.
func FromContext(ctx context.Context) (Actor, bool) {
	if ctx == nil {
		return Actor{}, false
	}
	actor, ok := ctx.Value(actorKey{}).(Actor)
	return actor, ok && actor.UserID != ""
}
