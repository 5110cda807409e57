package shared

import "context"

type contextKey string

const actorKey contextKey = "actor_id"

// ContextWithActor stores the acting user id on the context.
func ContextWithActor(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, actorKey, userID)
}

// ActorFromContext returns the acting user id, or 0 when absent.
func ActorFromContext(ctx context.Context) int64 {
	if v, ok := ctx.Value(actorKey).(int64); ok {
		return v
	}
	return 0
}
