package middleware

import (
	"context"

	"github.com/eduhub/internal/model"
)

type contextKey string

const ActorKey contextKey = "actor"

// WithActor кладёт вызывающего пользователя в контекст (Authenticate, тесты).
func WithActor(ctx context.Context, a model.Actor) context.Context {
	return context.WithValue(ctx, ActorKey, a)
}

// GetActor возвращает пользователя из контекста; ok=false, если запрос не прошёл Authenticate.
func GetActor(ctx context.Context) (model.Actor, bool) {
	a, ok := ctx.Value(ActorKey).(model.Actor)
	return a, ok && a.ID != ""
}

// GetUserID возвращает id пользователя из контекста или "".
func GetUserID(ctx context.Context) string {
	a, _ := GetActor(ctx)
	return a.ID
}
