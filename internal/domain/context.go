package domain

import "context"

type actorKey struct{}

type requestMetaKey struct{}

// RequestMeta - сведения о запросе для журнала аудита
type RequestMeta struct {
	RequestID string
	IPAddress string
	UserAgent string
}

// WithActor сохраняет аутентифицированного пользователя в контексте
func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFrom возвращает пользователя из контекста
func ActorFrom(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(actorKey{}).(Actor)
	return actor, ok
}

func WithRequestMeta(ctx context.Context, meta RequestMeta) context.Context {
	return context.WithValue(ctx, requestMetaKey{}, meta)
}

func RequestMetaFrom(ctx context.Context) RequestMeta {
	meta, _ := ctx.Value(requestMetaKey{}).(RequestMeta)
	return meta
}
