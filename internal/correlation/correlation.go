package correlation

import (
	"context"

	"github.com/google/uuid"
)

// Header is the HTTP header carrying the correlation id between services.
const Header = "X-Correlation-Id"

// MessageProperty is the message application property carrying the correlation id.
const MessageProperty = "x-correlation-id"

type contextKey struct{}

// WithID returns a context carrying the given correlation id.
func WithID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext returns the correlation id stored in the context, if any.
func FromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(contextKey{}).(string)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}

// Ensure returns a context that is guaranteed to carry a correlation id,
// generating a new one when the context has none. The second return value
// is the id in effect.
func Ensure(ctx context.Context) (context.Context, string) {
	if id, ok := FromContext(ctx); ok {
		return ctx, id
	}
	id := uuid.New().String()
	return WithID(ctx, id), id
}
