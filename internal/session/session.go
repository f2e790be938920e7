package session

import "context"

// Caller identifies the authenticated user behind the current request.
type Caller struct {
	UserID string
	Token  string
}

// Reader exposes the caller attached to the current request, if any.
type Reader interface {
	Caller(ctx context.Context) (Caller, bool, error)
}

type callerKey struct{}

// WithCaller attaches the caller to the request context.
func WithCaller(ctx context.Context, c Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, c)
}

// FromContext retrieves the caller previously attached by the session middleware.
func FromContext(ctx context.Context) (Caller, bool) {
	c, ok := ctx.Value(callerKey{}).(Caller)
	return c, ok
}

// ContextReader is a Reader backed by the request context.
type ContextReader struct{}

func (ContextReader) Caller(ctx context.Context) (Caller, bool, error) {
	c, ok := FromContext(ctx)
	return c, ok, nil
}
