package context

import (
	"context"
	"io"

	"github.com/jdziat/simple-function-invoker/pkg/core"
)

// InvocationContextKey is the key for storing invocation context in context.Context.
type InvocationContextKey struct{}

// InvocationContext holds the current invocation and its output stream.
type InvocationContext struct {
	Invocation *core.Invocation
	Module     string
	Function   string
	// Output is the stream handlers write their results to
	Output io.Writer
}

// GetInvocationContext retrieves the invocation context from a context.Context.
func GetInvocationContext(ctx context.Context) *InvocationContext {
	if ic, ok := ctx.Value(InvocationContextKey{}).(*InvocationContext); ok {
		return ic
	}
	return nil
}

// WithInvocationContext adds invocation context to a context.Context.
func WithInvocationContext(ctx context.Context, ic *InvocationContext) context.Context {
	return context.WithValue(ctx, InvocationContextKey{}, ic)
}
