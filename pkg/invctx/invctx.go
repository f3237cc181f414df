// Package invctx provides public access to the invocation context for handlers.
package invctx

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/jdziat/simple-function-invoker/pkg/core"
	intctx "github.com/jdziat/simple-function-invoker/pkg/internal/context"
)

// InvocationFromContext returns the current Invocation from context, or nil if not in a handler.
func InvocationFromContext(ctx context.Context) *core.Invocation {
	ic := intctx.GetInvocationContext(ctx)
	if ic == nil {
		return nil
	}
	return ic.Invocation
}

// InvocationIDFromContext returns the current invocation ID, or empty string if not in a handler.
func InvocationIDFromContext(ctx context.Context) string {
	inv := InvocationFromContext(ctx)
	if inv == nil {
		return ""
	}
	return inv.ID
}

// SeqFromContext returns the 1-based position of the current line in the input stream.
func SeqFromContext(ctx context.Context) int64 {
	inv := InvocationFromContext(ctx)
	if inv == nil {
		return 0
	}
	return inv.Seq
}

// HandlerFromContext returns the module and function being invoked.
func HandlerFromContext(ctx context.Context) (module, function string) {
	ic := intctx.GetInvocationContext(ctx)
	if ic == nil {
		return "", ""
	}
	return ic.Module, ic.Function
}

// Output returns the result stream for the current invocation.
// Outside a handler it falls back to standard output.
func Output(ctx context.Context) io.Writer {
	ic := intctx.GetInvocationContext(ctx)
	if ic == nil || ic.Output == nil {
		return os.Stdout
	}
	return ic.Output
}

// Println writes a result line to the invocation's output stream.
func Println(ctx context.Context, a ...any) error {
	_, err := fmt.Fprintln(Output(ctx), a...)
	return err
}
