// Package samples provides demonstration handlers for the invoker.
//
//	concat.concat    {"a":"foo","b":"bar"} -> foobar
//	echo.echo        prints the line
//	echo.uppercase   prints the line upper-cased
//	echo.fail        always fails with a stack-carrying error
package samples

import (
	"context"
	stderrors "errors"
	"strings"

	"github.com/pkg/errors"

	"github.com/jdziat/simple-function-invoker/pkg/invctx"
	"github.com/jdziat/simple-function-invoker/pkg/registry"
)

// ConcatInput is the JSON argument of concat.concat.
type ConcatInput struct {
	A string `json:"a"`
	B string `json:"b"`
}

// ErrRequestedFailure is returned by echo.fail.
var ErrRequestedFailure = stderrors.New("sample handler failed on request")

// Concat prints a+b.
func Concat(ctx context.Context, in ConcatInput) (string, error) {
	out := in.A + in.B
	return out, invctx.Println(ctx, out)
}

// Echo prints the line unchanged.
func Echo(ctx context.Context, line string) error {
	return invctx.Println(ctx, line)
}

// Uppercase prints the line upper-cased.
func Uppercase(ctx context.Context, line string) (string, error) {
	out := strings.ToUpper(line)
	return out, invctx.Println(ctx, out)
}

// Fail always fails.
func Fail(_ context.Context, line string) error {
	return errors.Wrapf(ErrRequestedFailure, "input %q", line)
}

// Register adds every sample handler to reg.
func Register(reg *registry.Registry) error {
	handlers := []struct {
		module, function string
		fn               any
	}{
		{"concat", "concat", Concat},
		{"echo", "echo", Echo},
		{"echo", "uppercase", Uppercase},
		{"echo", "fail", Fail},
	}

	for _, h := range handlers {
		if err := reg.Register(h.module, h.function, h.fn); err != nil {
			return err
		}
	}
	return nil
}
