package loop

import (
	"errors"
	"fmt"
	"strings"

	pkgerrors "github.com/pkg/errors"
)

// PanicError is returned for a handler that panicked.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

type stackTracer interface {
	StackTrace() pkgerrors.StackTrace
}

// Diagnostic renders err with its origin trace: the goroutine stack for a
// panic, or the innermost github.com/pkg/errors stack in the chain.
func Diagnostic(err error) string {
	if err == nil {
		return ""
	}

	var p *PanicError
	if errors.As(err, &p) {
		return fmt.Sprintf("%s\n%s", err.Error(), strings.TrimRight(string(p.Stack), "\n"))
	}

	var origin stackTracer
	for e := err; e != nil; e = errors.Unwrap(e) {
		if st, ok := e.(stackTracer); ok {
			origin = st
		}
	}
	if origin == nil {
		return err.Error()
	}
	return fmt.Sprintf("%s%+v", err.Error(), origin.StackTrace())
}

// withOrigin attaches the current stack to handler errors that carry none,
// so the report always has an origin trace. Panics keep their own stack.
func withOrigin(err error) error {
	if err == nil {
		return nil
	}
	var p *PanicError
	if errors.As(err, &p) {
		return err
	}
	for e := err; e != nil; e = errors.Unwrap(e) {
		if _, ok := e.(stackTracer); ok {
			return err
		}
	}
	return pkgerrors.WithStack(err)
}
