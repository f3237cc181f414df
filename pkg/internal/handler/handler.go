package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
)

var (
	contextType = reflect.TypeOf((*context.Context)(nil)).Elem()
	errorType   = reflect.TypeOf((*error)(nil)).Elem()
	bytesType   = reflect.TypeOf([]byte(nil))
)

// Handler holds metadata about a registered function.
type Handler struct {
	Fn         reflect.Value
	ArgsType   reflect.Type
	HasContext bool
}

// NewHandler creates a Handler from a function.
// The function takes one argument, optionally preceded by a context.Context,
// and returns nothing, an error, or (T, error):
//
//	func(line string)
//	func(ctx context.Context, line string) error
//	func(ctx context.Context, args T) (R, error)
func NewHandler(fn any) (*Handler, error) {
	if fn == nil {
		return nil, fmt.Errorf("handler cannot be nil")
	}

	fnVal := reflect.ValueOf(fn)

	// Check for typed nil (e.g., var fn func(string) = nil)
	if !fnVal.IsValid() || (fnVal.Kind() == reflect.Func && fnVal.IsNil()) {
		return nil, fmt.Errorf("handler function cannot be nil")
	}

	fnType := fnVal.Type()

	if fnType.Kind() != reflect.Func {
		return nil, fmt.Errorf("handler must be a function")
	}
	if fnType.IsVariadic() {
		return nil, fmt.Errorf("handler must not be variadic")
	}

	handler := &Handler{Fn: fnVal}

	argIdx := 0
	if fnType.NumIn() > 0 && fnType.In(0) == contextType {
		handler.HasContext = true
		argIdx = 1
	}
	if fnType.NumIn()-argIdx != 1 {
		return nil, fmt.Errorf("handler must take exactly one argument")
	}
	handler.ArgsType = fnType.In(argIdx)

	switch fnType.NumOut() {
	case 0:
	case 1:
		if !fnType.Out(0).Implements(errorType) {
			return nil, fmt.Errorf("handler must return error")
		}
	case 2:
		if !fnType.Out(1).Implements(errorType) {
			return nil, fmt.Errorf("handler must return (T, error)")
		}
	default:
		return nil, fmt.Errorf("handler must return nothing, error or (T, error)")
	}

	return handler, nil
}

// Execute calls the handler with one invocation unit and returns its result.
// String and []byte arguments receive the raw line; any other argument type
// is decoded from the line as JSON.
func (h *Handler) Execute(ctx context.Context, line []byte) (any, error) {
	if !h.Fn.IsValid() || h.Fn.IsNil() {
		return nil, fmt.Errorf("handler function is nil or invalid")
	}

	var args []reflect.Value

	if h.HasContext {
		if ctx == nil {
			ctx = context.Background()
		}
		args = append(args, reflect.ValueOf(ctx))
	}

	argVal, err := h.decode(line)
	if err != nil {
		return nil, err
	}
	args = append(args, argVal)

	results := h.Fn.Call(args)

	switch len(results) {
	case 1:
		if !results[0].IsNil() {
			return nil, results[0].Interface().(error)
		}
	case 2:
		if !results[1].IsNil() {
			return nil, results[1].Interface().(error)
		}
		if results[0].CanInterface() {
			return results[0].Interface(), nil
		}
	}
	return nil, nil
}

// Signature renders the function type for listings and log records.
func (h *Handler) Signature() string {
	if !h.Fn.IsValid() {
		return "<invalid>"
	}
	return h.Fn.Type().String()
}

func (h *Handler) decode(line []byte) (reflect.Value, error) {
	switch {
	case h.ArgsType.Kind() == reflect.String:
		return reflect.ValueOf(string(line)).Convert(h.ArgsType), nil
	case h.ArgsType == bytesType:
		buf := make([]byte, len(line))
		copy(buf, line)
		return reflect.ValueOf(buf), nil
	}

	argVal := reflect.New(h.ArgsType)
	if err := json.Unmarshal(line, argVal.Interface()); err != nil {
		return reflect.Value{}, fmt.Errorf("failed to unmarshal args: %w", err)
	}
	return argVal.Elem(), nil
}
