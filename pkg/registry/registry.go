// Package registry maps module and function names to registered handlers.
//
// Handlers are registered at build or startup time, typically from init(),
// and looked up by the resolver once the locator has been parsed.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/jdziat/simple-function-invoker/pkg/core"
	"github.com/jdziat/simple-function-invoker/pkg/internal/handler"
	"github.com/jdziat/simple-function-invoker/pkg/security"
)

// Registry stores handlers by module and function name.
type Registry struct {
	modules map[string]map[string]*handler.Handler
	mu      sync.RWMutex
}

// Entry describes one registered function.
type Entry struct {
	Module    string
	Function  string
	Signature string
}

// Default is the process-wide registry populated from init().
var Default = New()

// New creates an empty Registry.
func New() *Registry {
	return &Registry{modules: make(map[string]map[string]*handler.Handler)}
}

// Register adds fn under module.function.
// The function must take one argument, optionally preceded by a context.Context.
func (r *Registry) Register(module, function string, fn any) error {
	if err := security.ValidateModuleName(module); err != nil {
		return fmt.Errorf("%w: %q", err, module)
	}
	if err := security.ValidateFunctionName(function); err != nil {
		return fmt.Errorf("%w: %q", err, function)
	}

	h, err := handler.NewHandler(fn)
	if err != nil {
		return fmt.Errorf("invoker: handler for %s.%s: %w", module, function, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	fns, ok := r.modules[module]
	if !ok {
		fns = make(map[string]*handler.Handler)
		r.modules[module] = fns
	}
	if _, exists := fns[function]; exists {
		return fmt.Errorf("%w: %s.%s", core.ErrDuplicateFunction, module, function)
	}
	fns[function] = h
	return nil
}

// MustRegister is like Register but panics on an invalid registration.
func (r *Registry) MustRegister(module, function string, fn any) {
	if err := r.Register(module, function, fn); err != nil {
		panic(err.Error())
	}
}

// HasModule reports whether any function is registered under module.
func (r *Registry) HasModule(module string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.modules[module]
	return ok
}

// Lookup returns the handler for module.function.
func (r *Registry) Lookup(module, function string) (*handler.Handler, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	fns, ok := r.modules[module]
	if !ok {
		return nil, fmt.Errorf("%w: %q", core.ErrModuleNotFound, module)
	}
	h, ok := fns[function]
	if !ok {
		return nil, fmt.Errorf("%w: %q in module %q", core.ErrFunctionNotFound, function, module)
	}
	return h, nil
}

// Modules returns registered module names in sorted order.
func (r *Registry) Modules() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.modules))
	for name := range r.modules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Functions returns the function names registered under module, sorted.
func (r *Registry) Functions(module string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	fns := r.modules[module]
	names := make([]string, 0, len(fns))
	for name := range fns {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Entries returns every registered function ordered by module, then function.
func (r *Registry) Entries() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]Entry, 0)
	for module, fns := range r.modules {
		for function, h := range fns {
			list = append(list, Entry{Module: module, Function: function, Signature: h.Signature()})
		}
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].Module != list[j].Module {
			return list[i].Module < list[j].Module
		}
		return list[i].Function < list[j].Function
	})
	return list
}

// Register adds fn to the Default registry.
func Register(module, function string, fn any) error {
	return Default.Register(module, function, fn)
}

// MustRegister adds fn to the Default registry and panics on failure.
func MustRegister(module, function string, fn any) {
	Default.MustRegister(module, function, fn)
}
