// Package invoker runs a single registered function against line-delimited
// input.
//
// This is the main package users should import. It re-exports the public
// types from the pkg/ packages and provides Run, which performs the whole
// startup sequence: resolve the handler named by the locator, optionally
// open the invocation journal, and feed standard input through the
// invocation loop.
//
// Basic usage:
//
//	func init() {
//	    invoker.MustRegister("greet", "hello", func(ctx context.Context, name string) error {
//	        return invoker.Println(ctx, "hello, "+name)
//	    })
//	}
//
//	// FUNCTION_URI=file:///srv/greet.go?handler=hello
//	cfg, _ := invoker.LoadConfig("", os.Getenv)
//	os.Exit(invoker.Run(ctx, cfg, nil, os.Stdin, os.Stdout, os.Stderr))
package invoker

import (
	"context"

	"github.com/jdziat/simple-function-invoker/pkg/config"
	"github.com/jdziat/simple-function-invoker/pkg/core"
	"github.com/jdziat/simple-function-invoker/pkg/invctx"
	"github.com/jdziat/simple-function-invoker/pkg/journal"
	"github.com/jdziat/simple-function-invoker/pkg/loop"
	"github.com/jdziat/simple-function-invoker/pkg/registry"
	"github.com/jdziat/simple-function-invoker/pkg/resolver"
)

type (
	// Config holds the invoker settings.
	Config = config.Config

	// Invocation records one handler call.
	Invocation = core.Invocation

	// Journal defines the persistence layer for invocation records.
	Journal = core.Journal

	// ConfigError marks an unrecoverable misconfiguration.
	ConfigError = core.ConfigError

	// Event is the interface for all loop events.
	Event = core.Event

	// Registry stores handlers by module and function name.
	Registry = registry.Registry

	// Resolved is the handler bound at startup.
	Resolved = resolver.Resolved

	// Loop feeds invocation units to a resolved handler.
	Loop = loop.Loop

	// LoopOption configures a Loop.
	LoopOption = loop.Option

	// Result describes how a Loop terminated.
	Result = loop.Result

	// GormJournal implements Journal using GORM.
	GormJournal = journal.GormJournal
)

// Status constants
const (
	StatusCompleted = core.StatusCompleted
	StatusFailed    = core.StatusFailed
)

// Error variables
var (
	ErrMissingLocator      = core.ErrMissingLocator
	ErrUnsupportedScheme   = core.ErrUnsupportedScheme
	ErrArtifactNotFound    = core.ErrArtifactNotFound
	ErrUnsupportedArtifact = core.ErrUnsupportedArtifact
	ErrMissingHandler      = core.ErrMissingHandler
	ErrModuleNotFound      = core.ErrModuleNotFound
	ErrFunctionNotFound    = core.ErrFunctionNotFound
	ErrLineTooLong         = core.ErrLineTooLong
)

// DefaultRegistry is the process-wide registry populated from init().
var DefaultRegistry = registry.Default

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return registry.New()
}

// Register adds fn to the default registry under module.function.
func Register(module, function string, fn any) error {
	return registry.Register(module, function, fn)
}

// MustRegister is like Register but panics on an invalid registration.
func MustRegister(module, function string, fn any) {
	registry.MustRegister(module, function, fn)
}

// LoadConfig layers a config file and the environment over the defaults.
func LoadConfig(path string, getenv func(string) string) (Config, error) {
	return config.Load(path, getenv)
}

// OpenJournal connects to and migrates an invocation journal.
func OpenJournal(ctx context.Context, driver, dsn string) (*GormJournal, error) {
	j, err := journal.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	if err := j.Migrate(ctx); err != nil {
		_ = j.Close()
		return nil, err
	}
	return j, nil
}

// InvocationFromContext returns the current Invocation, or nil outside a handler.
func InvocationFromContext(ctx context.Context) *Invocation {
	return invctx.InvocationFromContext(ctx)
}

// Println writes a result line to the invocation's output stream.
func Println(ctx context.Context, a ...any) error {
	return invctx.Println(ctx, a...)
}

// ExitCodeOf returns the process status for err.
func ExitCodeOf(err error) int {
	return core.ExitCodeOf(err)
}
