// Package resolver turns a function locator into a bound handler.
//
// Resolution runs once per process. Every failure is returned as a
// *core.ConfigError so callers report it on the error stream and exit
// non-zero; nothing is retried.
package resolver

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/ghetzel/go-stockutil/fileutil"

	"github.com/jdziat/simple-function-invoker/pkg/artifact"
	"github.com/jdziat/simple-function-invoker/pkg/core"
	"github.com/jdziat/simple-function-invoker/pkg/internal/handler"
	"github.com/jdziat/simple-function-invoker/pkg/locator"
	"github.com/jdziat/simple-function-invoker/pkg/registry"
)

// Resolved is the handler bound at startup. It is immutable after Resolve
// returns and is handed to the invocation loop by reference.
type Resolved struct {
	Locator  core.Locator
	Artifact *artifact.Artifact
	Module   string
	Function string
	Handler  *handler.Handler
}

// Name returns module.function.
func (r *Resolved) Name() string {
	return r.Module + "." + r.Function
}

// Resolver resolves locators against a registry.
type Resolver struct {
	registry *registry.Registry
	stager   *artifact.Stager
	logger   *slog.Logger
}

// New creates a Resolver. A nil registry means registry.Default.
func New(reg *registry.Registry, stager *artifact.Stager, logger *slog.Logger) *Resolver {
	if reg == nil {
		reg = registry.Default
	}
	if logger == nil {
		logger = slog.Default()
	}
	if stager == nil {
		stager = artifact.NewStager("", logger)
	}
	return &Resolver{registry: reg, stager: stager, logger: logger}
}

// Resolve parses raw, stages the artifact it names and looks up the handler.
//
// Validation happens before anything is staged: a missing locator fails
// before any filesystem access, and a missing handler parameter, unknown
// artifact type or nonexistent path fail before the working directory is
// touched.
func (r *Resolver) Resolve(ctx context.Context, raw string) (*Resolved, error) {
	res, err := r.resolve(ctx, raw)
	if err != nil {
		return nil, core.Fatal(err)
	}
	r.logger.Info("handler resolved",
		"locator", res.Locator.Raw,
		"module", res.Module,
		"function", res.Function,
		"signature", res.Handler.Signature(),
	)
	return res, nil
}

func (r *Resolver) resolve(ctx context.Context, raw string) (*Resolved, error) {
	loc, err := locator.Parse(raw)
	if err != nil {
		return nil, err
	}

	path := loc.Path
	if strings.HasPrefix(path, "~") {
		path = fileutil.MustExpandUser(path)
	}
	if !fileutil.FileExists(path) {
		return nil, fmt.Errorf("%w: %s", core.ErrArtifactNotFound, path)
	}
	loc.Path = path

	kind, err := r.stager.KindOf(path)
	if err != nil {
		return nil, err
	}

	name, err := locator.HandlerName(loc)
	if err != nil {
		return nil, err
	}
	module, function, err := locator.Split(name, kind, path)
	if err != nil {
		return nil, err
	}

	art, err := r.stager.Stage(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("stage %s: %w", path, err)
	}

	if !art.Provides(module, r.stager.SourceExtensions) && !r.onSearchPath(art.WorkDir, module) {
		return nil, fmt.Errorf("%w: %q", core.ErrModuleNotStaged, module)
	}

	h, err := r.registry.Lookup(module, function)
	if err != nil {
		return nil, err
	}

	return &Resolved{
		Locator:  loc,
		Artifact: art,
		Module:   module,
		Function: function,
		Handler:  h,
	}, nil
}

// onSearchPath reports whether module is present in the working directory
// independently of the staged artifact.
func (r *Resolver) onSearchPath(workDir, module string) bool {
	rel := filepath.Join(workDir, filepath.FromSlash(strings.ReplaceAll(module, ".", "/")))
	if fileutil.DirExists(rel) {
		return true
	}
	for _, ext := range r.stager.SourceExtensions {
		if fileutil.FileExists(rel + ext) {
			return true
		}
	}
	return false
}
