// Package locator parses function locators of the form
//
//	file://<path>?handler=<module.function|function>
//
// and splits the handler parameter into module and function names.
package locator

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/jdziat/simple-function-invoker/pkg/core"
	"github.com/jdziat/simple-function-invoker/pkg/security"
)

// Parse parses a raw locator. It checks the scheme and extracts the path and
// the raw handler parameter; the handler itself is validated by HandlerName.
func Parse(raw string) (core.Locator, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return core.Locator{}, core.ErrMissingLocator
	}

	u, err := url.Parse(raw)
	if err != nil {
		return core.Locator{}, fmt.Errorf("%w: %v", core.ErrInvalidLocator, err)
	}

	scheme := strings.ToLower(u.Scheme)
	if scheme != core.SchemeFile {
		return core.Locator{}, fmt.Errorf("%w: %q", core.ErrUnsupportedScheme, u.Scheme)
	}

	path := u.Path
	// file://relative/path.go puts the first segment in the host
	if u.Host != "" && u.Host != "localhost" {
		path = u.Host + u.Path
	}
	if path == "" {
		return core.Locator{}, fmt.Errorf("%w: no artifact path", core.ErrInvalidLocator)
	}

	loc := core.Locator{
		Raw:    raw,
		Scheme: scheme,
		Path:   filepath.FromSlash(path),
	}

	query, err := url.ParseQuery(u.RawQuery)
	if err != nil {
		return core.Locator{}, fmt.Errorf("%w: %v", core.ErrInvalidHandler, err)
	}
	switch values := query[core.HandlerParam]; len(values) {
	case 0:
	case 1:
		loc.Handler = values[0]
	default:
		return core.Locator{}, fmt.Errorf("%w: %d handler parameters", core.ErrInvalidHandler, len(values))
	}

	return loc, nil
}

// HandlerName returns the validated handler parameter of loc.
func HandlerName(loc core.Locator) (string, error) {
	name := strings.TrimSpace(loc.Handler)
	if name == "" {
		return "", core.ErrMissingHandler
	}
	if strings.HasPrefix(name, ".") || strings.HasSuffix(name, ".") {
		return "", fmt.Errorf("%w: %q", core.ErrInvalidHandler, name)
	}
	return name, nil
}

// Split resolves the handler parameter into module and function names.
//
// A bare function name is only allowed for single source artifacts, where the
// module is the source file's base name without extension. Otherwise the
// handler is split on its last dot.
func Split(handler string, kind core.ArtifactKind, artifactPath string) (module, function string, err error) {
	idx := strings.LastIndex(handler, ".")
	switch {
	case idx < 0 && kind == core.ArtifactSource:
		module = ModuleFromPath(artifactPath)
		function = handler
	case idx < 0:
		return "", "", fmt.Errorf("%w: %q must be module.function for %s artifacts", core.ErrInvalidHandler, handler, kind)
	default:
		module = handler[:idx]
		function = handler[idx+1:]
	}

	if err := security.ValidateModuleName(module); err != nil {
		return "", "", fmt.Errorf("%w: module %q", err, module)
	}
	if err := security.ValidateFunctionName(function); err != nil {
		return "", "", fmt.Errorf("%w: function %q", err, function)
	}
	return module, function, nil
}

// ModuleFromPath returns the base file name without its extension.
func ModuleFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
