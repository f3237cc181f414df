package resolver

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdziat/simple-function-invoker/pkg/artifact"
	"github.com/jdziat/simple-function-invoker/pkg/core"
	"github.com/jdziat/simple-function-invoker/pkg/registry"
)

type fixture struct {
	srcDir   string
	workDir  string
	registry *registry.Registry
	resolver *Resolver
	calls    []string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f := &fixture{
		srcDir:   t.TempDir(),
		workDir:  t.TempDir(),
		registry: registry.New(),
	}
	f.registry.MustRegister("echo", "uppercase", func(line string) {
		f.calls = append(f.calls, strings.ToUpper(line))
	})
	f.registry.MustRegister("concat", "concat", func(line string) {
		f.calls = append(f.calls, "concat:"+line)
	})
	f.registry.MustRegister("lib.text", "join", func(line string) {
		f.calls = append(f.calls, "join:"+line)
	})
	f.resolver = New(f.registry, artifact.NewStager(f.workDir, logger), logger)
	return f
}

func (f *fixture) writeSource(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(f.srcDir, name)
	require.NoError(t, os.WriteFile(path, []byte("package "+strings.TrimSuffix(name, filepath.Ext(name))), 0o644))
	return path
}

func (f *fixture) writeZip(t *testing.T, name string, files ...string) string {
	t.Helper()
	path := filepath.Join(f.srcDir, name)
	out, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(out)
	for _, file := range files {
		w, err := zw.Create(file)
		require.NoError(t, err)
		_, err = w.Write([]byte("// " + file))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, out.Close())
	return path
}

func (f *fixture) workDirEntries(t *testing.T) []string {
	t.Helper()
	entries, err := os.ReadDir(f.workDir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func assertFatal(t *testing.T, err error, target error) {
	t.Helper()
	require.Error(t, err)
	assert.ErrorIs(t, err, target)
	var cfgErr *core.ConfigError
	require.True(t, errors.As(err, &cfgErr), "expected ConfigError, got %T", err)
	assert.Equal(t, core.ExitConfig, core.ExitCodeOf(err))
}

// ──────────────────────────────────────────────────────────────────────────────
// Successful resolution
// ──────────────────────────────────────────────────────────────────────────────

func TestResolve_SourceWithBareFunction(t *testing.T) {
	f := newFixture(t)
	src := f.writeSource(t, "echo.go")

	res, err := f.resolver.Resolve(context.Background(), "file://"+filepath.ToSlash(src)+"?handler=uppercase")
	require.NoError(t, err)

	assert.Equal(t, "echo", res.Module)
	assert.Equal(t, "uppercase", res.Function)
	assert.Equal(t, "echo.uppercase", res.Name())
	assert.Equal(t, core.ArtifactSource, res.Artifact.Kind)
	assert.FileExists(t, filepath.Join(f.workDir, "echo.go"))

	_, err = res.Handler.Execute(context.Background(), []byte("hi"))
	require.NoError(t, err)
	assert.Equal(t, []string{"HI"}, f.calls)
}

func TestResolve_ArchiveExpandsAndResolves(t *testing.T) {
	f := newFixture(t)
	bundle := f.writeZip(t, "bundle.zip", "concat.go", "lib/text/join.go", "data/words.txt")

	res, err := f.resolver.Resolve(context.Background(), "file://"+filepath.ToSlash(bundle)+"?handler=lib.text.join")
	require.NoError(t, err)

	assert.Equal(t, "lib.text", res.Module)
	assert.Equal(t, "join", res.Function)
	for _, name := range []string{"concat.go", "lib/text/join.go", "data/words.txt"} {
		assert.FileExists(t, filepath.Join(f.workDir, filepath.FromSlash(name)))
	}

	_, err = res.Handler.Execute(context.Background(), []byte("a b"))
	require.NoError(t, err)
	assert.Equal(t, []string{"join:a b"}, f.calls)
}

func TestResolve_DottedHandlerFoundOnSearchPath(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, os.WriteFile(filepath.Join(f.workDir, "concat.go"), []byte("package concat"), 0o644))
	src := f.writeSource(t, "echo.go")

	res, err := f.resolver.Resolve(context.Background(), "file://"+filepath.ToSlash(src)+"?handler=concat.concat")
	require.NoError(t, err)
	assert.Equal(t, "concat", res.Module)
}

// ──────────────────────────────────────────────────────────────────────────────
// Fast failures
// ──────────────────────────────────────────────────────────────────────────────

func TestResolve_MissingLocator(t *testing.T) {
	f := newFixture(t)
	_, err := f.resolver.Resolve(context.Background(), "")
	assertFatal(t, err, core.ErrMissingLocator)
	assert.Empty(t, f.workDirEntries(t))
}

func TestResolve_UnsupportedScheme(t *testing.T) {
	f := newFixture(t)
	_, err := f.resolver.Resolve(context.Background(), "https://example.com/echo.go?handler=uppercase")
	assertFatal(t, err, core.ErrUnsupportedScheme)
	assert.Empty(t, f.workDirEntries(t))
}

func TestResolve_NonexistentPath(t *testing.T) {
	f := newFixture(t)
	missing := filepath.Join(f.srcDir, "missing.go")
	_, err := f.resolver.Resolve(context.Background(), "file://"+filepath.ToSlash(missing)+"?handler=uppercase")
	assertFatal(t, err, core.ErrArtifactNotFound)
	assert.Empty(t, f.workDirEntries(t))
}

func TestResolve_MissingHandlerStagesNothing(t *testing.T) {
	f := newFixture(t)
	src := f.writeSource(t, "echo.go")

	_, err := f.resolver.Resolve(context.Background(), "file://"+filepath.ToSlash(src))
	assertFatal(t, err, core.ErrMissingHandler)
	assert.Empty(t, f.workDirEntries(t))

	_, err = f.resolver.Resolve(context.Background(), "file://"+filepath.ToSlash(src)+"?handler=")
	assertFatal(t, err, core.ErrMissingHandler)
	assert.Empty(t, f.workDirEntries(t))
}

func TestResolve_UnknownExtensionRejected(t *testing.T) {
	f := newFixture(t)
	src := f.writeSource(t, "echo.rb")

	_, err := f.resolver.Resolve(context.Background(), "file://"+filepath.ToSlash(src)+"?handler=uppercase")
	assertFatal(t, err, core.ErrUnsupportedArtifact)
	assert.Empty(t, f.workDirEntries(t))
}

func TestResolve_BareFunctionOnArchive(t *testing.T) {
	f := newFixture(t)
	bundle := f.writeZip(t, "bundle.zip", "concat.go")

	_, err := f.resolver.Resolve(context.Background(), "file://"+filepath.ToSlash(bundle)+"?handler=concat")
	assertFatal(t, err, core.ErrInvalidHandler)
	assert.Empty(t, f.workDirEntries(t))
}

// ──────────────────────────────────────────────────────────────────────────────
// Lookup failures (folded into the fatal tier)
// ──────────────────────────────────────────────────────────────────────────────

func TestResolve_ModuleNotInArchive(t *testing.T) {
	f := newFixture(t)
	bundle := f.writeZip(t, "bundle.zip", "other.go")

	_, err := f.resolver.Resolve(context.Background(), "file://"+filepath.ToSlash(bundle)+"?handler=concat.concat")
	assertFatal(t, err, core.ErrModuleNotStaged)
	assert.FileExists(t, filepath.Join(f.workDir, "other.go"), "archive is still expanded")
}

func TestResolve_ModuleNotRegistered(t *testing.T) {
	f := newFixture(t)
	src := f.writeSource(t, "unknown.go")

	_, err := f.resolver.Resolve(context.Background(), "file://"+filepath.ToSlash(src)+"?handler=run")
	assertFatal(t, err, core.ErrModuleNotFound)
}

func TestResolve_FunctionNotRegistered(t *testing.T) {
	f := newFixture(t)
	src := f.writeSource(t, "echo.go")

	_, err := f.resolver.Resolve(context.Background(), "file://"+filepath.ToSlash(src)+"?handler=lowercase")
	assertFatal(t, err, core.ErrFunctionNotFound)
}

func TestNew_Defaults(t *testing.T) {
	r := New(nil, nil, nil)
	assert.Same(t, registry.Default, r.registry)
	assert.NotNil(t, r.stager)
	assert.NotNil(t, r.logger)
}
