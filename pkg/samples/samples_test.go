package samples

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdziat/simple-function-invoker/pkg/artifact"
	"github.com/jdziat/simple-function-invoker/pkg/loop"
	"github.com/jdziat/simple-function-invoker/pkg/registry"
	"github.com/jdziat/simple-function-invoker/pkg/resolver"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg := registry.New()
	require.NoError(t, Register(reg))
	return reg
}

func TestRegister(t *testing.T) {
	reg := newRegistry(t)

	assert.Equal(t, []string{"concat", "echo"}, reg.Modules())
	for _, name := range [][2]string{{"concat", "concat"}, {"echo", "echo"}, {"echo", "uppercase"}, {"echo", "fail"}} {
		_, err := reg.Lookup(name[0], name[1])
		assert.NoError(t, err, "%s.%s", name[0], name[1])
	}

	assert.Error(t, Register(reg), "second registration must report duplicates")
}

func TestFail_CarriesStack(t *testing.T) {
	err := Fail(context.Background(), "x")

	assert.ErrorIs(t, err, ErrRequestedFailure)
	assert.Contains(t, fmt.Sprintf("%+v", err), "samples.Fail")
}

// run resolves locator against the sample registry and feeds input through the loop.
func run(t *testing.T, locator, input string) (stdout, stderr string, res loop.Result) {
	t.Helper()

	logger := quietLogger()
	r := resolver.New(newRegistry(t), artifact.NewStager(t.TempDir(), logger), logger)
	target, err := r.Resolve(context.Background(), locator)
	require.NoError(t, err)

	var out, diag bytes.Buffer
	l := loop.New(target,
		loop.WithInput(strings.NewReader(input)),
		loop.WithOutput(&out),
		loop.WithDiagnostics(&diag),
		loop.WithLogger(logger),
	)
	res = l.Run(context.Background())
	return out.String(), diag.String(), res
}

func testdata(t *testing.T, name string) string {
	t.Helper()
	path, err := filepath.Abs(filepath.Join("testdata", name))
	require.NoError(t, err)
	return path
}

func TestUppercase_EndToEnd(t *testing.T) {
	out, diag, res := run(t, "file://"+testdata(t, "echo.go")+"?handler=uppercase", "hello\nWorld\n")

	assert.Equal(t, "HELLO\nWORLD\n", out)
	assert.Empty(t, diag)
	assert.Equal(t, int64(2), res.Stats.Succeeded)
}

func TestConcat_EndToEnd(t *testing.T) {
	input := `{"a":"foo","b":"bar"}` + "\n" + "not json\n" + `{"a":"x","b":"y"}` + "\n"
	out, diag, res := run(t, "file://"+testdata(t, "concat.go")+"?handler=concat.concat", input)

	assert.Equal(t, "foobar\nxy\n", out)
	assert.Contains(t, diag, "invocation 2 (concat.concat) failed")
	assert.Equal(t, int64(1), res.Stats.Failed)
	assert.Equal(t, int64(2), res.Stats.Succeeded)
}

func TestFail_EndToEnd(t *testing.T) {
	out, diag, res := run(t, "file://"+testdata(t, "echo.go")+"?handler=echo.fail", "one\n")

	assert.Empty(t, out)
	assert.Contains(t, diag, `input "one": sample handler failed on request`)
	assert.Contains(t, diag, "samples.Fail")
	assert.Equal(t, 0, res.ExitCode())
}
