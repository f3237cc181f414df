package invoker

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"

	"github.com/gobwas/glob"

	"github.com/jdziat/simple-function-invoker/pkg/artifact"
	"github.com/jdziat/simple-function-invoker/pkg/core"
	"github.com/jdziat/simple-function-invoker/pkg/journal"
	"github.com/jdziat/simple-function-invoker/pkg/logging"
	"github.com/jdziat/simple-function-invoker/pkg/loop"
	"github.com/jdziat/simple-function-invoker/pkg/registry"
	"github.com/jdziat/simple-function-invoker/pkg/resolver"
)

// Run resolves the handler named by cfg.FunctionURI against reg (nil means
// the default registry) and serves stdin until it ends or ctx is cancelled.
// It returns the process exit status: 0 for a graceful stop, 1 for a
// configuration or resolution failure or an input read error. Fatal errors
// and per-invocation diagnostics go to stderr; stdout only carries handler
// output.
func Run(ctx context.Context, cfg Config, reg *Registry, stdin io.Reader, stdout, stderr io.Writer) int {
	if err := cfg.Validate(); err != nil {
		return fatal(stderr, core.Fatal(err))
	}

	logger := logging.New(stderr, cfg.Logging())
	if reg == nil {
		reg = registry.Default
	}

	r := resolver.New(reg, artifact.NewStager(cfg.WorkDir, logger), logger)
	target, err := r.Resolve(ctx, cfg.FunctionURI)
	if err != nil {
		return fatal(stderr, err)
	}

	opts := []loop.Option{
		loop.WithInput(stdin),
		loop.WithOutput(stdout),
		loop.WithDiagnostics(stderr),
		loop.WithLogger(logger),
		loop.MaxLineBytes(cfg.MaxLineBytes),
	}

	if cfg.Journal.Enabled() {
		j, stop, err := startJournal(ctx, cfg, logger)
		if err != nil {
			return fatal(stderr, core.Fatal(err))
		}
		defer stop()
		opts = append(opts, loop.WithJournal(j))
	}

	res := loop.New(target, opts...).Run(ctx)
	if res.Err != nil {
		fmt.Fprintf(stderr, "invoker: read input: %v\n", res.Err)
	}
	return res.ExitCode()
}

func startJournal(ctx context.Context, cfg Config, logger *slog.Logger) (*journal.GormJournal, func(), error) {
	j, err := OpenJournal(ctx, cfg.Journal.Driver, cfg.Journal.DSN)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("invocation journal opened", "driver", cfg.Journal.Driver)

	if cfg.Journal.Retention <= 0 {
		return j, func() { _ = j.Close() }, nil
	}

	pruner, err := journal.NewPruner(j, cfg.Journal.PruneSchedule, cfg.Journal.Retention, logger)
	if err != nil {
		_ = j.Close()
		return nil, nil, err
	}
	if err := pruner.Start(ctx); err != nil {
		_ = j.Close()
		return nil, nil, err
	}

	return j, func() {
		pruner.Stop()
		_ = j.Close()
	}, nil
}

func fatal(stderr io.Writer, err error) int {
	fmt.Fprintf(stderr, "invoker: %v\n", err)
	return core.ExitCodeOf(err)
}

// ListHandlers writes each registered module.function matching pattern
// and its signature. In the pattern "*" stays within one dotted segment and
// "**" crosses segments; an empty pattern lists everything.
func ListHandlers(w io.Writer, reg *Registry, pattern string) error {
	if reg == nil {
		reg = registry.Default
	}
	if pattern == "" {
		pattern = "**"
	}
	g, err := glob.Compile(pattern, '.')
	if err != nil {
		return fmt.Errorf("invoker: invalid handler pattern %q: %w", pattern, err)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, e := range reg.Entries() {
		if !g.Match(e.Module + "." + e.Function) {
			continue
		}
		fmt.Fprintf(tw, "%s.%s\t%s\n", e.Module, e.Function, e.Signature)
	}
	return tw.Flush()
}
