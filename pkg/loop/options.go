package loop

import (
	"io"
	"log/slog"
	"os"

	"github.com/jdziat/simple-function-invoker/pkg/core"
	"github.com/jdziat/simple-function-invoker/pkg/security"
)

// Option configures a Loop.
type Option interface {
	ApplyLoop(*Config)
}

type optionFunc func(*Config)

func (f optionFunc) ApplyLoop(c *Config) { f(c) }

// Config holds loop configuration.
type Config struct {
	Input        io.Reader
	Output       io.Writer // handler results
	Diagnostics  io.Writer // per-invocation failure reports
	Logger       *slog.Logger
	Journal      core.Journal
	JournalRetry RetryConfig
	MaxLineBytes int
}

func defaultConfig() Config {
	return Config{
		Input:        os.Stdin,
		Output:       os.Stdout,
		Diagnostics:  os.Stderr,
		Logger:       slog.Default(),
		JournalRetry: DefaultRetryConfig(),
		MaxLineBytes: security.DefaultMaxLineBytes,
	}
}

// WithInput sets the stream invocation units are read from.
func WithInput(r io.Reader) Option {
	return optionFunc(func(c *Config) { c.Input = r })
}

// WithOutput sets the stream handlers write results to.
func WithOutput(w io.Writer) Option {
	return optionFunc(func(c *Config) { c.Output = w })
}

// WithDiagnostics sets the stream failed invocations are reported on.
func WithDiagnostics(w io.Writer) Option {
	return optionFunc(func(c *Config) { c.Diagnostics = w })
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *Config) {
		if l != nil {
			c.Logger = l
		}
	})
}

// WithJournal records every invocation in j.
func WithJournal(j core.Journal) Option {
	return optionFunc(func(c *Config) { c.Journal = j })
}

// WithJournalRetry sets the retry policy for journal writes.
func WithJournalRetry(rc RetryConfig) Option {
	return optionFunc(func(c *Config) { c.JournalRetry = rc })
}

// MaxLineBytes sets the size limit for one invocation unit.
// Values are clamped to [1, security.MaxLineBytes]; zero or less selects the default.
func MaxLineBytes(n int) Option {
	return optionFunc(func(c *Config) { c.MaxLineBytes = security.ClampLineBytes(n) })
}
