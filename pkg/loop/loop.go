package loop

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/jdziat/simple-function-invoker/pkg/core"
	intctx "github.com/jdziat/simple-function-invoker/pkg/internal/context"
	"github.com/jdziat/simple-function-invoker/pkg/resolver"
	"github.com/jdziat/simple-function-invoker/pkg/security"
)

// State is the loop's position in its state machine.
type State int

const (
	StateReading State = iota
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateReading:
		return "reading"
	case StateTerminated:
		return "terminated"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Reason explains why the loop terminated.
type Reason string

const (
	ReasonEndOfInput  Reason = "end-of-input"
	ReasonInterrupted Reason = "interrupted"
	ReasonReadError   Reason = "read-error"
)

// Stats counts what the loop processed.
type Stats struct {
	Invocations int64
	Succeeded   int64
	Failed      int64
	Bytes       int64
}

// Result is returned once the loop reaches StateTerminated.
type Result struct {
	Reason Reason
	Stats  Stats
	// Err is set for ReasonReadError
	Err error
}

// ExitCode maps the termination to a process status.
func (r Result) ExitCode() int {
	if r.Reason == ReasonReadError {
		return 1
	}
	return 0
}

// Loop feeds invocation units to a resolved handler.
type Loop struct {
	target *resolver.Resolved
	config Config
	logger *slog.Logger

	state State
	stats Stats
	seq   int64

	// Hooks
	onStart    []func(context.Context, *core.Invocation)
	onComplete []func(context.Context, *core.Invocation)
	onFail     []func(context.Context, *core.Invocation, error)
	onEvent    []func(core.Event)
	hooksMu    sync.RWMutex
}

// New creates a Loop bound to target.
func New(target *resolver.Resolved, opts ...Option) *Loop {
	config := defaultConfig()
	for _, opt := range opts {
		opt.ApplyLoop(&config)
	}

	return &Loop{
		target: target,
		config: config,
		logger: config.Logger.With("handler", target.Name()),
		state:  StateReading,
	}
}

// OnStart registers a hook called before each handler call.
func (l *Loop) OnStart(fn func(context.Context, *core.Invocation)) {
	l.hooksMu.Lock()
	defer l.hooksMu.Unlock()
	l.onStart = append(l.onStart, fn)
}

// OnComplete registers a hook called after a handler call succeeds.
func (l *Loop) OnComplete(fn func(context.Context, *core.Invocation)) {
	l.hooksMu.Lock()
	defer l.hooksMu.Unlock()
	l.onComplete = append(l.onComplete, fn)
}

// OnFail registers a hook called after a handler call fails.
func (l *Loop) OnFail(fn func(context.Context, *core.Invocation, error)) {
	l.hooksMu.Lock()
	defer l.hooksMu.Unlock()
	l.onFail = append(l.onFail, fn)
}

// OnEvent registers a subscriber for loop events.
func (l *Loop) OnEvent(fn func(core.Event)) {
	l.hooksMu.Lock()
	defer l.hooksMu.Unlock()
	l.onEvent = append(l.onEvent, fn)
}

// State returns the current state. It is meant to be read after Run returns.
func (l *Loop) State() State {
	return l.state
}

// Run reads and dispatches lines until the input ends, ctx is cancelled or
// a read fails. Handler failures never end the loop.
func (l *Loop) Run(ctx context.Context) Result {
	want := make(chan struct{})
	lines := make(chan readResult)
	done := make(chan struct{})
	defer close(done)

	reader := newLineReader(l.config.Input, l.config.MaxLineBytes)
	go reader.serve(want, lines, done)

	l.logger.Info("invocation loop started", "max_line_bytes", l.config.MaxLineBytes)

	for l.state == StateReading {
		if ctx.Err() != nil {
			return l.terminate(ReasonInterrupted, nil)
		}

		select {
		case want <- struct{}{}:
		case <-ctx.Done():
			return l.terminate(ReasonInterrupted, nil)
		}

		var r readResult
		select {
		case r = <-lines:
		case <-ctx.Done():
			return l.terminate(ReasonInterrupted, nil)
		}

		switch {
		case errors.Is(r.err, io.EOF):
			return l.terminate(ReasonEndOfInput, nil)
		case r.err != nil:
			return l.terminate(ReasonReadError, r.err)
		case r.tooLong:
			l.reject(ctx, r.size, fmt.Errorf("%w (limit %d bytes)", core.ErrLineTooLong, l.config.MaxLineBytes))
		default:
			if !l.invoke(ctx, r.line) {
				return l.terminate(ReasonInterrupted, nil)
			}
		}
	}
	return l.terminate(ReasonInterrupted, nil)
}

func (l *Loop) newInvocation(line []byte) *core.Invocation {
	l.seq++
	return &core.Invocation{
		ID:         uuid.New().String(),
		Seq:        l.seq,
		Handler:    l.target.Name(),
		Input:      security.SanitizeInput(string(line)),
		InputBytes: len(line),
		StartedAt:  time.Now(),
	}
}

// begin counts a unit and announces it to hooks and subscribers.
func (l *Loop) begin(ctx context.Context, line []byte, size int) *core.Invocation {
	inv := l.newInvocation(line)
	inv.InputBytes = size
	l.stats.Invocations++
	l.stats.Bytes += int64(size)

	l.callStartHooks(ctx, inv)
	l.emit(&core.InvocationStarted{Invocation: inv, Timestamp: inv.StartedAt})
	return inv
}

// invoke runs one handler call. It returns false when ctx is cancelled
// before the handler returns; the handler is then abandoned.
func (l *Loop) invoke(ctx context.Context, line []byte) bool {
	inv := l.begin(ctx, line, len(line))

	done := make(chan error, 1)
	go func() {
		done <- l.execute(ctx, inv, line)
	}()

	select {
	case err := <-done:
		l.finish(ctx, inv, err)
		return true
	case <-ctx.Done():
		l.logger.Warn("interrupted while handler was running", "seq", inv.Seq, "id", inv.ID)
		return false
	}
}

// reject records a unit that never reached the handler.
func (l *Loop) reject(ctx context.Context, size int, err error) {
	inv := l.begin(ctx, nil, size)
	l.finish(ctx, inv, err)
}

func (l *Loop) execute(ctx context.Context, inv *core.Invocation, line []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()

	hctx := intctx.WithInvocationContext(ctx, &intctx.InvocationContext{
		Invocation: inv,
		Module:     l.target.Module,
		Function:   l.target.Function,
		Output:     l.config.Output,
	})

	// Results are the handler's own business; only the error matters here.
	_, err = l.target.Handler.Execute(hctx, line)
	return withOrigin(err)
}

func (l *Loop) finish(ctx context.Context, inv *core.Invocation, err error) {
	inv.CompletedAt = time.Now()
	duration := inv.CompletedAt.Sub(inv.StartedAt)
	inv.DurationMS = duration.Milliseconds()

	if err != nil {
		inv.Status = core.StatusFailed
		inv.Error = security.SanitizeErrorMessage(err.Error())
		l.stats.Failed++
		l.report(inv, err)
		l.callFailHooks(ctx, inv, err)
		l.emit(&core.InvocationFailed{Invocation: inv, Error: err, Timestamp: inv.CompletedAt})
	} else {
		inv.Status = core.StatusCompleted
		l.stats.Succeeded++
		l.logger.Debug("invocation completed", "seq", inv.Seq, "id", inv.ID, "duration", duration)
		l.callCompleteHooks(ctx, inv)
		l.emit(&core.InvocationCompleted{Invocation: inv, Duration: duration, Timestamp: inv.CompletedAt})
	}

	l.record(ctx, inv)
}

// report writes the full diagnostic to the diagnostics stream.
func (l *Loop) report(inv *core.Invocation, err error) {
	l.logger.Error("invocation failed", "seq", inv.Seq, "id", inv.ID, "error", err)
	if l.config.Diagnostics == nil {
		return
	}
	if _, werr := fmt.Fprintf(l.config.Diagnostics, "invocation %d (%s) failed: %s\n", inv.Seq, inv.Handler, Diagnostic(err)); werr != nil {
		l.logger.Warn("failed to write diagnostic", "error", werr)
	}
}

func (l *Loop) record(ctx context.Context, inv *core.Invocation) {
	if l.config.Journal == nil {
		return
	}
	// The record outlives an interrupted ctx so the last invocation is kept.
	rctx := context.WithoutCancel(ctx)
	err := retryWithBackoff(rctx, l.config.JournalRetry, func() error {
		return l.config.Journal.Record(rctx, inv)
	})
	if err != nil {
		l.logger.Warn("failed to journal invocation after retries", "id", inv.ID, "error", err)
	}
}

func (l *Loop) terminate(reason Reason, err error) Result {
	l.state = StateTerminated
	res := Result{Reason: reason, Stats: l.stats, Err: err}

	attrs := []any{
		"reason", reason,
		"invocations", l.stats.Invocations,
		"succeeded", l.stats.Succeeded,
		"failed", l.stats.Failed,
		"input", humanize.Bytes(uint64(l.stats.Bytes)),
	}
	if err != nil {
		l.logger.Error("invocation loop terminated", append(attrs, "error", err)...)
	} else {
		l.logger.Info("invocation loop terminated", attrs...)
	}
	l.emit(&core.LoopTerminated{Reason: string(reason), Timestamp: time.Now()})
	return res
}

func (l *Loop) callStartHooks(ctx context.Context, inv *core.Invocation) {
	l.hooksMu.RLock()
	hooks := l.onStart
	l.hooksMu.RUnlock()
	for _, fn := range hooks {
		fn(ctx, inv)
	}
}

func (l *Loop) callCompleteHooks(ctx context.Context, inv *core.Invocation) {
	l.hooksMu.RLock()
	hooks := l.onComplete
	l.hooksMu.RUnlock()
	for _, fn := range hooks {
		fn(ctx, inv)
	}
}

func (l *Loop) callFailHooks(ctx context.Context, inv *core.Invocation, err error) {
	l.hooksMu.RLock()
	hooks := l.onFail
	l.hooksMu.RUnlock()
	for _, fn := range hooks {
		fn(ctx, inv, err)
	}
}

func (l *Loop) emit(e core.Event) {
	l.hooksMu.RLock()
	subs := l.onEvent
	l.hooksMu.RUnlock()
	for _, fn := range subs {
		fn(e)
	}
}
