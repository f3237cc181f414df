package journal

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/jdziat/simple-function-invoker/pkg/core"
)

// DefaultPruneSchedule runs retention hourly.
const DefaultPruneSchedule = "@every 1h"

var scheduleParser = cron.NewParser(
	cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Pruner deletes journal records older than the retention window on a
// cron schedule.
type Pruner struct {
	journal   core.Journal
	retention time.Duration
	spec      string
	logger    *slog.Logger
	now       func() time.Time

	cron    *cron.Cron
	startMu sync.Mutex
	started bool
	entry   cron.EntryID
	stopCh  chan struct{}
	// watching is closed once the goroutine tied to Start's ctx exits
	watching chan struct{}
}

// NewPruner validates spec (five-field cron or a descriptor such as
// "@every 30m") and returns a stopped Pruner.
func NewPruner(j core.Journal, spec string, retention time.Duration, logger *slog.Logger) (*Pruner, error) {
	if spec == "" {
		spec = DefaultPruneSchedule
	}
	if retention <= 0 {
		return nil, fmt.Errorf("invoker: journal retention must be positive, got %s", retention)
	}
	if _, err := scheduleParser.Parse(spec); err != nil {
		return nil, fmt.Errorf("invoker: invalid prune schedule %q: %w", spec, err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Pruner{
		journal:   j,
		retention: retention,
		spec:      spec,
		logger:    logger,
		now:       time.Now,
		cron:      cron.New(cron.WithParser(scheduleParser)),
	}, nil
}

// PruneNow deletes records that started before now minus the retention.
func (p *Pruner) PruneNow(ctx context.Context) (int64, error) {
	cutoff := p.now().Add(-p.retention)
	n, err := p.journal.Prune(ctx, cutoff)
	if err != nil {
		p.logger.Warn("journal prune failed", "error", err)
		return 0, err
	}
	if n > 0 {
		p.logger.Info("journal pruned", "deleted", n, "cutoff", cutoff)
	}
	return n, nil
}

// Start schedules pruning until ctx is done or Stop is called. It returns
// immediately.
func (p *Pruner) Start(ctx context.Context) error {
	p.startMu.Lock()
	defer p.startMu.Unlock()
	if p.started {
		return nil
	}

	entry, err := p.cron.AddFunc(p.spec, func() {
		_, _ = p.PruneNow(ctx)
	})
	if err != nil {
		return err
	}
	p.entry = entry
	p.cron.Start()
	p.started = true
	p.stopCh = make(chan struct{})
	p.watching = make(chan struct{})
	p.logger.Debug("journal pruner started", "schedule", p.spec, "retention", p.retention)

	go func(stopCh, watching chan struct{}) {
		defer close(watching)
		select {
		case <-ctx.Done():
			p.Stop()
		case <-stopCh:
		}
	}(p.stopCh, p.watching)
	return nil
}

// Stop halts the schedule and waits for a running prune to finish.
func (p *Pruner) Stop() {
	p.startMu.Lock()
	defer p.startMu.Unlock()
	if !p.started {
		return
	}
	<-p.cron.Stop().Done()
	p.cron.Remove(p.entry)
	close(p.stopCh)
	p.started = false
}
