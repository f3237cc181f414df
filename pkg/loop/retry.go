package loop

import (
	"context"
	"errors"
	"math/rand"
	"time"
)

// RetryConfig bounds how hard the loop tries to journal one invocation.
// Zero fields fall back to DefaultRetryConfig.
type RetryConfig struct {
	MaxAttempts       int
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	BackoffMultiplier float64
	// JitterFraction randomises each wait by up to this share of it.
	JitterFraction float64
}

// DefaultRetryConfig returns the retry configuration used for journal writes.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:       3,
		InitialBackoff:    50 * time.Millisecond,
		MaxBackoff:        time.Second,
		BackoffMultiplier: 2.0,
		JitterFraction:    0.1,
	}
}

func (c RetryConfig) withDefaults() RetryConfig {
	def := DefaultRetryConfig()
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = def.MaxAttempts
	}
	if c.InitialBackoff <= 0 {
		c.InitialBackoff = def.InitialBackoff
	}
	if c.MaxBackoff < c.InitialBackoff {
		c.MaxBackoff = c.InitialBackoff
	}
	if c.BackoffMultiplier < 1 {
		c.BackoffMultiplier = 1
	}
	return c
}

// backoff yields successive waits between attempts.
type backoff struct {
	cfg  RetryConfig
	next time.Duration
}

func (b *backoff) wait() time.Duration {
	d := b.next
	if b.cfg.JitterFraction > 0 {
		d += time.Duration(float64(d) * b.cfg.JitterFraction * (rand.Float64()*2 - 1))
		if d < 0 {
			d = b.next
		}
	}

	b.next = time.Duration(float64(b.next) * b.cfg.BackoffMultiplier)
	if b.next > b.cfg.MaxBackoff {
		b.next = b.cfg.MaxBackoff
	}
	return d
}

// retryWithBackoff calls op until it succeeds, the attempts run out or ctx
// is done. Context errors returned by op are not retried.
func retryWithBackoff(ctx context.Context, cfg RetryConfig, op func() error) error {
	cfg = cfg.withDefaults()
	b := &backoff{cfg: cfg, next: cfg.InitialBackoff}

	var err error
	for attempt := 1; ; attempt++ {
		if err = op(); err == nil {
			return nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		if attempt == cfg.MaxAttempts {
			return err
		}

		t := time.NewTimer(b.wait())
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
}
