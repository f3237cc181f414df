package core

import (
	"context"
	"time"
)

// Journal defines the persistence layer for invocation records.
type Journal interface {
	// Migrate creates the necessary database tables.
	Migrate(ctx context.Context) error

	// Record stores one finished invocation.
	Record(ctx context.Context, inv *Invocation) error

	// Queries
	Get(ctx context.Context, id string) (*Invocation, error)
	Recent(ctx context.Context, limit int) ([]*Invocation, error)
	CountByStatus(ctx context.Context) (map[InvocationStatus]int64, error)

	// Prune deletes records that started before the cutoff.
	Prune(ctx context.Context, before time.Time) (int64, error)
}
