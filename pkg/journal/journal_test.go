package journal

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdziat/simple-function-invoker/pkg/core"
)

// ---------------------------------------------------------------------------
// Open
// ---------------------------------------------------------------------------

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open("mongodb", "mongodb://localhost")
	assert.ErrorIs(t, err, ErrUnknownDriver)
}

func TestOpen_SQLiteFile(t *testing.T) {
	path := t.TempDir() + "/journal.db"
	j, err := Open("SQLite", path, MaxIdleConns(1), ConnMaxLifetime(time.Minute))
	require.NoError(t, err)
	defer j.Close()

	require.NoError(t, j.Migrate(context.Background()))
	require.NoError(t, j.Record(context.Background(), newTestInvocation(1, core.StatusCompleted, time.Now())))
}

// ---------------------------------------------------------------------------
// Record / Get
// ---------------------------------------------------------------------------

func TestRecord_AndGet(t *testing.T) {
	ctx := context.Background()
	j := newTestJournal(t)

	inv := newTestInvocation(1, core.StatusFailed, time.Now())
	inv.Error = "boom"
	require.NoError(t, j.Record(ctx, inv))

	got, err := j.Get(ctx, inv.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, inv.Seq, got.Seq)
	assert.Equal(t, "echo.uppercase", got.Handler)
	assert.Equal(t, core.StatusFailed, got.Status)
	assert.Equal(t, "boom", got.Error)
	assert.True(t, got.Failed())
}

func TestRecord_AssignsDefaults(t *testing.T) {
	ctx := context.Background()
	j := newTestJournal(t)

	inv := &core.Invocation{Seq: 1, Handler: "echo.echo", StartedAt: time.Now()}
	require.NoError(t, j.Record(ctx, inv))

	assert.NotEmpty(t, inv.ID)
	assert.Equal(t, core.StatusCompleted, inv.Status)
}

func TestRecord_SameIDOverwrites(t *testing.T) {
	ctx := context.Background()
	j := newTestJournal(t)

	inv := newTestInvocation(1, core.StatusCompleted, time.Now())
	require.NoError(t, j.Record(ctx, inv))

	inv.Status = core.StatusFailed
	inv.Error = "late failure"
	require.NoError(t, j.Record(ctx, inv))

	list, err := j.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, core.StatusFailed, list[0].Status)
}

func TestGet_NotFound(t *testing.T) {
	j := newTestJournal(t)

	got, err := j.Get(context.Background(), "missing")
	assert.NoError(t, err)
	assert.Nil(t, got)
}

// ---------------------------------------------------------------------------
// Queries
// ---------------------------------------------------------------------------

func TestRecent_NewestFirst(t *testing.T) {
	ctx := context.Background()
	j := newTestJournal(t)

	base := time.Now().Add(-time.Hour)
	for i := int64(1); i <= 5; i++ {
		require.NoError(t, j.Record(ctx, newTestInvocation(i, core.StatusCompleted, base.Add(time.Duration(i)*time.Minute))))
	}

	list, err := j.Recent(ctx, 3)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, int64(5), list[0].Seq)
	assert.Equal(t, int64(4), list[1].Seq)
	assert.Equal(t, int64(3), list[2].Seq)
}

func TestCountByStatus(t *testing.T) {
	ctx := context.Background()
	j := newTestJournal(t)

	now := time.Now()
	require.NoError(t, j.Record(ctx, newTestInvocation(1, core.StatusCompleted, now)))
	require.NoError(t, j.Record(ctx, newTestInvocation(2, core.StatusFailed, now)))
	require.NoError(t, j.Record(ctx, newTestInvocation(3, core.StatusCompleted, now)))

	counts, err := j.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), counts[core.StatusCompleted])
	assert.Equal(t, int64(1), counts[core.StatusFailed])
}

func TestCountByStatus_Empty(t *testing.T) {
	counts, err := newTestJournal(t).CountByStatus(context.Background())
	require.NoError(t, err)
	assert.Empty(t, counts)
}

// ---------------------------------------------------------------------------
// Prune
// ---------------------------------------------------------------------------

func TestPrune_DeletesOlderRecords(t *testing.T) {
	ctx := context.Background()
	j := newTestJournal(t)

	now := time.Now()
	old := newTestInvocation(1, core.StatusCompleted, now.Add(-48*time.Hour))
	fresh := newTestInvocation(2, core.StatusCompleted, now.Add(-time.Minute))
	require.NoError(t, j.Record(ctx, old))
	require.NoError(t, j.Record(ctx, fresh))

	n, err := j.Prune(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := j.Get(ctx, old.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = j.Get(ctx, fresh.ID)
	require.NoError(t, err)
	assert.NotNil(t, got)
}
