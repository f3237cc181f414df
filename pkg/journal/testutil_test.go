package journal

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/jdziat/simple-function-invoker/pkg/core"
)

// newTestJournal opens a migrated journal for tests.
// When TEST_DATABASE_URL is set it connects to PostgreSQL; otherwise it
// opens a fresh in-memory SQLite instance.
func newTestJournal(t *testing.T) *GormJournal {
	t.Helper()

	driver, dsn := DriverSQLite, ":memory:"
	if url := os.Getenv("TEST_DATABASE_URL"); url != "" {
		driver, dsn = DriverPostgres, url
	}

	j, err := Open(driver, dsn)
	require.NoError(t, err, "open test journal")
	require.NoError(t, j.Migrate(context.Background()))

	if driver == DriverPostgres {
		j.DB().Exec("DELETE FROM invocations")
	}
	t.Cleanup(func() { _ = j.Close() })
	return j
}

func newTestInvocation(seq int64, status core.InvocationStatus, started time.Time) *core.Invocation {
	return &core.Invocation{
		ID:          uuid.New().String(),
		Seq:         seq,
		Handler:     "echo.uppercase",
		Input:       "hello",
		InputBytes:  5,
		Status:      status,
		StartedAt:   started,
		CompletedAt: started.Add(time.Millisecond),
		DurationMS:  1,
	}
}
