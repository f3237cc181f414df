package journal

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jdziat/simple-function-invoker/pkg/core"
)

// GormJournal implements core.Journal using GORM.
type GormJournal struct {
	db *gorm.DB
}

var _ core.Journal = (*GormJournal)(nil)

// NewGormJournal creates a new GORM-backed journal.
func NewGormJournal(db *gorm.DB) *GormJournal {
	return &GormJournal{db: db}
}

// DB returns the underlying connection.
func (j *GormJournal) DB() *gorm.DB {
	return j.db
}

// Migrate creates the necessary tables.
func (j *GormJournal) Migrate(ctx context.Context) error {
	return j.db.WithContext(ctx).AutoMigrate(&core.Invocation{})
}

// Record stores a finished invocation. Recording the same ID twice
// overwrites the earlier row.
func (j *GormJournal) Record(ctx context.Context, inv *core.Invocation) error {
	if inv.ID == "" {
		inv.ID = uuid.New().String()
	}
	if inv.Status == "" {
		inv.Status = core.StatusCompleted
	}
	return j.db.WithContext(ctx).Save(inv).Error
}

// Get retrieves an invocation by ID. It returns nil, nil when no such
// record exists.
func (j *GormJournal) Get(ctx context.Context, id string) (*core.Invocation, error) {
	var inv core.Invocation
	err := j.db.WithContext(ctx).First(&inv, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// Recent returns the newest invocations first.
func (j *GormJournal) Recent(ctx context.Context, limit int) ([]*core.Invocation, error) {
	var list []*core.Invocation
	q := j.db.WithContext(ctx).Order("started_at DESC, seq DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&list).Error
	return list, err
}

// CountByStatus returns the number of records per status.
func (j *GormJournal) CountByStatus(ctx context.Context) (map[core.InvocationStatus]int64, error) {
	var rows []struct {
		Status core.InvocationStatus
		Count  int64
	}
	err := j.db.WithContext(ctx).
		Model(&core.Invocation{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[core.InvocationStatus]int64, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.Count
	}
	return counts, nil
}

// Prune deletes invocations that started before the cutoff.
func (j *GormJournal) Prune(ctx context.Context, before time.Time) (int64, error) {
	result := j.db.WithContext(ctx).
		Where("started_at < ?", before).
		Delete(&core.Invocation{})
	return result.RowsAffected, result.Error
}

// Close releases the underlying connection pool.
func (j *GormJournal) Close() error {
	sqlDB, err := j.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
