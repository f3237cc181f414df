package core

import (
	"time"
)

// InvocationStatus represents the outcome of one handler call.
type InvocationStatus string

const (
	StatusCompleted InvocationStatus = "completed"
	StatusFailed    InvocationStatus = "failed"
)

// Invocation records one handler call made by the loop.
type Invocation struct {
	ID          string           `gorm:"primaryKey;size:36"`
	Seq         int64            `gorm:"index;not null"`
	Handler     string           `gorm:"index;size:511;not null"`
	Input       string           `gorm:"type:text"`
	InputBytes  int              `gorm:"default:0"`
	Status      InvocationStatus `gorm:"index;size:20;not null"`
	Error       string           `gorm:"type:text"`
	StartedAt   time.Time        `gorm:"index"`
	CompletedAt time.Time
	DurationMS  int64
	CreatedAt   time.Time `gorm:"autoCreateTime"`
}

// Failed reports whether the invocation ended in an error.
func (i *Invocation) Failed() bool {
	return i.Status == StatusFailed
}
