// Package queue holds cleanup work left behind by partially failed file deletions.
package queue

import (
	"context"
	"fmt"
	"strings"
	"time"

	"papertalk-backend/config"
	"papertalk-backend/logger"
)

// CleanupTask records a storage object and/or vector namespace that still has to be removed
type CleanupTask struct {
	FileID     string    `json:"fileId"`
	Key        string    `json:"key,omitempty"`
	Storage    bool      `json:"storage"`
	Index      bool      `json:"index"`
	Attempts   int       `json:"attempts"`
	EnqueuedAt time.Time `json:"enqueuedAt"`
	LastError  string    `json:"lastError,omitempty"`
}

// Pending reports whether any side of the task still needs work
func (t CleanupTask) Pending() bool {
	return t.Storage || t.Index
}

// CleanupQueue is a FIFO of cleanup tasks
type CleanupQueue interface {
	Enqueue(ctx context.Context, task CleanupTask) error
	// Dequeue returns the oldest task, or nil when the queue is empty
	Dequeue(ctx context.Context) (*CleanupTask, error)
	Len(ctx context.Context) (int, error)
	Close() error
}

// New builds the queue selected by cfg.Type
func New(ctx context.Context, log *logger.Logger, cfg config.QueueConfig) (CleanupQueue, error) {
	switch strings.ToLower(cfg.Type) {
	case "", "memory":
		return NewMemoryQueue(), nil
	case "redis":
		return NewRedisQueue(ctx, log, cfg.RedisAddr, cfg.RedisKey)
	default:
		return nil, fmt.Errorf("unknown queue type: %s", cfg.Type)
	}
}
