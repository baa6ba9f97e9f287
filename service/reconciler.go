package service

import (
	"context"
	"errors"
	"time"

	"papertalk-backend/logger"
	"papertalk-backend/queue"
	"papertalk-backend/storage"
	"papertalk-backend/vectorindex"
)

// Reconciler retries storage and index deletes left behind by DeleteFile
type Reconciler struct {
	log         *logger.Logger
	queue       queue.CleanupQueue
	storage     storage.Storage
	index       vectorindex.Index
	interval    time.Duration
	maxAttempts int
}

func NewReconciler(log *logger.Logger, q queue.CleanupQueue, st storage.Storage, idx vectorindex.Index, interval time.Duration, maxAttempts int) *Reconciler {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	return &Reconciler{
		log:         log.With("service", "Reconciler"),
		queue:       q,
		storage:     st,
		index:       idx,
		interval:    interval,
		maxAttempts: maxAttempts,
	}
}

// Run drains the queue every interval until ctx is cancelled
func (r *Reconciler) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.log.Info("reconciler started", "interval", r.interval.String(), "max_attempts", r.maxAttempts)
	for {
		select {
		case <-ctx.Done():
			r.log.Info("reconciler stopped")
			return
		case <-ticker.C:
			if _, err := r.Drain(ctx); err != nil && !errors.Is(err, context.Canceled) {
				r.log.Error("reconcile pass failed", "error", err)
			}
		}
	}
}

// Drain processes the tasks queued when it starts. Tasks it re-enqueues wait for the next pass.
// It returns the number of tasks fully cleaned up.
func (r *Reconciler) Drain(ctx context.Context) (int, error) {
	n, err := r.queue.Len(ctx)
	if err != nil {
		return 0, err
	}

	done := 0
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return done, err
		}
		task, err := r.queue.Dequeue(ctx)
		if err != nil {
			r.log.Error("failed to dequeue cleanup task", "error", err)
			continue
		}
		if task == nil {
			break
		}
		if r.process(ctx, *task) {
			done++
		}
	}
	return done, nil
}

// process retries the pending sides of task and reports whether nothing is left
func (r *Reconciler) process(ctx context.Context, task queue.CleanupTask) bool {
	var errs []error
	if task.Storage {
		if err := r.storage.Delete(ctx, task.Key); err != nil {
			errs = append(errs, err)
		} else {
			task.Storage = false
		}
	}
	if task.Index {
		if err := r.index.DeleteNamespace(ctx, task.FileID); err != nil {
			errs = append(errs, err)
		} else {
			task.Index = false
		}
	}

	if !task.Pending() {
		r.log.Info("cleanup completed", "file_id", task.FileID, "attempts", task.Attempts+1)
		return true
	}

	task.Attempts++
	task.LastError = errors.Join(errs...).Error()
	if task.Attempts >= r.maxAttempts {
		r.log.Error("giving up on cleanup task",
			"file_id", task.FileID,
			"key", task.Key,
			"storage", task.Storage,
			"index", task.Index,
			"attempts", task.Attempts,
			"error", task.LastError,
		)
		return false
	}

	if err := r.queue.Enqueue(context.WithoutCancel(ctx), task); err != nil {
		r.log.Error("failed to requeue cleanup task", "file_id", task.FileID, "error", err)
	}
	return false
}
