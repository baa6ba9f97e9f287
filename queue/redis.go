package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"papertalk-backend/logger"

	goredis "github.com/redis/go-redis/v9"
)

// RedisQueue keeps tasks in a Redis list: LPUSH to enqueue, RPOP to dequeue
type RedisQueue struct {
	log *logger.Logger
	rdb *goredis.Client
	key string
}

// NewRedisQueue connects to addr and verifies the connection
func NewRedisQueue(ctx context.Context, log *logger.Logger, addr, key string) (*RedisQueue, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	if strings.TrimSpace(key) == "" {
		key = "papertalk:cleanup"
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &RedisQueue{
		log: log.With("service", "RedisCleanupQueue"),
		rdb: rdb,
		key: key,
	}, nil
}

func (q *RedisQueue) Enqueue(ctx context.Context, task CleanupTask) error {
	raw, err := json.Marshal(task)
	if err != nil {
		return err
	}
	if err := q.rdb.LPush(ctx, q.key, raw).Err(); err != nil {
		return fmt.Errorf("redis lpush: %w", err)
	}
	return nil
}

func (q *RedisQueue) Dequeue(ctx context.Context) (*CleanupTask, error) {
	raw, err := q.rdb.RPop(ctx, q.key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis rpop: %w", err)
	}

	var task CleanupTask
	if err := json.Unmarshal(raw, &task); err != nil {
		// Malformed entries are dropped, not requeued
		q.log.Error("dropping malformed cleanup task", "error", err, "raw", string(raw))
		return nil, fmt.Errorf("decode cleanup task: %w", err)
	}
	return &task, nil
}

func (q *RedisQueue) Len(ctx context.Context) (int, error) {
	n, err := q.rdb.LLen(ctx, q.key).Result()
	if err != nil {
		return 0, fmt.Errorf("redis llen: %w", err)
	}
	return int(n), nil
}

func (q *RedisQueue) Close() error {
	return q.rdb.Close()
}
