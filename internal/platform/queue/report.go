package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"kids_math/internal/common"
	"kids_math/internal/domain/model"
)

// ErrCacheMiss is returned when no cached report exists for a user.
var ErrCacheMiss = errors.New("report not cached")

const (
	reportKeyPrefix = "report:"
	lockKeyPrefix   = "report_lock:"
)

// releaseScript deletes the lock only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
    return redis.call("del", KEYS[1])
else
    return 0
end
`)

// enqueueScript pushes ARGV[1] onto the list KEYS[1] unless it is already in
// the pending set KEYS[2]. ARGV[2] selects the end: "l" for publish, "r" for requeue.
var enqueueScript = redis.NewScript(`
if redis.call("sadd", KEYS[2], ARGV[1]) == 0 then
    return 0
end
if ARGV[2] == "r" then
    return redis.call("rpush", KEYS[1], ARGV[1])
end
return redis.call("lpush", KEYS[1], ARGV[1])
`)

// ReportQueue carries user ids whose parent report needs recomputing. Each id
// is queued at most once; a pending set tracks what is waiting.
type ReportQueue struct {
	rdb     *redis.Client
	name    string
	pending string
}

func NewReportQueue(rdb *redis.Client, name string) *ReportQueue {
	return &ReportQueue{rdb: rdb, name: name, pending: name + ":pending"}
}

// Publish schedules a refresh for userID; it is a no-op while one is queued.
func (q *ReportQueue) Publish(ctx context.Context, userID string) error {
	if err := enqueueScript.Run(ctx, q.rdb, []string{q.name, q.pending}, userID, "l").Err(); err != nil {
		return fmt.Errorf("push %s to %s: %w", userID, q.name, err)
	}
	return nil
}

// Pop blocks up to timeout and returns the next user id, or "" on timeout.
func (q *ReportQueue) Pop(ctx context.Context, timeout time.Duration) (string, error) {
	res, err := q.rdb.BRPop(ctx, timeout, q.name).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", err
	}
	// res is [queueName, value]
	if len(res) < 2 {
		return "", nil
	}
	userID := res[1]
	if err := q.rdb.SRem(ctx, q.pending, userID).Err(); err != nil {
		// Still marked pending, so a later Publish would be skipped; put it back.
		q.rdb.RPush(context.WithoutCancel(ctx), q.name, userID)
		return "", fmt.Errorf("clear pending %s: %w", userID, err)
	}
	return userID, nil
}

// Requeue puts userID back at the consuming end of the queue.
func (q *ReportQueue) Requeue(ctx context.Context, userID string) error {
	if err := enqueueScript.Run(ctx, q.rdb, []string{q.name, q.pending}, userID, "r").Err(); err != nil {
		return fmt.Errorf("requeue %s on %s: %w", userID, q.name, err)
	}
	return nil
}

// ReportCache stores computed reports as JSON with a TTL.
type ReportCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewReportCache(rdb *redis.Client, ttl time.Duration) *ReportCache {
	return &ReportCache{rdb: rdb, ttl: ttl}
}

func (c *ReportCache) Get(ctx context.Context, userID string) (*model.Report, error) {
	raw, err := c.rdb.Get(ctx, reportKeyPrefix+userID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("read cached report for %s: %w", userID, err)
	}
	var r model.Report
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, fmt.Errorf("decode cached report for %s: %w", userID, err)
	}
	return &r, nil
}

func (c *ReportCache) Set(ctx context.Context, r *model.Report) error {
	raw, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode report for %s: %w", r.UserID, err)
	}
	return c.rdb.Set(ctx, reportKeyPrefix+r.UserID, raw, c.ttl).Err()
}

// Locker hands out per-user refresh locks (SET NX with a random token).
type Locker struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewLocker(rdb *redis.Client, ttl time.Duration) *Locker {
	return &Locker{rdb: rdb, ttl: ttl}
}

// Acquire takes the lock and returns its token, or common.ErrLockNotAcquired
// while another holder owns it.
func (l *Locker) Acquire(ctx context.Context, userID string) (string, error) {
	token := uuid.NewString()
	ok, err := l.rdb.SetNX(ctx, lockKeyPrefix+userID, token, l.ttl).Result()
	if err != nil {
		return "", fmt.Errorf("acquire lock for %s: %w", userID, err)
	}
	if !ok {
		return "", fmt.Errorf("report lock for %s: %w", userID, common.ErrLockNotAcquired)
	}
	return token, nil
}

// Release deletes the lock if token still owns it and reports whether it did.
func (l *Locker) Release(ctx context.Context, userID, token string) (bool, error) {
	deleted, err := releaseScript.Run(ctx, l.rdb, []string{lockKeyPrefix + userID}, token).Int64()
	if err != nil {
		return false, fmt.Errorf("release lock for %s: %w", userID, err)
	}
	return deleted == 1, nil
}
