package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrRunInProgress is returned when another matching run holds the lock.
var ErrRunInProgress = errors.New("matching run already in progress")

const runLockKey = "podmatch:runlock"

// RunLock serializes matching runs across workers. The greedy matcher
// carries mutable cluster state through its single pass, so two runs must
// never execute over the same roster snapshot concurrently.
type RunLock struct {
	client *redis.Client
	token  string
	ttl    time.Duration
}

// NewRunLock builds a lock with the given TTL; the TTL bounds how long a
// crashed worker can block the next run.
func NewRunLock(client *redis.Client, ttl time.Duration) *RunLock {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RunLock{client: client, token: uuid.NewString(), ttl: ttl}
}

// Acquire takes the lock or returns ErrRunInProgress.
func (l *RunLock) Acquire(ctx context.Context) error {
	ok, err := l.client.SetNX(ctx, runLockKey, l.token, l.ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return ErrRunInProgress
	}
	return nil
}

// Release drops the lock if this holder still owns it.
func (l *RunLock) Release(ctx context.Context) error {
	const script = `
		if redis.call("GET", KEYS[1]) == ARGV[1] then
			return redis.call("DEL", KEYS[1])
		end
		return 0
	`
	return l.client.Eval(ctx, script, []string{runLockKey}, l.token).Err()
}
