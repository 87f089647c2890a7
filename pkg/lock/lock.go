package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	defaultTTL  = 25 * time.Hour
	defaultPoll = 50 * time.Millisecond
)

// ErrNotAcquired is returned when a key stays busy for the whole wait window.
var ErrNotAcquired = errors.New("lock held by another owner")

// Lock coordinates exclusive work across processes.
type Lock interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

// redisStore defines the operations used by RedisLock.
type redisStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	CompareAndDelete(ctx context.Context, key, value string) (bool, error)
}

// RedisLock implements Lock using Redis SETNX + TTL.
type RedisLock struct {
	client redisStore
	key    string
	ttl    time.Duration
	owner  string
}

// NewRedisLock constructs a Redis-backed lock.
func NewRedisLock(client redisStore, key string, ttl time.Duration) (*RedisLock, error) {
	if client == nil {
		return nil, errors.New("redis client required for lock")
	}
	if key == "" {
		return nil, errors.New("lock key is required")
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &RedisLock{client: client, key: key, ttl: ttl}, nil
}

// Key returns the redis key guarded by the lock.
func (l *RedisLock) Key() string {
	return l.key
}

// Acquire tries to own the lock for the configured TTL.
func (l *RedisLock) Acquire(ctx context.Context) (bool, error) {
	owner := uuid.NewString()
	ok, err := l.client.SetNX(ctx, l.key, owner, l.ttl)
	if err != nil {
		return false, fmt.Errorf("setnx: %w", err)
	}
	if ok {
		l.owner = owner
	}
	return ok, nil
}

// Release frees the lock only if the owner value still matches.
func (l *RedisLock) Release(ctx context.Context) error {
	if l.owner == "" {
		return nil
	}
	if _, err := l.client.CompareAndDelete(ctx, l.key, l.owner); err != nil {
		return fmt.Errorf("release lock: %w", err)
	}
	l.owner = ""
	return nil
}

type keyedStore interface {
	redisStore
	LockKey(scope, id string) string
}

// LockerParams configure a Locker.
type LockerParams struct {
	Client keyedStore
	Scope  string
	TTL    time.Duration
	Wait   time.Duration
	Poll   time.Duration
}

// Locker hands out per-id locks within one scope, waiting a bounded time for
// a busy id before giving up with ErrNotAcquired.
type Locker struct {
	client keyedStore
	scope  string
	ttl    time.Duration
	wait   time.Duration
	poll   time.Duration
}

// NewLocker builds a scoped locker.
func NewLocker(params LockerParams) (*Locker, error) {
	if params.Client == nil {
		return nil, errors.New("redis client required for locker")
	}
	if params.Scope == "" {
		return nil, errors.New("lock scope is required")
	}
	poll := params.Poll
	if poll <= 0 {
		poll = defaultPoll
	}
	return &Locker{
		client: params.Client,
		scope:  params.Scope,
		ttl:    params.TTL,
		wait:   params.Wait,
		poll:   poll,
	}, nil
}

// Obtain blocks until the lock for id is held, the wait window elapses or ctx ends.
func (l *Locker) Obtain(ctx context.Context, id string) (Lock, error) {
	lk, err := NewRedisLock(l.client, l.client.LockKey(l.scope, id), l.ttl)
	if err != nil {
		return nil, err
	}

	deadline := time.Now().Add(l.wait)
	for {
		ok, err := lk.Acquire(ctx)
		if err != nil {
			return nil, err
		}
		if ok {
			return lk, nil
		}
		if !time.Now().Before(deadline) {
			return nil, ErrNotAcquired
		}

		timer := time.NewTimer(l.poll)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}
