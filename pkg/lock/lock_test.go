package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	mu      sync.Mutex
	data    map[string]string
	failSet error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{data: map[string]string{}}
}

func (m *memoryStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSet != nil {
		return false, m.failSet
	}
	if _, ok := m.data[key]; ok {
		return false, nil
	}
	m.data[key] = fmt.Sprint(value)
	return true, nil
}

func (m *memoryStore) CompareAndDelete(_ context.Context, key, value string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data[key] != value {
		return false, nil
	}
	delete(m.data, key)
	return true, nil
}

func (m *memoryStore) LockKey(scope, id string) string {
	return "lock:" + scope + ":" + id
}

func TestRedisLockAcquireRelease(t *testing.T) {
	store := newMemoryStore()
	ctx := context.Background()

	first, err := NewRedisLock(store, "job", time.Minute)
	require.NoError(t, err)
	second, err := NewRedisLock(store, "job", time.Minute)
	require.NoError(t, err)

	ok, err := first.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = second.Acquire(ctx)
	require.NoError(t, err)
	require.False(t, ok)

	// a non-owner release must not free the key
	require.NoError(t, second.Release(ctx))
	require.Contains(t, store.data, "job")

	require.NoError(t, first.Release(ctx))
	require.NotContains(t, store.data, "job")
}

func TestNewRedisLockValidation(t *testing.T) {
	_, err := NewRedisLock(nil, "k", time.Second)
	require.Error(t, err)
	_, err = NewRedisLock(newMemoryStore(), "", time.Second)
	require.Error(t, err)
}

func TestLockerWaitsForRelease(t *testing.T) {
	store := newMemoryStore()
	locker, err := NewLocker(LockerParams{Client: store, Scope: "photos", Wait: time.Second, Poll: 5 * time.Millisecond})
	require.NoError(t, err)

	ctx := context.Background()
	held, err := locker.Obtain(ctx, "item-1")
	require.NoError(t, err)

	go func() {
		time.Sleep(30 * time.Millisecond)
		_ = held.Release(ctx)
	}()

	next, err := locker.Obtain(ctx, "item-1")
	require.NoError(t, err)
	require.NoError(t, next.Release(ctx))
}

func TestLockerTimesOut(t *testing.T) {
	store := newMemoryStore()
	locker, err := NewLocker(LockerParams{Client: store, Scope: "photos", Wait: 20 * time.Millisecond, Poll: 5 * time.Millisecond})
	require.NoError(t, err)

	ctx := context.Background()
	_, err = locker.Obtain(ctx, "item-1")
	require.NoError(t, err)

	_, err = locker.Obtain(ctx, "item-1")
	require.ErrorIs(t, err, ErrNotAcquired)

	other, err := locker.Obtain(ctx, "item-2")
	require.NoError(t, err)
	require.NotNil(t, other)
}

func TestLockerPropagatesStoreErrors(t *testing.T) {
	store := newMemoryStore()
	store.failSet = errors.New("connection refused")
	locker, err := NewLocker(LockerParams{Client: store, Scope: "photos"})
	require.NoError(t, err)

	_, err = locker.Obtain(context.Background(), "item-1")
	require.ErrorContains(t, err, "connection refused")
}
