package storage

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type flakyStore struct {
	putCalls    atomic.Int32
	deleteCalls atomic.Int32
	failures    int32
	transient   bool
}

func (f *flakyStore) Put(_ context.Context, key string, _ []byte, _ string) (string, error) {
	n := f.putCalls.Add(1)
	if n <= f.failures {
		return "", &Error{Op: OpPut, Key: key, Transient: f.transient, Err: errors.New("slow down")}
	}
	return f.PublicURL(key), nil
}

func (f *flakyStore) Delete(_ context.Context, key string) error {
	n := f.deleteCalls.Add(1)
	if n <= f.failures {
		return &Error{Op: OpDelete, Key: key, Transient: f.transient, Err: errors.New("slow down")}
	}
	return nil
}

func (f *flakyStore) PublicURL(key string) string {
	return "https://cdn.test/" + key
}

func TestRetryingStoreRecoversFromTransientFailures(t *testing.T) {
	next := &flakyStore{failures: 2, transient: true}
	store := WithRetry(next, RetryOptions{Attempts: 3, BaseDelay: time.Millisecond})

	url, err := store.Put(context.Background(), "items/a/1.png", []byte("x"), "image/png")
	require.NoError(t, err)
	require.Equal(t, "https://cdn.test/items/a/1.png", url)
	require.Equal(t, int32(3), next.putCalls.Load())

	require.NoError(t, store.Delete(context.Background(), "items/a/1.png"))
	require.Equal(t, int32(3), next.deleteCalls.Load())
}

func TestRetryingStoreGivesUpAfterBound(t *testing.T) {
	for _, attempts := range []uint64{1, 2, 3} {
		next := &flakyStore{failures: 10, transient: true}
		store := WithRetry(next, RetryOptions{Attempts: attempts, BaseDelay: time.Millisecond})

		_, err := store.Put(context.Background(), "items/a/1.png", []byte("x"), "image/png")
		require.Error(t, err)
		require.True(t, IsTransient(err))
		require.Equal(t, int32(attempts), next.putCalls.Load(), "attempts=%d", attempts)
	}
}

func TestRetryingStoreDoesNotRetryPermanentFailures(t *testing.T) {
	next := &flakyStore{failures: 10, transient: false}
	store := WithRetry(next, RetryOptions{Attempts: 5, BaseDelay: time.Millisecond})

	err := store.Delete(context.Background(), "items/a/1.png")
	require.Error(t, err)
	require.True(t, IsStoreError(err))
	require.Equal(t, int32(1), next.deleteCalls.Load())
}

func TestInstrumentedStoreForwards(t *testing.T) {
	next := &flakyStore{}
	store := Instrument(next, nil)

	url, err := store.Put(context.Background(), "k", []byte("x"), "image/png")
	require.NoError(t, err)
	require.Equal(t, "https://cdn.test/k", url)
	require.Equal(t, "https://cdn.test/k", store.PublicURL("k"))
	require.NoError(t, store.Ping(context.Background()))
}
