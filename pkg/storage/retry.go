package storage

import (
	"context"
	"time"

	"github.com/sethvargo/go-retry"
)

const (
	defaultRetryAttempts  = 3
	defaultRetryBaseDelay = 100 * time.Millisecond
)

// RetryOptions bound the retries applied to transient store failures.
// Attempts counts every call to the wrapped store, the first one included.
type RetryOptions struct {
	Attempts  uint64
	BaseDelay time.Duration
}

// RetryingStore retries transient failures of the wrapped store with
// exponential backoff. Permanent failures are returned immediately.
type RetryingStore struct {
	next ObjectStore
	opts RetryOptions
}

// WithRetry decorates store with bounded retries.
func WithRetry(store ObjectStore, opts RetryOptions) *RetryingStore {
	if opts.Attempts == 0 {
		opts.Attempts = defaultRetryAttempts
	}
	if opts.BaseDelay <= 0 {
		opts.BaseDelay = defaultRetryBaseDelay
	}
	return &RetryingStore{next: store, opts: opts}
}

func (s *RetryingStore) backoff() retry.Backoff {
	b := retry.NewExponential(s.opts.BaseDelay)
	b = retry.WithJitterPercent(20, b)
	return retry.WithMaxRetries(s.opts.Attempts-1, b)
}

func (s *RetryingStore) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	var url string
	err := retry.Do(ctx, s.backoff(), func(ctx context.Context) error {
		var err error
		url, err = s.next.Put(ctx, key, data, contentType)
		return retryable(err)
	})
	if err != nil {
		return "", err
	}
	return url, nil
}

func (s *RetryingStore) Delete(ctx context.Context, key string) error {
	return retry.Do(ctx, s.backoff(), func(ctx context.Context) error {
		return retryable(s.next.Delete(ctx, key))
	})
}

func (s *RetryingStore) PublicURL(key string) string {
	return s.next.PublicURL(key)
}

// Ping forwards to the wrapped store when it supports health checks.
func (s *RetryingStore) Ping(ctx context.Context) error {
	if p, ok := s.next.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

func retryable(err error) error {
	if err != nil && IsTransient(err) {
		return retry.RetryableError(err)
	}
	return err
}
