package storage

import (
	"context"
	"time"

	"github.com/feirinha/feirinha-backend/pkg/metrics"
)

// InstrumentedStore records latency and failures of the wrapped store.
type InstrumentedStore struct {
	next    ObjectStore
	metrics *metrics.StoreMetrics
}

// Instrument wraps store with prometheus metrics. A nil collector disables recording.
func Instrument(store ObjectStore, m *metrics.StoreMetrics) *InstrumentedStore {
	return &InstrumentedStore{next: store, metrics: m}
}

func (s *InstrumentedStore) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	start := time.Now()
	url, err := s.next.Put(ctx, key, data, contentType)
	s.metrics.Observe(string(OpPut), time.Since(start), err)
	if err == nil {
		s.metrics.AddBytes(len(data))
	}
	return url, err
}

func (s *InstrumentedStore) Delete(ctx context.Context, key string) error {
	start := time.Now()
	err := s.next.Delete(ctx, key)
	s.metrics.Observe(string(OpDelete), time.Since(start), err)
	return err
}

func (s *InstrumentedStore) PublicURL(key string) string {
	return s.next.PublicURL(key)
}

func (s *InstrumentedStore) Ping(ctx context.Context) error {
	if p, ok := s.next.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}
