// Package mediatest provides in-memory object stores and sample images for tests.
package mediatest

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/feirinha/feirinha-backend/pkg/storage"
)

// PNG encodes a small solid PNG.
func PNG(t testing.TB) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, sample()); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

// JPEG encodes a small solid JPEG.
func JPEG(t testing.TB) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, sample(), nil); err != nil {
		t.Fatalf("encode jpeg: %v", err)
	}
	return buf.Bytes()
}

func sample() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 4, 3))
	for x := 0; x < 4; x++ {
		for y := 0; y < 3; y++ {
			img.Set(x, y, color.RGBA{R: 200, G: 90, B: 30, A: 255})
		}
	}
	return img
}

// ErrInjected is returned by Store when a failure hook fires.
var ErrInjected = &storage.Error{Op: storage.OpPut, Transient: false, Err: errors.New("injected failure")}

// Store is a thread-safe in-memory storage.ObjectStore.
type Store struct {
	mu      sync.Mutex
	objects map[string][]byte
	puts    int
	deletes []string

	// FailPut returns true to fail the n-th Put (1-based) for key.
	FailPut func(n int, key string) bool
	// FailDelete returns true to fail deleting key.
	FailDelete func(key string) bool
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{objects: map[string][]byte{}}
}

func (s *Store) Put(_ context.Context, key string, data []byte, _ string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.puts++
	if s.FailPut != nil && s.FailPut(s.puts, key) {
		return "", ErrInjected
	}
	s.objects[key] = append([]byte(nil), data...)
	return s.PublicURL(key), nil
}

func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deletes = append(s.deletes, key)
	if s.FailDelete != nil && s.FailDelete(key) {
		return &storage.Error{Op: storage.OpDelete, Key: key, Transient: true, Err: errors.New("injected delete failure")}
	}
	delete(s.objects, key)
	return nil
}

func (s *Store) PublicURL(key string) string {
	return "https://cdn.test/" + key
}

// Keys lists stored object keys in sorted order.
func (s *Store) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.objects))
	for k := range s.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// KeysWithPrefix lists stored keys starting with prefix.
func (s *Store) KeysWithPrefix(prefix string) []string {
	var out []string
	for _, k := range s.Keys() {
		if strings.HasPrefix(k, prefix) {
			out = append(out, k)
		}
	}
	return out
}

// Has reports whether key is stored.
func (s *Store) Has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[key]
	return ok
}

// Deleted lists every key passed to Delete, including failed attempts.
func (s *Store) Deleted() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.deletes...)
}

// Seed stores an object directly.
func (s *Store) Seed(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = []byte("seed")
}
