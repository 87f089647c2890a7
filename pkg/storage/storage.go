// Package storage defines the object store contract used by the photo ledger
// and the decorators layered over concrete backends.
package storage

import (
	"context"
	"errors"
	"fmt"
)

// ObjectStore is the blob surface the item coordinator depends on.
type ObjectStore interface {
	// Put writes data under key and returns its public URL.
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
	// Delete removes key. A missing key is not an error.
	Delete(ctx context.Context, key string) error
	// PublicURL derives the URL for key without contacting the backend.
	PublicURL(key string) string
}

// Pinger exposes the health-check surface.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Op names a store operation for errors and metrics.
type Op string

const (
	OpPut    Op = "put"
	OpDelete Op = "delete"
	OpPing   Op = "ping"
)

// Error is returned by every backend; Transient marks failures worth retrying.
type Error struct {
	Op        Op
	Key       string
	Transient bool
	Err       error
}

func (e *Error) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("storage %s %s: %v", e.Op, e.Key, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// LogAttributes exposes the failing operation to error dumps.
func (e *Error) LogAttributes() map[string]any {
	return map[string]any{
		"store_op":        string(e.Op),
		"object_key":      e.Key,
		"store_transient": e.Transient,
	}
}

// IsTransient reports whether err is a store error marked as retryable.
func IsTransient(err error) bool {
	var storeErr *Error
	if errors.As(err, &storeErr) {
		return storeErr.Transient
	}
	return false
}

// IsStoreError reports whether err originated in an object store.
func IsStoreError(err error) bool {
	var storeErr *Error
	return errors.As(err, &storeErr)
}
