// Package events publishes domain events about items and their photos.
// Delivery is fire-and-forget: callers log publish errors and move on.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	SubjectPhotoSetCommitted = "items.photos.committed"
	SubjectPhotoDeleted      = "items.photos.deleted"
	SubjectItemDeleted       = "items.deleted"
)

// Publisher sends a JSON payload on subject.
type Publisher interface {
	Publish(ctx context.Context, subject string, payload any) error
	Close()
}

// PhotoRef is the public shape of one photo inside an event.
type PhotoRef struct {
	ID       uuid.UUID `json:"id"`
	Position int       `json:"position"`
	URL      string    `json:"url"`
}

// PhotoSetCommitted is emitted after any create, append or replace commits.
type PhotoSetCommitted struct {
	ItemID     uuid.UUID  `json:"item_id"`
	OwnerID    uuid.UUID  `json:"owner_id"`
	Operation  string     `json:"operation"`
	Photos     []PhotoRef `json:"photos"`
	OccurredAt time.Time  `json:"occurred_at"`
}

// PhotoDeleted is emitted after a single photo is removed.
type PhotoDeleted struct {
	ItemID     uuid.UUID `json:"item_id"`
	PhotoID    uuid.UUID `json:"photo_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// ItemDeleted is emitted after an item and its ledger rows are gone.
type ItemDeleted struct {
	ItemID     uuid.UUID `json:"item_id"`
	OwnerID    uuid.UUID `json:"owner_id"`
	PhotoCount int       `json:"photo_count"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Noop discards every event. It is used when no broker is configured.
type Noop struct{}

func (Noop) Publish(context.Context, string, any) error { return nil }
func (Noop) Close()                                     {}
