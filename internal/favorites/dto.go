package favorites

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/feirinha/feirinha-backend/pkg/enums"
)

// ItemSummary is the item card embedded in a favorite.
type ItemSummary struct {
	ID           uuid.UUID           `json:"id"`
	OwnerID      uuid.UUID           `json:"owner_id"`
	Title        string              `json:"title"`
	Type         enums.ItemType      `json:"type"`
	Price        *decimal.Decimal    `json:"price"`
	Condition    enums.ItemCondition `json:"status"`
	ListingState enums.ListingState  `json:"listing_state"`
	PhotoURL     *string             `json:"photo_url"`
}

// FavoriteDTO is one favorite as returned to its owner.
type FavoriteDTO struct {
	ID        uuid.UUID   `json:"id"`
	Item      ItemSummary `json:"item"`
	CreatedAt time.Time   `json:"created_at"`
}

// FavoriteRef is returned by Add; only ids are needed by the caller.
type FavoriteRef struct {
	ID        uuid.UUID `json:"id"`
	ItemID    uuid.UUID `json:"item_id"`
	CreatedAt time.Time `json:"created_at"`
}

// FavoritesPageDTO is a cursor page of favorites.
type FavoritesPageDTO struct {
	Favorites  []FavoriteDTO `json:"favorites"`
	NextCursor string        `json:"next_cursor,omitempty"`
}
