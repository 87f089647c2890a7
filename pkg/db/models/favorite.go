package models

import (
	"time"

	"github.com/google/uuid"
)

// Favorite links a user to an item they bookmarked.
type Favorite struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex:favorites_user_item_key,priority:1"`
	ItemID    uuid.UUID `gorm:"column:item_id;type:uuid;not null;uniqueIndex:favorites_user_item_key,priority:2;index:favorites_item_id_idx"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
