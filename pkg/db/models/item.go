package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/feirinha/feirinha-backend/pkg/enums"
)

// Item is a marketplace listing owned by a single user.
type Item struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OwnerID       uuid.UUID           `gorm:"column:owner_id;type:uuid;not null;index:items_owner_created_idx,priority:1"`
	Title         string              `gorm:"column:title;not null"`
	Description   string              `gorm:"column:description;not null"`
	Type          enums.ItemType      `gorm:"column:type;type:item_type;not null"`
	Price         decimal.NullDecimal `gorm:"column:price;type:numeric(10,2)"`
	TradeInterest *string             `gorm:"column:trade_interest"`
	CategoryID    uuid.UUID           `gorm:"column:category_id;type:uuid;not null"`
	CityID        *uuid.UUID          `gorm:"column:city_id;type:uuid"`
	Condition     enums.ItemCondition `gorm:"column:condition;type:item_condition;not null"`
	ListingState  enums.ListingState  `gorm:"column:listing_state;type:listing_state;not null"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime;index:items_owner_created_idx,priority:2"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// ItemPhoto is one ledger row binding an uploaded object to an item slot.
type ItemPhoto struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ItemID    uuid.UUID `gorm:"column:item_id;type:uuid;not null;uniqueIndex:item_photos_item_position_key,priority:1"`
	ObjectKey string    `gorm:"column:object_key;not null;unique"`
	URL       string    `gorm:"column:url;not null"`
	Position  int       `gorm:"column:position;not null;uniqueIndex:item_photos_item_position_key,priority:2"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

type Category struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name      string    `gorm:"column:name;not null;unique"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

// City is shared by items and profiles; (name, state) is unique.
type City struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name      string    `gorm:"column:name;not null;uniqueIndex:cities_name_state_key,priority:1"`
	State     string    `gorm:"column:state;not null;uniqueIndex:cities_name_state_key,priority:2"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
