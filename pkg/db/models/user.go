package models

import (
	"time"

	"github.com/google/uuid"
)

// User is the identity row owned by the auth service; this service reads it and
// edits display names only.
type User struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Email     string    `gorm:"type:text;not null;uniqueIndex"`
	FirstName string    `gorm:"column:first_name;not null"`
	LastName  string    `gorm:"column:last_name;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// UserProfile holds the marketplace-facing profile of a user.
type UserProfile struct {
	UserID               uuid.UUID  `gorm:"column:user_id;type:uuid;primaryKey"`
	PhotoURL             *string    `gorm:"column:photo_url"`
	CityID               *uuid.UUID `gorm:"column:city_id;type:uuid"`
	Bio                  *string    `gorm:"column:bio"`
	NotificationsEnabled bool       `gorm:"column:notifications_enabled;not null"`
	CreatedAt            time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
