package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/feirinha/feirinha-backend/pkg/enums"
)

// Notification stores in-app notifications addressed to a user.
type Notification struct {
	ID          uuid.UUID              `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID      uuid.UUID              `gorm:"type:uuid;not null"`
	Type        enums.NotificationType `gorm:"type:notification_type;not null"`
	ReferenceID *uuid.UUID             `gorm:"type:uuid"`
	Message     string                 `gorm:"type:text;not null"`
	ReadAt      *time.Time             `gorm:"type:timestamptz"`
	CreatedAt   time.Time              `gorm:"type:timestamptz;autoCreateTime"`
}
