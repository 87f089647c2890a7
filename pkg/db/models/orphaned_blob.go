package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/feirinha/feirinha-backend/pkg/enums"
)

// OrphanedBlob records an object that no ledger row references and whose
// delete failed; the sweep job retries it.
type OrphanedBlob struct {
	ID        uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ObjectKey string             `gorm:"column:object_key;not null;unique"`
	Reason    enums.OrphanReason `gorm:"column:reason;not null"`
	Attempts  int                `gorm:"column:attempts;not null"`
	LastError *string            `gorm:"column:last_error"`
	CreatedAt time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
