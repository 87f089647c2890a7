package media

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/feirinha/feirinha-backend/pkg/db/models"
	"github.com/feirinha/feirinha-backend/pkg/enums"
)

// OrphanRepository persists blobs whose delete failed so the sweep can retry them.
type OrphanRepository struct {
	db *gorm.DB
}

// NewOrphanRepository constructs a repository bound to the provided gorm DB.
func NewOrphanRepository(db *gorm.DB) *OrphanRepository {
	return &OrphanRepository{db: db}
}

// Record upserts an orphan entry for key.
func (r *OrphanRepository) Record(ctx context.Context, key string, reason enums.OrphanReason, cause error) error {
	var lastError *string
	if cause != nil {
		msg := cause.Error()
		lastError = &msg
	}
	now := time.Now().UTC()
	return r.db.WithContext(ctx).Exec(`
INSERT INTO orphaned_blobs (id, object_key, reason, attempts, last_error, created_at, updated_at)
VALUES (?, ?, ?, 0, ?, ?, ?)
ON CONFLICT (object_key) DO UPDATE
SET reason = excluded.reason, last_error = excluded.last_error, updated_at = excluded.updated_at`,
		uuid.New(), key, reason, lastError, now, now).Error
}

// ListDue returns the oldest entries that have not exhausted maxAttempts.
func (r *OrphanRepository) ListDue(ctx context.Context, limit, maxAttempts int) ([]models.OrphanedBlob, error) {
	var rows []models.OrphanedBlob
	query := r.db.WithContext(ctx).Order("updated_at ASC").Limit(limit)
	if maxAttempts > 0 {
		query = query.Where("attempts < ?", maxAttempts)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Resolve drops the entry once the blob is confirmed gone.
func (r *OrphanRepository) Resolve(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.OrphanedBlob{}).Error
}

// MarkFailed bumps the attempt counter after another failed delete.
func (r *OrphanRepository) MarkFailed(ctx context.Context, id uuid.UUID, cause error) error {
	updates := map[string]any{
		"attempts":   gorm.Expr("attempts + 1"),
		"updated_at": time.Now().UTC(),
	}
	if cause != nil {
		updates["last_error"] = cause.Error()
	}
	return r.db.WithContext(ctx).Model(&models.OrphanedBlob{}).Where("id = ?", id).Updates(updates).Error
}
