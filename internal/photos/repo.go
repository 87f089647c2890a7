// Package photos is the ledger of which stored objects belong to which item
// and in what order.
package photos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/feirinha/feirinha-backend/pkg/db/models"
)

// PositionConstraint is the unique index guarding one photo per slot.
const PositionConstraint = "item_photos_item_position_key"

// parkOffset lifts positions clear of any live position during Compact.
const parkOffset = 1000

// ErrNotFound is returned when a photo does not exist on the requested item.
var ErrNotFound = errors.New("photo not found")

// Repository persists item_photos rows.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a photo ledger bound to the provided gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to tx.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// ListByItem returns the item's photos ordered by position.
func (r *Repository) ListByItem(ctx context.Context, itemID uuid.UUID) ([]models.ItemPhoto, error) {
	var rows []models.ItemPhoto
	if err := r.db.WithContext(ctx).
		Where("item_id = ?", itemID).
		Order("position ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// CountByItem returns how many photos the item currently has.
func (r *Repository) CountByItem(ctx context.Context, itemID uuid.UUID) (int, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.ItemPhoto{}).
		Where("item_id = ?", itemID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return int(count), nil
}

// MaxPosition returns the highest occupied position, or 0 for an empty set.
func (r *Repository) MaxPosition(ctx context.Context, itemID uuid.UUID) (int, error) {
	var max *int
	if err := r.db.WithContext(ctx).
		Model(&models.ItemPhoto{}).
		Select("MAX(position)").
		Where("item_id = ?", itemID).
		Scan(&max).Error; err != nil {
		return 0, err
	}
	if max == nil {
		return 0, nil
	}
	return *max, nil
}

// CreateBatch inserts rows as given; ids and positions must already be set.
func (r *Repository) CreateBatch(ctx context.Context, rows []models.ItemPhoto) error {
	if len(rows) == 0 {
		return nil
	}
	for i := range rows {
		if rows[i].ID == uuid.Nil {
			rows[i].ID = uuid.New()
		}
	}
	return r.db.WithContext(ctx).Create(&rows).Error
}

// FindByID loads a photo scoped to its item.
func (r *Repository) FindByID(ctx context.Context, itemID, photoID uuid.UUID) (*models.ItemPhoto, error) {
	var row models.ItemPhoto
	err := r.db.WithContext(ctx).
		Where("id = ? AND item_id = ?", photoID, itemID).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// Delete removes one photo row.
func (r *Repository) Delete(ctx context.Context, itemID, photoID uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND item_id = ?", photoID, itemID).
		Delete(&models.ItemPhoto{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteByItem removes every photo of the item and returns the removed rows.
func (r *Repository) DeleteByItem(ctx context.Context, itemID uuid.UUID) ([]models.ItemPhoto, error) {
	rows, err := r.ListByItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	if err := r.db.WithContext(ctx).
		Where("item_id = ?", itemID).
		Delete(&models.ItemPhoto{}).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Compact renumbers the item's photos to 1..N preserving order. Rows are first
// parked above parkOffset so no intermediate state collides with the
// unique (item_id, position) index or the positive position check.
func (r *Repository) Compact(ctx context.Context, itemID uuid.UUID) error {
	rows, err := r.ListByItem(ctx, itemID)
	if err != nil {
		return err
	}
	dirty := false
	for i, row := range rows {
		if row.Position != i+1 {
			dirty = true
			break
		}
	}
	if !dirty {
		return nil
	}

	db := r.db.WithContext(ctx)
	if err := db.Model(&models.ItemPhoto{}).
		Where("item_id = ?", itemID).
		Update("position", gorm.Expr("position + ?", parkOffset)).Error; err != nil {
		return err
	}
	for i, row := range rows {
		if err := db.Model(&models.ItemPhoto{}).
			Where("id = ?", row.ID).
			Update("position", i+1).Error; err != nil {
			return err
		}
	}
	return nil
}

// ExistsByObjectKey reports whether any ledger row still references key.
func (r *Repository) ExistsByObjectKey(ctx context.Context, key string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.ItemPhoto{}).
		Where("object_key = ?", key).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// FirstURLs maps each item to the URL of its lowest-positioned photo.
func (r *Repository) FirstURLs(ctx context.Context, itemIDs []uuid.UUID) (map[uuid.UUID]string, error) {
	out := make(map[uuid.UUID]string, len(itemIDs))
	if len(itemIDs) == 0 {
		return out, nil
	}
	var rows []models.ItemPhoto
	if err := r.db.WithContext(ctx).
		Where("item_id IN ?", itemIDs).
		Order("item_id ASC").
		Order("position ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		if _, ok := out[row.ItemID]; !ok {
			out[row.ItemID] = row.URL
		}
	}
	return out, nil
}
