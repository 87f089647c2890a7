package items

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/feirinha/feirinha-backend/pkg/db/models"
)

// Repository persists items.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs an item repository bound to the provided gorm DB.
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

// Create inserts the item; the id must already be set.
func (r *Repository) Create(ctx context.Context, item *models.Item) error {
	if item.ID == uuid.Nil {
		return gorm.ErrInvalidValue
	}
	return r.db.WithContext(ctx).Create(item).Error
}

// FindByID loads an item or returns gorm.ErrRecordNotFound.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Item, error) {
	var item models.Item
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// FindOwned loads an item only when ownerID owns it. A foreign item looks
// exactly like a missing one.
func (r *Repository) FindOwned(ctx context.Context, ownerID, id uuid.UUID) (*models.Item, error) {
	var item models.Item
	if err := r.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// Update writes every column of item.
func (r *Repository) Update(ctx context.Context, item *models.Item) error {
	return r.db.WithContext(ctx).Save(item).Error
}

// Touch bumps updated_at after a photo-only change.
func (r *Repository) Touch(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Item{}).
		Where("id = ?", id).
		Update("updated_at", gorm.Expr("CURRENT_TIMESTAMP")).Error
}

// Delete removes the item row.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Item{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteFavorites drops every favorite pointing at the item.
func (r *Repository) DeleteFavorites(ctx context.Context, itemID uuid.UUID) error {
	return r.db.WithContext(ctx).Where("item_id = ?", itemID).Delete(&models.Favorite{}).Error
}

// CategoryExists reports whether the category id is known.
func (r *Repository) CategoryExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var category models.Category
	err := r.db.WithContext(ctx).Select("id").Where("id = ?", id).First(&category).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
