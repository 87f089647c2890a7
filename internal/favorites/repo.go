package favorites

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/feirinha/feirinha-backend/pkg/db/models"
	"github.com/feirinha/feirinha-backend/pkg/enums"
	"github.com/feirinha/feirinha-backend/pkg/pagination"
)

// Repository encapsulates favorite persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a favorites repository bound to the provided gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Insert adds the (user, item) pair and ignores duplicates. It reports
// whether a new row was written.
func (r *Repository) Insert(ctx context.Context, userID, itemID uuid.UUID) (bool, error) {
	if userID == uuid.Nil || itemID == uuid.Nil {
		return false, gorm.ErrInvalidValue
	}
	res := r.db.WithContext(ctx).Exec(
		`INSERT INTO favorites (id, user_id, item_id, created_at) VALUES (?, ?, ?, ?) ON CONFLICT (user_id, item_id) DO NOTHING`,
		uuid.New(), userID, itemID, time.Now().UTC(),
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// Find returns the favorite for the pair or gorm.ErrRecordNotFound.
func (r *Repository) Find(ctx context.Context, userID, itemID uuid.UUID) (*models.Favorite, error) {
	var fav models.Favorite
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND item_id = ?", userID, itemID).
		First(&fav).Error; err != nil {
		return nil, err
	}
	return &fav, nil
}

// Remove deletes the pair and reports whether it existed.
func (r *Repository) Remove(ctx context.Context, userID, itemID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND item_id = ?", userID, itemID).
		Delete(&models.Favorite{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// Exists reports whether userID favorited itemID.
func (r *Repository) Exists(ctx context.Context, userID, itemID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Favorite{}).
		Where("user_id = ? AND item_id = ?", userID, itemID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// ItemExists reports whether the item can be favorited.
func (r *Repository) ItemExists(ctx context.Context, itemID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Item{}).
		Where("id = ?", itemID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// List returns a page of the user's favorites, newest first.
func (r *Repository) List(ctx context.Context, userID uuid.UUID, decodedCursor *pagination.Cursor, limit int) ([]favoriteRecord, string, error) {
	selectColumns := []string{
		"f.id AS favorite_id",
		"f.created_at AS favorite_created_at",
		"i.id AS item_id",
		"i.owner_id",
		"i.title",
		"i.type",
		"i.price",
		"i.condition",
		"i.listing_state",
	}

	query := r.db.WithContext(ctx).
		Table("favorites f").
		Select(strings.Join(selectColumns, ", ")).
		Joins("JOIN items i ON i.id = f.item_id").
		Where("f.user_id = ?", userID)

	query = pagination.Keyset(query, "f.created_at", "f.id", decodedCursor).Limit(pagination.LimitWithBuffer(limit))

	var records []favoriteRecord
	if err := query.Scan(&records).Error; err != nil {
		return nil, "", err
	}

	records, next := pagination.Trim(records, limit, func(rec favoriteRecord) pagination.Cursor {
		return pagination.Cursor{CreatedAt: rec.FavoriteCreatedAt, ID: rec.FavoriteID}
	})
	nextCursor := ""
	if next != nil {
		nextCursor = pagination.EncodeCursor(*next)
	}
	return records, nextCursor, nil
}

type favoriteRecord struct {
	FavoriteID        uuid.UUID           `gorm:"column:favorite_id"`
	FavoriteCreatedAt time.Time           `gorm:"column:favorite_created_at"`
	ItemID            uuid.UUID           `gorm:"column:item_id"`
	OwnerID           uuid.UUID           `gorm:"column:owner_id"`
	Title             string              `gorm:"column:title"`
	Type              enums.ItemType      `gorm:"column:type"`
	Price             decimal.NullDecimal `gorm:"column:price"`
	Condition         enums.ItemCondition `gorm:"column:condition"`
	ListingState      enums.ListingState  `gorm:"column:listing_state"`
}

func (r favoriteRecord) toDTO(photoURL string) FavoriteDTO {
	summary := ItemSummary{
		ID:           r.ItemID,
		OwnerID:      r.OwnerID,
		Title:        r.Title,
		Type:         r.Type,
		Condition:    r.Condition,
		ListingState: r.ListingState,
	}
	if r.Price.Valid {
		price := r.Price.Decimal
		summary.Price = &price
	}
	if photoURL != "" {
		summary.PhotoURL = &photoURL
	}
	return FavoriteDTO{ID: r.FavoriteID, Item: summary, CreatedAt: r.FavoriteCreatedAt}
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
