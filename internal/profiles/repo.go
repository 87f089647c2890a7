package profiles

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/feirinha/feirinha-backend/pkg/db/models"
)

// Repository persists users and their marketplace profiles.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a profile repository bound to the provided gorm DB.
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

// FindUser loads a user or returns gorm.ErrRecordNotFound.
func (r *Repository) FindUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindProfile loads a profile or returns gorm.ErrRecordNotFound.
func (r *Repository) FindProfile(ctx context.Context, userID uuid.UUID) (*models.UserProfile, error) {
	var profile models.UserProfile
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

// FindProfileForUpdate loads a profile holding a row lock until tx ends.
func (r *Repository) FindProfileForUpdate(ctx context.Context, userID uuid.UUID) (*models.UserProfile, error) {
	var profile models.UserProfile
	query := r.db.WithContext(ctx)
	if query.Dialector.Name() == "postgres" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	if err := query.Where("user_id = ?", userID).First(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

// UpdateNames writes the user's display names.
func (r *Repository) UpdateNames(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", user.ID).
		Updates(map[string]any{
			"first_name": user.FirstName,
			"last_name":  user.LastName,
		}).Error
}

// SaveProfile inserts or updates the profile row.
func (r *Repository) SaveProfile(ctx context.Context, profile *models.UserProfile) error {
	return r.db.WithContext(ctx).Save(profile).Error
}
