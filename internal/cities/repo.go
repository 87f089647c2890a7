// Package cities resolves free-text city names to shared city rows.
package cities

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/feirinha/feirinha-backend/pkg/db"
	"github.com/feirinha/feirinha-backend/pkg/db/models"
)

// ErrIncomplete is returned when only one of name and state is provided.
var ErrIncomplete = errors.New("city name and state must be provided together")

// Repository persists cities.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a city repository bound to the provided gorm DB.
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

// Normalize trims the inputs and reports whether a city was requested at all.
func Normalize(name, state string) (string, string, bool, error) {
	name = strings.TrimSpace(name)
	state = strings.ToUpper(strings.TrimSpace(state))
	switch {
	case name == "" && state == "":
		return "", "", false, nil
	case name == "" || state == "":
		return "", "", false, ErrIncomplete
	}
	return name, state, true, nil
}

// ResolveOrCreate returns the city for (name, state), inserting it when new.
// Concurrent creators converge on the same row.
func (r *Repository) ResolveOrCreate(ctx context.Context, name, state string) (*models.City, error) {
	name, state, ok, err := Normalize(name, state)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	insertErr := r.db.WithContext(ctx).Exec(
		`INSERT INTO cities (id, name, state, created_at) VALUES (?, ?, ?, ?) ON CONFLICT (name, state) DO NOTHING`,
		uuid.New(), name, state, time.Now().UTC(),
	).Error
	if insertErr != nil && !db.IsUniqueViolation(insertErr, "") {
		return nil, insertErr
	}

	city, err := r.find(ctx, name, state)
	if err == nil {
		return city, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	// The competing insert may not have been visible on the first read.
	return r.find(ctx, name, state)
}

// FindByID loads one city.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.City, error) {
	var city models.City
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&city).Error; err != nil {
		return nil, err
	}
	return &city, nil
}

func (r *Repository) find(ctx context.Context, name, state string) (*models.City, error) {
	var city models.City
	if err := r.db.WithContext(ctx).
		Where("name = ? AND state = ?", name, state).
		First(&city).Error; err != nil {
		return nil, err
	}
	return &city, nil
}
