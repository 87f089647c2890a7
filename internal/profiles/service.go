// Package profiles manages the marketplace profile of the signed-in user.
package profiles

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/feirinha/feirinha-backend/internal/cities"
	"github.com/feirinha/feirinha-backend/pkg/db"
	"github.com/feirinha/feirinha-backend/pkg/db/models"
	pkgerrors "github.com/feirinha/feirinha-backend/pkg/errors"
)

type profileTrigger interface {
	ProfileUpdated(ctx context.Context, userID uuid.UUID, enabled bool)
}

// ServiceParams groups dependencies for the profile service.
type ServiceParams struct {
	DB      *db.Client
	Repo    *Repository
	Cities  *cities.Repository
	Trigger profileTrigger
}

// Service exposes profile reads and edits.
type Service interface {
	Get(ctx context.Context, userID uuid.UUID) (*ProfileDTO, error)
	Update(ctx context.Context, userID uuid.UUID, input UpdateProfileInput) (*ProfileDTO, error)
}

type service struct {
	db      *db.Client
	repo    *Repository
	cities  *cities.Repository
	trigger profileTrigger
}

// NewService builds the profile service.
func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.DB == nil:
		return nil, fmt.Errorf("db client required")
	case params.Repo == nil:
		return nil, fmt.Errorf("profile repository required")
	case params.Cities == nil:
		return nil, fmt.Errorf("city repository required")
	case params.Trigger == nil:
		return nil, fmt.Errorf("notification trigger required")
	}
	return &service{db: params.DB, repo: params.Repo, cities: params.Cities, trigger: params.Trigger}, nil
}

func (s *service) Get(ctx context.Context, userID uuid.UUID) (*ProfileDTO, error) {
	user, err := s.repo.FindUser(ctx, userID)
	if err != nil {
		return nil, notFoundOr(err, "load user")
	}
	profile, err := s.repo.FindProfile(ctx, userID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load profile")
		}
		profile = defaultProfile(userID)
	}
	var city *models.City
	if profile.CityID != nil {
		city, err = s.cities.FindByID(ctx, *profile.CityID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load city")
		}
	}
	return newProfileDTO(user, profile, city), nil
}

// Update applies the set fields in one transaction and, after commit, tells
// the notification trigger when anything the user sees changed.
func (s *service) Update(ctx context.Context, userID uuid.UUID, input UpdateProfileInput) (*ProfileDTO, error) {
	cityName, cityState := deref(input.CityName), deref(input.CityState)
	if _, _, _, err := cities.Normalize(cityName, cityState); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, err.Error()).
			WithDetails(map[string]string{"city_name": err.Error()})
	}
	if input.FirstName != nil && strings.TrimSpace(*input.FirstName) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "first_name: must not be blank").
			WithDetails(map[string]string{"first_name": "must not be blank"})
	}

	var (
		user    *models.User
		profile *models.UserProfile
		city    *models.City
		changed bool
	)
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		var err error
		if user, err = txRepo.FindUser(ctx, userID); err != nil {
			return notFoundOr(err, "db: load user")
		}
		profile, err = txRepo.FindProfileForUpdate(ctx, userID)
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load profile")
			}
			profile = defaultProfile(userID)
		}

		namesChanged := false
		if input.FirstName != nil && strings.TrimSpace(*input.FirstName) != user.FirstName {
			user.FirstName = strings.TrimSpace(*input.FirstName)
			namesChanged = true
		}
		if input.LastName != nil && strings.TrimSpace(*input.LastName) != user.LastName {
			user.LastName = strings.TrimSpace(*input.LastName)
			namesChanged = true
		}
		if namesChanged {
			if err := txRepo.UpdateNames(ctx, user); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update user")
			}
		}

		profileChanged := setOptional(&profile.PhotoURL, input.PhotoURL)
		profileChanged = setOptional(&profile.Bio, input.Bio) || profileChanged
		if input.NotificationsEnabled != nil && *input.NotificationsEnabled != profile.NotificationsEnabled {
			profile.NotificationsEnabled = *input.NotificationsEnabled
			profileChanged = true
		}

		txCities := s.cities.WithTx(tx)
		resolved, err := txCities.ResolveOrCreate(ctx, cityName, cityState)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve city")
		}
		if resolved != nil {
			if profile.CityID == nil || *profile.CityID != resolved.ID {
				profile.CityID = &resolved.ID
				profileChanged = true
			}
			city = resolved
		} else if profile.CityID != nil {
			if city, err = txCities.FindByID(ctx, *profile.CityID); err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load city")
			}
		}

		if profileChanged {
			if err := txRepo.SaveProfile(ctx, profile); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: save profile")
			}
		}
		changed = namesChanged || profileChanged
		return nil
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update profile")
	}

	if changed {
		s.trigger.ProfileUpdated(ctx, userID, profile.NotificationsEnabled)
	}
	return newProfileDTO(user, profile, city), nil
}

func defaultProfile(userID uuid.UUID) *models.UserProfile {
	return &models.UserProfile{UserID: userID, NotificationsEnabled: true}
}

// setOptional applies a nullable text field; an empty string clears it.
func setOptional(target **string, value *string) bool {
	if value == nil {
		return false
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		if *target == nil {
			return false
		}
		*target = nil
		return true
	}
	if *target != nil && **target == trimmed {
		return false
	}
	*target = &trimmed
	return true
}

func notFoundOr(err error, msg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "user not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, msg)
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
