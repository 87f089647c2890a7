package profiles

import (
	"github.com/google/uuid"

	"github.com/feirinha/feirinha-backend/pkg/db/models"
)

// CityDTO is the public shape of the profile city.
type CityDTO struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	State string    `json:"state"`
}

// ProfileDTO is returned by the profile endpoints.
type ProfileDTO struct {
	ID                   uuid.UUID `json:"id"`
	Email                string    `json:"email"`
	FirstName            string    `json:"first_name"`
	LastName             string    `json:"last_name"`
	PhotoURL             *string   `json:"photo_url"`
	Bio                  *string   `json:"bio"`
	City                 *CityDTO  `json:"city"`
	NotificationsEnabled bool      `json:"notifications_enabled"`
}

// UpdateProfileInput changes only the fields that are set.
type UpdateProfileInput struct {
	FirstName            *string `json:"first_name" validate:"omitempty,max=100"`
	LastName             *string `json:"last_name" validate:"omitempty,max=100"`
	PhotoURL             *string `json:"photo_url" validate:"omitempty,url,max=500"`
	Bio                  *string `json:"bio" validate:"omitempty,max=1000"`
	CityName             *string `json:"city_name" validate:"omitempty,max=120"`
	CityState            *string `json:"city_state" validate:"omitempty,max=2"`
	NotificationsEnabled *bool   `json:"notifications_enabled"`
}

func newProfileDTO(user *models.User, profile *models.UserProfile, city *models.City) *ProfileDTO {
	dto := &ProfileDTO{
		ID:                   user.ID,
		Email:                user.Email,
		FirstName:            user.FirstName,
		LastName:             user.LastName,
		PhotoURL:             profile.PhotoURL,
		Bio:                  profile.Bio,
		NotificationsEnabled: profile.NotificationsEnabled,
	}
	if city != nil {
		dto.City = &CityDTO{ID: city.ID, Name: city.Name, State: city.State}
	}
	return dto
}
