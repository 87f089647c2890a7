package notifications

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/feirinha/feirinha-backend/pkg/db/models"
	"github.com/feirinha/feirinha-backend/pkg/enums"
	"github.com/feirinha/feirinha-backend/pkg/logger"
)

// ProfileUpdatedMessage is the text users see after editing their profile.
const ProfileUpdatedMessage = "Your profile and basic details were updated!"

// Trigger turns domain changes into notifications. Its failures are logged
// and never reach the caller.
type Trigger struct {
	repo Repository
	logg *logger.Logger
}

// NewTrigger builds a trigger writing through repo.
func NewTrigger(repo Repository, logg *logger.Logger) (*Trigger, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Trigger{repo: repo, logg: logg}, nil
}

// ProfileUpdated records a profile notification when the user has
// notifications enabled.
func (t *Trigger) ProfileUpdated(ctx context.Context, userID uuid.UUID, enabled bool) {
	if !enabled || userID == uuid.Nil {
		return
	}
	notification := &models.Notification{
		UserID:      userID,
		Type:        enums.NotificationTypeProfile,
		ReferenceID: &userID,
		Message:     ProfileUpdatedMessage,
	}
	if err := t.repo.Create(ctx, notification); err != nil {
		t.logg.Error(t.logg.WithField(ctx, "notification_type", string(enums.NotificationTypeProfile)), "failed to create profile notification", err)
	}
}
