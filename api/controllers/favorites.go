package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/feirinha/feirinha-backend/api/middleware"
	"github.com/feirinha/feirinha-backend/api/responses"
	"github.com/feirinha/feirinha-backend/api/validators"
	"github.com/feirinha/feirinha-backend/internal/favorites"
	pkgerrors "github.com/feirinha/feirinha-backend/pkg/errors"
	"github.com/feirinha/feirinha-backend/pkg/logger"
)

type addFavoritePayload struct {
	ItemID string `json:"item_id" validate:"required,uuid"`
}

type favoriteStatus struct {
	Favorited bool `json:"favorited"`
}

// AddFavorite handles POST /api/v1/favorites: 201 when created, 200 when it already existed.
func AddFavorite(svc favorites.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "favorites service unavailable"))
			return
		}
		userID, err := requireUser(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload addFavoritePayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		itemID, err := uuid.Parse(strings.TrimSpace(payload.ItemID))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid item id"))
			return
		}

		ref, created, err := svc.Add(ctx, userID, itemID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		status := http.StatusOK
		if created {
			status = http.StatusCreated
		}
		responses.WriteSuccessStatus(w, status, ref)
	}
}

// ListFavorites handles GET /api/v1/favorites.
func ListFavorites(svc favorites.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "favorites service unavailable"))
			return
		}
		userID, err := requireUser(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		limit, err := limitQuery(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		cursor := strings.TrimSpace(r.URL.Query().Get("cursor"))
		page, err := svc.List(ctx, userID, cursor, limit)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

// RemoveFavorite handles DELETE /api/v1/favorites/{itemId}.
func RemoveFavorite(svc favorites.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "favorites service unavailable"))
			return
		}
		userID, err := requireUser(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		itemID, err := uuidParam(r, "itemId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := svc.Remove(ctx, userID, itemID); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

// CheckFavorite handles GET /api/v1/favorites/{itemId}/check. Anonymous callers get false.
func CheckFavorite(svc favorites.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "favorites service unavailable"))
			return
		}
		itemID, err := uuidParam(r, "itemId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		favorited, err := svc.Check(ctx, middleware.AuthenticatedUser(ctx), itemID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, favoriteStatus{Favorited: favorited})
	}
}
