package controllers

import (
	"net/http"

	"github.com/feirinha/feirinha-backend/api/responses"
	"github.com/feirinha/feirinha-backend/api/validators"
	"github.com/feirinha/feirinha-backend/internal/items"
	pkgerrors "github.com/feirinha/feirinha-backend/pkg/errors"
	"github.com/feirinha/feirinha-backend/pkg/logger"
)

// ListItemPhotos handles GET /api/v1/items/{itemId}/images.
func ListItemPhotos(svc items.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "items service unavailable"))
			return
		}
		ownerID, err := requireUser(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		itemID, err := uuidParam(r, "itemId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		photos, err := svc.ListPhotos(ctx, ownerID, itemID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, photos)
	}
}

// AppendItemPhotos handles POST /api/v1/items/{itemId}/images and answers
// with only the photos that were added.
func AppendItemPhotos(svc items.Service, limits UploadLimits, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "items service unavailable"))
			return
		}
		ownerID, err := requireUser(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		itemID, err := uuidParam(r, "itemId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		form, err := validators.ParseMultipart(r, limits.MaxMemory)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		defer form.Close()

		uploads, err := form.Files(limits.MaxFileBytes, photoFileKeys...)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		added, err := svc.AppendPhotos(ctx, ownerID, itemID, uploads)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, added)
	}
}

// DeleteItemPhoto handles DELETE /api/v1/items/{itemId}/images/{photoId}.
func DeleteItemPhoto(svc items.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "items service unavailable"))
			return
		}
		ownerID, err := requireUser(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		itemID, err := uuidParam(r, "itemId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		photoID, err := uuidParam(r, "photoId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := svc.DeletePhoto(ctx, ownerID, itemID, photoID); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}
