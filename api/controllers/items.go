package controllers

import (
	"net/http"

	"github.com/feirinha/feirinha-backend/api/middleware"
	"github.com/feirinha/feirinha-backend/api/responses"
	"github.com/feirinha/feirinha-backend/api/validators"
	"github.com/feirinha/feirinha-backend/internal/items"
	pkgerrors "github.com/feirinha/feirinha-backend/pkg/errors"
	"github.com/feirinha/feirinha-backend/pkg/logger"
)

// Clients send photos under either key; both are accepted and concatenated in this order.
var photoFileKeys = []string{"images", "uploaded_photos"}

// UploadLimits bounds how much of a multipart body is buffered.
type UploadLimits struct {
	MaxMemory    int64
	MaxFileBytes int64
}

// CreateItem handles POST /api/v1/items.
func CreateItem(svc items.Service, limits UploadLimits, logg *logger.Logger) http.HandlerFunc {
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

		input := items.CreateItemInput{
			Title:         form.Value("title"),
			Description:   form.Value("description"),
			Type:          form.Value("type"),
			Price:         form.Value("price"),
			TradeInterest: form.Value("trade_interest"),
			CategoryID:    form.Value("category_id"),
			Status:        form.Value("status"),
			ListingState:  form.Value("listing_state"),
			CityName:      form.Value("city_name"),
			CityState:     form.Value("city_state"),
			Photos:        uploads,
		}

		view, err := svc.CreateItem(ctx, ownerID, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, view)
	}
}

// GetItem handles GET /api/v1/items/{itemId}. Anonymous callers see active items only.
func GetItem(svc items.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "items service unavailable"))
			return
		}
		itemID, err := uuidParam(r, "itemId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		view, err := svc.GetItem(ctx, middleware.AuthenticatedUser(ctx), itemID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// UpdateItem handles PUT /api/v1/items/{itemId}. Only sent fields change;
// sending photos replaces the whole set.
func UpdateItem(svc items.Service, limits UploadLimits, logg *logger.Logger) http.HandlerFunc {
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
		clearPhotos, err := form.Bool("clear_photos")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		input := items.UpdateItemInput{
			Title:         form.Optional("title"),
			Description:   form.Optional("description"),
			Type:          form.Optional("type"),
			Price:         form.Optional("price"),
			TradeInterest: form.Optional("trade_interest"),
			CategoryID:    form.Optional("category_id"),
			Status:        form.Optional("status"),
			ListingState:  form.Optional("listing_state"),
			CityName:      form.Optional("city_name"),
			CityState:     form.Optional("city_state"),
			Photos:        uploads,
			ClearPhotos:   clearPhotos,
		}

		view, err := svc.UpdateItem(ctx, ownerID, itemID, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// DeleteItem handles DELETE /api/v1/items/{itemId}.
func DeleteItem(svc items.Service, logg *logger.Logger) http.HandlerFunc {
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

		if err := svc.DeleteItem(ctx, ownerID, itemID); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}
