package controllers

import (
	"net/http"

	"github.com/feirinha/feirinha-backend/api/responses"
	"github.com/feirinha/feirinha-backend/api/validators"
	"github.com/feirinha/feirinha-backend/internal/profiles"
	pkgerrors "github.com/feirinha/feirinha-backend/pkg/errors"
	"github.com/feirinha/feirinha-backend/pkg/logger"
)

func GetMyProfile(svc profiles.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "profiles service unavailable"))
			return
		}
		userID, err := requireUser(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		profile, err := svc.Get(ctx, userID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, profile)
	}
}

func UpdateMyProfile(svc profiles.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "profiles service unavailable"))
			return
		}
		userID, err := requireUser(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var input profiles.UpdateProfileInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		profile, err := svc.Update(ctx, userID, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, profile)
	}
}
