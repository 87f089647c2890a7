package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/feirinha/feirinha-backend/api/middleware"
	pkgerrors "github.com/feirinha/feirinha-backend/pkg/errors"
)

func requireUser(r *http.Request) (uuid.UUID, error) {
	userID := middleware.AuthenticatedUser(r.Context())
	if userID == uuid.Nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	return userID, nil
}

func uuidParam(r *http.Request, name string) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, name))
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+name).WithDetails(map[string]string{name: "must be a valid uuid"})
	}
	return id, nil
}

func limitQuery(r *http.Request) (int, error) {
	limitStr := strings.TrimSpace(r.URL.Query().Get("limit"))
	if limitStr == "" {
		return 0, nil
	}
	value, err := strconv.Atoi(limitStr)
	if err != nil || value <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "limit must be a positive integer")
	}
	return value, nil
}
