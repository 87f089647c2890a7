// Package favorites keeps the per-user set of bookmarked items.
package favorites

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	pkgerrors "github.com/feirinha/feirinha-backend/pkg/errors"
	"github.com/feirinha/feirinha-backend/pkg/pagination"
)

type firstPhotoLoader interface {
	FirstURLs(ctx context.Context, itemIDs []uuid.UUID) (map[uuid.UUID]string, error)
}

// ServiceParams groups dependencies for the favorites service.
type ServiceParams struct {
	Repo   *Repository
	Photos firstPhotoLoader
}

// Service exposes the favorite registry.
type Service interface {
	Add(ctx context.Context, userID, itemID uuid.UUID) (FavoriteRef, bool, error)
	Remove(ctx context.Context, userID, itemID uuid.UUID) error
	Check(ctx context.Context, userID, itemID uuid.UUID) (bool, error)
	List(ctx context.Context, userID uuid.UUID, cursor string, limit int) (FavoritesPageDTO, error)
}

type service struct {
	repo   *Repository
	photos firstPhotoLoader
}

// NewService builds a favorites service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("favorites repo is required")
	}
	if params.Photos == nil {
		return nil, fmt.Errorf("photo repo is required")
	}
	return &service{repo: params.Repo, photos: params.Photos}, nil
}

// Add favorites the item. Repeated calls return the same favorite with
// created=false.
func (s *service) Add(ctx context.Context, userID, itemID uuid.UUID) (FavoriteRef, bool, error) {
	if itemID == uuid.Nil {
		return FavoriteRef{}, false, pkgerrors.New(pkgerrors.CodeValidation, "item_id is required").
			WithDetails(map[string]string{"item_id": "is required"})
	}
	exists, err := s.repo.ItemExists(ctx, itemID)
	if err != nil {
		return FavoriteRef{}, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load item")
	}
	if !exists {
		return FavoriteRef{}, false, pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
	}

	created, err := s.repo.Insert(ctx, userID, itemID)
	if err != nil {
		return FavoriteRef{}, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert favorite")
	}
	fav, err := s.repo.Find(ctx, userID, itemID)
	if err != nil {
		if isNotFound(err) {
			// Item deleted between insert and read-back.
			return FavoriteRef{}, false, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "item not found")
		}
		return FavoriteRef{}, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load favorite")
	}
	return FavoriteRef{ID: fav.ID, ItemID: fav.ItemID, CreatedAt: fav.CreatedAt}, created, nil
}

// Remove deletes the favorite; a missing favorite is NOT_FOUND.
func (s *service) Remove(ctx context.Context, userID, itemID uuid.UUID) error {
	removed, err := s.repo.Remove(ctx, userID, itemID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete favorite")
	}
	if !removed {
		return pkgerrors.New(pkgerrors.CodeNotFound, "favorite not found")
	}
	return nil
}

// Check reports whether the user favorited the item. Anonymous callers get false.
func (s *service) Check(ctx context.Context, userID, itemID uuid.UUID) (bool, error) {
	if userID == uuid.Nil || itemID == uuid.Nil {
		return false, nil
	}
	ok, err := s.repo.Exists(ctx, userID, itemID)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check favorite")
	}
	return ok, nil
}

// List returns the user's favorites with item cards, newest first.
func (s *service) List(ctx context.Context, userID uuid.UUID, cursor string, limit int) (FavoritesPageDTO, error) {
	decoded, err := pagination.ParseCursor(strings.TrimSpace(cursor))
	if err != nil {
		return FavoritesPageDTO{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	records, next, err := s.repo.List(ctx, userID, decoded, limit)
	if err != nil {
		return FavoritesPageDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list favorites")
	}

	itemIDs := make([]uuid.UUID, 0, len(records))
	for _, record := range records {
		itemIDs = append(itemIDs, record.ItemID)
	}
	urls, err := s.photos.FirstURLs(ctx, itemIDs)
	if err != nil {
		return FavoritesPageDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load item photos")
	}

	page := FavoritesPageDTO{Favorites: make([]FavoriteDTO, 0, len(records)), NextCursor: next}
	for _, record := range records {
		page.Favorites = append(page.Favorites, record.toDTO(urls[record.ItemID]))
	}
	return page, nil
}
