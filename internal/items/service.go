// Package items coordinates item listings and their photo sets, keeping the
// photo ledger and the object store in agreement.
package items

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/feirinha/feirinha-backend/internal/cities"
	"github.com/feirinha/feirinha-backend/internal/media"
	"github.com/feirinha/feirinha-backend/internal/photos"
	"github.com/feirinha/feirinha-backend/pkg/db"
	"github.com/feirinha/feirinha-backend/pkg/db/models"
	"github.com/feirinha/feirinha-backend/pkg/enums"
	pkgerrors "github.com/feirinha/feirinha-backend/pkg/errors"
	"github.com/feirinha/feirinha-backend/pkg/events"
	"github.com/feirinha/feirinha-backend/pkg/lock"
	"github.com/feirinha/feirinha-backend/pkg/logger"
	"github.com/feirinha/feirinha-backend/pkg/metrics"
)

const (
	opCreate      = "create"
	opAppend      = "append"
	opReplace     = "replace"
	opDeletePhoto = "delete_photo"
	opDeleteItem  = "delete_item"
)

const lockReleaseTimeout = 5 * time.Second

// Service exposes item and photo-set operations.
type Service interface {
	CreateItem(ctx context.Context, ownerID uuid.UUID, input CreateItemInput) (*ItemView, error)
	GetItem(ctx context.Context, viewerID, itemID uuid.UUID) (*ItemView, error)
	UpdateItem(ctx context.Context, ownerID, itemID uuid.UUID, input UpdateItemInput) (*ItemView, error)
	DeleteItem(ctx context.Context, ownerID, itemID uuid.UUID) error
	ListPhotos(ctx context.Context, ownerID, itemID uuid.UUID) ([]PhotoView, error)
	AppendPhotos(ctx context.Context, ownerID, itemID uuid.UUID, uploads []media.Upload) ([]PhotoView, error)
	ReplacePhotos(ctx context.Context, ownerID, itemID uuid.UUID, uploads []media.Upload) ([]PhotoView, error)
	DeletePhoto(ctx context.Context, ownerID, itemID, photoID uuid.UUID) error
}

type itemLocker interface {
	Obtain(ctx context.Context, id string) (lock.Lock, error)
}

// ServiceParams groups dependencies for the item service.
type ServiceParams struct {
	DB        *db.Client
	Items     *Repository
	Photos    *photos.Repository
	Cities    *cities.Repository
	Validator *media.Validator
	Stager    *media.Stager
	Locker    itemLocker
	Publisher events.Publisher
	Logger    *logger.Logger
	Metrics   *metrics.PhotoSetMetrics
}

type service struct {
	db        *db.Client
	items     *Repository
	photos    *photos.Repository
	cities    *cities.Repository
	validator *media.Validator
	stager    *media.Stager
	locker    itemLocker
	publisher events.Publisher
	logg      *logger.Logger
	metrics   *metrics.PhotoSetMetrics
}

// NewService builds the item service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.DB == nil:
		return nil, fmt.Errorf("db client required")
	case params.Items == nil:
		return nil, fmt.Errorf("item repository required")
	case params.Photos == nil:
		return nil, fmt.Errorf("photo repository required")
	case params.Cities == nil:
		return nil, fmt.Errorf("city repository required")
	case params.Validator == nil:
		return nil, fmt.Errorf("photo validator required")
	case params.Stager == nil:
		return nil, fmt.Errorf("photo stager required")
	case params.Locker == nil:
		return nil, fmt.Errorf("item locker required")
	case params.Logger == nil:
		return nil, fmt.Errorf("logger required")
	}
	publisher := params.Publisher
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &service{
		db:        params.DB,
		items:     params.Items,
		photos:    params.Photos,
		cities:    params.Cities,
		validator: params.Validator,
		stager:    params.Stager,
		locker:    params.Locker,
		publisher: publisher,
		logg:      params.Logger,
		metrics:   params.Metrics,
	}, nil
}

// CreateItem validates attributes and photos, uploads the photos and persists
// the item with its ledger rows in one transaction. On failure nothing
// survives: uploaded blobs are compensated.
func (s *service) CreateItem(ctx context.Context, ownerID uuid.UUID, input CreateItemInput) (*ItemView, error) {
	item, categoryID, err := newItemFromInput(ownerID, input)
	if err != nil {
		return nil, err
	}
	if _, _, _, err := cities.Normalize(input.CityName, input.CityState); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, err.Error()).WithDetails(map[string]string{"city_name": err.Error()})
	}
	if err := media.CheckCapacity(0, len(input.Photos)); err != nil {
		return nil, err
	}
	prepared, err := s.validator.Validate(input.Photos)
	if err != nil {
		return nil, err
	}
	if err := s.ensureCategory(ctx, categoryID); err != nil {
		return nil, err
	}

	item.ID = uuid.New()
	ctx = s.logg.WithItemID(ctx, item.ID.String())
	s.logState(ctx, opCreate, enums.PhotoSetStatePending, len(prepared))

	staged, err := s.stager.Stage(ctx, item.ID, prepared)
	if err != nil {
		s.abort(ctx, opCreate, err)
		return nil, uploadFailure(err)
	}

	var (
		rows []models.ItemPhoto
		city *models.City
	)
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		resolved, err := s.cities.WithTx(tx).ResolveOrCreate(ctx, input.CityName, input.CityState)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve city")
		}
		if resolved != nil {
			item.CityID = &resolved.ID
			city = resolved
		}
		if err := s.items.WithTx(tx).Create(ctx, item); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert item")
		}
		rows = ledgerRows(item.ID, staged, 1)
		if err := s.photos.WithTx(tx).CreateBatch(ctx, rows); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert photos")
		}
		return nil
	})
	if err != nil {
		s.compensate(ctx, staged)
		s.abort(ctx, opCreate, err)
		return nil, asAppError(err, "create item")
	}

	s.commit(ctx, opCreate, item, rows)
	return s.loadView(ctx, item, city)
}

// GetItem returns an item with its ordered photos. Inactive items are visible
// to their owner only.
func (s *service) GetItem(ctx context.Context, viewerID, itemID uuid.UUID) (*ItemView, error) {
	item, err := s.items.FindByID(ctx, itemID)
	if err != nil {
		return nil, notFoundOr(err, "item not found", "load item")
	}
	if item.ListingState != enums.ListingStateActive && item.OwnerID != viewerID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
	}
	return s.loadView(ctx, item, nil)
}

// UpdateItem applies attribute changes and, when photos are supplied or
// cleared, replaces the photo set in the same transaction.
func (s *service) UpdateItem(ctx context.Context, ownerID, itemID uuid.UUID, input UpdateItemInput) (*ItemView, error) {
	item, err := s.items.FindOwned(ctx, ownerID, itemID)
	if err != nil {
		return nil, notFoundOr(err, "item not found", "load item")
	}
	categoryID, err := applyUpdateInput(item, input)
	if err != nil {
		return nil, err
	}
	cityName, cityState := derefString(input.CityName), derefString(input.CityState)
	if _, _, _, err := cities.Normalize(cityName, cityState); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, err.Error()).WithDetails(map[string]string{"city_name": err.Error()})
	}
	if categoryID != nil {
		if err := s.ensureCategory(ctx, *categoryID); err != nil {
			return nil, err
		}
	}

	// The row is re-read under the item lock so concurrent updates never
	// overwrite each other's fields with a stale copy.
	var city *models.City
	apply := func(tx *gorm.DB) error {
		fresh, err := s.items.WithTx(tx).FindOwned(ctx, ownerID, itemID)
		if err != nil {
			return notFoundOr(err, "item not found", "load item")
		}
		if _, err := applyUpdateInput(fresh, input); err != nil {
			return err
		}
		if city, err = s.applyCity(ctx, tx, fresh, cityName, cityState); err != nil {
			return err
		}
		if err := s.saveItem(ctx, tx, fresh); err != nil {
			return err
		}
		item = fresh
		return nil
	}

	if !input.replacesPhotos() {
		release, err := s.obtain(s.logg.WithItemID(ctx, item.ID.String()), item.ID)
		if err != nil {
			return nil, err
		}
		defer release()
		if err := s.db.WithTx(ctx, apply); err != nil {
			return nil, asAppError(err, "update item")
		}
		return s.loadView(ctx, item, city)
	}

	if _, err := s.replace(ctx, item, input.Photos, apply); err != nil {
		return nil, err
	}
	return s.loadView(ctx, item, city)
}

// ReplacePhotos swaps the whole photo set for uploads. An empty batch clears it.
func (s *service) ReplacePhotos(ctx context.Context, ownerID, itemID uuid.UUID, uploads []media.Upload) ([]PhotoView, error) {
	item, err := s.items.FindOwned(ctx, ownerID, itemID)
	if err != nil {
		return nil, notFoundOr(err, "item not found", "load item")
	}
	rows, err := s.replace(ctx, item, uploads, func(tx *gorm.DB) error {
		return s.items.WithTx(tx).Touch(ctx, item.ID)
	})
	if err != nil {
		return nil, err
	}
	return newPhotoViews(rows), nil
}

// replace uploads the new batch, then swaps ledger rows inside one
// transaction together with extra, then deletes the previous blobs.
func (s *service) replace(ctx context.Context, item *models.Item, uploads []media.Upload, extra func(tx *gorm.DB) error) ([]models.ItemPhoto, error) {
	if err := media.CheckCapacity(0, len(uploads)); err != nil {
		return nil, err
	}
	prepared, err := s.validator.Validate(uploads)
	if err != nil {
		return nil, err
	}

	ctx = s.logg.WithItemID(ctx, item.ID.String())
	release, err := s.obtain(ctx, item.ID)
	if err != nil {
		return nil, err
	}
	defer release()

	s.logState(ctx, opReplace, enums.PhotoSetStatePending, len(prepared))
	staged, err := s.stager.Stage(ctx, item.ID, prepared)
	if err != nil {
		s.abort(ctx, opReplace, err)
		return nil, uploadFailure(err)
	}

	var previous, rows []models.ItemPhoto
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		txPhotos := s.photos.WithTx(tx)
		var err error
		if _, err = s.items.WithTx(tx).FindOwned(ctx, item.OwnerID, item.ID); err != nil {
			return notFoundOr(err, "item not found", "load item")
		}
		if previous, err = txPhotos.DeleteByItem(ctx, item.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete photos")
		}
		rows = ledgerRows(item.ID, staged, 1)
		if err := txPhotos.CreateBatch(ctx, rows); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert photos")
		}
		if extra != nil {
			return extra(tx)
		}
		return nil
	})
	if err != nil {
		s.compensate(ctx, staged)
		s.abort(ctx, opReplace, err)
		return nil, asAppError(err, "replace photos")
	}

	s.commit(ctx, opReplace, item, rows)
	s.discard(ctx, objectKeys(previous), enums.OrphanReasonPhotoReplaced)
	return rows, nil
}

// AppendPhotos adds uploads after the current last position.
func (s *service) AppendPhotos(ctx context.Context, ownerID, itemID uuid.UUID, uploads []media.Upload) ([]PhotoView, error) {
	if len(uploads) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "photos: at least one photo is required").
			WithDetails(map[string]string{"photos": "at least one photo is required"})
	}
	item, err := s.items.FindOwned(ctx, ownerID, itemID)
	if err != nil {
		return nil, notFoundOr(err, "item not found", "load item")
	}
	if err := media.CheckCapacity(0, len(uploads)); err != nil {
		return nil, err
	}
	prepared, err := s.validator.Validate(uploads)
	if err != nil {
		return nil, err
	}

	ctx = s.logg.WithItemID(ctx, item.ID.String())
	release, err := s.obtain(ctx, item.ID)
	if err != nil {
		return nil, err
	}
	defer release()

	existing, err := s.photos.CountByItem(ctx, item.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count photos")
	}
	if err := media.CheckCapacity(existing, len(prepared)); err != nil {
		return nil, err
	}

	s.logState(ctx, opAppend, enums.PhotoSetStatePending, len(prepared))
	staged, err := s.stager.Stage(ctx, item.ID, prepared)
	if err != nil {
		s.abort(ctx, opAppend, err)
		return nil, uploadFailure(err)
	}

	var rows []models.ItemPhoto
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		txPhotos := s.photos.WithTx(tx)
		count, err := txPhotos.CountByItem(ctx, item.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: count photos")
		}
		if err := media.CheckCapacity(count, len(staged)); err != nil {
			return err
		}
		maxPosition, err := txPhotos.MaxPosition(ctx, item.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: max position")
		}
		rows = ledgerRows(item.ID, staged, maxPosition+1)
		if err := txPhotos.CreateBatch(ctx, rows); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert photos")
		}
		return s.items.WithTx(tx).Touch(ctx, item.ID)
	})
	if err != nil {
		s.compensate(ctx, staged)
		s.abort(ctx, opAppend, err)
		return nil, asAppError(err, "append photos")
	}

	s.commit(ctx, opAppend, item, rows)
	return newPhotoViews(rows), nil
}

// DeletePhoto removes one photo, closes the gap in positions and then deletes
// the blob best-effort.
func (s *service) DeletePhoto(ctx context.Context, ownerID, itemID, photoID uuid.UUID) error {
	item, err := s.items.FindOwned(ctx, ownerID, itemID)
	if err != nil {
		return notFoundOr(err, "photo not found", "load item")
	}

	ctx = s.logg.WithItemID(ctx, item.ID.String())
	release, err := s.obtain(ctx, item.ID)
	if err != nil {
		return err
	}
	defer release()

	var removed *models.ItemPhoto
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		txPhotos := s.photos.WithTx(tx)
		photo, err := txPhotos.FindByID(ctx, item.ID, photoID)
		if err != nil {
			return notFoundOr(err, "photo not found", "db: load photo")
		}
		if err := txPhotos.Delete(ctx, item.ID, photoID); err != nil {
			return notFoundOr(err, "photo not found", "db: delete photo")
		}
		if err := txPhotos.Compact(ctx, item.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: renumber photos")
		}
		removed = photo
		return s.items.WithTx(tx).Touch(ctx, item.ID)
	})
	if err != nil {
		s.abort(ctx, opDeletePhoto, err)
		return asAppError(err, "delete photo")
	}

	s.metrics.Outcome(opDeletePhoto, enums.PhotoSetStateCommitted.String())
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"operation":       opDeletePhoto,
		"photo_set_state": enums.PhotoSetStateCommitted.String(),
		"photo_id":        photoID.String(),
	}), "photo set updated")
	s.discard(ctx, []string{removed.ObjectKey}, enums.OrphanReasonPhotoDeleted)
	s.publish(ctx, events.SubjectPhotoDeleted, events.PhotoDeleted{
		ItemID:     item.ID,
		PhotoID:    photoID,
		OccurredAt: time.Now().UTC(),
	})
	return nil
}

// DeleteItem removes the item with its favorites and photo rows, then deletes
// the blobs best-effort. Blob failures never fail the call.
func (s *service) DeleteItem(ctx context.Context, ownerID, itemID uuid.UUID) error {
	item, err := s.items.FindOwned(ctx, ownerID, itemID)
	if err != nil {
		return notFoundOr(err, "item not found", "load item")
	}

	ctx = s.logg.WithItemID(ctx, item.ID.String())
	release, err := s.obtain(ctx, item.ID)
	if err != nil {
		return err
	}
	defer release()

	var removed []models.ItemPhoto
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		txItems := s.items.WithTx(tx)
		if err := txItems.DeleteFavorites(ctx, item.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete favorites")
		}
		var err error
		if removed, err = s.photos.WithTx(tx).DeleteByItem(ctx, item.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete photos")
		}
		if err := txItems.Delete(ctx, item.ID); err != nil {
			return notFoundOr(err, "item not found", "db: delete item")
		}
		return nil
	})
	if err != nil {
		s.abort(ctx, opDeleteItem, err)
		return asAppError(err, "delete item")
	}

	s.metrics.Outcome(opDeleteItem, enums.PhotoSetStateCommitted.String())
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"operation":       opDeleteItem,
		"photo_set_state": enums.PhotoSetStateCommitted.String(),
		"photos":          len(removed),
	}), "item deleted")
	s.discard(ctx, objectKeys(removed), enums.OrphanReasonItemDeleted)
	s.publish(ctx, events.SubjectItemDeleted, events.ItemDeleted{
		ItemID:     item.ID,
		OwnerID:    item.OwnerID,
		PhotoCount: len(removed),
		OccurredAt: time.Now().UTC(),
	})
	return nil
}

// ListPhotos returns the owner's photos in position order.
func (s *service) ListPhotos(ctx context.Context, ownerID, itemID uuid.UUID) ([]PhotoView, error) {
	if _, err := s.items.FindOwned(ctx, ownerID, itemID); err != nil {
		return nil, notFoundOr(err, "item not found", "load item")
	}
	rows, err := s.photos.ListByItem(ctx, itemID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list photos")
	}
	return newPhotoViews(rows), nil
}

func (s *service) ensureCategory(ctx context.Context, id uuid.UUID) error {
	ok, err := s.items.CategoryExists(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load category")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeValidation, "category_id: unknown category").
			WithDetails(map[string]string{"category_id": "unknown category"})
	}
	return nil
}

// applyCity resolves the requested city inside tx. With no city input the
// current one is kept and returned.
func (s *service) applyCity(ctx context.Context, tx *gorm.DB, item *models.Item, name, state string) (*models.City, error) {
	txCities := s.cities.WithTx(tx)
	resolved, err := txCities.ResolveOrCreate(ctx, name, state)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve city")
	}
	if resolved != nil {
		item.CityID = &resolved.ID
		return resolved, nil
	}
	if item.CityID == nil {
		return nil, nil
	}
	city, err := txCities.FindByID(ctx, *item.CityID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load city")
	}
	return city, nil
}

func (s *service) saveItem(ctx context.Context, tx *gorm.DB, item *models.Item) error {
	item.UpdatedAt = time.Now().UTC()
	if err := s.items.WithTx(tx).Update(ctx, item); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update item")
	}
	return nil
}

func (s *service) loadView(ctx context.Context, item *models.Item, city *models.City) (*ItemView, error) {
	rows, err := s.photos.ListByItem(ctx, item.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list photos")
	}
	if city == nil && item.CityID != nil {
		city, err = s.cities.FindByID(ctx, *item.CityID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load city")
		}
	}
	return newItemView(item, city, rows), nil
}

// obtain takes the per-item lock and returns its release func. A lock that
// stays busy past the wait window surfaces as CONFLICT.
func (s *service) obtain(ctx context.Context, itemID uuid.UUID) (func(), error) {
	lk, err := s.locker.Obtain(ctx, itemID.String())
	if err != nil {
		if errors.Is(err, lock.ErrNotAcquired) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "item is being modified by another request; retry shortly")
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, ctxErr, "request canceled while waiting for item lock")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "obtain item lock")
	}
	return func() {
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), lockReleaseTimeout)
		defer cancel()
		if err := lk.Release(releaseCtx); err != nil {
			s.logg.WarnErr(ctx, "failed to release item lock", err)
		}
	}, nil
}

func (s *service) compensate(ctx context.Context, staged []media.StagedBlob) {
	s.discard(ctx, media.Keys(staged), enums.OrphanReasonCompensation)
}

// discard deletes blobs that no committed row references. Failures are
// already recorded for the sweep, so they only get logged here.
func (s *service) discard(ctx context.Context, keys []string, reason enums.OrphanReason) {
	if len(keys) == 0 {
		return
	}
	if err := s.stager.Discard(ctx, keys, reason); err != nil {
		s.logg.WarnErr(s.logg.WithField(ctx, "reason", reason.String()), "blob cleanup left orphans", err)
	}
}

func (s *service) logState(ctx context.Context, operation string, state enums.PhotoSetState, photoCount int) {
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"operation":       operation,
		"photo_set_state": state.String(),
		"photos":          photoCount,
	}), "photo set "+state.String())
}

func (s *service) abort(ctx context.Context, operation string, cause error) {
	s.metrics.Outcome(operation, enums.PhotoSetStateAborted.String())
	s.logg.WarnErr(s.logg.WithFields(ctx, map[string]any{
		"operation":       operation,
		"photo_set_state": enums.PhotoSetStateAborted.String(),
	}), "photo set aborted", cause)
}

func (s *service) commit(ctx context.Context, operation string, item *models.Item, rows []models.ItemPhoto) {
	s.metrics.Outcome(operation, enums.PhotoSetStateCommitted.String())
	s.logState(ctx, operation, enums.PhotoSetStateCommitted, len(rows))

	refs := make([]events.PhotoRef, 0, len(rows))
	for _, row := range rows {
		refs = append(refs, events.PhotoRef{ID: row.ID, Position: row.Position, URL: row.URL})
	}
	s.publish(ctx, events.SubjectPhotoSetCommitted, events.PhotoSetCommitted{
		ItemID:     item.ID,
		OwnerID:    item.OwnerID,
		Operation:  operation,
		Photos:     refs,
		OccurredAt: time.Now().UTC(),
	})
}

func (s *service) publish(ctx context.Context, subject string, payload any) {
	if err := s.publisher.Publish(ctx, subject, payload); err != nil {
		s.logg.WarnErr(s.logg.WithField(ctx, "subject", subject), "failed to publish event", err)
	}
}

func ledgerRows(itemID uuid.UUID, staged []media.StagedBlob, firstPosition int) []models.ItemPhoto {
	rows := make([]models.ItemPhoto, 0, len(staged))
	now := time.Now().UTC()
	for i, blob := range staged {
		rows = append(rows, models.ItemPhoto{
			ID:        uuid.New(),
			ItemID:    itemID,
			ObjectKey: blob.Key,
			URL:       blob.URL,
			Position:  firstPosition + i,
			CreatedAt: now,
		})
	}
	return rows
}

func objectKeys(rows []models.ItemPhoto) []string {
	keys := make([]string, 0, len(rows))
	for _, row := range rows {
		keys = append(keys, row.ObjectKey)
	}
	return keys
}

// uploadFailure reports a failed upload as a validation problem on that photo.
func uploadFailure(err error) error {
	var uploadErr *media.UploadError
	if errors.As(err, &uploadErr) {
		field := fmt.Sprintf("photos[%d]", uploadErr.Index)
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, field+": upload failed").
			WithDetails(map[string]string{field: fmt.Sprintf("upload of %s failed", uploadErr.FileName)})
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upload photos")
}

func notFoundOr(err error, notFoundMsg, dependencyMsg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, photos.ErrNotFound) {
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, notFoundMsg)
	}
	if pkgerrors.As(err) != nil {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, dependencyMsg)
}

func asAppError(err error, msg string) error {
	if pkgerrors.As(err) != nil {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, msg)
}

func derefString(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
