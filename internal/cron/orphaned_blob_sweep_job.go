package cron

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/feirinha/feirinha-backend/pkg/db/models"
	"github.com/feirinha/feirinha-backend/pkg/logger"
	"github.com/feirinha/feirinha-backend/pkg/storage"
)

const (
	defaultOrphanBatchSize   = 200
	defaultOrphanMaxAttempts = 10
)

type OrphanedBlobSweepJobParams struct {
	Logger      *logger.Logger
	Orphans     orphanLedger
	Photos      photoReferenceChecker
	Store       storage.ObjectStore
	BatchSize   int
	MaxAttempts int
}

type orphanLedger interface {
	ListDue(ctx context.Context, limit, maxAttempts int) ([]models.OrphanedBlob, error)
	Resolve(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, cause error) error
}

type photoReferenceChecker interface {
	ExistsByObjectKey(ctx context.Context, key string) (bool, error)
}

func NewOrphanedBlobSweepJob(params OrphanedBlobSweepJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Orphans == nil {
		return nil, fmt.Errorf("orphan ledger required")
	}
	if params.Photos == nil {
		return nil, fmt.Errorf("photo ledger required")
	}
	if params.Store == nil {
		return nil, fmt.Errorf("object store required")
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = defaultOrphanBatchSize
	}
	maxAttempts := params.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultOrphanMaxAttempts
	}
	return &orphanedBlobSweepJob{
		logg:        params.Logger,
		orphans:     params.Orphans,
		photos:      params.Photos,
		store:       params.Store,
		batchSize:   batch,
		maxAttempts: maxAttempts,
	}, nil
}

type orphanedBlobSweepJob struct {
	logg        *logger.Logger
	orphans     orphanLedger
	photos      photoReferenceChecker
	store       storage.ObjectStore
	batchSize   int
	maxAttempts int
}

func (j *orphanedBlobSweepJob) Name() string { return "orphaned-blob-sweep" }

func (j *orphanedBlobSweepJob) Run(ctx context.Context) error {
	due, err := j.orphans.ListDue(ctx, j.batchSize, j.maxAttempts)
	if err != nil {
		return fmt.Errorf("list orphaned blobs: %w", err)
	}

	var (
		deleted    int
		referenced int
		failed     int
		bookkeep   error
	)
	for _, entry := range due {
		// A key can be recorded and later end up referenced again by a
		// committed photo set. Deleting it then would break a live photo.
		inUse, err := j.photos.ExistsByObjectKey(ctx, entry.ObjectKey)
		if err != nil {
			bookkeep = multierr.Append(bookkeep, fmt.Errorf("check %s: %w", entry.ObjectKey, err))
			continue
		}
		if inUse {
			referenced++
			bookkeep = multierr.Append(bookkeep, j.orphans.Resolve(ctx, entry.ID))
			continue
		}

		if delErr := j.store.Delete(ctx, entry.ObjectKey); delErr != nil {
			failed++
			entryCtx := j.logg.WithFields(ctx, map[string]any{
				"object_key": entry.ObjectKey,
				"attempts":   entry.Attempts + 1,
				"reason":     entry.Reason,
			})
			if entry.Attempts+1 >= j.maxAttempts {
				j.logg.Error(entryCtx, "orphaned blob exceeded retry budget", delErr)
			} else {
				j.logg.WarnErr(entryCtx, "orphaned blob delete failed", delErr)
			}
			bookkeep = multierr.Append(bookkeep, j.orphans.MarkFailed(ctx, entry.ID, delErr))
			continue
		}
		deleted++
		bookkeep = multierr.Append(bookkeep, j.orphans.Resolve(ctx, entry.ID))
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"candidates":       len(due),
		"blobs_deleted":    deleted,
		"still_referenced": referenced,
		"delete_failures":  failed,
	})
	j.logg.Info(logCtx, "orphaned blob sweep complete")

	if bookkeep != nil {
		return fmt.Errorf("orphaned blob sweep: %w", bookkeep)
	}
	return nil
}
