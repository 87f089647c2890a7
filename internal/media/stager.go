package media

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/feirinha/feirinha-backend/pkg/enums"
	"github.com/feirinha/feirinha-backend/pkg/logger"
	"github.com/feirinha/feirinha-backend/pkg/metrics"
	"github.com/feirinha/feirinha-backend/pkg/storage"
)

const (
	defaultUploadConcurrency  = 4
	defaultCompensationWindow = 30 * time.Second
)

type orphanRecorder interface {
	Record(ctx context.Context, key string, reason enums.OrphanReason, cause error) error
}

// StagedBlob is an uploaded object not yet referenced by a committed ledger row.
type StagedBlob struct {
	Index       int
	Key         string
	URL         string
	ContentType string
}

// UploadError names the photo whose upload failed.
type UploadError struct {
	Index    int
	FileName string
	Err      error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("photos[%d] (%s): upload failed: %v", e.Index, e.FileName, e.Err)
}

func (e *UploadError) Unwrap() error {
	return e.Err
}

// StagerParams wire the stager.
type StagerParams struct {
	Store              storage.ObjectStore
	Orphans            orphanRecorder
	Logger             *logger.Logger
	Metrics            *metrics.PhotoSetMetrics
	Concurrency        int
	CompensationWindow time.Duration
}

// Stager uploads photo batches and undoes them when a batch cannot be kept.
type Stager struct {
	store              storage.ObjectStore
	orphans            orphanRecorder
	logg               *logger.Logger
	metrics            *metrics.PhotoSetMetrics
	concurrency        int
	compensationWindow time.Duration
}

// NewStager validates dependencies and applies defaults.
func NewStager(params StagerParams) (*Stager, error) {
	if params.Store == nil {
		return nil, errors.New("object store required")
	}
	if params.Orphans == nil {
		return nil, errors.New("orphan repository required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger required")
	}
	concurrency := params.Concurrency
	if concurrency <= 0 {
		concurrency = defaultUploadConcurrency
	}
	window := params.CompensationWindow
	if window <= 0 {
		window = defaultCompensationWindow
	}
	return &Stager{
		store:              params.Store,
		orphans:            params.Orphans,
		logg:               params.Logger,
		metrics:            params.Metrics,
		concurrency:        concurrency,
		compensationWindow: window,
	}, nil
}

// Stage uploads every prepared payload concurrently and returns the blobs in
// input order. If any upload fails, every key this call attempted is deleted
// before the first failure is returned as an *UploadError.
func (s *Stager) Stage(ctx context.Context, itemID uuid.UUID, prepared []Prepared) ([]StagedBlob, error) {
	if len(prepared) == 0 {
		return nil, nil
	}

	staged := make([]StagedBlob, len(prepared))
	for i, p := range prepared {
		staged[i] = StagedBlob{
			Index:       p.Index,
			Key:         ObjectKey(itemID, uuid.New(), p.Ext),
			ContentType: p.ContentType,
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i := range prepared {
		i := i
		g.Go(func() error {
			url, err := s.store.Put(gctx, staged[i].Key, prepared[i].Data, prepared[i].ContentType)
			if err != nil {
				return &UploadError{Index: prepared[i].Index, FileName: prepared[i].FileName, Err: err}
			}
			staged[i].URL = url
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		// A failed or canceled Put may still have written the object, so every
		// attempted key is compensated, not only the confirmed ones.
		_ = s.Discard(ctx, Keys(staged), enums.OrphanReasonCompensation)
		return nil, err
	}
	return staged, nil
}

// Discard deletes keys best-effort on a context detached from caller
// cancellation. Keys that cannot be deleted are recorded for the sweep job.
// The returned error only summarizes what was recorded; callers log it.
func (s *Stager) Discard(ctx context.Context, keys []string, reason enums.OrphanReason) error {
	if len(keys) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.compensationWindow)
	defer cancel()

	var combined error
	orphaned := 0
	for _, key := range keys {
		delErr := s.store.Delete(ctx, key)
		if delErr == nil {
			continue
		}
		combined = multierr.Append(combined, delErr)
		orphaned++
		s.metrics.Orphaned(reason.String())

		logCtx := s.logg.WithFields(ctx, map[string]any{"object_key": key, "reason": reason.String()})
		s.logg.WarnErr(logCtx, "blob delete failed; recorded for sweep", delErr)
		if recErr := s.orphans.Record(ctx, key, reason, delErr); recErr != nil {
			combined = multierr.Append(combined, fmt.Errorf("record orphan %s: %w", key, recErr))
			s.logg.Error(logCtx, "failed to record orphaned blob", recErr)
		}
	}

	if orphaned > 0 {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"reason":   reason.String(),
			"keys":     len(keys),
			"orphaned": orphaned,
		})
		s.logg.Warn(logCtx, "blob cleanup incomplete")
	}
	return combined
}

// Keys lists the object keys of staged blobs.
func Keys(staged []StagedBlob) []string {
	keys := make([]string, 0, len(staged))
	for _, blob := range staged {
		keys = append(keys, blob.Key)
	}
	return keys
}
