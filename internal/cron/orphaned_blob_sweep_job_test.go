package cron

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/feirinha/feirinha-backend/internal/media"
	"github.com/feirinha/feirinha-backend/internal/media/mediatest"
	"github.com/feirinha/feirinha-backend/internal/photos"
	"github.com/feirinha/feirinha-backend/pkg/db/dbtest"
	"github.com/feirinha/feirinha-backend/pkg/db/models"
	"github.com/feirinha/feirinha-backend/pkg/enums"
	"github.com/feirinha/feirinha-backend/pkg/logger"
)

func TestOrphanedBlobSweepJobDeletesUnreferencedBlobs(t *testing.T) {
	client := dbtest.Open(t)
	ctx := context.Background()
	orphans := media.NewOrphanRepository(client.DB())
	ledger := photos.NewRepository(client.DB())
	store := mediatest.NewStore()

	owner := dbtest.SeedUser(t, client)
	category := dbtest.SeedCategory(t, client)
	item := dbtest.SeedItem(t, client, owner.ID, category.ID)

	live := media.ObjectKey(item.ID, uuid.New(), "png")
	dead := media.ObjectKey(item.ID, uuid.New(), "png")
	store.Seed(live)
	store.Seed(dead)
	if err := ledger.CreateBatch(ctx, []models.ItemPhoto{{ItemID: item.ID, ObjectKey: live, URL: store.PublicURL(live), Position: 1}}); err != nil {
		t.Fatalf("seed photo: %v", err)
	}
	for _, key := range []string{live, dead} {
		if err := orphans.Record(ctx, key, enums.OrphanReasonCompensation, errors.New("timeout")); err != nil {
			t.Fatalf("record orphan: %v", err)
		}
	}

	job := newSweepJob(t, orphans, ledger, store)
	if err := job.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if !store.Has(live) {
		t.Fatalf("referenced blob %s must survive the sweep", live)
	}
	if store.Has(dead) {
		t.Fatalf("expected %s to be deleted", dead)
	}
	due, err := orphans.ListDue(ctx, 10, 0)
	if err != nil {
		t.Fatalf("ListDue: %v", err)
	}
	if len(due) != 0 {
		t.Fatalf("expected ledger to be drained, got %d entries", len(due))
	}
}

func TestOrphanedBlobSweepJobKeepsFailedEntries(t *testing.T) {
	client := dbtest.Open(t)
	ctx := context.Background()
	orphans := media.NewOrphanRepository(client.DB())
	store := mediatest.NewStore()
	store.FailDelete = func(string) bool { return true }

	key := "items/" + uuid.NewString() + "/gone.jpg"
	store.Seed(key)
	if err := orphans.Record(ctx, key, enums.OrphanReasonItemDeleted, nil); err != nil {
		t.Fatalf("record orphan: %v", err)
	}

	job := newSweepJob(t, orphans, photos.NewRepository(client.DB()), store)
	if err := job.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}

	due, err := orphans.ListDue(ctx, 10, 0)
	if err != nil {
		t.Fatalf("ListDue: %v", err)
	}
	if len(due) != 1 {
		t.Fatalf("expected entry to stay queued, got %d", len(due))
	}
	if due[0].Attempts != 1 {
		t.Fatalf("expected attempts=1, got %d", due[0].Attempts)
	}
	if due[0].LastError == nil {
		t.Fatal("expected last error to be recorded")
	}
}

func TestOrphanedBlobSweepJobPropagatesListErrors(t *testing.T) {
	job, err := NewOrphanedBlobSweepJob(OrphanedBlobSweepJobParams{
		Logger:  logger.New(logger.Options{ServiceName: "test", Output: &bytes.Buffer{}}),
		Orphans: brokenOrphanLedger{},
		Photos:  noReferences{},
		Store:   mediatest.NewStore(),
	})
	if err != nil {
		t.Fatalf("NewOrphanedBlobSweepJob: %v", err)
	}
	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestNewOrphanedBlobSweepJobRequiresDependencies(t *testing.T) {
	if _, err := NewOrphanedBlobSweepJob(OrphanedBlobSweepJobParams{}); err == nil {
		t.Fatal("expected error without logger")
	}
}

func newSweepJob(t *testing.T, orphans orphanLedger, ledger photoReferenceChecker, store *mediatest.Store) Job {
	t.Helper()
	job, err := NewOrphanedBlobSweepJob(OrphanedBlobSweepJobParams{
		Logger:      logger.New(logger.Options{ServiceName: "test", Output: &bytes.Buffer{}}),
		Orphans:     orphans,
		Photos:      ledger,
		Store:       store,
		MaxAttempts: 3,
	})
	if err != nil {
		t.Fatalf("NewOrphanedBlobSweepJob: %v", err)
	}
	if job.Name() != "orphaned-blob-sweep" {
		t.Fatalf("unexpected job name %q", job.Name())
	}
	return job
}

type brokenOrphanLedger struct{}

func (brokenOrphanLedger) ListDue(context.Context, int, int) ([]models.OrphanedBlob, error) {
	return nil, errors.New("db down")
}

func (brokenOrphanLedger) Resolve(context.Context, uuid.UUID) error { return nil }

func (brokenOrphanLedger) MarkFailed(context.Context, uuid.UUID, error) error { return nil }

type noReferences struct{}

func (noReferences) ExistsByObjectKey(context.Context, string) (bool, error) { return false, nil }
