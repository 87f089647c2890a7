package media

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feirinha/feirinha-backend/internal/media/mediatest"
	"github.com/feirinha/feirinha-backend/pkg/enums"
	"github.com/feirinha/feirinha-backend/pkg/logger"
)

type recordedOrphan struct {
	key    string
	reason enums.OrphanReason
}

type memoryOrphans struct {
	mu      sync.Mutex
	records []recordedOrphan
}

func (m *memoryOrphans) Record(_ context.Context, key string, reason enums.OrphanReason, _ error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, recordedOrphan{key: key, reason: reason})
	return nil
}

func newTestStager(t *testing.T, store *mediatest.Store, orphans *memoryOrphans) *Stager {
	t.Helper()
	stager, err := NewStager(StagerParams{
		Store:       store,
		Orphans:     orphans,
		Logger:      logger.New(logger.Options{ServiceName: "test", Output: &bytes.Buffer{}}),
		Concurrency: 2,
	})
	require.NoError(t, err)
	return stager
}

func preparedBatch(t *testing.T, n int) []Prepared {
	t.Helper()
	batch := make([]Prepared, n)
	for i := range batch {
		batch[i] = Prepared{
			Index:       i,
			FileName:    "photo.png",
			Ext:         ".png",
			ContentType: "image/png",
			Data:        mediatest.PNG(t),
		}
	}
	return batch
}

func TestStageUploadsInInputOrder(t *testing.T) {
	store := mediatest.NewStore()
	stager := newTestStager(t, store, &memoryOrphans{})
	itemID := uuid.New()

	staged, err := stager.Stage(context.Background(), itemID, preparedBatch(t, 3))
	require.NoError(t, err)
	require.Len(t, staged, 3)

	for i, blob := range staged {
		assert.Equal(t, i, blob.Index)
		assert.True(t, strings.HasPrefix(blob.Key, ItemPrefix(itemID)))
		assert.True(t, strings.HasSuffix(blob.Key, ".png"))
		assert.Equal(t, store.PublicURL(blob.Key), blob.URL)
		assert.True(t, store.Has(blob.Key))
	}
	assert.Len(t, store.Keys(), 3)
}

func TestStageFailureRemovesEveryAttemptedBlob(t *testing.T) {
	store := mediatest.NewStore()
	store.FailPut = func(n int, _ string) bool { return n == 2 }
	orphans := &memoryOrphans{}
	stager := newTestStager(t, store, orphans)
	itemID := uuid.New()

	staged, err := stager.Stage(context.Background(), itemID, preparedBatch(t, 3))
	require.Error(t, err)
	assert.Nil(t, staged)

	var uploadErr *UploadError
	require.ErrorAs(t, err, &uploadErr)
	assert.Equal(t, "photo.png", uploadErr.FileName)

	assert.Empty(t, store.KeysWithPrefix(ItemPrefix(itemID)))
	assert.Len(t, store.Deleted(), 3)
	assert.Empty(t, orphans.records)
}

func TestStageCompensatesAfterCallerCancellation(t *testing.T) {
	store := mediatest.NewStore()
	ctx, cancel := context.WithCancel(context.Background())
	store.FailPut = func(n int, _ string) bool {
		if n == 1 {
			cancel()
			return true
		}
		return false
	}
	stager := newTestStager(t, store, &memoryOrphans{})
	itemID := uuid.New()

	_, err := stager.Stage(ctx, itemID, preparedBatch(t, 2))
	require.Error(t, err)
	assert.Empty(t, store.KeysWithPrefix(ItemPrefix(itemID)))
}

func TestDiscardRecordsUndeletableBlobs(t *testing.T) {
	store := mediatest.NewStore()
	store.Seed("items/a/1.png")
	store.Seed("items/a/2.png")
	store.FailDelete = func(key string) bool { return key == "items/a/2.png" }
	orphans := &memoryOrphans{}
	stager := newTestStager(t, store, orphans)

	err := stager.Discard(context.Background(), []string{"items/a/1.png", "items/a/2.png"}, enums.OrphanReasonPhotoDeleted)
	require.Error(t, err)

	assert.False(t, store.Has("items/a/1.png"))
	require.Len(t, orphans.records, 1)
	assert.Equal(t, recordedOrphan{key: "items/a/2.png", reason: enums.OrphanReasonPhotoDeleted}, orphans.records[0])
}

func TestDiscardNoKeys(t *testing.T) {
	stager := newTestStager(t, mediatest.NewStore(), &memoryOrphans{})
	require.NoError(t, stager.Discard(context.Background(), nil, enums.OrphanReasonCompensation))
}

func TestNewStagerRequiresDependencies(t *testing.T) {
	_, err := NewStager(StagerParams{})
	require.Error(t, err)
}
