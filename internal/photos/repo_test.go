package photos

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/feirinha/feirinha-backend/pkg/db"
	"github.com/feirinha/feirinha-backend/pkg/db/dbtest"
	"github.com/feirinha/feirinha-backend/pkg/db/models"
)

func seedPhotos(t *testing.T, repo *Repository, itemID uuid.UUID, positions ...int) []models.ItemPhoto {
	t.Helper()
	rows := make([]models.ItemPhoto, 0, len(positions))
	for _, pos := range positions {
		key := fmt.Sprintf("items/%s/%s.png", itemID, uuid.NewString())
		rows = append(rows, models.ItemPhoto{
			ItemID:    itemID,
			ObjectKey: key,
			URL:       "https://cdn.test/" + key,
			Position:  pos,
		})
	}
	require.NoError(t, repo.CreateBatch(context.Background(), rows))
	return rows
}

func setup(t *testing.T) (*db.Client, *Repository, models.Item) {
	t.Helper()
	client := dbtest.Open(t)
	user := dbtest.SeedUser(t, client)
	category := dbtest.SeedCategory(t, client)
	item := dbtest.SeedItem(t, client, user.ID, category.ID)
	return client, NewRepository(client.DB()), item
}

func positionsOf(rows []models.ItemPhoto) []int {
	out := make([]int, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.Position)
	}
	return out
}

func TestListCountAndMaxPosition(t *testing.T) {
	_, repo, item := setup(t)
	ctx := context.Background()

	max, err := repo.MaxPosition(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, max)

	seedPhotos(t, repo, item.ID, 3, 1, 2)

	rows, err := repo.ListByItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, positionsOf(rows))

	count, err := repo.CountByItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	max, err = repo.MaxPosition(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, max)
}

func TestCreateBatchRejectsDuplicatePosition(t *testing.T) {
	_, repo, item := setup(t)
	seedPhotos(t, repo, item.ID, 1)

	err := repo.CreateBatch(context.Background(), []models.ItemPhoto{{
		ItemID:    item.ID,
		ObjectKey: "items/dup.png",
		URL:       "https://cdn.test/items/dup.png",
		Position:  1,
	}})
	require.Error(t, err)
	assert.True(t, db.IsUniqueViolation(err, ""))
}

func TestFindAndDeleteScopedToItem(t *testing.T) {
	client, repo, item := setup(t)
	other := dbtest.SeedItem(t, client, item.OwnerID, item.CategoryID)
	ctx := context.Background()
	rows := seedPhotos(t, repo, item.ID, 1, 2)

	_, err := repo.FindByID(ctx, other.ID, rows[0].ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, other.ID, rows[0].ID), ErrNotFound)

	found, err := repo.FindByID(ctx, item.ID, rows[0].ID)
	require.NoError(t, err)
	assert.Equal(t, rows[0].ObjectKey, found.ObjectKey)

	require.NoError(t, repo.Delete(ctx, item.ID, rows[0].ID))
	exists, err := repo.ExistsByObjectKey(ctx, rows[0].ObjectKey)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestCompactRenumbersDensely(t *testing.T) {
	client, repo, item := setup(t)
	ctx := context.Background()
	rows := seedPhotos(t, repo, item.ID, 1, 2, 3, 4)

	err := client.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := repo.WithTx(tx)
		if err := txRepo.Delete(ctx, item.ID, rows[1].ID); err != nil {
			return err
		}
		return txRepo.Compact(ctx, item.ID)
	})
	require.NoError(t, err)

	listed, err := repo.ListByItem(ctx, item.ID)
	require.NoError(t, err)
	require.Len(t, listed, 3)
	assert.Equal(t, []int{1, 2, 3}, positionsOf(listed))
	assert.Equal(t, rows[0].ID, listed[0].ID)
	assert.Equal(t, rows[2].ID, listed[1].ID)
	assert.Equal(t, rows[3].ID, listed[2].ID)
}

func TestCompactFullSetUnderPositionCheck(t *testing.T) {
	client, repo, item := setup(t)
	ctx := context.Background()

	err := repo.CreateBatch(ctx, []models.ItemPhoto{{
		ItemID:    item.ID,
		ObjectKey: "items/" + item.ID.String() + "/zero.png",
		URL:       "https://cdn.test/zero.png",
		Position:  0,
	}})
	require.Error(t, err, "positions below 1 must be rejected by the schema")

	rows := seedPhotos(t, repo, item.ID, 1, 2, 3, 4, 5, 6)
	err = client.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := repo.WithTx(tx)
		if err := txRepo.Delete(ctx, item.ID, rows[1].ID); err != nil {
			return err
		}
		return txRepo.Compact(ctx, item.ID)
	})
	require.NoError(t, err)

	listed, err := repo.ListByItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, positionsOf(listed))
	assert.Equal(t, rows[0].ID, listed[0].ID)
	assert.Equal(t, rows[2].ID, listed[1].ID)
	assert.Equal(t, rows[5].ID, listed[4].ID)
}

func TestCompactNoopWhenDense(t *testing.T) {
	_, repo, item := setup(t)
	seedPhotos(t, repo, item.ID, 1, 2)
	require.NoError(t, repo.Compact(context.Background(), item.ID))

	listed, err := repo.ListByItem(context.Background(), item.ID)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, positionsOf(listed))
}

func TestDeleteByItemReturnsRemovedRows(t *testing.T) {
	_, repo, item := setup(t)
	ctx := context.Background()
	seedPhotos(t, repo, item.ID, 1, 2, 3)

	removed, err := repo.DeleteByItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Len(t, removed, 3)

	count, err := repo.CountByItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Zero(t, count)

	removed, err = repo.DeleteByItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Empty(t, removed)
}

func TestFirstURLs(t *testing.T) {
	client, repo, item := setup(t)
	bare := dbtest.SeedItem(t, client, item.OwnerID, item.CategoryID)
	rows := seedPhotos(t, repo, item.ID, 2, 1)

	urls, err := repo.FirstURLs(context.Background(), []uuid.UUID{item.ID, bare.ID})
	require.NoError(t, err)
	assert.Equal(t, rows[1].URL, urls[item.ID])
	_, ok := urls[bare.ID]
	assert.False(t, ok)
}
