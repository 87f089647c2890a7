package media

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feirinha/feirinha-backend/pkg/db/dbtest"
	"github.com/feirinha/feirinha-backend/pkg/enums"
)

func TestOrphanRepositoryLifecycle(t *testing.T) {
	client := dbtest.Open(t)
	repo := NewOrphanRepository(client.DB())
	ctx := context.Background()

	require.NoError(t, repo.Record(ctx, "items/x/1.png", enums.OrphanReasonCompensation, errors.New("timeout")))
	require.NoError(t, repo.Record(ctx, "items/x/2.png", enums.OrphanReasonItemDeleted, nil))
	// Recording the same key again updates it in place.
	require.NoError(t, repo.Record(ctx, "items/x/1.png", enums.OrphanReasonPhotoReplaced, errors.New("again")))

	due, err := repo.ListDue(ctx, 10, 3)
	require.NoError(t, err)
	require.Len(t, due, 2)

	byKey := map[string]int{}
	for i, row := range due {
		byKey[row.ObjectKey] = i
	}
	first := due[byKey["items/x/1.png"]]
	assert.Equal(t, enums.OrphanReasonPhotoReplaced, first.Reason)
	require.NotNil(t, first.LastError)
	assert.Equal(t, "again", *first.LastError)

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.MarkFailed(ctx, first.ID, errors.New("still failing")))
	}
	due, err = repo.ListDue(ctx, 10, 3)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, "items/x/2.png", due[0].ObjectKey)

	require.NoError(t, repo.Resolve(ctx, due[0].ID))
	due, err = repo.ListDue(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, 3, due[0].Attempts)
}
