package cities

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/feirinha/feirinha-backend/pkg/db/dbtest"
	"github.com/feirinha/feirinha-backend/pkg/db/models"
)

func TestResolveOrCreateIsIdempotent(t *testing.T) {
	client := dbtest.Open(t)
	repo := NewRepository(client.DB())
	ctx := context.Background()

	first, err := repo.ResolveOrCreate(ctx, " Campinas ", "sp")
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, "Campinas", first.Name)
	assert.Equal(t, "SP", first.State)

	second, err := repo.ResolveOrCreate(ctx, "Campinas", "SP")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	var count int64
	require.NoError(t, client.DB().Model(&models.City{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestResolveOrCreateInsideTransaction(t *testing.T) {
	client := dbtest.Open(t)
	repo := NewRepository(client.DB())
	ctx := context.Background()

	var resolved *models.City
	err := client.WithTx(ctx, func(tx *gorm.DB) error {
		city, err := repo.WithTx(tx).ResolveOrCreate(ctx, "Recife", "PE")
		resolved = city
		return err
	})
	require.NoError(t, err)

	found, err := repo.FindByID(ctx, resolved.ID)
	require.NoError(t, err)
	assert.Equal(t, "Recife", found.Name)
}

func TestResolveOrCreateEmptyAndPartialInput(t *testing.T) {
	repo := NewRepository(dbtest.Open(t).DB())

	city, err := repo.ResolveOrCreate(context.Background(), "", " ")
	require.NoError(t, err)
	assert.Nil(t, city)

	_, err = repo.ResolveOrCreate(context.Background(), "Natal", "")
	assert.ErrorIs(t, err, ErrIncomplete)
}
