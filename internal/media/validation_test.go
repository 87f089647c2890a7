package media

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feirinha/feirinha-backend/internal/media/mediatest"
	pkgerrors "github.com/feirinha/feirinha-backend/pkg/errors"
)

func TestValidateAcceptsSupportedImages(t *testing.T) {
	v := NewValidator(1 << 20)

	prepared, err := v.Validate([]Upload{
		{FileName: "front.png", ContentType: "image/png", Data: mediatest.PNG(t)},
		{FileName: "back.JPG", Data: mediatest.JPEG(t)},
	})
	require.NoError(t, err)
	require.Len(t, prepared, 2)

	assert.Equal(t, 0, prepared[0].Index)
	assert.Equal(t, "image/png", prepared[0].ContentType)
	assert.Equal(t, ".png", prepared[0].Ext)
	assert.Equal(t, 4, prepared[0].Width)
	assert.Equal(t, 3, prepared[0].Height)

	assert.Equal(t, 1, prepared[1].Index)
	assert.Equal(t, "image/jpeg", prepared[1].ContentType)
	assert.Equal(t, ".jpg", prepared[1].Ext)
}

func TestValidateReportsEveryBadFile(t *testing.T) {
	v := NewValidator(1 << 20)

	_, err := v.Validate([]Upload{
		{FileName: "ok.png", Data: mediatest.PNG(t)},
		{FileName: "notes.txt", Data: []byte("hello")},
		{FileName: "empty.png", Data: nil},
		{FileName: "fake.png", Data: []byte("not really a png at all")},
	})
	require.Error(t, err)

	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeValidation, appErr.Code())

	details, ok := appErr.Details().(map[string]string)
	require.True(t, ok)
	assert.Len(t, details, 3)
	assert.Contains(t, details, "photos[1] (notes.txt)")
	assert.Contains(t, details, "photos[2] (empty.png)")
	assert.Contains(t, details, "photos[3] (fake.png)")
	assert.NotContains(t, details, "photos[0] (ok.png)")
}

func TestValidateRejectsOversizedFile(t *testing.T) {
	data := mediatest.PNG(t)
	v := NewValidator(int64(len(data) - 1))

	_, err := v.Validate([]Upload{{FileName: "big.png", Data: data}})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestValidateRejectsNonImageContentType(t *testing.T) {
	v := NewValidator(1 << 20)

	_, err := v.Validate([]Upload{{FileName: "a.png", ContentType: "text/plain", Data: mediatest.PNG(t)}})
	require.Error(t, err)

	_, err = v.Validate([]Upload{{FileName: "a.png", ContentType: "application/octet-stream", Data: mediatest.PNG(t)}})
	require.NoError(t, err)
}

func TestValidateRejectsMismatchedContent(t *testing.T) {
	v := NewValidator(1 << 20)

	// JPEG bytes under a .png name are accepted; the sniffed type wins.
	prepared, err := v.Validate([]Upload{{FileName: "photo.png", Data: mediatest.JPEG(t)}})
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", prepared[0].ContentType)
	assert.Equal(t, ".jpg", prepared[0].Ext)

	_, err = v.Validate([]Upload{{FileName: "photo.gif", Data: mediatest.PNG(t)}})
	require.Error(t, err)
}

func TestCheckCapacity(t *testing.T) {
	require.NoError(t, CheckCapacity(0, MaxPhotosPerItem))
	require.NoError(t, CheckCapacity(2, 4))

	err := CheckCapacity(3, 4)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestObjectKey(t *testing.T) {
	itemID := uuid.UUID{1}
	uploadID := uuid.UUID{2}

	key := ObjectKey(itemID, uploadID, "JPG")
	assert.Equal(t, "items/01000000-0000-0000-0000-000000000000/02000000-0000-0000-0000-000000000000.jpg", key)
	assert.Contains(t, key, ItemPrefix(itemID))
}
