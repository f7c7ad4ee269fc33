// internal/services/media_service_test.go
package services

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sarawan-tech/products-backend/internal/apperrors"
	"github.com/sarawan-tech/products-backend/internal/config"
	"github.com/sarawan-tech/products-backend/internal/models"
)

func TestValidateOrderNums(t *testing.T) {
	tests := []struct {
		name      string
		orderNums []int
		wantErr   bool
	}{
		{"empty list", nil, false},
		{"single zero", []int{0}, false},
		{"contiguous in order", []int{0, 1, 2}, false},
		{"contiguous shuffled", []int{2, 0, 1}, false},
		{"does not start at zero", []int{1, 2, 3}, true},
		{"gap in ranks", []int{0, 2}, true},
		{"duplicate rank", []int{0, 0, 1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateOrderNums(tt.orderNums)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func imageRow(orderNum int) models.Image {
	row := models.Image{OrderNum: orderNum}
	row.ID = uuid.New()
	return row
}

func TestPartitionImages(t *testing.T) {
	kept := imageRow(0)
	dropped := imageRow(1)
	current := []models.Image{kept, dropped}

	keptID := kept.ID
	submitted := []ImagePayload{
		{ID: &keptID, OrderNum: 1},
		{OrderNum: 0, Image: &ImageFile{File: []byte("raw")}},
	}

	toCreate, toUpdate, toDelete, err := partitionImages(current, submitted)
	require.NoError(t, err)

	require.Len(t, toCreate, 1)
	assert.Nil(t, toCreate[0].ID)

	require.Len(t, toUpdate, 1)
	assert.Equal(t, keptID, *toUpdate[0].ID)
	assert.Equal(t, 1, toUpdate[0].OrderNum)

	require.Len(t, toDelete, 1)
	assert.Equal(t, dropped.ID, toDelete[0].ID)
}

func TestPartitionImagesEmptySubmissionDeletesAll(t *testing.T) {
	current := []models.Image{imageRow(0), imageRow(1)}

	toCreate, toUpdate, toDelete, err := partitionImages(current, nil)
	require.NoError(t, err)
	assert.Empty(t, toCreate)
	assert.Empty(t, toUpdate)
	assert.Len(t, toDelete, 2)
}

func TestPartitionImagesCollectsUnknownIDs(t *testing.T) {
	current := []models.Image{imageRow(0)}
	unknownA := uuid.New()
	unknownB := uuid.New()

	_, _, _, err := partitionImages(current, []ImagePayload{
		{ID: &unknownA, OrderNum: 0},
		{ID: &unknownB, OrderNum: 1},
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))

	details, ok := apperrors.DetailsOf(err).([]map[string]string)
	require.True(t, ok)
	assert.Len(t, details, 2)
}

func TestPartitionImagesRejectsBrokenOrder(t *testing.T) {
	kept := imageRow(0)
	keptID := kept.ID

	_, _, _, err := partitionImages([]models.Image{kept}, []ImagePayload{
		{ID: &keptID, OrderNum: 2},
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
}

func TestPartitionDocuments(t *testing.T) {
	kept := models.Document{Name: "certificate"}
	kept.ID = uuid.New()
	dropped := models.Document{Name: "manual"}
	dropped.ID = uuid.New()

	keptID := kept.ID
	toCreate, toDelete, err := partitionDocuments(
		[]models.Document{kept, dropped},
		[]DocumentPayload{
			{ID: &keptID},
			{Name: "warranty", Document: &DocumentFile{File: []byte("pdf"), FileFormat: "pdf"}},
		},
	)
	require.NoError(t, err)

	require.Len(t, toCreate, 1)
	assert.Equal(t, "warranty", toCreate[0].Name)

	require.Len(t, toDelete, 1)
	assert.Equal(t, dropped.ID, toDelete[0].ID)
}

func TestPartitionDocumentsUnknownID(t *testing.T) {
	unknown := uuid.New()
	_, _, err := partitionDocuments(nil, []DocumentPayload{{ID: &unknown}})
	require.Error(t, err)
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
}

func encodePNG(t *testing.T, width, height int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, width, height))))
	return buf.Bytes()
}

func TestDecodeSource(t *testing.T) {
	src, format, err := decodeSource(encodePNG(t, 10, 10))
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Equal(t, 10, src.Bounds().Dx())

	_, _, err = decodeSource([]byte("not an image"))
	require.Error(t, err)
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
}

func TestResizeRenditionShrinksLargerImages(t *testing.T) {
	src, format, err := decodeSource(encodePNG(t, 1360, 680))
	require.NoError(t, err)

	body, err := resizeRendition(src, format, rendition{Name: "preview", Width: 680, Height: 680})
	require.NoError(t, err)

	resized, resizedFormat, err := decodeSource(body)
	require.NoError(t, err)
	assert.Equal(t, "png", resizedFormat)
	assert.Equal(t, 680, resized.Bounds().Dx())
	assert.Equal(t, 340, resized.Bounds().Dy())
}

func TestResizeRenditionNeverUpscales(t *testing.T) {
	src, format, err := decodeSource(encodePNG(t, 32, 20))
	require.NoError(t, err)

	body, err := resizeRendition(src, format, rendition{Name: "mini", Width: 64, Height: 64})
	require.NoError(t, err)

	resized, _, err := decodeSource(body)
	require.NoError(t, err)
	assert.Equal(t, 32, resized.Bounds().Dx())
	assert.Equal(t, 20, resized.Bounds().Dy())
}

func sizeLimitedMediaService(maxImage, maxDoc int64) *MediaService {
	cfg := &config.Config{}
	cfg.App.MaxImageBytes = maxImage
	cfg.App.MaxDocBytes = maxDoc
	return NewMediaService(nil, cfg)
}

func TestCreateImagesRejectsOversizeFile(t *testing.T) {
	payload := encodePNG(t, 64, 64)
	svc := sizeLimitedMediaService(int64(len(payload))-1, 0)

	// the size check fires before any decode, upload or row write
	err := svc.CreateImages(context.Background(), nil, uuid.New(), []ImagePayload{
		{OrderNum: 0, Image: &ImageFile{File: payload}},
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))

	details, ok := apperrors.DetailsOf(err).(map[string]string)
	require.True(t, ok)
	assert.Contains(t, details["image"], "byte limit")
}

func TestCreateDocumentsRejectsOversizeFile(t *testing.T) {
	svc := sizeLimitedMediaService(0, 4)

	err := svc.CreateDocuments(context.Background(), nil, uuid.New(), []DocumentPayload{
		{Name: "manual", Document: &DocumentFile{File: []byte("12345"), FileFormat: "pdf"}},
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))

	details, ok := apperrors.DetailsOf(err).(map[string]string)
	require.True(t, ok)
	assert.Contains(t, details["document"], "byte limit")
}

func TestCheckImageSizeUnlimitedWhenUnset(t *testing.T) {
	svc := sizeLimitedMediaService(0, 0)
	assert.NoError(t, svc.checkImageSize(make([]byte, 1<<20)))
	assert.NoError(t, svc.checkDocumentSize(make([]byte, 1<<20)))
}

func TestFormatFromURL(t *testing.T) {
	assert.Equal(t, "png", formatFromURL("http://cdn/bucket/temp/products/images/mini/abc.png"))
	assert.Equal(t, "jpeg", formatFromURL("abc.jpeg"))
	assert.Equal(t, "", formatFromURL("no-extension"))
}

func TestStoragePathFromURL(t *testing.T) {
	url := "http://cdn/bucket/temp/products/images/mini/abc.png"
	assert.Equal(t, "products/images/mini/abc.png", storagePathFromURL(url))
	assert.Equal(t, "plain-key", storagePathFromURL("plain-key"))
}
