// internal/services/media_service.go
package services

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"sort"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sarawan-tech/products-backend/internal/apperrors"
	"github.com/sarawan-tech/products-backend/internal/config"
	"github.com/sarawan-tech/products-backend/internal/models"
)

const doesNotExistMessage = `object "%s" does not exist`

// rendition is one of the fixed resize targets every uploaded image is stored
// as. The order is the order the URL columns are written in.
type rendition struct {
	Name   string
	Width  int
	Height int
}

var imageRenditions = []rendition{
	{Name: "preview", Width: 680, Height: 680},
	{Name: "small", Width: 380, Height: 380},
	{Name: "mini", Width: 64, Height: 64},
}

// ImageFile carries the raw bytes of an uploaded image; JSON clients submit
// them base64-encoded.
type ImageFile struct {
	File []byte `json:"file" validate:"required"`
}

// ImagePayload describes one submitted image. A nil ID means "create"; an ID
// means "keep, possibly reordered or replaced".
type ImagePayload struct {
	ID       *uuid.UUID `json:"id,omitempty"`
	OrderNum int        `json:"order_num" validate:"min=0"`
	Image    *ImageFile `json:"image,omitempty"`
}

type DocumentFile struct {
	File       []byte `json:"file" validate:"required"`
	FileFormat string `json:"file_format" validate:"required"`
}

// DocumentPayload describes one submitted document. Documents have no
// in-place update: an ID means "keep", no ID means "create".
type DocumentPayload struct {
	ID       *uuid.UUID    `json:"id,omitempty"`
	Name     string        `json:"name,omitempty"`
	Document *DocumentFile `json:"document,omitempty"`
}

// MediaService reconciles submitted image/document lists against a product's
// stored rows: it validates the batch, computes create/update/delete sets and
// executes them in that fixed order so blob-store inconsistency windows stay
// short.
type MediaService struct {
	blobs  BlobStore
	config *config.Config
}

func NewMediaService(blobs BlobStore, cfg *config.Config) *MediaService {
	return &MediaService{
		blobs:  blobs,
		config: cfg,
	}
}

// validateOrderNums checks that the submitted ranks, sorted, are exactly
// 0..n-1. Runs before any mutation.
func validateOrderNums(orderNums []int) error {
	sorted := make([]int, len(orderNums))
	copy(sorted, orderNums)
	sort.Ints(sorted)
	for index, num := range sorted {
		if index != num {
			return apperrors.Validation("incorrect image order", map[string]string{
				"order_num": "incorrect image order",
			})
		}
	}
	return nil
}

// partitionImages splits the submitted list into create/update sets and
// derives the delete set from whatever current rows went unreferenced.
// Unknown ids are collected and reported together.
func partitionImages(
	current []models.Image,
	submitted []ImagePayload,
) (toCreate, toUpdate []ImagePayload, toDelete []models.Image, err error) {
	remaining := make(map[uuid.UUID]models.Image, len(current))
	for _, img := range current {
		remaining[img.ID] = img
	}

	var notFound []map[string]string
	orderNums := make([]int, 0, len(submitted))
	for _, payload := range submitted {
		orderNums = append(orderNums, payload.OrderNum)
		if payload.ID == nil {
			toCreate = append(toCreate, payload)
			continue
		}
		if _, ok := remaining[*payload.ID]; !ok {
			notFound = append(notFound, map[string]string{
				"id": fmt.Sprintf(doesNotExistMessage, payload.ID),
			})
			continue
		}
		toUpdate = append(toUpdate, payload)
		delete(remaining, *payload.ID)
	}

	if len(notFound) > 0 {
		return nil, nil, nil, apperrors.Validation("unknown image ids", notFound)
	}

	for _, img := range remaining {
		toDelete = append(toDelete, img)
	}

	if err := validateOrderNums(orderNums); err != nil {
		return nil, nil, nil, err
	}
	return toCreate, toUpdate, toDelete, nil
}

// partitionDocuments is the document analog; documents only create or delete.
func partitionDocuments(
	current []models.Document,
	submitted []DocumentPayload,
) (toCreate []DocumentPayload, toDelete []models.Document, err error) {
	remaining := make(map[uuid.UUID]models.Document, len(current))
	for _, doc := range current {
		remaining[doc.ID] = doc
	}

	var notFound []map[string]string
	for _, payload := range submitted {
		if payload.ID == nil {
			toCreate = append(toCreate, payload)
			continue
		}
		if _, ok := remaining[*payload.ID]; !ok {
			notFound = append(notFound, map[string]string{
				"id": fmt.Sprintf(doesNotExistMessage, payload.ID),
			})
			continue
		}
		delete(remaining, *payload.ID)
	}

	if len(notFound) > 0 {
		return nil, nil, apperrors.Validation("unknown document ids", notFound)
	}

	for _, doc := range remaining {
		toDelete = append(toDelete, doc)
	}
	return toCreate, toDelete, nil
}

// decodeSource sniffs the uploaded image's format and decodes it once for all
// renditions.
func decodeSource(raw []byte) (image.Image, string, error) {
	src, format, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, "", apperrors.Validation("unsupported or corrupt image file", map[string]string{
			"image": "unsupported or corrupt image file",
		})
	}
	return src, format, nil
}

// resizeRendition shrinks the source to fit the rendition's bounding box,
// never upscaling, and re-encodes it in the source's own format.
func resizeRendition(src image.Image, format string, r rendition) ([]byte, error) {
	bounds := src.Bounds()
	resized := src
	if bounds.Dx() > r.Width || bounds.Dy() > r.Height {
		resized = imaging.Fit(src, r.Width, r.Height, imaging.Lanczos)
	}

	outFormat, err := imaging.FormatFromExtension(format)
	if err != nil {
		return nil, apperrors.Validation("unsupported image format", map[string]string{
			"image": fmt.Sprintf("unsupported image format %q", format),
		})
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, outFormat); err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, "failed to encode rendition", err)
	}
	return buf.Bytes(), nil
}

func imageStoragePath(renditionName, format string) string {
	return fmt.Sprintf("products/images/%s/%s.%s", renditionName, uuid.New(), format)
}

func documentStoragePath(format string) string {
	return fmt.Sprintf("products/documents/%s.%s", uuid.New(), format)
}

func (s *MediaService) renditionURL(img *models.Image, name string) *string {
	switch name {
	case "preview":
		return &img.PreviewURL
	case "small":
		return &img.SmallURL
	case "mini":
		return &img.MiniURL
	}
	return nil
}

// checkImageSize bounds the raw upload before any decoding happens.
func (s *MediaService) checkImageSize(file []byte) error {
	max := s.config.App.MaxImageBytes
	if max > 0 && int64(len(file)) > max {
		return apperrors.Validation("image file is too large", map[string]string{
			"image": fmt.Sprintf("image file exceeds the %d byte limit", max),
		})
	}
	return nil
}

func (s *MediaService) checkDocumentSize(file []byte) error {
	max := s.config.App.MaxDocBytes
	if max > 0 && int64(len(file)) > max {
		return apperrors.Validation("document file is too large", map[string]string{
			"document": fmt.Sprintf("document file exceeds the %d byte limit", max),
		})
	}
	return nil
}

// validateImageIDs checks every submitted id against the whole image table,
// collecting failures so the caller sees every bad id at once.
func (s *MediaService) validateImageIDs(tx *gorm.DB, submitted []ImagePayload) error {
	var errs []map[string]string
	for _, payload := range submitted {
		if payload.ID == nil {
			continue
		}
		var count int64
		if err := tx.Model(&models.Image{}).Where("id = ?", *payload.ID).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check image id: %w", err)
		}
		if count == 0 {
			errs = append(errs, map[string]string{
				"id": fmt.Sprintf(doesNotExistMessage, payload.ID),
			})
		}
	}
	if len(errs) > 0 {
		return apperrors.Validation("unknown image ids", errs)
	}
	return nil
}

func (s *MediaService) validateDocumentIDs(tx *gorm.DB, submitted []DocumentPayload) error {
	var errs []map[string]string
	for _, payload := range submitted {
		if payload.ID == nil {
			continue
		}
		var count int64
		if err := tx.Model(&models.Document{}).Where("id = ?", *payload.ID).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check document id: %w", err)
		}
		if count == 0 {
			errs = append(errs, map[string]string{
				"id": fmt.Sprintf(doesNotExistMessage, payload.ID),
			})
		}
	}
	if len(errs) > 0 {
		return apperrors.Validation("unknown document ids", errs)
	}
	return nil
}

// CreateImages is the create-only path used at product creation: every
// payload must carry a file, ranks must be contiguous from zero.
func (s *MediaService) CreateImages(ctx context.Context, tx *gorm.DB, productID uuid.UUID, payloads []ImagePayload) error {
	if len(payloads) == 0 {
		return nil
	}

	orderNums := make([]int, 0, len(payloads))
	for _, payload := range payloads {
		orderNums = append(orderNums, payload.OrderNum)
	}
	if err := validateOrderNums(orderNums); err != nil {
		return err
	}

	return s.createImages(ctx, tx, productID, payloads)
}

func (s *MediaService) createImages(ctx context.Context, tx *gorm.DB, productID uuid.UUID, payloads []ImagePayload) error {
	var uploads []FileObject
	rows := make([]models.Image, 0, len(payloads))

	for _, payload := range payloads {
		if payload.Image == nil {
			return apperrors.Validation("image file is required", map[string]string{
				"image": "image file is required",
			})
		}
		if err := s.checkImageSize(payload.Image.File); err != nil {
			return err
		}

		src, format, err := decodeSource(payload.Image.File)
		if err != nil {
			return err
		}

		row := models.Image{
			ProductID: productID,
			OrderNum:  payload.OrderNum,
		}
		for _, r := range imageRenditions {
			body, err := resizeRendition(src, format, r)
			if err != nil {
				return err
			}
			storagePath := imageStoragePath(r.Name, format)
			*s.renditionURL(&row, r.Name) = s.blobs.ObjectURL(s.config.S3.BucketPublic, storagePath)
			uploads = append(uploads, FileObject{StoragePath: storagePath, Body: body})
		}
		rows = append(rows, row)
	}

	if err := s.blobs.MultiUpload(ctx, s.config.S3.BucketPublic, uploads, true); err != nil {
		return err
	}
	if len(rows) > 0 {
		if err := tx.Create(&rows).Error; err != nil {
			return fmt.Errorf("failed to create image rows: %w", err)
		}
	}
	return nil
}

// updateImages applies order changes and file replacements. Renditions are
// re-derived only when a new file arrives; a format change moves the blobs to
// fresh paths and queues the old ones for deletion.
func (s *MediaService) updateImages(ctx context.Context, tx *gorm.DB, payloads []ImagePayload) error {
	var uploads []FileObject
	var staleBlobs []string

	for _, payload := range payloads {
		var row models.Image
		if err := tx.First(&row, "id = ?", *payload.ID).Error; err != nil {
			return fmt.Errorf("failed to load image row: %w", err)
		}

		if row.OrderNum == payload.OrderNum && payload.Image == nil {
			continue
		}
		row.OrderNum = payload.OrderNum

		if payload.Image != nil {
			if err := s.checkImageSize(payload.Image.File); err != nil {
				return err
			}
			src, format, err := decodeSource(payload.Image.File)
			if err != nil {
				return err
			}
			oldFormat := formatFromURL(row.PreviewURL)

			for _, r := range imageRenditions {
				body, err := resizeRendition(src, format, r)
				if err != nil {
					return err
				}
				urlField := s.renditionURL(&row, r.Name)
				storagePath := storagePathFromURL(*urlField)
				if format != oldFormat {
					storagePath = imageStoragePath(r.Name, format)
					staleBlobs = append(staleBlobs, *urlField)
					*urlField = s.blobs.ObjectURL(s.config.S3.BucketPublic, storagePath)
				}
				uploads = append(uploads, FileObject{StoragePath: storagePath, Body: body})
			}
		}

		if err := tx.Save(&row).Error; err != nil {
			return fmt.Errorf("failed to update image row: %w", err)
		}
	}

	if err := s.blobs.MultiUpload(ctx, s.config.S3.BucketPublic, uploads, true); err != nil {
		return err
	}
	return s.blobs.MultiDelete(ctx, s.config.S3.BucketPublic, staleBlobs)
}

// deleteImages removes the rows' blobs in one batch, then the rows.
func (s *MediaService) deleteImages(ctx context.Context, tx *gorm.DB, rows []models.Image) error {
	if len(rows) == 0 {
		return nil
	}

	var staleBlobs []string
	ids := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		staleBlobs = append(staleBlobs, row.PreviewURL, row.SmallURL, row.MiniURL)
		ids = append(ids, row.ID)
	}

	if err := s.blobs.MultiDelete(ctx, s.config.S3.BucketPublic, staleBlobs); err != nil {
		return err
	}
	if err := tx.Delete(&models.Image{}, "id IN ?", ids).Error; err != nil {
		return fmt.Errorf("failed to delete image rows: %w", err)
	}
	return nil
}

// ReconcileImages brings a product's images in line with the submitted list.
// Validation runs in full before the first mutating call.
func (s *MediaService) ReconcileImages(ctx context.Context, tx *gorm.DB, product *models.Product, submitted []ImagePayload) error {
	if err := s.validateImageIDs(tx, submitted); err != nil {
		return err
	}

	toCreate, toUpdate, toDelete, err := partitionImages(product.Images, submitted)
	if err != nil {
		return err
	}

	if err := s.createImages(ctx, tx, product.ID, toCreate); err != nil {
		return err
	}
	if err := s.updateImages(ctx, tx, toUpdate); err != nil {
		return err
	}
	return s.deleteImages(ctx, tx, toDelete)
}

// CreateDocuments uploads each document to the private bucket and inserts the
// rows.
func (s *MediaService) CreateDocuments(ctx context.Context, tx *gorm.DB, productID uuid.UUID, payloads []DocumentPayload) error {
	if len(payloads) == 0 {
		return nil
	}

	var uploads []FileObject
	rows := make([]models.Document, 0, len(payloads))

	for _, payload := range payloads {
		if payload.Document == nil {
			return apperrors.Validation("document file is required", map[string]string{
				"document": "document file is required",
			})
		}
		if payload.Name == "" {
			return apperrors.Validation("the name is a required field", map[string]string{
				"name": "the name is a required field",
			})
		}
		if err := s.checkDocumentSize(payload.Document.File); err != nil {
			return err
		}

		format := payload.Document.FileFormat
		storagePath := documentStoragePath(format)
		rows = append(rows, models.Document{
			ProductID: productID,
			Key:       tempPrefix + "/" + storagePath,
			Name:      payload.Name,
			Extension: format,
		})
		uploads = append(uploads, FileObject{StoragePath: storagePath, Body: payload.Document.File})
	}

	if err := s.blobs.MultiUpload(ctx, s.config.S3.BucketPrivate, uploads, false); err != nil {
		return err
	}
	if err := tx.Create(&rows).Error; err != nil {
		return fmt.Errorf("failed to create document rows: %w", err)
	}
	return nil
}

func (s *MediaService) deleteDocuments(ctx context.Context, tx *gorm.DB, rows []models.Document) error {
	if len(rows) == 0 {
		return nil
	}

	keys := make([]string, 0, len(rows))
	ids := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		keys = append(keys, row.Key)
		ids = append(ids, row.ID)
	}

	if err := s.blobs.MultiDelete(ctx, s.config.S3.BucketPrivate, keys); err != nil {
		return err
	}
	if err := tx.Delete(&models.Document{}, "id IN ?", ids).Error; err != nil {
		return fmt.Errorf("failed to delete document rows: %w", err)
	}
	return nil
}

// ReconcileDocuments brings a product's documents in line with the submitted
// list. Documents are immutable: referenced ids are kept, everything else is
// created or deleted.
func (s *MediaService) ReconcileDocuments(ctx context.Context, tx *gorm.DB, product *models.Product, submitted []DocumentPayload) error {
	if err := s.validateDocumentIDs(tx, submitted); err != nil {
		return err
	}

	toCreate, toDelete, err := partitionDocuments(product.Documents, submitted)
	if err != nil {
		return err
	}

	if err := s.CreateDocuments(ctx, tx, product.ID, toCreate); err != nil {
		return err
	}
	return s.deleteDocuments(ctx, tx, toDelete)
}

// formatFromURL extracts the file extension of a stored rendition URL.
func formatFromURL(url string) string {
	for i := len(url) - 1; i >= 0; i-- {
		if url[i] == '.' {
			return url[i+1:]
		}
	}
	return ""
}

// storagePathFromURL recovers the bucket-relative storage path (without the
// temp/ prefix) of a stored object URL.
func storagePathFromURL(url string) string {
	marker := tempPrefix + "/"
	for i := 0; i+len(marker) <= len(url); i++ {
		if url[i:i+len(marker)] == marker {
			return url[i+len(marker):]
		}
	}
	return url
}
