// internal/services/product_service.go
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/sarawan-tech/products-backend/internal/apperrors"
	"github.com/sarawan-tech/products-backend/internal/cache"
	"github.com/sarawan-tech/products-backend/internal/config"
	"github.com/sarawan-tech/products-backend/internal/models"
	"github.com/sarawan-tech/products-backend/internal/retry"
	"github.com/sarawan-tech/products-backend/internal/utils"
)

const maxSlugLength = 255

// Reference-data cache keys.
const (
	cacheKeySizes      = "sizes"
	cacheKeyColors     = "colors"
	cacheKeyBrands     = "brands"
	cacheKeyCategories = "categories_and_subcategories"
)

type PricePayload struct {
	PriceWithDiscount    decimal.Decimal      `json:"price_with_discount" validate:"required"`
	PriceWithoutDiscount *decimal.Decimal     `json:"price_without_discount,omitempty"`
	VAT                  models.ValueAddedTax `json:"vat" validate:"required"`
}

type PackPayload struct {
	Length       int `json:"length" validate:"required,min=1"`
	Width        int `json:"width" validate:"required,min=1"`
	Height       int `json:"height" validate:"required,min=1"`
	WeightPacked int `json:"weight_packed" validate:"required,min=1"`
}

type SpecificationPayload struct {
	Type             string                 `json:"type" validate:"required"`
	CustomProperties map[string]interface{} `json:"custom_properties,omitempty"`
	Description      *string                `json:"description,omitempty"`
	Weight           *int                   `json:"weight,omitempty" validate:"omitempty,min=1"`
	Length           *int                   `json:"length,omitempty" validate:"omitempty,min=1"`
	Width            *int                   `json:"width,omitempty" validate:"omitempty,min=1"`
	Height           *int                   `json:"height,omitempty" validate:"omitempty,min=1"`
}

type CreateProductRequest struct {
	ExternalID           *string              `json:"external_id,omitempty" validate:"omitempty,max=255"`
	Name                 string               `json:"name" validate:"required,max=128"`
	CountryOfManufacture string               `json:"country_of_manufacture" validate:"required,max=255"`
	VendorCode           string               `json:"vendor_code" validate:"required,max=255"`
	Barcode              int64                `json:"barcode" validate:"required"`
	Gender               *models.GenderType   `json:"gender,omitempty"`
	SubcategoryID        uuid.UUID            `json:"subcategory_id" validate:"required"`
	ColorID              *uuid.UUID           `json:"color_id,omitempty"`
	SizeID               *uuid.UUID           `json:"size_id,omitempty"`
	BrandID              *uuid.UUID           `json:"brand_id,omitempty"`
	Price                PricePayload         `json:"price" validate:"required"`
	Pack                 PackPayload          `json:"pack" validate:"required"`
	Specification        SpecificationPayload `json:"manually_filled_specification" validate:"required"`
	Images               []ImagePayload       `json:"images,omitempty" validate:"omitempty,dive"`
	Documents            []DocumentPayload    `json:"documents,omitempty" validate:"omitempty,dive"`
}

// UpdateProductRequest is a partial merge: nil means "leave unchanged".
// Price/Pack/Specification are whole-record overwrites when present; a
// present image/document list triggers full media reconciliation.
type UpdateProductRequest struct {
	ExternalID           *string               `json:"external_id,omitempty" validate:"omitempty,max=255"`
	Name                 *string               `json:"name,omitempty" validate:"omitempty,max=128"`
	CountryOfManufacture *string               `json:"country_of_manufacture,omitempty" validate:"omitempty,max=255"`
	VendorCode           *string               `json:"vendor_code,omitempty" validate:"omitempty,max=255"`
	Barcode              *int64                `json:"barcode,omitempty"`
	Gender               *models.GenderType    `json:"gender,omitempty"`
	SubcategoryID        *uuid.UUID            `json:"subcategory_id,omitempty"`
	ColorID              *uuid.UUID            `json:"color_id,omitempty"`
	SizeID               *uuid.UUID            `json:"size_id,omitempty"`
	BrandID              *uuid.UUID            `json:"brand_id,omitempty"`
	Price                *PricePayload         `json:"price,omitempty"`
	Pack                 *PackPayload          `json:"pack,omitempty"`
	Specification        *SpecificationPayload `json:"manually_filled_specification,omitempty"`
	Images               *[]ImagePayload       `json:"images,omitempty" validate:"omitempty,dive"`
	Documents            *[]DocumentPayload    `json:"documents,omitempty" validate:"omitempty,dive"`
}

// ProductPage is one page of a seller's products.
type ProductPage struct {
	Page       int              `json:"page"`
	Size       int              `json:"size"`
	TotalCount int64            `json:"total_count"`
	TotalPages int              `json:"total_pages"`
	Results    []models.Product `json:"results"`
}

// ProductService orchestrates the persistence, media, cache and status
// collaborators behind the public product operations.
type ProductService struct {
	db     *gorm.DB
	media  *MediaService
	blobs  BlobStore
	store  cache.Store
	status *StatusService
	config *config.Config
	policy retry.Policy
}

func NewProductService(
	db *gorm.DB,
	media *MediaService,
	blobs BlobStore,
	store cache.Store,
	status *StatusService,
	cfg *config.Config,
) *ProductService {
	return &ProductService{
		db:     db,
		media:  media,
		blobs:  blobs,
		store:  store,
		status: status,
		config: cfg,
		policy: retry.DefaultPolicy(),
	}
}

func (s *ProductService) DefaultPageSize() int { return s.config.App.PageSize }
func (s *ProductService) MaxPageSize() int     { return s.config.App.MaxPageSize }

// makeSlug derives a unique URL-safe slug from the name plus a fresh random
// suffix.
func makeSlug(name string) string {
	s := slug.Make(fmt.Sprintf("%s-%s", name, uuid.New()))
	if len(s) > maxSlugLength {
		s = s[:maxSlugLength]
	}
	return s
}

type linkField struct {
	Name  string
	Model interface{}
	ID    *uuid.UUID
}

// validateLinkFields checks every supplied reference id for existence and
// reports all missing ones together.
func (s *ProductService) validateLinkFields(tx *gorm.DB, fields []linkField) error {
	errs := map[string]string{}
	for _, field := range fields {
		if field.ID == nil {
			continue
		}
		var count int64
		if err := tx.Model(field.Model).Where("id = ?", *field.ID).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check %s: %w", field.Name, err)
		}
		if count == 0 {
			errs[field.Name] = fmt.Sprintf(doesNotExistMessage, *field.ID)
		}
	}
	if len(errs) > 0 {
		return apperrors.Validation("referenced records do not exist", errs)
	}
	return nil
}

func (s *ProductService) Create(ctx context.Context, sellerID uuid.UUID, req *CreateProductRequest) (*models.Product, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, apperrors.Validation("invalid product payload", utils.GetValidationErrors(err))
	}
	if !req.Price.VAT.Valid() {
		return nil, apperrors.Validation("invalid vat value", map[string]string{"vat": "invalid vat value"})
	}

	var product models.Product

	err := s.db.Transaction(func(tx *gorm.DB) error {
		subcategoryID := req.SubcategoryID
		if err := s.validateLinkFields(tx, []linkField{
			{Name: "subcategory_id", Model: &models.Subcategory{}, ID: &subcategoryID},
			{Name: "color_id", Model: &models.Color{}, ID: req.ColorID},
			{Name: "size_id", Model: &models.Size{}, ID: req.SizeID},
		}); err != nil {
			return err
		}

		product = models.Product{
			SellerID:             sellerID,
			ExternalID:           req.ExternalID,
			Status:               models.ProductStatusNew,
			IsActive:             false,
			Name:                 req.Name,
			NameSlug:             makeSlug(req.Name),
			CountryOfManufacture: req.CountryOfManufacture,
			VendorCode:           req.VendorCode,
			Barcode:              req.Barcode,
			Gender:               req.Gender,
			SubcategoryID:        &subcategoryID,
			ColorID:              req.ColorID,
			SizeID:               req.SizeID,
			BrandID:              req.BrandID,
		}
		if err := tx.Omit("Price", "Pack", "Specification", "Images", "Documents", "Messages").
			Create(&product).Error; err != nil {
			return fmt.Errorf("failed to create product: %w", err)
		}

		price := models.Price{
			ProductID:            product.ID,
			PriceWithDiscount:    req.Price.PriceWithDiscount,
			PriceWithoutDiscount: req.Price.PriceWithoutDiscount,
			VAT:                  req.Price.VAT,
		}
		pack := models.Pack{
			ProductID:    product.ID,
			Length:       req.Pack.Length,
			Width:        req.Pack.Width,
			Height:       req.Pack.Height,
			WeightPacked: req.Pack.WeightPacked,
		}
		spec := models.Specification{
			ProductID:        product.ID,
			Type:             req.Specification.Type,
			CustomProperties: models.JSONB(req.Specification.CustomProperties),
			Description:      req.Specification.Description,
			Weight:           req.Specification.Weight,
			Length:           req.Specification.Length,
			Width:            req.Specification.Width,
			Height:           req.Specification.Height,
		}
		if err := tx.Create(&price).Error; err != nil {
			return fmt.Errorf("failed to create price: %w", err)
		}
		if err := tx.Create(&pack).Error; err != nil {
			return fmt.Errorf("failed to create pack: %w", err)
		}
		if err := tx.Create(&spec).Error; err != nil {
			return fmt.Errorf("failed to create specification: %w", err)
		}

		if err := s.media.CreateImages(ctx, tx, product.ID, req.Images); err != nil {
			return err
		}
		return s.media.CreateDocuments(ctx, tx, product.ID, req.Documents)
	})
	if err != nil {
		return nil, err
	}

	return s.loadProduct(ctx, product.ID)
}

func (s *ProductService) loadProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := s.policy.Do(ctx, func() error {
		return s.productQuery(s.db).First(&product, "id = ?", id).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("product")
		}
		return nil, fmt.Errorf("failed to load product: %w", err)
	}
	return &product, nil
}

func (s *ProductService) productQuery(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Price").Preload("Pack").Preload("Specification").
		Preload("Images").Preload("Documents").Preload("Messages").
		Preload("Subcategory")
}

// GetByIDs returns the products that exist; unknown ids are dropped without
// error.
func (s *ProductService) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	if len(ids) == 0 {
		return []models.Product{}, nil
	}

	var products []models.Product
	err := s.policy.Do(ctx, func() error {
		return s.productQuery(s.db).Where("id IN ?", ids).Find(&products).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch products: %w", err)
	}
	return products, nil
}

func (s *ProductService) GetBySlug(ctx context.Context, nameSlug string) (*models.Product, error) {
	var product models.Product
	err := s.policy.Do(ctx, func() error {
		err := s.productQuery(s.db).First(&product, "name_slug = ?", nameSlug).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NotFound("product")
		}
		return err
	})
	if err != nil {
		if apperrors.KindOf(err) == apperrors.KindNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("failed to fetch product: %w", err)
	}
	return &product, nil
}

// ProductName is the name-only read used by internal services.
type ProductName struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

func (s *ProductService) GetNameByID(ctx context.Context, id uuid.UUID) (*ProductName, error) {
	var product models.Product
	err := s.policy.Do(ctx, func() error {
		err := s.db.Select("id", "name").First(&product, "id = ?", id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NotFound("product")
		}
		return err
	})
	if err != nil {
		if apperrors.KindOf(err) == apperrors.KindNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("failed to fetch product name: %w", err)
	}
	return &ProductName{ID: product.ID, Name: product.Name}, nil
}

// clampPage bounds a requested page to the valid range for totalCount rows.
// An empty result set still reports one (empty) page.
func clampPage(totalCount int64, page, size int) (int, int) {
	totalPages := int(math.Ceil(float64(totalCount) / float64(size)))
	if totalPages < 1 {
		totalPages = 1
	}
	if page > totalPages {
		page = totalPages
	}
	if page < 1 {
		page = 1
	}
	return page, totalPages
}

func (s *ProductService) List(ctx context.Context, sellerID uuid.UUID, page, size int) (*ProductPage, error) {
	var totalCount int64
	err := s.policy.Do(ctx, func() error {
		return s.db.Model(&models.Product{}).Where("seller_id = ?", sellerID).Count(&totalCount).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}

	page, totalPages := clampPage(totalCount, page, size)
	result := &ProductPage{
		Page:       page,
		Size:       size,
		TotalCount: totalCount,
		TotalPages: totalPages,
		Results:    []models.Product{},
	}
	if totalCount == 0 {
		return result, nil
	}

	err = s.policy.Do(ctx, func() error {
		return s.productQuery(s.db).
			Where("seller_id = ?", sellerID).
			Order("created_at DESC").
			Limit(size).
			Offset((page - 1) * size).
			Find(&result.Results).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch products: %w", err)
	}
	return result, nil
}

func (s *ProductService) Update(ctx context.Context, sellerID, productID uuid.UUID, req *UpdateProductRequest) (*models.Product, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, apperrors.Validation("invalid product payload", utils.GetValidationErrors(err))
	}
	if req.Price != nil && !req.Price.VAT.Valid() {
		return nil, apperrors.Validation("invalid vat value", map[string]string{"vat": "invalid vat value"})
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var product models.Product
		if err := tx.Preload("Images").Preload("Documents").
			First(&product, "id = ?", productID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFound("product")
			}
			return fmt.Errorf("failed to load product: %w", err)
		}

		if product.SellerID != sellerID {
			return apperrors.Forbidden()
		}

		if err := s.validateLinkFields(tx, []linkField{
			{Name: "subcategory_id", Model: &models.Subcategory{}, ID: req.SubcategoryID},
			{Name: "color_id", Model: &models.Color{}, ID: req.ColorID},
			{Name: "size_id", Model: &models.Size{}, ID: req.SizeID},
		}); err != nil {
			return err
		}

		updates := map[string]interface{}{}
		if req.ExternalID != nil {
			updates["external_id"] = *req.ExternalID
		}
		if req.Name != nil {
			updates["name"] = *req.Name
			// a renamed product gets a fresh slug
			updates["name_slug"] = makeSlug(*req.Name)
		}
		if req.CountryOfManufacture != nil {
			updates["country_of_manufacture"] = *req.CountryOfManufacture
		}
		if req.VendorCode != nil {
			updates["vendor_code"] = *req.VendorCode
		}
		if req.Barcode != nil {
			updates["barcode"] = *req.Barcode
		}
		if req.Gender != nil {
			updates["gender"] = *req.Gender
		}
		if req.SubcategoryID != nil {
			updates["subcategory_id"] = *req.SubcategoryID
		}
		if req.ColorID != nil {
			updates["color_id"] = *req.ColorID
		}
		if req.SizeID != nil {
			updates["size_id"] = *req.SizeID
		}
		if req.BrandID != nil {
			updates["brand_id"] = *req.BrandID
		}
		if len(updates) > 0 {
			if err := tx.Model(&models.Product{}).Where("id = ?", product.ID).Updates(updates).Error; err != nil {
				return fmt.Errorf("failed to update product: %w", err)
			}
		}

		// one-to-one children are overwritten whole, never merged field-wise
		if req.Price != nil {
			if err := tx.Model(&models.Price{}).Where("product_id = ?", product.ID).
				Updates(map[string]interface{}{
					"price_with_discount":    req.Price.PriceWithDiscount,
					"price_without_discount": req.Price.PriceWithoutDiscount,
					"vat":                    req.Price.VAT,
				}).Error; err != nil {
				return fmt.Errorf("failed to update price: %w", err)
			}
		}
		if req.Pack != nil {
			if err := tx.Model(&models.Pack{}).Where("product_id = ?", product.ID).
				Updates(map[string]interface{}{
					"length":        req.Pack.Length,
					"width":         req.Pack.Width,
					"height":        req.Pack.Height,
					"weight_packed": req.Pack.WeightPacked,
				}).Error; err != nil {
				return fmt.Errorf("failed to update pack: %w", err)
			}
		}
		if req.Specification != nil {
			if err := tx.Model(&models.Specification{}).Where("product_id = ?", product.ID).
				Updates(map[string]interface{}{
					"type":              req.Specification.Type,
					"custom_properties": models.JSONB(req.Specification.CustomProperties),
					"description":       req.Specification.Description,
					"weight":            req.Specification.Weight,
					"length":            req.Specification.Length,
					"width":             req.Specification.Width,
					"height":            req.Specification.Height,
				}).Error; err != nil {
				return fmt.Errorf("failed to update specification: %w", err)
			}
		}

		if req.Documents != nil {
			if err := s.media.ReconcileDocuments(ctx, tx, &product, *req.Documents); err != nil {
				return err
			}
		}
		if req.Images != nil {
			if err := s.media.ReconcileImages(ctx, tx, &product, *req.Images); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.loadProduct(ctx, productID)
}

// GetDocument returns a document's stored bytes; only the owning seller may
// read it.
func (s *ProductService) GetDocument(ctx context.Context, sellerID, documentID uuid.UUID) ([]byte, *models.Document, error) {
	var document models.Document
	err := s.policy.Do(ctx, func() error {
		err := s.db.First(&document, "id = ?", documentID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NotFound("document")
		}
		return err
	})
	if err != nil {
		if apperrors.KindOf(err) == apperrors.KindNotFound {
			return nil, nil, err
		}
		return nil, nil, fmt.Errorf("failed to fetch document: %w", err)
	}

	var product models.Product
	if err := s.db.Select("id", "seller_id").First(&product, "id = ?", document.ProductID).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to load document product: %w", err)
	}
	if product.SellerID != sellerID {
		return nil, nil, apperrors.Forbidden()
	}

	body, err := s.blobs.Get(ctx, s.config.S3.BucketPrivate, document.Key)
	if err != nil {
		return nil, nil, err
	}
	return body, &document, nil
}

// GetPricesByIDs returns the prices of the products that exist; unknown ids
// are dropped without error.
func (s *ProductService) GetPricesByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Price, error) {
	if len(ids) == 0 {
		return []models.Price{}, nil
	}

	var prices []models.Price
	err := s.policy.Do(ctx, func() error {
		return s.db.Where("product_id IN ?", ids).Find(&prices).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch prices: %w", err)
	}
	return prices, nil
}

func (s *ProductService) ChangeStatus(
	ctx context.Context,
	sellerID uuid.UUID,
	userToken string,
	productID uuid.UUID,
	requested models.ProductStatus,
) (*models.Product, error) {
	return s.status.ChangeStatus(ctx, sellerID, userToken, productID, requested)
}

// readThrough serves a reference-data collection from the cache, falling back
// to the database and writing the encoded rows back with the configured TTL.
// Concurrent misses may each hit the database; the writes are idempotent.
func (s *ProductService) readThrough(ctx context.Context, key string, load func() (interface{}, error)) (json.RawMessage, error) {
	cached, ok, err := s.store.Get(ctx, key)
	if err == nil && ok {
		return json.RawMessage(cached), nil
	}

	rows, err := load()
	if err != nil {
		return nil, err
	}

	encoded, err := json.Marshal(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", key, err)
	}

	ttl := time.Duration(s.config.App.CacheTTL) * time.Second
	if err := s.store.Set(ctx, key, encoded, ttl); err != nil {
		return nil, fmt.Errorf("failed to cache %s: %w", key, err)
	}
	return encoded, nil
}

func (s *ProductService) GetAllSizes(ctx context.Context) (json.RawMessage, error) {
	return s.readThrough(ctx, cacheKeySizes, func() (interface{}, error) {
		var sizes []models.Size
		err := s.policy.Do(ctx, func() error {
			return s.db.Find(&sizes).Error
		})
		return sizes, err
	})
}

func (s *ProductService) GetAllColors(ctx context.Context) (json.RawMessage, error) {
	return s.readThrough(ctx, cacheKeyColors, func() (interface{}, error) {
		var colors []models.Color
		err := s.policy.Do(ctx, func() error {
			return s.db.Find(&colors).Error
		})
		return colors, err
	})
}

func (s *ProductService) GetAllBrands(ctx context.Context) (json.RawMessage, error) {
	return s.readThrough(ctx, cacheKeyBrands, func() (interface{}, error) {
		var brands []models.Brand
		err := s.policy.Do(ctx, func() error {
			return s.db.Find(&brands).Error
		})
		return brands, err
	})
}

func (s *ProductService) GetAllCategories(ctx context.Context) (json.RawMessage, error) {
	return s.readThrough(ctx, cacheKeyCategories, func() (interface{}, error) {
		var categories []models.Category
		err := s.policy.Do(ctx, func() error {
			return s.db.Preload("Subcategories").Find(&categories).Error
		})
		return categories, err
	})
}
