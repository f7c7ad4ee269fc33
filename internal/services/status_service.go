// internal/services/status_service.go
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sarawan-tech/products-backend/internal/apperrors"
	"github.com/sarawan-tech/products-backend/internal/broker"
	"github.com/sarawan-tech/products-backend/internal/models"
	"github.com/sarawan-tech/products-backend/internal/retry"
)

// sideEffect names what a successful transition publishes downstream.
type sideEffect int

const (
	effectNone sideEffect = iota
	// full enriched product document for the ETL pipeline
	effectPublishSnapshot
	// minimal {id, is_active:false} notice
	effectPublishDeactivated
)

type transitionKey struct {
	Current   models.ProductStatus
	Requested models.ProductStatus
}

type transitionResult struct {
	NewStatus models.ProductStatus
	Active    bool
	Effect    sideEffect
}

// transitionTable is the complete set of legal seller-initiated moves. Any
// pair outside it is rejected without touching the product.
var transitionTable = map[transitionKey]transitionResult{
	{models.ProductStatusReadyForSale, models.ProductStatusOnSale}: {
		NewStatus: models.ProductStatusOnSale, Active: true, Effect: effectPublishSnapshot,
	},
	{models.ProductStatusOnSale, models.ProductStatusNotForSale}: {
		NewStatus: models.ProductStatusNotForSale, Effect: effectPublishDeactivated,
	},
	{models.ProductStatusNew, models.ProductStatusOnModeration}: {
		NewStatus: models.ProductStatusOnModeration,
	},
	{models.ProductStatusNeedsFix, models.ProductStatusOnModeration}: {
		NewStatus: models.ProductStatusOnModeration,
	},
	{models.ProductStatusOnSale, models.ProductStatusDeleted}: {
		NewStatus: models.ProductStatusDeleted, Effect: effectPublishDeactivated,
	},
	{models.ProductStatusNew, models.ProductStatusDeleted}: {
		NewStatus: models.ProductStatusDeleted,
	},
	{models.ProductStatusOnModeration, models.ProductStatusDeleted}: {
		NewStatus: models.ProductStatusDeleted,
	},
	{models.ProductStatusReadyForSale, models.ProductStatusDeleted}: {
		NewStatus: models.ProductStatusDeleted,
	},
	{models.ProductStatusNeedsFix, models.ProductStatusDeleted}: {
		NewStatus: models.ProductStatusDeleted,
	},
	{models.ProductStatusNotForSale, models.ProductStatusDeleted}: {
		NewStatus: models.ProductStatusDeleted,
	},
}

// resolveTransition evaluates the table for one requested move.
func resolveTransition(current, requested models.ProductStatus) (transitionResult, error) {
	if !requested.SellerChangeable() {
		return transitionResult{}, apperrors.NotAcceptable(
			fmt.Sprintf("status %q cannot be requested", requested), string(current))
	}
	result, ok := transitionTable[transitionKey{Current: current, Requested: requested}]
	if !ok {
		return transitionResult{}, apperrors.NotAcceptable(
			fmt.Sprintf("cannot change status from %q to %q", current, requested), string(current))
	}
	return result, nil
}

// ProductSnapshot is the enriched document published on the on_sale
// transition: the product with its seller account data, current on-hand
// quantity and resolved category merged in.
type ProductSnapshot struct {
	models.Product
	Seller          map[string]interface{} `json:"seller"`
	StorageQuantity int                    `json:"storage_quantity"`
	Category        *models.Category       `json:"category,omitempty"`
}

type deactivatedEvent struct {
	ID       uuid.UUID `json:"id"`
	IsActive bool      `json:"is_active"`
}

// StatusService gates and applies product lifecycle transitions and fires
// the side effect tied to each legal move. The publish happens before the
// transaction commits, so a publish failure aborts the whole transition.
type StatusService struct {
	db        *gorm.DB
	publisher broker.Publisher
	sellers   SellerGateway
	inventory InventoryGateway
	policy    retry.Policy
}

func NewStatusService(db *gorm.DB, publisher broker.Publisher, sellers SellerGateway, inventory InventoryGateway) *StatusService {
	return &StatusService{
		db:        db,
		publisher: publisher,
		sellers:   sellers,
		inventory: inventory,
		policy:    retry.DefaultPolicy(),
	}
}

func (s *StatusService) ChangeStatus(
	ctx context.Context,
	sellerID uuid.UUID,
	userToken string,
	productID uuid.UUID,
	requested models.ProductStatus,
) (*models.Product, error) {
	var product models.Product

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Preload("Price").Preload("Pack").Preload("Specification").
			Preload("Images").Preload("Documents").
			Preload("Subcategory").
			First(&product, "id = ?", productID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFound("product")
			}
			return fmt.Errorf("failed to load product: %w", err)
		}

		if product.SellerID != sellerID {
			return apperrors.Forbidden()
		}

		result, err := resolveTransition(product.Status, requested)
		if err != nil {
			return err
		}

		// deactivate first; only the table can raise the flag back
		product.IsActive = false
		product.Status = result.NewStatus
		if result.Active {
			product.IsActive = true
		}

		var payload interface{}
		switch result.Effect {
		case effectPublishSnapshot:
			snapshot, err := s.buildSnapshot(ctx, tx, &product, userToken)
			if err != nil {
				return err
			}
			payload = snapshot
		case effectPublishDeactivated:
			payload = deactivatedEvent{ID: product.ID, IsActive: false}
		}

		if err := tx.Model(&models.Product{}).
			Where("id = ?", product.ID).
			Updates(map[string]interface{}{
				"status":    product.Status,
				"is_active": product.IsActive,
			}).Error; err != nil {
			return fmt.Errorf("failed to persist status change: %w", err)
		}

		if payload != nil {
			publishErr := s.policy.Do(ctx, func() error {
				return s.publisher.Publish(ctx, product.ID.String(), payload)
			})
			if publishErr != nil {
				return apperrors.UpstreamUnavailable("failed to publish product event", publishErr)
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &product, nil
}

// buildSnapshot assembles the enriched product document. Either upstream
// returning an unusable shape fails the whole status change.
func (s *StatusService) buildSnapshot(
	ctx context.Context,
	tx *gorm.DB,
	product *models.Product,
	userToken string,
) (*ProductSnapshot, error) {
	sellerData, err := s.sellers.SellerData(ctx, userToken)
	if err != nil {
		return nil, err
	}

	quantity, err := s.inventory.StorageQuantity(ctx, product.ID)
	if err != nil {
		return nil, err
	}

	snapshot := &ProductSnapshot{
		Product:         *product,
		Seller:          sellerData,
		StorageQuantity: quantity,
	}

	if product.Subcategory != nil && product.Subcategory.CategoryID != nil {
		var category models.Category
		if err := tx.First(&category, "id = ?", *product.Subcategory.CategoryID).Error; err == nil {
			snapshot.Category = &category
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to resolve category: %w", err)
		}
	}

	return snapshot, nil
}
