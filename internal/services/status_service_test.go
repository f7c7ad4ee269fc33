// internal/services/status_service_test.go
package services

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sarawan-tech/products-backend/internal/apperrors"
	"github.com/sarawan-tech/products-backend/internal/models"
)

type capturingPublisher struct {
	keys     []string
	payloads []interface{}
}

func (p *capturingPublisher) Publish(ctx context.Context, key string, payload interface{}) error {
	p.keys = append(p.keys, key)
	p.payloads = append(p.payloads, payload)
	return nil
}

func (p *capturingPublisher) Close() error { return nil }

type fakeSellerGateway struct {
	data map[string]interface{}
}

func (g fakeSellerGateway) SellerData(ctx context.Context, userToken string) (map[string]interface{}, error) {
	return g.data, nil
}

type fakeInventoryGateway struct {
	quantity int
}

func (g fakeInventoryGateway) StorageQuantity(ctx context.Context, productID uuid.UUID) (int, error) {
	return g.quantity, nil
}

func TestResolveTransitionLegalMoves(t *testing.T) {
	tests := []struct {
		name       string
		current    models.ProductStatus
		requested  models.ProductStatus
		wantStatus models.ProductStatus
		wantActive bool
		wantEffect sideEffect
	}{
		{
			name:       "ready for sale goes on sale and publishes snapshot",
			current:    models.ProductStatusReadyForSale,
			requested:  models.ProductStatusOnSale,
			wantStatus: models.ProductStatusOnSale,
			wantActive: true,
			wantEffect: effectPublishSnapshot,
		},
		{
			name:       "on sale withdrawn publishes deactivation",
			current:    models.ProductStatusOnSale,
			requested:  models.ProductStatusNotForSale,
			wantStatus: models.ProductStatusNotForSale,
			wantEffect: effectPublishDeactivated,
		},
		{
			name:       "new product submitted for moderation",
			current:    models.ProductStatusNew,
			requested:  models.ProductStatusOnModeration,
			wantStatus: models.ProductStatusOnModeration,
		},
		{
			name:       "needs fix resubmitted for moderation",
			current:    models.ProductStatusNeedsFix,
			requested:  models.ProductStatusOnModeration,
			wantStatus: models.ProductStatusOnModeration,
		},
		{
			name:       "deleting an on sale product publishes deactivation",
			current:    models.ProductStatusOnSale,
			requested:  models.ProductStatusDeleted,
			wantStatus: models.ProductStatusDeleted,
			wantEffect: effectPublishDeactivated,
		},
		{
			name:       "deleting a new product is silent",
			current:    models.ProductStatusNew,
			requested:  models.ProductStatusDeleted,
			wantStatus: models.ProductStatusDeleted,
		},
		{
			name:       "deleting while on moderation is silent",
			current:    models.ProductStatusOnModeration,
			requested:  models.ProductStatusDeleted,
			wantStatus: models.ProductStatusDeleted,
		},
		{
			name:       "deleting ready for sale is silent",
			current:    models.ProductStatusReadyForSale,
			requested:  models.ProductStatusDeleted,
			wantStatus: models.ProductStatusDeleted,
		},
		{
			name:       "deleting needs fix is silent",
			current:    models.ProductStatusNeedsFix,
			requested:  models.ProductStatusDeleted,
			wantStatus: models.ProductStatusDeleted,
		},
		{
			name:       "deleting not for sale is silent",
			current:    models.ProductStatusNotForSale,
			requested:  models.ProductStatusDeleted,
			wantStatus: models.ProductStatusDeleted,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := resolveTransition(tt.current, tt.requested)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, result.NewStatus)
			assert.Equal(t, tt.wantActive, result.Active)
			assert.Equal(t, tt.wantEffect, result.Effect)
		})
	}
}

func TestResolveTransitionRejectsIllegalMoves(t *testing.T) {
	tests := []struct {
		name      string
		current   models.ProductStatus
		requested models.ProductStatus
	}{
		{"new cannot go straight on sale", models.ProductStatusNew, models.ProductStatusOnSale},
		{"on sale cannot go back to moderation", models.ProductStatusOnSale, models.ProductStatusOnModeration},
		{"deleted is terminal", models.ProductStatusDeleted, models.ProductStatusOnModeration},
		{"not for sale cannot re-enter sale directly", models.ProductStatusNotForSale, models.ProductStatusOnSale},
		{"ready for sale cannot be withdrawn", models.ProductStatusReadyForSale, models.ProductStatusNotForSale},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := resolveTransition(tt.current, tt.requested)
			require.Error(t, err)
			assert.Equal(t, apperrors.KindNotAcceptable, apperrors.KindOf(err))

			details, ok := apperrors.DetailsOf(err).(map[string]string)
			require.True(t, ok)
			assert.Equal(t, string(tt.current), details["current_status"])
		})
	}
}

func TestDeactivatedEventWireShape(t *testing.T) {
	publisher := &capturingPublisher{}
	productID := uuid.New()

	require.NoError(t, publisher.Publish(context.Background(), productID.String(),
		deactivatedEvent{ID: productID, IsActive: false}))
	require.Len(t, publisher.payloads, 1)
	assert.Equal(t, productID.String(), publisher.keys[0])

	body, err := json.Marshal(publisher.payloads[0])
	require.NoError(t, err)
	assert.JSONEq(t, `{"id": "`+productID.String()+`", "is_active": false}`, string(body))
}

func TestSnapshotMergesSellerAndQuantity(t *testing.T) {
	svc := NewStatusService(nil, &capturingPublisher{},
		fakeSellerGateway{data: map[string]interface{}{"id": "seller-1", "brand": "acme"}},
		fakeInventoryGateway{quantity: 12},
	)

	product := models.Product{Name: "Winter Jacket", Status: models.ProductStatusOnSale, IsActive: true}
	product.ID = uuid.New()

	snapshot, err := svc.buildSnapshot(context.Background(), nil, &product, "token")
	require.NoError(t, err)

	body, err := json.Marshal(snapshot)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &decoded))

	// product fields stay inlined at the top level of the document
	assert.Equal(t, product.ID.String(), decoded["id"])
	assert.Equal(t, "Winter Jacket", decoded["name"])
	assert.Equal(t, float64(12), decoded["storage_quantity"])

	seller, ok := decoded["seller"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "acme", seller["brand"])

	// no subcategory means no category in the document
	assert.NotContains(t, decoded, "category")
}

func TestResolveTransitionRejectsModeratorOnlyTargets(t *testing.T) {
	for _, requested := range []models.ProductStatus{
		models.ProductStatusNew,
		models.ProductStatusNeedsFix,
		models.ProductStatusReadyForSale,
	} {
		_, err := resolveTransition(models.ProductStatusOnModeration, requested)
		require.Error(t, err, "status %s must not be seller-changeable", requested)
		assert.Equal(t, apperrors.KindNotAcceptable, apperrors.KindOf(err))
	}
}
