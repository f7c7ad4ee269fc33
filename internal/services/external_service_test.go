// internal/services/external_service_test.go
package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sarawan-tech/products-backend/internal/apperrors"
	"github.com/sarawan-tech/products-backend/internal/config"
	"github.com/sarawan-tech/products-backend/internal/retry"
)

func newTestExternalService(sellerURL, inventoryURL string) *ExternalService {
	svc := NewExternalService(config.ExternalConfig{
		SellerServiceURL:    sellerURL,
		InventoryServiceURL: inventoryURL,
		RequestTimeout:      5,
	})
	svc.policy = retry.Policy{InitialInterval: time.Millisecond, MaxAttempts: 3}
	return svc
}

func TestSellerData(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer token-123", r.Header.Get("Authorization"))
		w.Write([]byte(`{"id": "abc", "brand": "acme", "extra": 1}`))
	}))
	defer server.Close()

	svc := newTestExternalService(server.URL, "")

	data, err := svc.SellerData(context.Background(), "token-123")
	require.NoError(t, err)
	assert.Equal(t, "abc", data["id"])
	assert.Equal(t, "acme", data["brand"])
}

func TestSellerDataMissingRequiredField(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id": "abc"}`))
	}))
	defer server.Close()

	svc := newTestExternalService(server.URL, "")

	_, err := svc.SellerData(context.Background(), "token-123")
	require.Error(t, err)
	assert.Equal(t, apperrors.KindUpstreamData, apperrors.KindOf(err))
}

func TestSellerDataRetriesTransportFailures(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"id": "abc", "brand": "acme"}`))
	}))
	defer server.Close()

	svc := newTestExternalService(server.URL, "")

	data, err := svc.SellerData(context.Background(), "token-123")
	require.NoError(t, err)
	assert.Equal(t, "acme", data["brand"])
	assert.Equal(t, int32(3), calls.Load())
}

func TestSellerDataExhaustsRetries(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	svc := newTestExternalService(server.URL, "")

	_, err := svc.SellerData(context.Background(), "token-123")
	require.Error(t, err)
	assert.Equal(t, apperrors.KindUpstreamUnavailable, apperrors.KindOf(err))
	assert.Equal(t, int32(3), calls.Load())
}

func TestSellerDataDoesNotRetryBrokenData(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`not json`))
	}))
	defer server.Close()

	svc := newTestExternalService(server.URL, "")

	_, err := svc.SellerData(context.Background(), "token-123")
	require.Error(t, err)
	assert.Equal(t, apperrors.KindUpstreamData, apperrors.KindOf(err))
	assert.Equal(t, int32(1), calls.Load())
}

func TestStorageQuantity(t *testing.T) {
	productID := uuid.New()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		w.Write([]byte(`[{"product_id": "` + productID.String() + `", "storage_quantity": 7}]`))
	}))
	defer server.Close()

	svc := newTestExternalService("", server.URL)

	quantity, err := svc.StorageQuantity(context.Background(), productID)
	require.NoError(t, err)
	assert.Equal(t, 7, quantity)
}

func TestStorageQuantityUnknownProductDefaultsToZero(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	svc := newTestExternalService("", server.URL)

	quantity, err := svc.StorageQuantity(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Equal(t, 0, quantity)
}

func TestStorageQuantityMissingFieldIsDataError(t *testing.T) {
	productID := uuid.New()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"product_id": "` + productID.String() + `"}]`))
	}))
	defer server.Close()

	svc := newTestExternalService("", server.URL)

	_, err := svc.StorageQuantity(context.Background(), productID)
	require.Error(t, err)
	assert.Equal(t, apperrors.KindUpstreamData, apperrors.KindOf(err))
}
