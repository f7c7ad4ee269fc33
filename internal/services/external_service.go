// internal/services/external_service.go
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/sarawan-tech/products-backend/internal/apperrors"
	"github.com/sarawan-tech/products-backend/internal/config"
	"github.com/sarawan-tech/products-backend/internal/retry"
)

// SellerGateway resolves the calling seller's account data from the auth
// service using the request's bearer token.
type SellerGateway interface {
	SellerData(ctx context.Context, userToken string) (map[string]interface{}, error)
}

// InventoryGateway reports the on-hand quantity for a product. Products the
// warehouse has never seen report 0.
type InventoryGateway interface {
	StorageQuantity(ctx context.Context, productID uuid.UUID) (int, error)
}

type ExternalService struct {
	client *http.Client
	config config.ExternalConfig
	policy retry.Policy
}

func NewExternalService(cfg config.ExternalConfig) *ExternalService {
	return &ExternalService{
		client: &http.Client{Timeout: time.Duration(cfg.RequestTimeout) * time.Second},
		config: cfg,
		policy: retry.DefaultPolicy(),
	}
}

func (s *ExternalService) SellerData(ctx context.Context, userToken string) (map[string]interface{}, error) {
	body, err := s.fetch(ctx, http.MethodGet, s.config.SellerServiceURL, nil, map[string]string{
		"Authorization": "Bearer " + userToken,
	})
	if err != nil {
		return nil, err
	}

	var data map[string]interface{}
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, apperrors.UpstreamData("failed to decode seller data", err)
	}

	// a seller account without an id or brand cannot be merged into the
	// snapshot; treat it as broken upstream data, not a transport failure
	for _, field := range []string{"id", "brand"} {
		if _, ok := data[field]; !ok {
			return nil, apperrors.UpstreamData(fmt.Sprintf("seller data is missing %q", field), nil)
		}
	}

	return data, nil
}

type storageQuantityRow struct {
	ProductID       string `json:"product_id"`
	StorageQuantity *int   `json:"storage_quantity"`
}

func (s *ExternalService) StorageQuantity(ctx context.Context, productID uuid.UUID) (int, error) {
	payload := []string{productID.String()}
	body, err := s.fetch(ctx, http.MethodPost, s.config.InventoryServiceURL, payload, nil)
	if err != nil {
		return 0, err
	}

	var rows []storageQuantityRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return 0, apperrors.UpstreamData("failed to decode storage quantity data", err)
	}

	for _, row := range rows {
		if row.ProductID != productID.String() {
			continue
		}
		if row.StorageQuantity == nil {
			return 0, apperrors.UpstreamData("storage quantity data is missing storage_quantity", nil)
		}
		return *row.StorageQuantity, nil
	}

	// the warehouse has no record of this product yet
	return 0, nil
}

// fetch performs one HTTP exchange under the retry policy. Connectivity
// problems and non-success statuses surface as upstream-unavailable after
// the retries are exhausted.
func (s *ExternalService) fetch(
	ctx context.Context,
	method, url string,
	payload interface{},
	headers map[string]string,
) ([]byte, error) {
	var responseBody []byte

	err := s.policy.Do(ctx, func() error {
		var reqBody *bytes.Reader
		if payload != nil {
			encoded, err := json.Marshal(payload)
			if err != nil {
				return apperrors.Wrap(apperrors.KindInternal, "failed to encode request payload", err)
			}
			reqBody = bytes.NewReader(encoded)
		} else {
			reqBody = bytes.NewReader(nil)
		}

		req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
		if err != nil {
			return apperrors.Wrap(apperrors.KindInternal, "failed to build request", err)
		}
		req.Header.Set("Content-Type", "application/json")
		for key, value := range headers {
			req.Header.Set(key, value)
		}

		resp, err := s.client.Do(req)
		if err != nil {
			return apperrors.UpstreamUnavailable(fmt.Sprintf("request to %s failed", url), err)
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return apperrors.UpstreamUnavailable(
				fmt.Sprintf("request to %s returned status %d", url, resp.StatusCode), nil)
		}

		responseBody, err = readAll(resp)
		return err
	})
	if err != nil {
		return nil, err
	}

	return responseBody, nil
}

func readAll(resp *http.Response) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return nil, apperrors.UpstreamUnavailable("failed to read response body", err)
	}
	return buf.Bytes(), nil
}
