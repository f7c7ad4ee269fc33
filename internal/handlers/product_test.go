// internal/handlers/product_test.go
package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func statusChangeRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := NewProductHandler(nil)

	r := gin.New()
	r.PATCH("/products/:id/status", func(c *gin.Context) {
		c.Set("seller_id", uuid.New().String())
		c.Next()
	}, handler.ChangeProductStatus)
	return r
}

func TestChangeProductStatusRejectsMissingStatus(t *testing.T) {
	r := statusChangeRouter()

	// the validator fires before the service: an empty status is a 422,
	// not a rejected transition
	for _, body := range []string{`{}`, `{"status": ""}`} {
		req := httptest.NewRequest(http.MethodPatch, "/products/"+uuid.NewString()+"/status", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code, "body %s", body)
		assert.Contains(t, w.Body.String(), "VALIDATION_ERROR")
	}
}

func TestChangeProductStatusRejectsMalformedBody(t *testing.T) {
	r := statusChangeRouter()

	req := httptest.NewRequest(http.MethodPatch, "/products/"+uuid.NewString()+"/status", strings.NewReader(`{"status": 5}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
