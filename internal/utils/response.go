// internal/utils/response.go
package utils

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/sarawan-tech/products-backend/internal/apperrors"
)

type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
}

type APIError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func SuccessResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Data:    data,
	})
}

func CreatedResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, APIResponse{
		Success: true,
		Data:    data,
	})
}

func ErrorResponse(c *gin.Context, statusCode int, code, message string, details interface{}) {
	c.JSON(statusCode, APIResponse{
		Success: false,
		Error: &APIError{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

func BadRequestResponse(c *gin.Context, message string, details interface{}) {
	if message == "" {
		message = "invalid request"
	}
	ErrorResponse(c, http.StatusBadRequest, "BAD_REQUEST", message, details)
}

func UnauthorizedResponse(c *gin.Context, message string) {
	if message == "" {
		message = "authentication required"
	}
	ErrorResponse(c, http.StatusUnauthorized, "UNAUTHORIZED", message, nil)
}

func ForbiddenResponse(c *gin.Context, message string) {
	if message == "" {
		message = "access denied"
	}
	ErrorResponse(c, http.StatusForbidden, "FORBIDDEN", message, nil)
}

func InternalErrorResponse(c *gin.Context, message string) {
	if message == "" {
		message = "internal server error"
	}
	ErrorResponse(c, http.StatusInternalServerError, "INTERNAL_ERROR", message, nil)
}

// HandleServiceError maps a service-layer error onto the HTTP surface. Any
// error without an explicit kind is reported as internal and logged.
func HandleServiceError(c *gin.Context, err error) {
	var appErr *apperrors.Error
	message := err.Error()
	var details interface{}
	kind := apperrors.KindOf(err)
	if errors.As(err, &appErr) {
		message = appErr.Message
		details = appErr.Details
	}

	switch kind {
	case apperrors.KindValidation:
		ErrorResponse(c, http.StatusUnprocessableEntity, "VALIDATION_ERROR", message, details)
	case apperrors.KindNotFound:
		ErrorResponse(c, http.StatusNotFound, "NOT_FOUND", message, details)
	case apperrors.KindForbidden:
		ErrorResponse(c, http.StatusForbidden, "FORBIDDEN", message, details)
	case apperrors.KindNotAcceptable:
		ErrorResponse(c, http.StatusNotAcceptable, "NOT_ACCEPTABLE", message, details)
	case apperrors.KindUpstreamData:
		ErrorResponse(c, http.StatusBadGateway, "UPSTREAM_DATA_ERROR", message, details)
	case apperrors.KindUpstreamUnavailable:
		ErrorResponse(c, http.StatusBadGateway, "UPSTREAM_UNAVAILABLE", message, details)
	case apperrors.KindStorage:
		logrus.WithError(err).Error("Storage operation failed")
		ErrorResponse(c, http.StatusInternalServerError, "STORAGE_ERROR", message, details)
	default:
		logrus.WithError(err).Error("Unhandled service error")
		InternalErrorResponse(c, "")
	}
}

func GetSellerIDFromContext(c *gin.Context) (string, bool) {
	if sellerID, exists := c.Get("seller_id"); exists {
		if sellerIDStr, ok := sellerID.(string); ok {
			return sellerIDStr, true
		}
	}
	return "", false
}

func GetUserTokenFromContext(c *gin.Context) (string, bool) {
	if token, exists := c.Get("user_token"); exists {
		if tokenStr, ok := token.(string); ok {
			return tokenStr, true
		}
	}
	return "", false
}
