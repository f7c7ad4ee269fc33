// internal/middleware/auth.go
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/sarawan-tech/products-backend/internal/utils"
)

// SellerAuth validates the bearer token and stores the seller id plus the
// raw token (forwarded to upstream services) in the request context.
func SellerAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.UnauthorizedResponse(c, "Authorization header required")
			c.Abort()
			return
		}

		tokenParts := strings.Split(authHeader, " ")
		if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
			utils.UnauthorizedResponse(c, "Invalid authorization header format")
			c.Abort()
			return
		}

		claims, err := utils.ValidateJWT(tokenParts[1])
		if err != nil {
			utils.UnauthorizedResponse(c, "Invalid or expired token")
			c.Abort()
			return
		}

		if _, err := uuid.Parse(claims.SellerID); err != nil {
			utils.UnauthorizedResponse(c, "Invalid token claims")
			c.Abort()
			return
		}

		c.Set("seller_id", claims.SellerID)
		c.Set("user_token", tokenParts[1])
		c.Next()
	}
}

// APIKeyAuth guards the internal endpoints with a static service key.
func APIKeyAuth(apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if apiKey == "" || c.GetHeader("X-API-Key") != apiKey {
			utils.ForbiddenResponse(c, "")
			c.Abort()
			return
		}
		c.Next()
	}
}
