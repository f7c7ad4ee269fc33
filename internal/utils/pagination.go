// internal/utils/pagination.go
package utils

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

type PaginationParams struct {
	Page int `json:"page"`
	Size int `json:"size"`
}

// GetPaginationParams reads page/size from the query string, falling back to
// the supplied defaults and bounding size to maxSize.
func GetPaginationParams(c *gin.Context, defaultSize, maxSize int) PaginationParams {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}

	size, err := strconv.Atoi(c.DefaultQuery("size", strconv.Itoa(defaultSize)))
	if err != nil || size < 1 || size > maxSize {
		size = defaultSize
	}

	return PaginationParams{Page: page, Size: size}
}
