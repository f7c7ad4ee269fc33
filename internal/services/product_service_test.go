// internal/services/product_service_test.go
package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClampPage(t *testing.T) {
	tests := []struct {
		name           string
		totalCount     int64
		page           int
		size           int
		wantPage       int
		wantTotalPages int
	}{
		{"first page of many", 25, 1, 10, 1, 3},
		{"exact last page", 25, 3, 10, 3, 3},
		{"past the end clamps to last", 25, 9, 10, 3, 3},
		{"exactly divisible total", 20, 5, 10, 2, 2},
		{"no products still has one page", 0, 1, 10, 1, 1},
		{"no products with high page", 0, 40, 10, 1, 1},
		{"single product", 1, 2, 10, 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, totalPages := clampPage(tt.totalCount, tt.page, tt.size)
			assert.Equal(t, tt.wantPage, page)
			assert.Equal(t, tt.wantTotalPages, totalPages)
		})
	}
}

func TestMakeSlug(t *testing.T) {
	s := makeSlug("Зимняя куртка North Peak")
	assert.NotEmpty(t, s)
	assert.LessOrEqual(t, len(s), maxSlugLength)
	assert.NotContains(t, s, " ")
	assert.Equal(t, strings.ToLower(s), s)

	// the random suffix makes renames collision-free
	assert.NotEqual(t, s, makeSlug("Зимняя куртка North Peak"))

	long := makeSlug(strings.Repeat("winter-jacket-", 30))
	assert.LessOrEqual(t, len(long), maxSlugLength)
}
