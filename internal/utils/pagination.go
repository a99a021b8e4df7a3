package utils

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/solver-marketplace-api/internal/constants"
)

// PaginationParams holds the pagination parameters
type PaginationParams struct {
	Page   int
	Limit  int
	Offset int
}

// PaginationResponse represents the pagination metadata in API responses
type PaginationResponse struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
}

// GetPaginationParams reads page and limit from the query string. page_size
// is accepted as an alias for limit.
func GetPaginationParams(c *gin.Context) PaginationParams {
	page, _ := strconv.Atoi(c.Query("page"))

	rawLimit := c.Query("limit")
	if rawLimit == "" {
		rawLimit = c.Query("page_size")
	}
	limit, _ := strconv.Atoi(rawLimit)

	return NewPaginationParams(page, limit)
}

// NewPaginationParams clamps page and limit to the allowed range
func NewPaginationParams(page, limit int) PaginationParams {
	if page < constants.MinPageSize {
		page = constants.MinPageSize
	}
	if limit < constants.MinPageSize || limit > constants.MaxPageSize {
		limit = constants.DefaultPageSize
	}

	return PaginationParams{
		Page:   page,
		Limit:  limit,
		Offset: (page - 1) * limit,
	}
}
