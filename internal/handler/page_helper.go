package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/edukite/catalog-api/pkg/pagination"
)

// pageParams extracts and validates the limit/offset window for list endpoints.
func pageParams(c *gin.Context, bounds pagination.Bounds) (pagination.Params, error) {
	return pagination.ParseParams(c.Query("limit"), c.Query("offset"), bounds)
}
