package handlers

import (
	"errors"
	"io"

	"todo-api/internal/apperrors"
	"todo-api/internal/middleware"

	"github.com/gin-gonic/gin"
)

func respondError(c *gin.Context, err error) {
	middleware.AbortWithError(c, err)
}

// bindJSON decodes the body into dst. An empty body decodes as {} so that
// missing fields are reported by the service that owns the rules.
func bindJSON(c *gin.Context, dst interface{}) error {
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		return apperrors.InvalidInput("body", "request body must be a valid JSON object")
	}
	return nil
}
