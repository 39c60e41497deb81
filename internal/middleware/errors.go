package middleware

import (
	"todo-api/internal/apperrors"

	"github.com/gin-gonic/gin"
)

// AbortWithError records err on the context for the request logger and
// writes its public view. Internal causes never reach the body.
func AbortWithError(c *gin.Context, err error) {
	_ = c.Error(err)

	kind, message, field := apperrors.Public(err)
	body := gin.H{
		"error":   kind.String(),
		"message": message,
	}
	if field != "" {
		body["field"] = field
	}

	c.AbortWithStatusJSON(kind.HTTPStatus(), body)
}
