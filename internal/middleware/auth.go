package middleware

import (
	"context"
	"errors"
	"strings"

	"todo-api/internal/apperrors"

	"github.com/gin-gonic/gin"
)

type contextKey string

const userIDKey contextKey = "user_id"

var (
	errMissingAuthHeader = errors.New("authorization header is required")
	errMalformedHeader   = errors.New("authorization header must use Bearer scheme")
)

type TokenVerifier interface {
	Verify(token string) (uint, error)
}

func WithUserID(ctx context.Context, userID uint) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

func UserIDFrom(ctx context.Context) (uint, bool) {
	userID, ok := ctx.Value(userIDKey).(uint)
	return userID, ok && userID != 0
}

// MustUserID panics when called on a route that does not run Authenticate.
func MustUserID(c *gin.Context) uint {
	userID, ok := UserIDFrom(c.Request.Context())
	if !ok {
		panic("middleware: MustUserID called without an authenticated identity")
	}
	return userID
}

// Authenticate rejects requests without a valid bearer token and attaches
// the token's identity to the request context.
func Authenticate(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := bearerToken(c.GetHeader("Authorization"))
		if err != nil {
			AbortWithError(c, apperrors.Unauthenticated(err))
			return
		}

		userID, err := verifier.Verify(token)
		if err != nil {
			AbortWithError(c, apperrors.Unauthenticated(err))
			return
		}

		c.Request = c.Request.WithContext(WithUserID(c.Request.Context(), userID))
		c.Next()
	}
}

func bearerToken(header string) (string, error) {
	if header == "" {
		return "", errMissingAuthHeader
	}

	scheme, token, found := strings.Cut(header, " ")
	if !found || scheme != "Bearer" {
		return "", errMalformedHeader
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return "", errMalformedHeader
	}
	return token, nil
}
