package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindNotFound, KindOf(NotFound("task not found")))
	assert.Equal(t, KindInvalidInput, KindOf(fmt.Errorf("wrapped: %w", InvalidInput("title", "title is required"))))
	assert.Equal(t, KindInternal, KindOf(errors.New("connection reset")))
	assert.Equal(t, KindInternal, KindOf(nil))
}

func TestHTTPStatus(t *testing.T) {
	tests := map[Kind]int{
		KindInvalidInput:       http.StatusBadRequest,
		KindDuplicateEmail:     http.StatusConflict,
		KindInvalidCredentials: http.StatusUnauthorized,
		KindUnauthenticated:    http.StatusUnauthorized,
		KindForbidden:          http.StatusForbidden,
		KindNotFound:           http.StatusNotFound,
		KindConflict:           http.StatusConflict,
		KindInternal:           http.StatusInternalServerError,
	}

	for kind, status := range tests {
		t.Run(kind.String(), func(t *testing.T) {
			assert.Equal(t, status, kind.HTTPStatus())
		})
	}
}

func TestPublic_HidesInternalDetails(t *testing.T) {
	kind, message, field := Public(Internal(errors.New("pq: password authentication failed for user app")))
	assert.Equal(t, KindInternal, kind)
	assert.Equal(t, "internal server error", message)
	assert.Empty(t, field)

	kind, message, _ = Public(errors.New("raw driver error"))
	assert.Equal(t, KindInternal, kind)
	assert.NotContains(t, message, "driver")
}

func TestPublic_KeepsClientMessages(t *testing.T) {
	kind, message, field := Public(InvalidInput("email", "email must be a valid address"))
	assert.Equal(t, KindInvalidInput, kind)
	assert.Equal(t, "email must be a valid address", message)
	assert.Equal(t, "email", field)
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("unique constraint")
	err := DuplicateEmail(cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "duplicate_email")
}
