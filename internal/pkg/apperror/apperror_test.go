package apperror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
)

func TestStatus(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{AuthenticationFailed, fiber.StatusUnauthorized},
		{SignatureInvalid, fiber.StatusUnauthorized},
		{AuthorizationDenied, fiber.StatusForbidden},
		{LimitExceeded, fiber.StatusForbidden},
		{ValidationFailed, fiber.StatusUnprocessableEntity},
		{Conflict, fiber.StatusConflict},
		{NotFound, fiber.StatusNotFound},
		{RateLimited, fiber.StatusTooManyRequests},
		{Internal, fiber.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Status(tt.kind), "kind %s", tt.kind)
	}
}

func TestKindOfWrapped(t *testing.T) {
	base := New(LimitExceeded, "Plan user limit reached")
	wrapped := fmt.Errorf("create member: %w", base)

	assert.Equal(t, LimitExceeded, KindOf(wrapped))
	assert.True(t, Is(wrapped, LimitExceeded))
	assert.Equal(t, Internal, KindOf(errors.New("boom")))
}

func TestResponseHidesInternalCause(t *testing.T) {
	status, body := Response(Wrap(Internal, "", errors.New("dial tcp: connection refused")))
	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.Equal(t, "internal_error", body["error"])
	assert.Equal(t, "Internal server error", body["message"])

	status, body = Response(errors.New("plain"))
	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.Equal(t, "internal_error", body["error"])
}

func TestResponseFiberError(t *testing.T) {
	status, body := Response(fiber.ErrNotFound)
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, "not_found", body["error"])

	status, body = Response(fiber.NewError(fiber.StatusTooManyRequests, "slow down"))
	assert.Equal(t, fiber.StatusTooManyRequests, status)
	assert.Equal(t, "rate_limited", body["error"])
}
