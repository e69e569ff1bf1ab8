package apperror

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// Kind is the machine-readable error category returned to API clients.
type Kind string

const (
	AuthenticationFailed Kind = "authentication_failed"
	AuthorizationDenied  Kind = "authorization_denied"
	ValidationFailed     Kind = "validation_failed"
	LimitExceeded        Kind = "limit_exceeded"
	SignatureInvalid     Kind = "signature_invalid"
	Conflict             Kind = "conflict"
	NotFound             Kind = "not_found"
	RateLimited          Kind = "rate_limited"
	Internal             Kind = "internal_error"
)

// Error carries a Kind, a message safe to show to clients and an optional cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a cause. The cause is logged but never sent to clients.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf extracts the Kind of err, defaulting to Internal.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return Internal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Kind == kind
}

// Status maps a Kind to its HTTP status code.
func Status(kind Kind) int {
	switch kind {
	case AuthenticationFailed, SignatureInvalid:
		return fiber.StatusUnauthorized
	case AuthorizationDenied, LimitExceeded:
		return fiber.StatusForbidden
	case ValidationFailed:
		return fiber.StatusUnprocessableEntity
	case Conflict:
		return fiber.StatusConflict
	case NotFound:
		return fiber.StatusNotFound
	case RateLimited:
		return fiber.StatusTooManyRequests
	default:
		return fiber.StatusInternalServerError
	}
}

// Response returns the status and JSON body for err. Internal errors never leak
// their cause.
func Response(err error) (int, fiber.Map) {
	var appErr *Error
	if errors.As(err, &appErr) {
		msg := appErr.Message
		if appErr.Kind == Internal && msg == "" {
			msg = "Internal server error"
		}
		return Status(appErr.Kind), fiber.Map{"error": string(appErr.Kind), "message": msg}
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		kind := kindForStatus(fiberErr.Code)
		return fiberErr.Code, fiber.Map{"error": string(kind), "message": fiberErr.Message}
	}

	return fiber.StatusInternalServerError, fiber.Map{"error": string(Internal), "message": "Internal server error"}
}

func kindForStatus(status int) Kind {
	switch status {
	case fiber.StatusUnauthorized:
		return AuthenticationFailed
	case fiber.StatusForbidden:
		return AuthorizationDenied
	case fiber.StatusBadRequest, fiber.StatusUnprocessableEntity, fiber.StatusRequestEntityTooLarge:
		return ValidationFailed
	case fiber.StatusConflict:
		return Conflict
	case fiber.StatusNotFound, fiber.StatusMethodNotAllowed:
		return NotFound
	case fiber.StatusTooManyRequests:
		return RateLimited
	default:
		if status < fiber.StatusInternalServerError {
			return ValidationFailed
		}
		return Internal
	}
}
