package apperr

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

// Error is the single error shape the API emits: {code, message, details?}.
// Services return these; the fiber ErrorHandler below is the only place
// they are turned into HTTP responses.
type Error struct {
	Code    string      `json:"code"`
	Status  int         `json:"-"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func (e *Error) Error() string {
	return e.Message
}

func Validation(message string) *Error {
	return &Error{Code: "validation_error", Status: fiber.StatusBadRequest, Message: message}
}

func ValidationWithDetails(message string, details interface{}) *Error {
	return &Error{Code: "validation_error", Status: fiber.StatusBadRequest, Message: message, Details: details}
}

func NotFound(message string) *Error {
	return &Error{Code: "not_found", Status: fiber.StatusNotFound, Message: message}
}

func Conflict(message string) *Error {
	return &Error{Code: "conflict", Status: fiber.StatusBadRequest, Message: message}
}

// State marks an illegal lifecycle transition or an edit against a
// non-editable order status.
func State(message string) *Error {
	return &Error{Code: "state_error", Status: fiber.StatusBadRequest, Message: message}
}

func Internal(message string) *Error {
	return &Error{Code: "internal_error", Status: fiber.StatusInternalServerError, Message: message}
}

func Unauthorized(message string) *Error {
	return &Error{Code: "unauthorized", Status: fiber.StatusUnauthorized, Message: message}
}

func Forbidden(message string) *Error {
	return &Error{Code: "forbidden", Status: fiber.StatusForbidden, Message: message}
}

// Handler is the terminal fiber error handler. Anything that is not an
// *Error is reported as an opaque internal error.
func Handler(c *fiber.Ctx, err error) error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return c.Status(appErr.Status).JSON(appErr)
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return c.Status(fiberErr.Code).JSON(fiber.Map{
			"code":    "http_error",
			"message": fiberErr.Message,
		})
	}

	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"code":    "internal_error",
		"message": "internal server error",
	})
}
