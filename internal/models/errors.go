package models

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// Error names rendered in the "fail" envelope.
const (
	FieldErrorName    = "FieldError"
	ValueErrorName    = "ValueError"
	AuthErrorName     = "AuthError"
	NotFoundErrorName = "NotFoundError"
	ConflictErrorName = "ConflictError"
	InternalErrorName = "InternalError"
)

// ErrorBody is the error object of a failed response.
type ErrorBody struct {
	Name    string `json:"name"`
	Message string `json:"message"`
	Stack   string `json:"stack,omitempty"`
}

// ErrorResponse represents a standardized API error response
type ErrorResponse struct {
	Status string    `json:"status"`
	Error  ErrorBody `json:"error"`
}

// AppError represents a custom application error
type AppError struct {
	Name    string
	Status  int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewFieldError reports a required request key that is absent.
func NewFieldError(key string) *AppError {
	return &AppError{
		Name:    FieldErrorName,
		Status:  http.StatusBadRequest,
		Message: fmt.Sprintf("Request object is missing '%s' key!", key),
	}
}

// NewValueError reports a value that failed semantic validation.
func NewValueError(message string) *AppError {
	return &AppError{
		Name:    ValueErrorName,
		Status:  http.StatusBadRequest,
		Message: message,
	}
}

// NewAuthError reports an authentication failure. Status defaults to 401.
func NewAuthError(message string, status ...int) *AppError {
	code := http.StatusUnauthorized
	if len(status) > 0 {
		code = status[0]
	}
	return &AppError{
		Name:    AuthErrorName,
		Status:  code,
		Message: message,
	}
}

func NewNotFoundError(resource string, id interface{}) *AppError {
	return &AppError{
		Name:    NotFoundErrorName,
		Status:  http.StatusNotFound,
		Message: fmt.Sprintf("%s with ID %v not found", resource, id),
	}
}

// NewConflictError reports a version-checked save that lost against a concurrent write.
func NewConflictError(resource string, id interface{}) *AppError {
	return &AppError{
		Name:    ConflictErrorName,
		Status:  http.StatusConflict,
		Message: fmt.Sprintf("%s with ID %v was modified concurrently", resource, id),
	}
}

func NewInternalError(err error) *AppError {
	return &AppError{
		Name:    InternalErrorName,
		Status:  http.StatusInternalServerError,
		Message: "Internal server error",
		Err:     err,
	}
}

// AsAppError classifies err, wrapping anything unknown as an internal error.
func AsAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		name := InternalErrorName
		switch {
		case fiberErr.Code == fiber.StatusNotFound:
			name = NotFoundErrorName
		case fiberErr.Code < fiber.StatusInternalServerError:
			name = ValueErrorName
		}
		return &AppError{Name: name, Status: fiberErr.Code, Message: fiberErr.Message}
	}
	return NewInternalError(err)
}

// RespondWithError writes the "fail" envelope for err. verbose adds the
// wrapped error chain and is meant for non-production environments only.
func RespondWithError(c *fiber.Ctx, err error, verbose bool) error {
	appErr := AsAppError(err)

	body := ErrorBody{
		Name:    appErr.Name,
		Message: appErr.Message,
	}
	if verbose && appErr.Err != nil {
		body.Stack = appErr.Err.Error()
	}

	return c.Status(appErr.Status).JSON(ErrorResponse{
		Status: "fail",
		Error:  body,
	})
}
