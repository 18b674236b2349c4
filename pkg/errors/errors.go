package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/morich/attract-backend/pkg/i18n"
)

// Standard error types
var (
	ErrNotFound             = errors.New("resource not found")
	ErrBadRequest           = errors.New("bad request")
	ErrInternal             = errors.New("internal server error")
	ErrValidation           = errors.New("validation error")
	ErrMethodNotAllowed     = errors.New("method not allowed")
	ErrUnsupportedMediaType = errors.New("unsupported media type")
	ErrPayloadTooLarge      = errors.New("payload too large")
	ErrUnprocessable        = errors.New("unprocessable entity")
	ErrBadGateway           = errors.New("bad gateway")
	ErrGatewayTimeout       = errors.New("gateway timeout")
)

// AppError represents an application error with context
type AppError struct {
	Err        error             `json:"-"`
	Message    string            `json:"message"`
	MessageKey string            `json:"-"` // i18n key for localization
	Params     map[string]string `json:"-"` // Parameters for i18n interpolation
	Code       string            `json:"code"`
	StatusCode int               `json:"status_code"`
	Details    map[string]string `json:"details,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *AppError) Unwrap() error {
	return e.Err
}

// Localize returns a localized version of the error message.
// A "resource" parameter is itself translated when resources.<name> exists.
func (e *AppError) Localize(ctx context.Context) string {
	if e.MessageKey == "" {
		return e.Message
	}

	params := e.Params
	if resource, ok := params["resource"]; ok {
		key := "resources." + resource
		if translated := i18n.TFromContext(ctx, key); translated != key {
			params = make(map[string]string, len(e.Params))
			for k, v := range e.Params {
				params[k] = v
			}
			params["resource"] = translated
		}
	}
	return i18n.TFromContext(ctx, e.MessageKey, params)
}

// New creates a new AppError
func New(code string, message string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

// NewWithKey creates a new AppError whose message comes from the i18n catalog
func NewWithKey(code string, messageKey string, statusCode int, params ...map[string]string) *AppError {
	var p map[string]string
	if len(params) > 0 {
		p = params[0]
	}
	return &AppError{
		Code:       code,
		Message:    i18n.T(messageKey, p),
		MessageKey: messageKey,
		Params:     p,
		StatusCode: statusCode,
	}
}

// Wrap wraps an error with additional context
func Wrap(err error, code string, message string, statusCode int) *AppError {
	return &AppError{
		Err:        err,
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

// WithDetails adds details to an AppError
func (e *AppError) WithDetails(details map[string]string) *AppError {
	e.Details = details
	return e
}

// WithKey replaces the i18n key and default message
func (e *AppError) WithKey(messageKey string, params ...map[string]string) *AppError {
	var p map[string]string
	if len(params) > 0 {
		p = params[0]
	}
	e.MessageKey = messageKey
	e.Params = p
	e.Message = i18n.T(messageKey, p)
	return e
}

// WithCause records the underlying error next to the sentinel already set
func (e *AppError) WithCause(err error) *AppError {
	if e.Err == nil {
		e.Err = err
		return e
	}
	e.Err = fmt.Errorf("%w: %w", e.Err, err)
	return e
}

// Common error constructors

func NotFound(resource string) *AppError {
	return &AppError{
		Err:        ErrNotFound,
		Code:       "NOT_FOUND",
		Message:    fmt.Sprintf("%s not found", resource),
		MessageKey: "errors.not_found",
		Params:     map[string]string{"resource": resource},
		StatusCode: http.StatusNotFound,
	}
}

func BadRequest(message string) *AppError {
	return &AppError{
		Err:        ErrBadRequest,
		Code:       "BAD_REQUEST",
		Message:    message,
		MessageKey: "errors.bad_request",
		StatusCode: http.StatusBadRequest,
	}
}

func Internal(message string) *AppError {
	return &AppError{
		Err:        ErrInternal,
		Code:       "INTERNAL_ERROR",
		Message:    message,
		MessageKey: "errors.internal",
		StatusCode: http.StatusInternalServerError,
	}
}

func Validation(details map[string]string) *AppError {
	return &AppError{
		Err:        ErrValidation,
		Code:       "VALIDATION_ERROR",
		Message:    "validation failed",
		MessageKey: "errors.validation_failed",
		StatusCode: http.StatusBadRequest,
		Details:    details,
	}
}

func MethodNotAllowed() *AppError {
	return &AppError{
		Err:        ErrMethodNotAllowed,
		Code:       "METHOD_NOT_ALLOWED",
		Message:    "Method not allowed",
		MessageKey: "errors.method_not_allowed",
		StatusCode: http.StatusMethodNotAllowed,
	}
}

func UnsupportedMediaType(message string) *AppError {
	return &AppError{
		Err:        ErrUnsupportedMediaType,
		Code:       "UNSUPPORTED_MEDIA_TYPE",
		Message:    message,
		MessageKey: "errors.unsupported_media_type",
		StatusCode: http.StatusUnsupportedMediaType,
	}
}

func PayloadTooLarge(message string) *AppError {
	return &AppError{
		Err:        ErrPayloadTooLarge,
		Code:       "PAYLOAD_TOO_LARGE",
		Message:    message,
		MessageKey: "errors.payload_too_large",
		StatusCode: http.StatusRequestEntityTooLarge,
	}
}

func Unprocessable(message string) *AppError {
	return &AppError{
		Err:        ErrUnprocessable,
		Code:       "UNPROCESSABLE",
		Message:    message,
		MessageKey: "errors.unprocessable",
		StatusCode: http.StatusUnprocessableEntity,
	}
}

func BadGateway(message string) *AppError {
	return &AppError{
		Err:        ErrBadGateway,
		Code:       "UPSTREAM_ERROR",
		Message:    message,
		MessageKey: "errors.upstream",
		StatusCode: http.StatusBadGateway,
	}
}

func GatewayTimeout(message string) *AppError {
	return &AppError{
		Err:        ErrGatewayTimeout,
		Code:       "UPSTREAM_TIMEOUT",
		Message:    message,
		MessageKey: "errors.upstream_timeout",
		StatusCode: http.StatusGatewayTimeout,
	}
}

// Is checks if the error matches a target error
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As attempts to convert an error to a specific type
func As(err error, target any) bool {
	return errors.As(err, target)
}
