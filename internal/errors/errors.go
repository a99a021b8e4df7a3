package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Error codes
const (
	// Authentication errors
	ErrCodeUnauthorized = "UNAUTHORIZED"

	// Validation errors
	ErrCodeInvalidInput = "INVALID_INPUT"

	// Service errors
	ErrCodeInternalError      = "INTERNAL_ERROR"
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
)

// Kind classifies lifecycle and authorization failures. The string value is
// also the API error code.
type Kind string

const (
	KindNotFound         Kind = "NOT_FOUND"
	KindWrongRole        Kind = "WRONG_ROLE"
	KindNotOwner         Kind = "NOT_OWNER"
	KindWrongStatus      Kind = "WRONG_STATUS"
	KindDuplicateRequest Kind = "DUPLICATE_REQUEST"
	KindValidation       Kind = "VALIDATION_ERROR"
	KindStoreUnavailable Kind = "STORE_UNAVAILABLE"
)

// Sentinels for errors.Is checks. Any *Error of the same kind matches.
var (
	ErrNotFound         = &Error{Kind: KindNotFound, Message: "not found"}
	ErrWrongRole        = &Error{Kind: KindWrongRole, Message: "wrong role"}
	ErrNotOwner         = &Error{Kind: KindNotOwner, Message: "not owner"}
	ErrWrongStatus      = &Error{Kind: KindWrongStatus, Message: "wrong status"}
	ErrDuplicateRequest = &Error{Kind: KindDuplicateRequest, Message: "duplicate request"}
	ErrValidation       = &Error{Kind: KindValidation, Message: "validation error"}
	ErrStoreUnavailable = &Error{Kind: KindStoreUnavailable, Message: "store unavailable"}
)

// Error is a typed domain failure. Message names the invariant that blocked
// the operation and is safe to show to the caller.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error with the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// New creates a domain error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf creates a domain error with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a cause to a domain error.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// NotFoundError builds a KindNotFound error for the named entity.
func NotFoundError(entity string) *Error {
	return Newf(KindNotFound, "%s not found", entity)
}

// Validation builds a KindValidation error.
func Validation(message string) *Error {
	return New(KindValidation, message)
}

// StoreUnavailable wraps a collaborator failure.
func StoreUnavailable(op string, err error) *Error {
	return Wrap(KindStoreUnavailable, "failed to "+op, err)
}

// KindOf returns the Kind of the first *Error in err's chain, or "" when none.
func KindOf(err error) Kind {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// HTTPStatus maps a kind onto the response status used by the API.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindWrongRole, KindNotOwner:
		return http.StatusForbidden
	case KindWrongStatus, KindDuplicateRequest:
		return http.StatusConflict
	case KindValidation:
		return http.StatusBadRequest
	case KindStoreUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// APIError represents a standardized API error response
type APIError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return e.Message
}

// NewAPIError creates a new APIError
func NewAPIError(code, message string) *APIError {
	return &APIError{
		Code:    code,
		Message: message,
	}
}

// NewAPIErrorWithDetails creates a new APIError with details
func NewAPIErrorWithDetails(code, message string, details interface{}) *APIError {
	return &APIError{
		Code:    code,
		Message: message,
		Details: details,
	}
}

// RespondWithError sends an error response
func RespondWithError(c *gin.Context, statusCode int, err *APIError) {
	c.JSON(statusCode, err)
}

// Respond writes err as an API error. Domain errors keep their kind as the
// code and their message; anything else becomes a 500 without internals.
func Respond(c *gin.Context, err error) {
	var e *Error
	if !stderrors.As(err, &e) {
		InternalError(c, "")
		return
	}

	message := e.Message
	if e.Kind == KindStoreUnavailable {
		// Store details stay in the logs.
		message = "Service temporarily unavailable, please retry"
	}
	RespondWithError(c, HTTPStatus(e.Kind), NewAPIError(string(e.Kind), message))
}

// Helper functions for common error responses

// Unauthorized sends a 401 response
func Unauthorized(c *gin.Context, message string) {
	if message == "" {
		message = "Authentication required"
	}
	RespondWithError(c, http.StatusUnauthorized, NewAPIError(ErrCodeUnauthorized, message))
}

// BadRequest sends a 400 response
func BadRequest(c *gin.Context, message string) {
	if message == "" {
		message = "Invalid request"
	}
	RespondWithError(c, http.StatusBadRequest, NewAPIError(ErrCodeInvalidInput, message))
}

// BadRequestWithDetails sends a 400 response with details
func BadRequestWithDetails(c *gin.Context, message string, details interface{}) {
	RespondWithError(c, http.StatusBadRequest, NewAPIErrorWithDetails(ErrCodeInvalidInput, message, details))
}

// InternalError sends a 500 response
func InternalError(c *gin.Context, message string) {
	if message == "" {
		message = "Internal server error"
	}
	RespondWithError(c, http.StatusInternalServerError, NewAPIError(ErrCodeInternalError, message))
}

// ServiceUnavailable sends a 503 response
func ServiceUnavailable(c *gin.Context, message string) {
	if message == "" {
		message = "Service temporarily unavailable"
	}
	RespondWithError(c, http.StatusServiceUnavailable, NewAPIError(ErrCodeServiceUnavailable, message))
}
