package errors

import (
	"fmt"
	"net/http"
)

// NewValidationError creates a validation error with field context
func NewValidationError(field, message string) *AppError {
	return New(ErrCodeValidationFailed, message).
		WithContext("field", field).
		WithUserMessage(message)
}

// NewConfigError creates a configuration error
func NewConfigError(key, message string) *AppError {
	return New(ErrCodeInvalidConfig, message).
		WithContext("config_key", key)
}

// NewDatabaseError creates a database error with operation context.
// The driver's message is kept as the cause and is what callers see.
func NewDatabaseError(operation string, err error) *AppError {
	return Wrap(err, ErrCodeDatabaseQuery, fmt.Sprintf("database %s failed", operation)).
		WithContext("operation", operation)
}

// NewAuthError creates an authentication error
func NewAuthError(reason string) *AppError {
	return New(ErrCodeAuthentication, "authentication failed").
		WithContext("reason", reason).
		WithUserMessage("Unauthorized")
}

// NewNotFoundError creates a not found error with resource context
func NewNotFoundError(resource, identifier string) *AppError {
	return New(ErrCodeNotFound, fmt.Sprintf("%s not found", resource)).
		WithContext("resource", resource).
		WithContext("identifier", identifier).
		WithUserMessage(fmt.Sprintf("%s not found", resource))
}

// NewDisplayError wraps a failure to show a notification
func NewDisplayError(tag string, err error) *AppError {
	return Wrap(err, ErrCodeNotificationDisplay, "failed to display notification").
		WithContext("tag", tag)
}

// NewWindowError wraps a failure to focus, message or open a window
func NewWindowError(operation string, err error) *AppError {
	return Wrap(err, ErrCodeWindowUnavailable, fmt.Sprintf("window %s failed", operation)).
		WithContext("operation", operation)
}

// NewAssistantError wraps an assistant API failure
func NewAssistantError(err error) *AppError {
	return &AppError{
		Code:        ErrCodeAssistantAPI,
		Message:     "assistant request failed",
		Cause:       err,
		Retryable:   true,
		UserMessage: "Assistant is unavailable",
	}
}

// HTTPStatusCode maps error codes to HTTP status codes
func HTTPStatusCode(err error) int {
	switch GetCode(err) {
	case ErrCodeValidationFailed, ErrCodeInvalidInput:
		return http.StatusBadRequest
	case ErrCodeAuthentication:
		return http.StatusUnauthorized
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case ErrCodeNotificationDisplay, ErrCodeWindowUnavailable, ErrCodeAssistantAPI:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// HTTPErrorResponse is the error body returned by every JSON endpoint
type HTTPErrorResponse struct {
	Error string `json:"error"`
}

// ToHTTPResponse converts an error to its response body
func ToHTTPResponse(err error) HTTPErrorResponse {
	return HTTPErrorResponse{Error: GetUserMessage(err)}
}
