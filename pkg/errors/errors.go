package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents different types of errors in the system
type ErrorType string

const (
	// ErrorTypeNotFound indicates a resource was not found
	ErrorTypeNotFound ErrorType = "NOT_FOUND"

	// ErrorTypeValidation indicates local input failed a precondition
	ErrorTypeValidation ErrorType = "VALIDATION"

	// ErrorTypeConflict indicates the same operation is already in flight
	ErrorTypeConflict ErrorType = "CONFLICT"

	// ErrorTypeUnauthorized indicates unauthorized access
	ErrorTypeUnauthorized ErrorType = "UNAUTHORIZED"

	// ErrorTypeInternal indicates an internal server error
	ErrorTypeInternal ErrorType = "INTERNAL"

	// ErrorTypeExternal indicates the marketplace API or checkout provider failed
	ErrorTypeExternal ErrorType = "EXTERNAL"

	// ErrorTypeConfirmationRequired gates a destructive action
	ErrorTypeConfirmationRequired ErrorType = "CONFIRMATION_REQUIRED"

	// ErrorTypePaymentAmbiguous means money may have moved without a confirmed booking
	ErrorTypePaymentAmbiguous ErrorType = "PAYMENT_AMBIGUOUS"
)

// GenericUserMessage is shown when nothing more specific is known
const GenericUserMessage = "Something went wrong. Please try again."

// SupportUserMessage is shown when a payment needs human follow-up
const SupportUserMessage = "We could not confirm your payment. Please contact support before trying again."

// AppError represents an application error
type AppError struct {
	Type    ErrorType
	Message string
	// StatusCode is the remote HTTP status for EXTERNAL errors, zero otherwise
	StatusCode int
	Err        error
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements the unwrap interface
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeNotFound,
		Message: message,
	}
}

// NewValidationError creates a new validation error
func NewValidationError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeValidation,
		Message: message,
	}
}

// NewConflictError creates a new conflict error
func NewConflictError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeConflict,
		Message: message,
	}
}

// NewUnauthorizedError creates a new unauthorized error
func NewUnauthorizedError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeUnauthorized,
		Message: message,
	}
}

// NewInternalError creates a new internal error
func NewInternalError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeInternal,
		Message: message,
		Err:     err,
	}
}

// NewExternalError creates a new external service error
func NewExternalError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeExternal,
		Message: message,
		Err:     err,
	}
}

// NewRemoteError wraps a non-2xx marketplace response. serverMessage may be empty.
func NewRemoteError(statusCode int, serverMessage string) *AppError {
	return &AppError{
		Type:       ErrorTypeExternal,
		Message:    serverMessage,
		StatusCode: statusCode,
		Err:        fmt.Errorf("marketplace api returned status %d", statusCode),
	}
}

// NewConfirmationRequiredError carries the prompt the user has to accept
func NewConfirmationRequiredError(prompt string) *AppError {
	return &AppError{
		Type:    ErrorTypeConfirmationRequired,
		Message: prompt,
	}
}

// NewPaymentAmbiguousError marks a failure after the checkout reported success
func NewPaymentAmbiguousError(err error) *AppError {
	return &AppError{
		Type:    ErrorTypePaymentAmbiguous,
		Message: SupportUserMessage,
		Err:     err,
	}
}

// As returns the first AppError in err's chain
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsType reports whether err carries an AppError of the given type
func IsType(err error, t ErrorType) bool {
	appErr, ok := As(err)
	return ok && appErr.Type == t
}

// UserMessage picks the text a user should see for err: the server-provided
// message when there is one, the local message for validation-like errors,
// and fallback otherwise.
func UserMessage(err error, fallback string) string {
	if err == nil {
		return ""
	}
	appErr, ok := As(err)
	if !ok || appErr.Message == "" {
		return fallback
	}
	switch appErr.Type {
	case ErrorTypeExternal, ErrorTypeValidation, ErrorTypeConflict,
		ErrorTypeConfirmationRequired, ErrorTypePaymentAmbiguous, ErrorTypeNotFound:
		return appErr.Message
	}
	return fallback
}
