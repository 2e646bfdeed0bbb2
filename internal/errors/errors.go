// internal/errors/errors.go
package errors

import (
	"errors"
	"fmt"
)

// ErrorType classifies every failure the console can surface.
type ErrorType string

const (
	// Failure taxonomy for interactions with the analysis engine
	ErrorTypeNetwork      ErrorType = "network_failure"
	ErrorTypeService      ErrorType = "service_failure"
	ErrorTypeMalformed    ErrorType = "malformed_response"
	ErrorTypeCompliance   ErrorType = "compliance_rejection"
	ErrorTypePrecondition ErrorType = "precondition_violation"
)

// AppError is the application error structure. Every failure crossing a
// component boundary is one of these; raw transport errors never escape
// the request pipeline.
type AppError struct {
	Type    ErrorType
	Message string
	Err     error
	Code    string // user-facing error code
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap supports errors.Is / errors.As chains.
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new AppError.
func NewAppError(errType ErrorType, message string, originalError error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Err:     originalError,
		Code:    generateErrorCode(errType),
	}
}

// NewNetworkError marks a transport-level failure (no usable response).
func NewNetworkError(message string, originalError error) *AppError {
	return NewAppError(ErrorTypeNetwork, message, originalError)
}

// NewServiceError marks a non-2xx response from the engine.
func NewServiceError(message string, originalError error) *AppError {
	return NewAppError(ErrorTypeService, message, originalError)
}

// NewMalformedError marks a 2xx response whose body does not parse.
func NewMalformedError(message string, originalError error) *AppError {
	return NewAppError(ErrorTypeMalformed, message, originalError)
}

// NewComplianceError marks a business-level rejection of a custom clause.
// This is not a transport error: the engine answered successfully with a
// negative verdict.
func NewComplianceError(message string) *AppError {
	return NewAppError(ErrorTypeCompliance, message, nil)
}

// NewPreconditionError marks an operation invoked with missing or
// invalid required input.
func NewPreconditionError(message string) *AppError {
	return NewAppError(ErrorTypePrecondition, message, nil)
}

// IsNetworkError checks whether err is a transport failure.
func IsNetworkError(err error) bool {
	return isType(err, ErrorTypeNetwork)
}

// IsServiceError checks whether err is a non-2xx engine response.
func IsServiceError(err error) bool {
	return isType(err, ErrorTypeService)
}

// IsMalformedError checks whether err is an unparseable engine response.
func IsMalformedError(err error) bool {
	return isType(err, ErrorTypeMalformed)
}

// IsComplianceError checks whether err is a compliance rejection.
func IsComplianceError(err error) bool {
	return isType(err, ErrorTypeCompliance)
}

// IsPreconditionError checks whether err is a precondition violation.
func IsPreconditionError(err error) bool {
	return isType(err, ErrorTypePrecondition)
}

func isType(err error, errType ErrorType) bool {
	var appError *AppError
	if errors.As(err, &appError) {
		return appError.Type == errType
	}
	return false
}

// generateErrorCode maps an error type to its user-facing code.
func generateErrorCode(errType ErrorType) string {
	switch errType {
	case ErrorTypeNetwork:
		return "NETWORK_FAILURE"
	case ErrorTypeService:
		return "SERVICE_FAILURE"
	case ErrorTypeMalformed:
		return "MALFORMED_RESPONSE"
	case ErrorTypeCompliance:
		return "COMPLIANCE_REJECTION"
	case ErrorTypePrecondition:
		return "PRECONDITION_VIOLATION"
	default:
		return "UNKNOWN_ERROR"
	}
}

// WrapError wraps an existing error, preserving an AppError's type when
// one is already present in the chain.
func WrapError(err error, message string, errType ErrorType) error {
	if err == nil {
		return nil
	}

	var appError *AppError
	if errors.As(err, &appError) {
		return &AppError{
			Type:    appError.Type,
			Message: fmt.Sprintf("%s: %s", message, appError.Message),
			Err:     appError,
			Code:    appError.Code,
		}
	}

	return NewAppError(errType, message, err)
}
