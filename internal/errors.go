package internal

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

type ErrorType string

const (
	ErrorTypeValidation   ErrorType = "VALIDATION_ERROR"
	ErrorTypeNotFound     ErrorType = "NOT_FOUND"
	ErrorTypeUnauthorized ErrorType = "UNAUTHORIZED"
	ErrorTypeForbidden    ErrorType = "FORBIDDEN"
	ErrorTypeConflict     ErrorType = "CONFLICT"
	ErrorTypeInternal     ErrorType = "INTERNAL_ERROR"
	ErrorTypeDependency   ErrorType = "DEPENDENCY_ERROR"
)

type ErrorCode string

const (
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeInvalidBody      ErrorCode = "INVALID_BODY"
	ErrCodeInternal         ErrorCode = "INTERNAL_ERROR"

	ErrCodeInvalidCredentials       ErrorCode = "INVALID_CREDENTIALS"
	ErrCodeUserInactive             ErrorCode = "USER_INACTIVE"
	ErrCodeNoCredential             ErrorCode = "NO_CREDENTIAL"
	ErrCodeInvalidToken             ErrorCode = "INVALID_TOKEN"
	ErrCodeInsufficientRole         ErrorCode = "INSUFFICIENT_ROLE"
	ErrCodeEmailExists              ErrorCode = "EMAIL_EXISTS"
	ErrCodeUserNotFound             ErrorCode = "USER_NOT_FOUND"
	ErrCodeCurrentPasswordIncorrect ErrorCode = "CURRENT_PASSWORD_INCORRECT"
	ErrCodeNotificationFailed       ErrorCode = "NOTIFICATION_FAILED"

	ErrCodeProjectNotFound    ErrorCode = "PROJECT_NOT_FOUND"
	ErrCodeIdentifierConflict ErrorCode = "IDENTIFIER_CONFLICT"
	ErrCodeSerialExhausted    ErrorCode = "SERIAL_EXHAUSTED"
)

type AppError struct {
	Type       ErrorType   `json:"type"`
	Code       ErrorCode   `json:"code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
	StatusCode int         `json:"-"`
	Cause      error       `json:"-"`
}

func (e *AppError) Error() string {
	if e.Details != nil {
		if validationErrors, ok := e.Details.(ValidationErrors); ok && len(validationErrors.Errors) > 0 {
			return validationErrors.Errors[0].Message
		}
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) GetDetailedMessage() string {
	if e.Details != nil {
		if validationErrors, ok := e.Details.(ValidationErrors); ok {
			if len(validationErrors.Errors) == 1 {
				return validationErrors.Errors[0].Message
			} else if len(validationErrors.Errors) > 1 {
				messages := make([]string, len(validationErrors.Errors))
				for i, err := range validationErrors.Errors {
					messages[i] = err.Message
				}
				return strings.Join(messages, "; ")
			}
		}
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an AppError with the same code, so copies
// made by WithCause still match their sentinel.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Type == t.Type
}

// WithCause returns a copy of e carrying cause. Sentinels are never mutated.
func (e *AppError) WithCause(cause error) *AppError {
	cp := *e
	cp.Cause = cause
	return &cp
}

// WithDetails returns a copy of e carrying details.
func (e *AppError) WithDetails(details interface{}) *AppError {
	cp := *e
	cp.Details = details
	return &cp
}

// IsServerSide reports whether the error should be paged on rather than
// treated as a client mistake.
func (e *AppError) IsServerSide() bool {
	return e.StatusCode >= http.StatusInternalServerError
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func NewValidationError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

func NewValidationFieldError(field, message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       ErrCodeValidationFailed,
		Message:    "Validation failed",
		StatusCode: http.StatusBadRequest,
		Details: ValidationErrors{
			Errors: []ValidationError{
				{Field: field, Message: message, Code: string(code)},
			},
		},
	}
}

func NewNotFoundError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

func NewUnauthorizedError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeUnauthorized,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusUnauthorized,
	}
}

func NewForbiddenError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeForbidden,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusForbidden,
	}
}

func NewInternalError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Code:       ErrCodeInternal,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

func NewConflictError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeConflict,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

// NewDependencyError describes a failure of an external collaborator such as
// the mail relay.
func NewDependencyError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeDependency,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusBadGateway,
	}
}

var (
	ErrInvalidBody = NewValidationError("invalid request body", ErrCodeInvalidBody)

	ErrInvalidCredentials       = NewUnauthorizedError("Invalid email or password", ErrCodeInvalidCredentials)
	ErrUserInactive             = NewForbiddenError("Your account is disabled", ErrCodeUserInactive)
	ErrNoCredential             = NewUnauthorizedError("no credential supplied", ErrCodeNoCredential)
	ErrInvalidToken             = NewForbiddenError("invalid credential", ErrCodeInvalidToken)
	ErrInsufficientRole         = NewForbiddenError("Access denied, insufficient role", ErrCodeInsufficientRole)
	ErrEmailExists              = NewConflictError("User already exists", ErrCodeEmailExists)
	ErrUserNotFound             = NewNotFoundError("User not found", ErrCodeUserNotFound)
	ErrCurrentPasswordIncorrect = NewValidationError("Current password is incorrect", ErrCodeCurrentPasswordIncorrect)
	ErrNotificationFailed       = NewDependencyError("failed to deliver notification", ErrCodeNotificationFailed)

	ErrProjectNotFound    = NewNotFoundError("Project not found", ErrCodeProjectNotFound)
	ErrIdentifierConflict = NewConflictError("could not allocate a unique project id", ErrCodeIdentifierConflict)
	ErrSerialExhausted    = NewConflictError("project id serial exhausted for this year", ErrCodeSerialExhausted)
)

func IsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

type Response struct {
	Error *AppError `json:"error"`
}

func (e *AppError) ToHTTPResponse() (int, interface{}) {
	return e.StatusCode, Response{Error: e}
}

func (e *AppError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type    ErrorType   `json:"type"`
		Code    ErrorCode   `json:"code"`
		Message string      `json:"message"`
		Details interface{} `json:"details,omitempty"`
	}{
		Type:    e.Type,
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	})
}
