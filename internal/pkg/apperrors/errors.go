package apperrors

import "errors"

// Common errors
var (
	ErrResourceNotFound = errors.New("resource not found")
	ErrConflict         = errors.New("conflict")

	// Authentication errors
	ErrUnauthenticated    = errors.New("authentication required")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountNotApproved = errors.New("account is waiting for admin approval")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenInvalid       = errors.New("invalid token")
	ErrTokenNotFound      = errors.New("token not found")
	ErrTokenRevoked       = errors.New("token revoked")

	// Authorization errors
	ErrPermissionDenied = errors.New("permission denied")

	// Validation errors
	ErrValidationFailed = errors.New("validation failed")
	ErrBadRequest       = errors.New("bad request")
)

// Domain errors. Each wraps a category so HandleAPIError can map it.
var (
	ErrUserNotFound       = NewCustomError(ErrResourceNotFound, "user not found")
	ErrPostNotFound       = NewCustomError(ErrResourceNotFound, "post not found")
	ErrCommentNotFound    = NewCustomError(ErrResourceNotFound, "comment not found")
	ErrBoardNotFound      = NewCustomError(ErrResourceNotFound, "board not found")
	ErrClassroomNotFound  = NewCustomError(ErrResourceNotFound, "classroom not found")
	ErrEmailAlreadyExists = NewCustomError(ErrConflict, "email already exists")
	ErrAlreadyApproved    = NewCustomError(ErrBadRequest, "user is already approved")
	ErrAlreadyPending     = NewCustomError(ErrBadRequest, "user is already pending")
)

// NewForbiddenError creates a permission error with a message
func NewForbiddenError(message string) error {
	return NewCustomError(ErrPermissionDenied, message)
}

// NewBadRequestError creates a bad request error with a message
func NewBadRequestError(message string) error {
	return NewCustomError(ErrBadRequest, message)
}

// NewValidationError creates a validation error bound to a request field
func NewValidationError(field, message string) error {
	return NewCustomError(ErrValidationFailed, message).WithDetails(map[string]interface{}{"field": field})
}

// CustomError represents application-specific errors with additional context
type CustomError struct {
	Err     error
	Message string
	Details map[string]interface{}
}

// Error implements error interface
func (e *CustomError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "unknown error"
}

// Unwrap implements errors.Unwrap interface
func (e *CustomError) Unwrap() error {
	return e.Err
}

// NewCustomError creates a CustomError with underlying error
func NewCustomError(err error, message string) *CustomError {
	return &CustomError{
		Err:     err,
		Message: message,
	}
}

// WithDetails adds context details to the error
func (e *CustomError) WithDetails(details map[string]interface{}) *CustomError {
	e.Details = details
	return e
}

// MessageOf returns the most specific user facing message carried by err
func MessageOf(err error) string {
	var custom *CustomError
	if errors.As(err, &custom) {
		return custom.Error()
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
