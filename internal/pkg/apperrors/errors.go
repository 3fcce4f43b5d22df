package apperrors

import "errors"

// Common errors
var (
	ErrResourceNotFound      = errors.New("resource not found")
	ErrResourceAlreadyExists = errors.New("resource already exists")
	ErrConflict              = errors.New("conflict")

	// Authentication errors
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenInvalid       = errors.New("invalid token")
	ErrInvalidFormat      = errors.New("invalid token format")
	ErrAccountDisabled    = errors.New("account is disabled")

	// Authorization errors
	ErrPermissionDenied = errors.New("permission denied")

	// Validation errors
	ErrValidationFailed = errors.New("validation failed")
	ErrBadRequest       = errors.New("bad request")
)

// Registration workflow errors
var (
	// ErrScopeNotFound means the (program, enrollment year) scope could not be
	// resolved, usually because the program does not exist.
	ErrScopeNotFound = errors.New("program scope not found")

	// ErrFeeScheduleNotFound means a program has no configured fee schedule.
	// Registration must never proceed with a zero bill.
	ErrFeeScheduleNotFound = errors.New("fee schedule not found")

	// ErrNoRoomAvailable is non-fatal: the orchestrator downgrades the
	// accommodation stage instead of failing the registration.
	ErrNoRoomAvailable = errors.New("no room available")

	// ErrDuplicateSubmission is returned when a request token maps to an
	// already completed registration attempt.
	ErrDuplicateSubmission = errors.New("duplicate registration submission")

	// ErrInvariantViolation indicates shared-state corruption detected at
	// write time (occupancy overflow, reused student number). Always fatal.
	ErrInvariantViolation = errors.New("invariant violation")
)

// Persistence errors, candidates for stage-level retry with backoff.
var (
	ErrPersistenceTimeout  = errors.New("persistence timeout")
	ErrPersistenceConflict = errors.New("persistence conflict")
)

// Entity errors
var (
	ErrStudentNotFound  = errors.New("student not found")
	ErrProgramNotFound  = errors.New("program not found")
	ErrPaymentNotFound  = errors.New("payment not found")
	ErrAttemptNotFound  = errors.New("registration attempt not found")
	ErrUserNotFound     = errors.New("user not found")
	ErrPaymentFinalized = errors.New("payment verification already finalized")
)

// NewResourceNotFoundError creates a new custom error for resource not found with a message
func NewResourceNotFoundError(message string) error {
	return &CustomError{
		Err:     ErrResourceNotFound,
		Message: message,
	}
}

// NewConflictError creates a new custom error for conflict situations with a message
func NewConflictError(message string) error {
	return &CustomError{
		Err:     ErrConflict,
		Message: message,
	}
}

// NewBadRequestError creates a new custom error for bad request with a message
func NewBadRequestError(message string) error {
	return &CustomError{
		Err:     ErrBadRequest,
		Message: message,
	}
}

// NewInvariantViolationError wraps ErrInvariantViolation with context.
// Callers log these at the highest severity: they indicate a serialization
// bug, not bad input.
func NewInvariantViolationError(message string) error {
	return &CustomError{
		Err:     ErrInvariantViolation,
		Message: message,
	}
}

// IsTransient reports whether an error is a stage-level retry candidate.
func IsTransient(err error) bool {
	return errors.Is(err, ErrPersistenceTimeout) || errors.Is(err, ErrPersistenceConflict)
}

// CustomError represents application-specific errors with additional context
type CustomError struct {
	Err     error
	Message string
	Code    string
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

// WithCode adds an error code
func (e *CustomError) WithCode(code string) *CustomError {
	e.Code = code
	return e
}
