package services

import "errors"

var (
	// ErrValidation marks malformed or incomplete input. The message shown to
	// the client travels in a ValidationError.
	ErrValidation = errors.New("validation failed")

	ErrEmailTaken            = errors.New("user already exists with this email")
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrRegistrationForbidden = errors.New("admin registration is disabled")
	ErrUserNotFound          = errors.New("user not found")
	ErrProductNotFound       = errors.New("product not found")
	ErrExportUnavailable     = errors.New("object storage is not configured")
)

// ValidationError carries a client-facing message and matches ErrValidation.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalid(message string) error {
	return &ValidationError{Message: message}
}
