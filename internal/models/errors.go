package models

import "errors"

var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("produto not found")
	ErrConflict   = errors.New("produto already exists")
)

// ValidationError describe un campo inválido
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// NewValidationError crea un ValidationError para field
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}
