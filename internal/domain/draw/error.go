package draw

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound      = errors.New("draw result not found")
	ErrAlreadyExists = errors.New("draw result already exists")
	ErrInvalidDraw   = errors.New("invalid draw result")
	ErrInvalidID     = errors.New("invalid draw id")
)

// ValidationError нарушение инварианта сущности
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid draw result: %s %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidDraw
}
