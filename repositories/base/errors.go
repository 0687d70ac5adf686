package base

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// RepositoryError wraps a failed database operation with its context.
type RepositoryError struct {
	Operation string
	Table     string
	Cause     error
}

func (e *RepositoryError) Error() string {
	return fmt.Sprintf("failed to %s %s: %v", e.Operation, e.Table, e.Cause)
}

func (e *RepositoryError) Unwrap() error {
	return e.Cause
}

// EntityNotFoundError reports that a referenced entity does not exist.
type EntityNotFoundError struct {
	Table      string
	Identifier string
}

func (e *EntityNotFoundError) Error() string {
	return fmt.Sprintf("%s with ID %s not found", e.Table, e.Identifier)
}

// NewRepositoryError creates a new repository error.
func NewRepositoryError(operation, table string, cause error) *RepositoryError {
	return &RepositoryError{Operation: operation, Table: table, Cause: cause}
}

// NewEntityNotFoundError creates a new entity not found error.
func NewEntityNotFoundError(table, identifier string) *EntityNotFoundError {
	return &EntityNotFoundError{Table: table, Identifier: identifier}
}

// HandleDBError maps GORM errors to the repository error types.
func HandleDBError(operation, table, identifier string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return NewEntityNotFoundError(table, identifier)
	}
	return NewRepositoryError(operation, table, err)
}

// WrapDBError wraps a database error with operation context.
func WrapDBError(operation, table string, err error) error {
	if err == nil {
		return nil
	}
	return NewRepositoryError(operation, table, err)
}

// IsEntityNotFound checks if err is an entity not found error.
func IsEntityNotFound(err error) bool {
	var notFound *EntityNotFoundError
	return errors.As(err, &notFound)
}
