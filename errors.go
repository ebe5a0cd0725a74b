package adapter

import (
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
)

// Standard sentinel errors for common operations.
var (
	// ErrNotFound is returned when a requested row does not exist.
	ErrNotFound = errors.New("adapter: entity not found")
)

// NotFoundError reports a missing row for a model and primary key.
type NotFoundError struct {
	model string
	id    any
}

// Error returns the error string.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("adapter: %s not found (id=%v)", e.model, e.id)
}

// Is reports whether the target error matches NotFoundError.
// This allows errors.Is(err, ErrNotFound) to return true.
func (e *NotFoundError) Is(err error) bool {
	return err == ErrNotFound
}

// Model returns the model name.
func (e *NotFoundError) Model() string { return e.model }

// ID returns the primary key that was searched for.
func (e *NotFoundError) ID() any { return e.id }

// IsNotFound returns true if the error is a NotFoundError.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	var e *NotFoundError
	return errors.As(err, &e) || errors.Is(err, ErrNotFound)
}

// ConstraintError represents a database constraint violation.
type ConstraintError struct {
	msg  string
	wrap error
}

// Error returns the error string.
func (e ConstraintError) Error() string {
	return fmt.Sprintf("adapter: constraint failed: %s", e.msg)
}

// Unwrap returns the underlying error.
func (e ConstraintError) Unwrap() error {
	return e.wrap
}

// IsConstraintError returns true if the error is a ConstraintError.
func IsConstraintError(err error) bool {
	if err == nil {
		return false
	}
	var e ConstraintError
	return errors.As(err, &e)
}

// MySQL server error numbers classified as constraint violations.
const (
	errDupEntry        = 1062
	errBadNull         = 1048
	errRowIsReferenced = 1451
	errNoReferencedRow = 1452
)

// wrapError attaches model/operation context to a driver error and converts
// known MySQL constraint violations into ConstraintError.
func wrapError(model, op string, err error) error {
	if err == nil {
		return nil
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		switch me.Number {
		case errDupEntry, errBadNull, errRowIsReferenced, errNoReferencedRow:
			return ConstraintError{
				msg:  fmt.Sprintf("%s %s: %s", op, model, me.Message),
				wrap: err,
			}
		}
	}
	return fmt.Errorf("adapter: %s %s: %w", op, model, err)
}
