package repo

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

var (
	// ErrNotFound is returned when a referenced row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate matches any *DuplicateError via errors.Is.
	ErrDuplicate = errors.New("duplicate")
	// ErrSelfFollow is returned when a user tries to follow themselves.
	ErrSelfFollow = errors.New("cannot follow yourself")
)

// postgres SQLSTATE codes
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeCheckViolation      = "23514"
)

// constraintFields maps unique constraints to the form field they protect.
var constraintFields = map[string]string{
	"users_username_key": "username",
	"users_email_key":    "email",
}

// DuplicateError reports a unique constraint violation. Field is the form
// field the constraint protects, or empty when unknown.
type DuplicateError struct {
	Constraint string
	Field      string
}

func (e *DuplicateError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("duplicate %s", e.Field)
	}
	return fmt.Sprintf("duplicate key violates %s", e.Constraint)
}

func (e *DuplicateError) Is(target error) bool {
	return target == ErrDuplicate
}

// mapError translates driver errors into the package sentinels.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case codeUniqueViolation:
			return &DuplicateError{Constraint: pqErr.Constraint, Field: constraintFields[pqErr.Constraint]}
		case codeForeignKeyViolation:
			return ErrNotFound
		case codeCheckViolation:
			if pqErr.Constraint == "followers_no_self_follow" {
				return ErrSelfFollow
			}
		}
	}
	return err
}
