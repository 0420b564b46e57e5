package store

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// DuplicateNameError reports a unique-index violation on a
// user-visible name or slug. The database constraint is the
// authoritative check; callers surface Name back to the client.
type DuplicateNameError struct {
	Field string
	Name  string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("duplicate %s: %q", e.Field, e.Name)
}

// asDuplicate converts a SQLSTATE 23505 error into a
// DuplicateNameError carrying the attempted value, or returns err
// unchanged.
func asDuplicate(err error, field, name string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return &DuplicateNameError{Field: field, Name: name}
	}
	return err
}
