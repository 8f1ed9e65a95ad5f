package repository

import (
	"errors"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

var (
	ErrRecordNotFound  = errors.New("record not found")
	ErrEditConflict    = errors.New("edit conflict")
	ErrDuplicateRecord = errors.New("duplicate record")
)

// Postgres error codes the repository translates.
const (
	codeForeignKeyViolation = "23503"
	codeUniqueViolation     = "23505"
)

// translate maps constraint violations onto the repository's sentinel errors.
func translate(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case codeUniqueViolation:
			return ErrDuplicateRecord
		case codeForeignKeyViolation:
			return ErrRecordNotFound
		}
	}
	return err
}

// validID reports whether id can be a primary key. Malformed ids never match a row.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
