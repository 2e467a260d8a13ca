package repository

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/framewell/tracker/dataaccess"
)

// Postgres error codes we branch on
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

// mapErr converts a driver error to the dataaccess taxonomy. target names
// what the operation was acting on, for the error message only.
func mapErr(op, target string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return &dataaccess.NotFoundError{Target: target}
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return &dataaccess.ConflictError{Target: target}
		case pgForeignKeyViolation:
			// The referenced entity is gone (or never existed)
			return &dataaccess.NotFoundError{Target: target}
		case pgCheckViolation:
			return &dataaccess.ValidationError{Field: target, Message: pgErr.Message}
		}
	}

	return &dataaccess.TransportError{Op: op, Err: err}
}
