// Package repository is the postgres implementation of the data-access
// contract. Raw SQL over pgx; driver errors are mapped to the dataaccess
// taxonomy at this boundary and never escape raw.
package repository

import (
	"github.com/framewell/tracker/common/db"
	"github.com/framewell/tracker/common/logger"
	"github.com/framewell/tracker/dataaccess"
)

// Repository implements dataaccess.Client against postgres
type Repository struct {
	db  *db.DB
	log *logger.Logger
}

var _ dataaccess.Client = (*Repository)(nil)

// New creates a new repository
func New(database *db.DB, log *logger.Logger) *Repository {
	return &Repository{db: database, log: log}
}
