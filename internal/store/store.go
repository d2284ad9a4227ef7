// Package store is the PostgreSQL persistence layer shared by the workers.
package store

import (
	"database/sql"
	"errors"
)

var ErrNotFound = errors.New("not found")

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}
