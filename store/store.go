// Package store persists templates, categories, and image assets in SQLite.
//
// The editor and render pipeline only see the narrow collaborator
// contracts (save/list/load templates, resolve a category badge, upload an
// image); the schema stays private to this package.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/atelierlab/maquette/idgen"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("store: not found")

const schema = `
CREATE TABLE IF NOT EXISTS templates (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	data       TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS categories (
	key        TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	badge_id   TEXT REFERENCES assets(id) ON DELETE SET NULL,
	created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS assets (
	id         TEXT PRIMARY KEY,
	mime       TEXT NOT NULL,
	width      INTEGER NOT NULL,
	height     INTEGER NOT NULL,
	data       BLOB NOT NULL,
	created_at INTEGER NOT NULL
);
`

// Store wraps the content database.
type Store struct {
	db    *sql.DB
	newID idgen.Generator
}

// Option configures a Store.
type Option func(*Store)

// WithIDGenerator overrides the default ID generator (handy in tests).
func WithIDGenerator(gen idgen.Generator) Option {
	return func(s *Store) { s.newID = gen }
}

// New creates a Store over an opened database.
func New(db *sql.DB, opts ...Option) *Store {
	s := &Store{db: db, newID: idgen.Default}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Init creates the schema.
func (s *Store) Init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("store: init schema: %w", err)
	}
	return nil
}
