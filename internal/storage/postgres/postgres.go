// Package postgres implements the storage.Backend interface on PostgreSQL.
// Queries live in the embedded GORM backend; this package owns the
// connection.
package postgres

import (
	"fmt"

	"github.com/courtlab/drillboard/internal/config"
	"github.com/courtlab/drillboard/internal/database"
	gormstorage "github.com/courtlab/drillboard/internal/storage/gorm"
	"github.com/rs/zerolog"

	"gorm.io/gorm"
)

// Dependencies holds all dependencies for the Postgres storage backend.
type Dependencies struct {
	// DB is optional; Init connects with Config when nil.
	DB     *gorm.DB
	Config config.DBConfig
	Logger zerolog.Logger
}

// Backend implements storage.Backend on a Postgres connection.
type Backend struct {
	*gormstorage.Backend
	deps Dependencies
}

// New creates a new Postgres storage backend. No connection is made until
// Init.
func New(deps Dependencies) *Backend {
	return &Backend{deps: deps}
}

// Init connects if no DB was injected and runs schema migration.
func (b *Backend) Init() error {
	if b.deps.DB == nil {
		db, err := database.GetPostgresDB(b.deps.Config, b.deps.Logger)
		if err != nil {
			return fmt.Errorf("failed to connect to postgres: %w", err)
		}
		b.deps.DB = db
	}

	b.Backend = gormstorage.New(gormstorage.Dependencies{DB: b.deps.DB, Logger: b.deps.Logger})
	if err := b.Backend.Init(); err != nil {
		return fmt.Errorf("failed to setup DB: %w", err)
	}
	return nil
}

// Close closes the connection if Init opened one.
func (b *Backend) Close() error {
	if b.Backend == nil {
		return nil
	}
	return b.Backend.Close()
}
