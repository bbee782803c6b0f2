// Package gormstorage implements storage.Backend on any GORM dialect. The
// sqlite and postgres backends embed it and only differ in how they connect.
package gormstorage

import (
	"context"
	"errors"
	"fmt"

	"github.com/courtlab/drillboard/internal/database"
	"github.com/courtlab/drillboard/internal/model"
	"github.com/courtlab/drillboard/internal/model/convert"
	"github.com/courtlab/drillboard/internal/storage"
	"github.com/rs/zerolog"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Dependencies holds all dependencies for the GORM storage backend.
type Dependencies struct {
	DB     *gorm.DB
	Logger zerolog.Logger
}

// Backend stores one row per drill in the drills table.
type Backend struct {
	deps Dependencies
}

// New creates a new GORM storage backend.
func New(deps Dependencies) *Backend {
	return &Backend{deps: deps}
}

// DB returns the underlying connection.
func (b *Backend) DB() *gorm.DB {
	return b.deps.DB
}

// Init runs schema migration.
func (b *Backend) Init() error {
	if b.deps.DB == nil {
		return fmt.Errorf("gorm backend has no database")
	}
	return database.Setup(b.deps.DB, b.deps.Logger)
}

// Close closes the connection pool.
func (b *Backend) Close() error {
	if b.deps.DB == nil {
		return nil
	}
	sqlDB, err := b.deps.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Save upserts the drill row for name.
func (b *Backend) Save(ctx context.Context, name string, snapshot []byte) error {
	if err := storage.ValidateName(name); err != nil {
		return err
	}
	row, err := convert.SnapshotToDrill(name, snapshot)
	if err != nil {
		return err
	}

	err = b.deps.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"updated_at", "title", "description", "entities", "relations", "size", "snapshot"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to save drill %s: %w", name, err)
	}

	b.deps.Logger.Debug().Str("drill", name).Int("bytes", len(snapshot)).Msg("Saved drill")
	return nil
}

// Load returns the snapshot of the drill row for name.
func (b *Backend) Load(ctx context.Context, name string) ([]byte, error) {
	var row model.Drill
	err := b.deps.DB.WithContext(ctx).Where("name = ?", name).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%s: %w", name, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load drill %s: %w", name, err)
	}
	return convert.DrillToSnapshot(row), nil
}

// List returns every drill sorted by name, without loading the snapshots.
func (b *Backend) List(ctx context.Context) ([]storage.Info, error) {
	var drills []model.Drill
	err := b.deps.DB.WithContext(ctx).
		Select("name", "title", "size", "updated_at").
		Order("name").
		Find(&drills).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list drills: %w", err)
	}

	out := make([]storage.Info, 0, len(drills))
	for _, d := range drills {
		out = append(out, storage.Info{
			Name:      d.Name,
			Title:     d.Title,
			Size:      d.Size,
			UpdatedAt: d.UpdatedAt.UTC(),
		})
	}
	return out, nil
}

// Delete removes the drill row for name.
func (b *Backend) Delete(ctx context.Context, name string) error {
	res := b.deps.DB.WithContext(ctx).Where("name = ?", name).Delete(&model.Drill{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete drill %s: %w", name, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%s: %w", name, storage.ErrNotFound)
	}
	return nil
}
