// Package store optionally persists pipeline runs: the geometrized
// occurrence points and the per-state aggregates, with geometries kept
// as EWKB. Two drivers are available, SQLite for local runs and
// Postgres/PostGIS for shared databases.
package store

import (
	"context"
	"time"

	ctgeom "github.com/ctessum/geom"
	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/atlasbio/occmap/internal/config"
	"github.com/atlasbio/occmap/internal/feature"
)

// Run records one pipeline execution.
type Run struct {
	ID             string
	BoundaryPath   string
	OccurrencePath string
	StartedAt      time.Time
}

// NewRun returns a Run with a fresh ID for the given inputs.
func NewRun(boundaryPath, occurrencePath string) *Run {
	return &Run{
		ID:             uuid.NewString(),
		BoundaryPath:   boundaryPath,
		OccurrencePath: occurrencePath,
		StartedAt:      time.Now().UTC(),
	}
}

// Store persists runs and their derived collections.
type Store interface {
	Migrate(ctx context.Context) error
	SaveRun(ctx context.Context, run *Run) error
	SaveOccurrences(ctx context.Context, runID string, points *feature.Collection, speciesCol string) (int64, error)
	SaveStateCounts(ctx context.Context, runID string, states *feature.Collection, key string) (int64, error)
	Close() error
}

// pointCoords extracts the point geometry and its coordinates from a
// feature, reporting false for non-point geometries.
func pointCoords(f *feature.Feature) (ctgeom.Point, float64, float64, bool) {
	pt, ok := f.Geom.(ctgeom.Point)
	if !ok {
		return ctgeom.Point{}, 0, 0, false
	}
	return pt, pt.X, pt.Y, true
}

// Open returns the store for the configured driver, or nil when
// persistence is disabled.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case "":
		return nil, nil
	case "sqlite":
		return NewSQLite(cfg.Path)
	case "postgres":
		return NewPostgres(ctx, cfg.DatabaseURL)
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
}
