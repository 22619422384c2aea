// Package pipeline runs one end-to-end batch: load, reproject, filter,
// geometrize, join, aggregate, render.
package pipeline

import (
	"context"
	"image/color"
	"path/filepath"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/atlasbio/occmap/internal/aggregate"
	"github.com/atlasbio/occmap/internal/boundary"
	"github.com/atlasbio/occmap/internal/config"
	"github.com/atlasbio/occmap/internal/crs"
	"github.com/atlasbio/occmap/internal/feature"
	"github.com/atlasbio/occmap/internal/occurrence"
	"github.com/atlasbio/occmap/internal/sjoin"
	"github.com/atlasbio/occmap/internal/store"
)

// Output file names, fixed by convention.
const (
	SpeciesMapFile = "records_species_map.png"
	CountsMapFile  = "state_counts_map.png"
)

// Result summarizes a completed run and carries the derived collections
// for export.
type Result struct {
	States      *feature.Collection // filtered boundary polygons
	Points      *feature.Collection // geometrized occurrences
	Joined      *feature.Collection // occurrences with state attributes
	StateCounts *feature.Collection // aggregated per-state summaries
	SpeciesMap  string
	CountsMap   string
}

// Run executes the full pipeline. The store is optional; pass nil to
// skip persistence.
func Run(ctx context.Context, cfg *config.Config, boundaryPath, occurrencePath string, st store.Store) (*Result, error) {
	log := zap.L().With(zap.String("component", "pipeline"))

	// Boundary polygons.
	states, err := boundary.Load(boundaryPath)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: load boundaries")
	}
	log.Info("boundaries loaded",
		zap.Int("features", states.Len()),
		zap.Int("epsg", states.SRID),
	)

	states, err = crs.Reproject(states, cfg.Map.TargetEPSG)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: reproject boundaries")
	}

	states = boundary.FilterOut(states, cfg.Map.NameKey, cfg.Map.ExcludeRegions)
	log.Info("non-contiguous regions excluded", zap.Int("remaining", states.Len()))

	// Occurrence records.
	table, err := occurrence.Load(occurrencePath, occurrence.Options{
		Delimiter: delimiterRune(cfg.Map.Delimiter),
		LatColumn: cfg.Map.LatColumn,
		LonColumn: cfg.Map.LonColumn,
	})
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: load occurrences")
	}

	// Occurrence coordinates are WGS 84 by definition; reprojection is a
	// no-op unless a different target CRS is configured.
	points, err := occurrence.Geometrize(table, cfg.Map.LonColumn, cfg.Map.LatColumn, 4326, true)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: geometrize occurrences")
	}
	points, err = crs.Reproject(points, cfg.Map.TargetEPSG)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: reproject occurrences")
	}
	log.Info("occurrences geometrized", zap.Int("points", points.Len()))

	// Join and aggregate.
	joined, err := sjoin.Join(points, states, sjoin.Inner)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: spatial join")
	}

	counts, err := aggregate.Summarize(joined, states, cfg.Map.GroupKey)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: aggregate")
	}
	log.Info("per-state counts aggregated", zap.Int("states", counts.Len()))

	res := &Result{
		States:      states,
		Points:      points,
		Joined:      joined,
		StateCounts: counts,
		SpeciesMap:  filepath.Join(cfg.Render.OutputDir, SpeciesMapFile),
		CountsMap:   filepath.Join(cfg.Render.OutputDir, CountsMapFile),
	}

	// The two maps are independent terminal artifacts.
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := speciesMap(cfg, res).WritePNG(res.SpeciesMap); err != nil {
			return eris.Wrap(err, "pipeline: render species map")
		}
		return nil
	})
	g.Go(func() error {
		if err := countsMap(cfg, res).WritePNG(res.CountsMap); err != nil {
			return eris.Wrap(err, "pipeline: render counts map")
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if st != nil {
		if err := persist(ctx, st, boundaryPath, occurrencePath, cfg, res); err != nil {
			return nil, eris.Wrap(err, "pipeline: persist run")
		}
	}

	return res, nil
}

// persist records the run and its derived collections in the store.
func persist(ctx context.Context, st store.Store, boundaryPath, occurrencePath string, cfg *config.Config, res *Result) error {
	run := store.NewRun(boundaryPath, occurrencePath)
	if err := st.SaveRun(ctx, run); err != nil {
		return err
	}
	saved, err := st.SaveOccurrences(ctx, run.ID, res.Points, cfg.Map.SpeciesColumn)
	if err != nil {
		return err
	}
	states, err := st.SaveStateCounts(ctx, run.ID, res.StateCounts, cfg.Map.GroupKey)
	if err != nil {
		return err
	}
	zap.L().Info("run persisted",
		zap.String("run_id", run.ID),
		zap.Int64("occurrences", saved),
		zap.Int64("states", states),
	)
	return nil
}

func delimiterRune(s string) rune {
	switch s {
	case "", ",":
		return ','
	case "\\t", "\t", "tab":
		return '\t'
	default:
		return []rune(s)[0]
	}
}

// parseHexColor parses #RRGGBB; malformed values fall back to white.
func parseHexColor(s string) color.Color {
	if len(s) != 7 || s[0] != '#' {
		return color.White
	}
	hex := func(b byte) uint8 {
		switch {
		case b >= '0' && b <= '9':
			return b - '0'
		case b >= 'a' && b <= 'f':
			return b - 'a' + 10
		case b >= 'A' && b <= 'F':
			return b - 'A' + 10
		default:
			return 0
		}
	}
	return color.NRGBA{
		R: hex(s[1])<<4 | hex(s[2]),
		G: hex(s[3])<<4 | hex(s[4]),
		B: hex(s[5])<<4 | hex(s[6]),
		A: 0xFF,
	}
}
