package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/atlasbio/occmap/internal/pipeline"
	"github.com/atlasbio/occmap/internal/store"
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Run the full pipeline and render both maps",
	Long: `Loads the boundary shapefile and occurrence CSV, reprojects both to the
target CRS, filters non-contiguous regions, joins occurrence points to state
polygons, aggregates per-state counts, and writes records_species_map.png and
state_counts_map.png to the output directory.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		boundaryPath, _ := cmd.Flags().GetString("boundary")
		occurrencePath, _ := cmd.Flags().GetString("occurrences")
		outDir, _ := cmd.Flags().GetString("out")
		if outDir != "" {
			cfg.Render.OutputDir = outDir
		}
		if err := os.MkdirAll(cfg.Render.OutputDir, 0o755); err != nil {
			return eris.Wrap(err, "render: create output dir")
		}

		st, err := store.Open(ctx, cfg.Store)
		if err != nil {
			return err
		}
		if st != nil {
			defer func() { _ = st.Close() }()
			if err := st.Migrate(ctx); err != nil {
				return err
			}
		}

		res, err := pipeline.Run(ctx, cfg, boundaryPath, occurrencePath, st)
		if err != nil {
			return err
		}

		zap.L().Info("render complete",
			zap.String("species_map", res.SpeciesMap),
			zap.String("counts_map", res.CountsMap),
			zap.Int("states", res.StateCounts.Len()),
			zap.Int("records", res.Joined.Len()),
		)
		return nil
	},
}

func init() {
	renderCmd.Flags().String("boundary", "", "path to the state boundary shapefile (.shp)")
	renderCmd.Flags().String("occurrences", "", "path to the occurrence CSV")
	renderCmd.Flags().String("out", "", "output directory (overrides config)")
	_ = renderCmd.MarkFlagRequired("boundary")
	_ = renderCmd.MarkFlagRequired("occurrences")
	rootCmd.AddCommand(renderCmd)
}
