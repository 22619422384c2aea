package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/atlasbio/occmap/internal/aggregate"
	"github.com/atlasbio/occmap/internal/boundary"
	"github.com/atlasbio/occmap/internal/crs"
	"github.com/atlasbio/occmap/internal/occurrence"
	"github.com/atlasbio/occmap/internal/report"
	"github.com/atlasbio/occmap/internal/sjoin"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the per-state summary table without rendering maps",
	RunE: func(cmd *cobra.Command, _ []string) error {
		boundaryPath, _ := cmd.Flags().GetString("boundary")
		occurrencePath, _ := cmd.Flags().GetString("occurrences")
		outPath, _ := cmd.Flags().GetString("out")
		format, _ := cmd.Flags().GetString("format")

		states, err := boundary.Load(boundaryPath)
		if err != nil {
			return err
		}
		states, err = crs.Reproject(states, cfg.Map.TargetEPSG)
		if err != nil {
			return err
		}
		states = boundary.FilterOut(states, cfg.Map.NameKey, cfg.Map.ExcludeRegions)

		table, err := occurrence.Load(occurrencePath, occurrence.Options{
			LatColumn: cfg.Map.LatColumn,
			LonColumn: cfg.Map.LonColumn,
		})
		if err != nil {
			return err
		}
		points, err := occurrence.Geometrize(table, cfg.Map.LonColumn, cfg.Map.LatColumn, cfg.Map.TargetEPSG, true)
		if err != nil {
			return err
		}

		joined, err := sjoin.Join(points, states, sjoin.Inner)
		if err != nil {
			return err
		}
		counts, err := aggregate.Summarize(joined, states, cfg.Map.GroupKey)
		if err != nil {
			return err
		}

		switch format {
		case "xlsx":
			err = report.WriteXLSX(counts, cfg.Map.GroupKey, outPath)
		case "csv":
			err = report.WriteCSV(counts, cfg.Map.GroupKey, outPath)
		default:
			err = eris.Errorf("export: unknown format %q", format)
		}
		if err != nil {
			return err
		}

		zap.L().Info("summary exported",
			zap.String("path", outPath),
			zap.String("format", format),
			zap.Int("states", counts.Len()),
		)
		return nil
	},
}

func init() {
	exportCmd.Flags().String("boundary", "", "path to the state boundary shapefile (.shp)")
	exportCmd.Flags().String("occurrences", "", "path to the occurrence CSV")
	exportCmd.Flags().String("out", "state_counts.xlsx", "output file path")
	exportCmd.Flags().String("format", "xlsx", "output format: xlsx or csv")
	_ = exportCmd.MarkFlagRequired("boundary")
	_ = exportCmd.MarkFlagRequired("occurrences")
	rootCmd.AddCommand(exportCmd)
}
