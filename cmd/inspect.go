package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/atlasbio/occmap/internal/boundary"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <boundary.shp>",
	Short: "Print CRS, fields, and feature count of a boundary file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		col, err := boundary.Load(args[0])
		if err != nil {
			return err
		}

		crsLabel := "undefined"
		if col.SRID != 0 {
			crsLabel = fmt.Sprintf("EPSG:%d", col.SRID)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "File:     %s\n", args[0])
		fmt.Fprintf(out, "CRS:      %s\n", crsLabel)
		fmt.Fprintf(out, "Features: %d\n", col.Len())
		fmt.Fprintf(out, "Fields:   %s\n", strings.Join(col.Fields, ", "))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}
