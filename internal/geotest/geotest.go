// Package geotest builds small boundary shapefiles and occurrence CSV
// files for tests.
package geotest

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jonas-p/go-shp"
)

// WGS84WKT is the .prj content for EPSG:4326.
const WGS84WKT = `GEOGCS["GCS_WGS_1984",DATUM["D_WGS_1984",SPHEROID["WGS_1984",6378137.0,298.257223563]],PRIMEM["Greenwich",0.0],UNIT["Degree",0.0174532925199433]]`

// NAD83WKT is the .prj content for EPSG:4269.
const NAD83WKT = `GEOGCS["GCS_North_American_1983",DATUM["D_North_American_1983",SPHEROID["GRS_1980",6378137.0,298.257222101]],PRIMEM["Greenwich",0.0],UNIT["Degree",0.0174532925199433]]`

// State describes one rectangular test polygon.
type State struct {
	Name string
	Abbr string
	MinX, MinY, MaxX, MaxY float64
}

// Square returns a state covering [minX, minX+size] x [minY, minY+size].
func Square(name, abbr string, minX, minY, size float64) State {
	return State{Name: name, Abbr: abbr, MinX: minX, MinY: minY, MaxX: minX + size, MaxY: minY + size}
}

// WriteShapefile writes states as a polygon shapefile with NAME and
// STUSPS attributes plus the given .prj content, and returns the .shp
// path.
func WriteShapefile(t *testing.T, dir string, states []State, prjWKT string) string {
	t.Helper()

	path := filepath.Join(dir, "states.shp")
	w, err := shp.Create(path, shp.POLYGON)
	if err != nil {
		t.Fatalf("create shapefile: %v", err)
	}

	w.SetFields([]shp.Field{
		shp.StringField("NAME", 40),
		shp.StringField("STUSPS", 2),
	})

	for i, s := range states {
		ring := []shp.Point{
			{X: s.MinX, Y: s.MinY},
			{X: s.MinX, Y: s.MaxY},
			{X: s.MaxX, Y: s.MaxY},
			{X: s.MaxX, Y: s.MinY},
			{X: s.MinX, Y: s.MinY},
		}
		poly := shp.Polygon(*shp.NewPolyLine([][]shp.Point{ring}))
		w.Write(&poly)
		if err := w.WriteAttribute(i, 0, s.Name); err != nil {
			t.Fatalf("write NAME: %v", err)
		}
		if err := w.WriteAttribute(i, 1, s.Abbr); err != nil {
			t.Fatalf("write STUSPS: %v", err)
		}
	}
	w.Close()

	if prjWKT != "" {
		prjPath := strings.TrimSuffix(path, ".shp") + ".prj"
		if err := os.WriteFile(prjPath, []byte(prjWKT), 0o644); err != nil {
			t.Fatalf("write .prj: %v", err)
		}
	}
	return path
}

// WriteCSV writes header and rows as a comma-delimited file and returns
// its path.
func WriteCSV(t *testing.T, dir, name string, header []string, rows [][]string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create csv: %v", err)
	}
	defer func() { _ = f.Close() }()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		t.Fatalf("write header: %v", err)
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			t.Fatalf("write row: %v", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		t.Fatalf("flush csv: %v", err)
	}
	return path
}
