// Package boundary loads polygon boundary shapefiles into feature
// collections and filters them by attribute value.
package boundary

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/ctessum/geom"
	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/atlasbio/occmap/internal/errs"
	"github.com/atlasbio/occmap/internal/feature"
)

// ErrLoad indicates a missing, malformed, or geometry-less boundary file.
var ErrLoad = eris.New("boundary: load error")

// Load reads a polygon shapefile and returns a feature collection with
// one feature per shape, carrying every DBF attribute as a string. The
// collection SRID is detected from the sidecar .prj file; 0 if unknown.
func Load(shpPath string) (*feature.Collection, error) {
	reader, err := shp.Open(shpPath)
	if err != nil {
		return nil, errs.Wrapf(ErrLoad, err, "open shapefile %s", shpPath)
	}
	defer func() { _ = reader.Close() }()

	fields := reader.Fields()
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = strings.TrimRight(f.String(), "\x00")
	}

	col := feature.New(detectSRID(shpPath), names)

	var skipped int
	for reader.Next() {
		_, shape := reader.Shape()

		g := shapeToGeom(shape)
		if g == nil {
			skipped++
			continue
		}

		attrs := make(map[string]any, len(names))
		for i, name := range names {
			val := strings.TrimSpace(strings.TrimRight(reader.Attribute(i), "\x00"))
			attrs[name] = val
		}
		col.Append(&feature.Feature{Geom: g, Attrs: attrs})
	}
	if err := reader.Err(); err != nil {
		return nil, errs.Wrapf(ErrLoad, err, "read shapefile %s", shpPath)
	}

	if col.Len() == 0 {
		return nil, eris.Wrapf(ErrLoad, "no readable geometry in %s", shpPath)
	}

	if skipped > 0 {
		zap.L().Debug("skipped shapefile records without geometry",
			zap.String("path", shpPath),
			zap.Int("skipped", skipped),
		)
	}
	return col, nil
}

// FilterOut returns a new collection containing only features whose
// value for key is not in the excluded set. Feature order is preserved;
// an empty exclusion set returns a copy of the input.
func FilterOut(col *feature.Collection, key string, excluded []string) *feature.Collection {
	drop := make(map[string]struct{}, len(excluded))
	for _, v := range excluded {
		drop[v] = struct{}{}
	}

	out := col.Derive()
	for _, f := range col.Features {
		if _, ok := drop[f.String(key)]; ok {
			continue
		}
		out.Append(f)
	}
	return out
}

// shapeToGeom converts a go-shp shape to a ctessum/geom geometry.
// Unsupported or empty shapes return nil.
func shapeToGeom(shape shp.Shape) geom.Geom {
	switch s := shape.(type) {
	case *shp.Point:
		return geom.Point{X: s.X, Y: s.Y}
	case *shp.Polygon:
		return partsToPolygon(s.NumParts, s.Parts, s.Points)
	case *shp.PolyLine:
		// Some boundary products store rings as polylines.
		return partsToPolygon(s.NumParts, s.Parts, s.Points)
	default:
		return nil
	}
}

// partsToPolygon assembles shapefile part offsets into polygon rings.
func partsToPolygon(numParts int32, parts []int32, points []shp.Point) geom.Geom {
	if numParts == 0 || len(points) == 0 {
		return nil
	}

	poly := make(geom.Polygon, 0, numParts)
	for i := int32(0); i < numParts; i++ {
		start := parts[i]
		end := int32(len(points))
		if i+1 < numParts {
			end = parts[i+1]
		}

		ring := make([]geom.Point, 0, end-start)
		for j := start; j < end; j++ {
			ring = append(ring, geom.Point{X: points[j].X, Y: points[j].Y})
		}
		if len(ring) < 3 {
			continue
		}
		poly = append(poly, ring)
	}

	if len(poly) == 0 {
		return nil
	}
	return poly
}

// detectSRID reads the sidecar .prj file and maps recognized WKT datum
// families to EPSG codes. Returns 0 when the CRS cannot be determined.
func detectSRID(shpPath string) int {
	prjPath := strings.TrimSuffix(shpPath, filepath.Ext(shpPath)) + ".prj"
	data, err := os.ReadFile(prjPath)
	if err != nil {
		zap.L().Warn("boundary file has no readable .prj, CRS undefined",
			zap.String("path", prjPath))
		return 0
	}

	wkt := string(data)
	switch {
	case strings.Contains(wkt, "Albers"):
		return 5070
	case strings.Contains(wkt, "Pseudo-Mercator") || strings.Contains(wkt, "3857"):
		return 3857
	case strings.Contains(wkt, "WGS_1984") || strings.Contains(wkt, "WGS 84"):
		return 4326
	case strings.Contains(wkt, "North_American_1983") || strings.Contains(wkt, "NAD83") || strings.Contains(wkt, "NAD 83"):
		return 4269
	default:
		zap.L().Warn("unrecognized projection WKT, CRS undefined",
			zap.String("path", prjPath))
		return 0
	}
}
