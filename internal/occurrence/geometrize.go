package occurrence

import (
	"strconv"
	"strings"

	"github.com/ctessum/geom"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/atlasbio/occmap/internal/feature"
)

// ErrGeometrize indicates the coordinate columns needed to build point
// geometries are absent from the table.
var ErrGeometrize = eris.New("occurrence: geometrize error")

// Geometrize converts tabular records into a collection of point
// features built from (longitude, latitude) pairs, tagged with the given
// EPSG code. When keepCoords is false the coordinate columns are removed
// from the scalar attributes. Rows with non-numeric coordinates should
// have been excluded by the loader; any that remain are dropped with a
// warning rather than geometrized at the origin.
func Geometrize(t *Table, lonCol, latCol string, srid int, keepCoords bool) (*feature.Collection, error) {
	if indexOf(t.Columns, lonCol) < 0 || indexOf(t.Columns, latCol) < 0 {
		return nil, eris.Wrapf(ErrGeometrize, "columns %s, %s not in table", lonCol, latCol)
	}

	fields := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		if !keepCoords && (c == lonCol || c == latCol) {
			continue
		}
		fields = append(fields, c)
	}

	col := feature.New(srid, fields)
	var dropped int
	for _, row := range t.Rows {
		lon, lonErr := strconv.ParseFloat(strings.TrimSpace(row[lonCol]), 64)
		lat, latErr := strconv.ParseFloat(strings.TrimSpace(row[latCol]), 64)
		if lonErr != nil || latErr != nil {
			dropped++
			continue
		}

		attrs := make(map[string]any, len(fields))
		for _, c := range fields {
			attrs[c] = row[c]
		}
		col.Append(&feature.Feature{
			Geom:  geom.Point{X: lon, Y: lat},
			Attrs: attrs,
		})
	}

	if dropped > 0 {
		zap.L().Warn("dropped records with non-numeric coordinates during geometrization",
			zap.Int("dropped", dropped))
	}
	return col, nil
}
