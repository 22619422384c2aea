// Package sjoin matches features across two collections by geometric
// containment, in the manner of a database-style spatial join.
package sjoin

import (
	"github.com/ctessum/geom"
	"github.com/ctessum/geom/index/rtree"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/atlasbio/occmap/internal/feature"
)

// ErrJoin indicates the two collections do not share a CRS.
var ErrJoin = eris.New("sjoin: join error")

// Mode selects the join semantics for unmatched left features.
type Mode int

const (
	// Inner drops left features contained by no right polygon.
	Inner Mode = iota
	// LeftOuter keeps unmatched left features once, with the
	// right-side attributes absent.
	LeftOuter
)

// indexedRegion carries a right-side feature through the spatial index.
// The embedded Polygonal supplies the geometry method set the index
// stores and queries.
type indexedRegion struct {
	geom.Polygonal
	feat *feature.Feature
}

// Join returns, for each feature in left, a new feature carrying the
// left geometry and attributes merged with the attributes of every right
// polygon that contains it. A feature contained by several overlapping
// polygons is emitted once per match (cross-product semantics); a point
// on a shared edge therefore matches every adjoining polygon.
// Right-side features without polygonal geometry can contain nothing
// and are ignored.
func Join(left, right *feature.Collection, mode Mode) (*feature.Collection, error) {
	if left.SRID != right.SRID {
		return nil, eris.Wrapf(ErrJoin, "CRS mismatch: left EPSG:%d, right EPSG:%d",
			left.SRID, right.SRID)
	}

	index := rtree.NewTree(25, 50)
	for _, rf := range right.Features {
		poly, ok := rf.Geom.(geom.Polygonal)
		if !ok {
			continue
		}
		index.Insert(indexedRegion{Polygonal: poly, feat: rf})
	}

	out := left.Derive()
	out.Fields = mergedFields(left, right)

	var matched, unmatched int
	for _, lf := range left.Features {
		hits := 0
		for _, item := range index.SearchIntersect(lf.Geom.Bounds()) {
			hit := item.(indexedRegion)
			if !contains(hit.Polygonal, lf.Geom) {
				continue
			}
			hits++
			out.Append(&feature.Feature{
				Geom:  lf.Geom,
				Attrs: mergeAttrs(left, lf, right, hit.feat),
			})
		}

		if hits > 0 {
			matched++
			continue
		}
		unmatched++
		if mode == LeftOuter {
			out.Append(&feature.Feature{Geom: lf.Geom, Attrs: feature.CloneAttrs(lf.Attrs)})
		}
	}

	zap.L().Debug("spatial join complete",
		zap.Int("left", left.Len()),
		zap.Int("right", right.Len()),
		zap.Int("matched", matched),
		zap.Int("unmatched", unmatched),
		zap.Int("output", out.Len()),
	)
	return out, nil
}

// contains reports whether poly contains probe. Points on the polygon
// edge count as contained.
func contains(poly geom.Polygonal, probe geom.Geom) bool {
	switch p := probe.(type) {
	case geom.Point:
		return p.Within(poly) != geom.Outside
	case geom.Polygonal:
		return poly.Intersection(p).Area() > 0
	default:
		return false
	}
}

// mergedFields appends right-side attribute names to the left order.
// A right field colliding with a left field is stored under a _right
// suffix so neither side's value is lost.
func mergedFields(left, right *feature.Collection) []string {
	fields := make([]string, len(left.Fields), len(left.Fields)+len(right.Fields))
	copy(fields, left.Fields)
	for _, rf := range right.Fields {
		if left.HasField(rf) {
			fields = append(fields, rf+"_right")
			continue
		}
		fields = append(fields, rf)
	}
	return fields
}

func mergeAttrs(left *feature.Collection, lf *feature.Feature, right *feature.Collection, rf *feature.Feature) map[string]any {
	attrs := feature.CloneAttrs(lf.Attrs)
	for _, name := range right.Fields {
		key := name
		if left.HasField(name) {
			key = name + "_right"
		}
		attrs[key] = rf.Attrs[name]
	}
	return attrs
}
