package store

import (
	ctgeom "github.com/ctessum/geom"
	"github.com/rotisserie/eris"
	twgeom "github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/ewkb"
)

// encodeEWKB converts a pipeline geometry to EWKB bytes carrying the
// given SRID. Points and polygons are supported; polygons are stored as
// multipolygons so mixed single/multi-ring states share one column type.
func encodeEWKB(g ctgeom.Geom, srid int) ([]byte, error) {
	var tg twgeom.T

	switch gg := g.(type) {
	case ctgeom.Point:
		tg = twgeom.NewPointFlat(twgeom.XY, []float64{gg.X, gg.Y}).SetSRID(srid)

	case ctgeom.Polygon:
		mp, err := polygonToMulti(gg, srid)
		if err != nil {
			return nil, err
		}
		tg = mp

	case ctgeom.MultiPolygon:
		mp := twgeom.NewMultiPolygon(twgeom.XY).SetSRID(srid)
		for _, p := range gg {
			single, err := singlePolygon(p)
			if err != nil {
				return nil, err
			}
			if err := mp.Push(single); err != nil {
				return nil, eris.Wrap(err, "store: push polygon")
			}
		}
		tg = mp

	default:
		return nil, eris.Errorf("store: cannot encode geometry type %T", g)
	}

	data, err := ewkb.Marshal(tg, ewkb.NDR)
	if err != nil {
		return nil, eris.Wrap(err, "store: encode EWKB")
	}
	return data, nil
}

func polygonToMulti(p ctgeom.Polygon, srid int) (*twgeom.MultiPolygon, error) {
	mp := twgeom.NewMultiPolygon(twgeom.XY).SetSRID(srid)
	single, err := singlePolygon(p)
	if err != nil {
		return nil, err
	}
	if err := mp.Push(single); err != nil {
		return nil, eris.Wrap(err, "store: push polygon")
	}
	return mp, nil
}

func singlePolygon(p ctgeom.Polygon) (*twgeom.Polygon, error) {
	poly := twgeom.NewPolygon(twgeom.XY)
	for _, ring := range p {
		flat := make([]float64, 0, (len(ring)+1)*2)
		for _, pt := range ring {
			flat = append(flat, pt.X, pt.Y)
		}
		// EWKB rings must close; shapefile rings may leave it implicit.
		if len(ring) > 0 && ring[0] != ring[len(ring)-1] {
			flat = append(flat, ring[0].X, ring[0].Y)
		}
		lr := twgeom.NewLinearRingFlat(twgeom.XY, flat)
		if err := poly.Push(lr); err != nil {
			return nil, eris.Wrap(err, "store: push ring")
		}
	}
	return poly, nil
}
