// Package crs reprojects feature collections between coordinate
// reference systems identified by EPSG code.
package crs

import (
	"github.com/ctessum/geom/proj"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/atlasbio/occmap/internal/errs"
	"github.com/atlasbio/occmap/internal/feature"
)

// ErrReproject indicates an undefined or unsupported CRS.
var ErrReproject = eris.New("crs: reprojection error")

// registry maps the EPSG codes the pipeline understands to proj4 strings.
var registry = map[int]string{
	4326: "+proj=longlat +datum=WGS84 +no_defs",
	4269: "+proj=longlat +datum=NAD83 +no_defs",
	3857: "+proj=merc +a=6378137 +b=6378137 +lat_ts=0 +lon_0=0 +x_0=0 +y_0=0 +k=1 +units=m +no_defs",
	5070: "+proj=aea +lat_1=29.5 +lat_2=45.5 +lat_0=23 +lon_0=-96 +x_0=0 +y_0=0 +datum=NAD83 +units=m +no_defs",
}

// Supported reports whether the EPSG code is in the registry.
func Supported(epsg int) bool {
	_, ok := registry[epsg]
	return ok
}

// Reproject returns a new collection with every geometry transformed to
// the target CRS. Attributes are unchanged. Reprojecting a collection
// already in the target CRS copies it without touching coordinates.
func Reproject(col *feature.Collection, target int) (*feature.Collection, error) {
	if col.SRID == target {
		out := col.Derive()
		for _, f := range col.Features {
			out.Append(&feature.Feature{Geom: f.Geom, Attrs: feature.CloneAttrs(f.Attrs)})
		}
		return out, nil
	}

	srcDef, ok := registry[col.SRID]
	if !ok {
		return nil, eris.Wrapf(ErrReproject, "source EPSG:%d is not supported", col.SRID)
	}
	dstDef, ok := registry[target]
	if !ok {
		return nil, eris.Wrapf(ErrReproject, "target EPSG:%d is not supported", target)
	}

	src, err := proj.Parse(srcDef)
	if err != nil {
		return nil, errs.Wrapf(ErrReproject, err, "parse EPSG:%d", col.SRID)
	}
	dst, err := proj.Parse(dstDef)
	if err != nil {
		return nil, errs.Wrapf(ErrReproject, err, "parse EPSG:%d", target)
	}
	ct, err := src.NewTransform(dst)
	if err != nil {
		return nil, errs.Wrapf(ErrReproject, err, "build transform %d -> %d", col.SRID, target)
	}

	out := col.Derive()
	out.SRID = target
	for i, f := range col.Features {
		g, err := f.Geom.Transform(ct)
		if err != nil {
			return nil, errs.Wrapf(ErrReproject, err, "feature %d", i)
		}
		out.Append(&feature.Feature{Geom: g, Attrs: feature.CloneAttrs(f.Attrs)})
	}

	zap.L().Debug("reprojected collection",
		zap.Int("from", col.SRID),
		zap.Int("to", target),
		zap.Int("features", out.Len()),
	)
	return out, nil
}

