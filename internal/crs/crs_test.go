package crs

import (
	"testing"

	"github.com/ctessum/geom"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atlasbio/occmap/internal/feature"
)

func pointCollection(srid int, pts ...geom.Point) *feature.Collection {
	col := feature.New(srid, []string{"id"})
	for i, p := range pts {
		col.Append(&feature.Feature{Geom: p, Attrs: map[string]any{"id": i}})
	}
	return col
}

func TestReproject_SameCRSIsNoOp(t *testing.T) {
	col := pointCollection(4326,
		geom.Point{X: -98.5, Y: 39.8},
		geom.Point{X: -75.2, Y: 40.0},
	)

	out, err := Reproject(col, 4326)
	require.NoError(t, err)
	require.Equal(t, col.Len(), out.Len())
	assert.Equal(t, 4326, out.SRID)

	for i, f := range out.Features {
		src := col.Features[i].Geom.(geom.Point)
		got := f.Geom.(geom.Point)
		assert.InDelta(t, src.X, got.X, 1e-9)
		assert.InDelta(t, src.Y, got.Y, 1e-9)
	}
}

func TestReproject_NewCollectionDoesNotAliasInput(t *testing.T) {
	col := pointCollection(4326, geom.Point{X: 1, Y: 2})

	out, err := Reproject(col, 4326)
	require.NoError(t, err)

	out.Features[0].Attrs["id"] = 99
	assert.Equal(t, 0, col.Features[0].Attrs["id"])
}

func TestReproject_ToAlbersChangesCoordinates(t *testing.T) {
	col := pointCollection(4326, geom.Point{X: -98.5, Y: 39.8})

	out, err := Reproject(col, 5070)
	require.NoError(t, err)
	assert.Equal(t, 5070, out.SRID)

	got := out.Features[0].Geom.(geom.Point)
	// Albers coordinates are in meters, far from degree magnitudes.
	assert.Greater(t, absFloat(got.X)+absFloat(got.Y), 10000.0)
}

func TestReproject_PolygonRoundTrip(t *testing.T) {
	square := geom.Polygon{{
		{X: -100, Y: 35}, {X: -100, Y: 40}, {X: -95, Y: 40}, {X: -95, Y: 35}, {X: -100, Y: 35},
	}}
	col := feature.New(4326, nil)
	col.Append(&feature.Feature{Geom: square, Attrs: map[string]any{}})

	albers, err := Reproject(col, 5070)
	require.NoError(t, err)
	back, err := Reproject(albers, 4326)
	require.NoError(t, err)

	out := back.Features[0].Geom.(geom.Polygon)
	for i, pt := range out[0] {
		assert.InDelta(t, square[0][i].X, pt.X, 1e-6)
		assert.InDelta(t, square[0][i].Y, pt.Y, 1e-6)
	}
}

func TestReproject_LineStringRoundTrip(t *testing.T) {
	line := geom.LineString{
		{X: -100, Y: 35}, {X: -98, Y: 37}, {X: -95, Y: 40},
	}
	col := feature.New(4326, nil)
	col.Append(&feature.Feature{Geom: line, Attrs: map[string]any{}})

	albers, err := Reproject(col, 5070)
	require.NoError(t, err)
	back, err := Reproject(albers, 4326)
	require.NoError(t, err)

	out := back.Features[0].Geom.(geom.LineString)
	require.Len(t, out, len(line))
	for i, pt := range out {
		assert.InDelta(t, line[i].X, pt.X, 1e-6)
		assert.InDelta(t, line[i].Y, pt.Y, 1e-6)
	}
}

func TestReproject_UnsupportedCRS(t *testing.T) {
	col := pointCollection(0, geom.Point{X: 1, Y: 2})

	_, err := Reproject(col, 4326)
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrReproject))
}

func TestSupported(t *testing.T) {
	assert.True(t, Supported(4326))
	assert.True(t, Supported(5070))
	assert.False(t, Supported(99999))
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
