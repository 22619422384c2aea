package sjoin

import (
	"testing"

	"github.com/ctessum/geom"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atlasbio/occmap/internal/feature"
)

// square returns the unit-origin square [minX,minX+10] x [0,10].
func square(minX float64) geom.Polygon {
	return geom.Polygon{{
		{X: minX, Y: 0}, {X: minX + 10, Y: 0},
		{X: minX + 10, Y: 10}, {X: minX, Y: 10},
		{X: minX, Y: 0},
	}}
}

func statePolygons() *feature.Collection {
	col := feature.New(4326, []string{"NAME", "STUSPS"})
	col.Append(&feature.Feature{Geom: square(0), Attrs: map[string]any{"NAME": "Alpha", "STUSPS": "AA"}})
	col.Append(&feature.Feature{Geom: square(10), Attrs: map[string]any{"NAME": "Beta", "STUSPS": "BB"}})
	return col
}

func points(pts ...geom.Point) *feature.Collection {
	col := feature.New(4326, []string{"species"})
	for i, p := range pts {
		sp := "Vulpes vulpes"
		if i%2 == 1 {
			sp = "Lynx rufus"
		}
		col.Append(&feature.Feature{Geom: p, Attrs: map[string]any{"species": sp}})
	}
	return col
}

func TestJoin_Inner(t *testing.T) {
	left := points(
		geom.Point{X: 2, Y: 2},   // Alpha
		geom.Point{X: 14, Y: 6},  // Beta
		geom.Point{X: 40, Y: 40}, // outside everything
	)

	out, err := Join(left, statePolygons(), Inner)
	require.NoError(t, err)

	require.Equal(t, 2, out.Len())
	assert.Equal(t, []string{"species", "NAME", "STUSPS"}, out.Fields)
	assert.Equal(t, "Alpha", out.Features[0].String("NAME"))
	assert.Equal(t, "Vulpes vulpes", out.Features[0].String("species"))
	assert.Equal(t, "Beta", out.Features[1].String("NAME"))
}

func TestJoin_LeftOuterKeepsUnmatched(t *testing.T) {
	left := points(
		geom.Point{X: 2, Y: 2},
		geom.Point{X: 40, Y: 40},
	)

	out, err := Join(left, statePolygons(), LeftOuter)
	require.NoError(t, err)

	require.Equal(t, 2, out.Len())
	assert.Equal(t, "Alpha", out.Features[0].String("NAME"))

	unmatched := out.Features[1]
	assert.Equal(t, "Lynx rufus", unmatched.String("species"))
	_, ok := unmatched.Attrs["NAME"]
	assert.False(t, ok)
}

func TestJoin_SharedEdgeMatchesBothPolygons(t *testing.T) {
	// x=10 lies on the boundary between the two squares.
	left := points(geom.Point{X: 10, Y: 5})

	out, err := Join(left, statePolygons(), Inner)
	require.NoError(t, err)

	require.Equal(t, 2, out.Len())
	names := []string{out.Features[0].String("NAME"), out.Features[1].String("NAME")}
	assert.ElementsMatch(t, []string{"Alpha", "Beta"}, names)
}

func TestJoin_CRSMismatch(t *testing.T) {
	left := points(geom.Point{X: 2, Y: 2})
	right := statePolygons()
	right.SRID = 5070

	_, err := Join(left, right, Inner)
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrJoin))
}

func TestJoin_CollidingFieldNames(t *testing.T) {
	left := feature.New(4326, []string{"NAME"})
	left.Append(&feature.Feature{Geom: geom.Point{X: 2, Y: 2}, Attrs: map[string]any{"NAME": "obs-1"}})

	out, err := Join(left, statePolygons(), Inner)
	require.NoError(t, err)

	require.Equal(t, 1, out.Len())
	assert.Equal(t, []string{"NAME", "NAME_right", "STUSPS"}, out.Fields)
	assert.Equal(t, "obs-1", out.Features[0].String("NAME"))
	assert.Equal(t, "Alpha", out.Features[0].String("NAME_right"))
}

func TestJoin_EmptyLeft(t *testing.T) {
	left := feature.New(4326, []string{"species"})

	out, err := Join(left, statePolygons(), Inner)
	require.NoError(t, err)
	assert.Zero(t, out.Len())
}

func TestJoin_NonPolygonalRightIgnored(t *testing.T) {
	right := statePolygons()
	right.Append(&feature.Feature{
		Geom:  geom.Point{X: 2, Y: 2},
		Attrs: map[string]any{"NAME": "stray-point", "STUSPS": "XX"},
	})

	out, err := Join(points(geom.Point{X: 2, Y: 2}), right, Inner)
	require.NoError(t, err)

	require.Equal(t, 1, out.Len())
	assert.Equal(t, "Alpha", out.Features[0].String("NAME"))
}

func TestJoin_DoesNotMutateInputs(t *testing.T) {
	left := points(geom.Point{X: 2, Y: 2})
	right := statePolygons()

	out, err := Join(left, right, Inner)
	require.NoError(t, err)

	out.Features[0].Attrs["species"] = "mutated"
	assert.Equal(t, "Vulpes vulpes", left.Features[0].String("species"))
}
