package render

import (
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/ctessum/geom"
	"gonum.org/v1/plot/vg"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atlasbio/occmap/internal/feature"
)

func TestRamp_At(t *testing.T) {
	r := Ramp{
		Low:  color.NRGBA{R: 255, G: 255, B: 255, A: 255},
		High: color.NRGBA{R: 255, G: 191, B: 0, A: 255},
		Min:  0,
		Max:  10,
	}

	low := r.At(0).(color.NRGBA)
	assert.Equal(t, color.NRGBA{R: 255, G: 255, B: 255, A: 255}, low)

	high := r.At(10).(color.NRGBA)
	assert.Equal(t, color.NRGBA{R: 255, G: 191, B: 0, A: 255}, high)

	mid := r.At(5).(color.NRGBA)
	assert.Equal(t, uint8(255), mid.R)
	assert.Less(t, mid.G, uint8(255))
	assert.Greater(t, mid.G, uint8(191))
	assert.Greater(t, mid.B, uint8(0))
}

func TestRamp_AtClampsOutsideDomain(t *testing.T) {
	r := Ramp{Low: color.White, High: color.Black, Min: 0, Max: 1}

	assert.Equal(t, r.At(0), r.At(-5))
	assert.Equal(t, r.At(1), r.At(99))
}

func TestRamp_AtDegenerateDomain(t *testing.T) {
	r := Ramp{Low: color.White, High: color.Black, Min: 3, Max: 3}
	assert.Equal(t, r.At(3), r.At(100))
}

func TestToNRGBA(t *testing.T) {
	assert.Equal(t, color.NRGBA{}, toNRGBA(nil))
	assert.Equal(t, color.NRGBA{A: 0}, toNRGBA(color.Transparent))
	assert.Equal(t, color.NRGBA{R: 255, G: 255, B: 255, A: 255}, toNRGBA(color.White))
	assert.Equal(t, color.NRGBA{R: 10, G: 20, B: 30, A: 255}, toNRGBA(color.NRGBA{R: 10, G: 20, B: 30, A: 255}))
}

func TestWritePNG_NoLayers(t *testing.T) {
	m := &Map{Theme: DefaultTheme(), Width: 4 * vg.Inch, Height: 3 * vg.Inch}

	err := m.WritePNG(filepath.Join(t.TempDir(), "out.png"))
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrRender))
}

func TestWritePNG(t *testing.T) {
	states := feature.New(4326, []string{"NAME", "records_sqrt"})
	states.Append(&feature.Feature{
		Geom:  geom.Polygon{{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10}, {X: 0, Y: 0}}},
		Attrs: map[string]any{"NAME": "Alpha", "records_sqrt": 2.0},
	})
	states.Append(&feature.Feature{
		Geom:  geom.Polygon{{{X: 10, Y: 0}, {X: 20, Y: 0}, {X: 20, Y: 10}, {X: 10, Y: 10}, {X: 10, Y: 0}}},
		Attrs: map[string]any{"NAME": "Beta", "records_sqrt": 1.0},
	})

	pts := feature.New(4326, []string{"species"})
	pts.Append(&feature.Feature{Geom: geom.Point{X: 3, Y: 4}, Attrs: map[string]any{"species": "Vulpes vulpes"}})
	pts.Append(&feature.Feature{Geom: geom.Point{X: 14, Y: 6}, Attrs: map[string]any{"species": "Lynx rufus"}})

	ramp := &Ramp{
		Low:  color.NRGBA{R: 255, G: 255, B: 255, A: 255},
		High: color.NRGBA{R: 255, G: 191, B: 0, A: 255},
		Min:  0,
		Max:  2,
	}
	m := &Map{
		Title:    "Occurrence records",
		Subtitle: "synthetic fixture",
		Theme:    DefaultTheme(),
		Width:    6 * vg.Inch,
		Height:   4 * vg.Inch,
		Layers: []Layer{
			{Data: states, Style: Style{
				FillBy:      "records_sqrt",
				Ramp:        ramp,
				Stroke:      color.White,
				StrokeWidth: vg.Points(0.5),
				LabelBy:     "NAME",
				Legend:      true,
			}},
			{Data: pts, Style: Style{
				ColorBy:     "species",
				PointRadius: vg.Points(1.5),
				Legend:      true,
			}},
		},
	}

	path := filepath.Join(t.TempDir(), "map.png")
	require.NoError(t, m.WritePNG(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestWritePNG_UnwritablePath(t *testing.T) {
	col := feature.New(4326, nil)
	col.Append(&feature.Feature{Geom: geom.Point{X: 1, Y: 1}, Attrs: map[string]any{}})
	col.Append(&feature.Feature{Geom: geom.Point{X: 5, Y: 5}, Attrs: map[string]any{}})

	m := &Map{
		Theme:  DefaultTheme(),
		Width:  2 * vg.Inch,
		Height: 2 * vg.Inch,
		Layers: []Layer{{Data: col, Style: Style{Fill: color.Black, PointRadius: 1}}},
	}

	err := m.WritePNG(filepath.Join(t.TempDir(), "missing", "dir", "map.png"))
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrRender))
}
