// Package render composes feature collections into styled map layers
// and writes them out as static PNG images.
package render

import (
	"image/color"
	"os"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/carto"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/atlasbio/occmap/internal/errs"
	"github.com/atlasbio/occmap/internal/feature"
)

// ErrRender indicates an empty layer list or an unwritable output path.
var ErrRender = eris.New("render: render error")

// Ramp linearly interpolates between two colors over [Min, Max].
type Ramp struct {
	Low, High color.Color
	Min, Max  float64
}

// At returns the ramp color for v, clamped to the ramp domain.
func (r Ramp) At(v float64) color.Color {
	span := r.Max - r.Min
	t := 0.0
	if span > 0 {
		t = (v - r.Min) / span
	}
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	lr, lg, lb, la := r.Low.RGBA()
	hr, hg, hb, ha := r.High.RGBA()
	lerp := func(a, b uint32) uint8 {
		return uint8((float64(a) + t*(float64(b)-float64(a))) / 257)
	}
	return color.NRGBA{R: lerp(lr, hr), G: lerp(lg, hg), B: lerp(lb, hb), A: lerp(la, ha)}
}

// Style is the immutable per-layer drawing configuration.
type Style struct {
	Fill        color.Color // constant fill; nil for no fill
	Stroke      color.Color // outline color; nil for no outline
	StrokeWidth vg.Length
	PointRadius vg.Length // glyph radius for point layers

	FillBy  string // numeric attribute encoded through Ramp
	Ramp    *Ramp
	ColorBy string // categorical attribute, colored from the default palette
	LabelBy string // attribute drawn as a text label at each centroid

	Legend bool
}

// Theme is the immutable shared look applied to a whole map.
type Theme struct {
	Background   color.Color
	TitleSize    vg.Length
	SubtitleSize vg.Length
	LabelSize    vg.Length
	LegendSize   vg.Length
	DPI          int
}

// DefaultTheme matches the clean, axis-free map styling the pipeline uses.
func DefaultTheme() Theme {
	return Theme{
		Background:   color.White,
		TitleSize:    14,
		SubtitleSize: 10,
		LabelSize:    7,
		LegendSize:   8,
		DPI:          150,
	}
}

// Layer pairs a collection with its drawing style. Layers are drawn in
// order, later layers on top.
type Layer struct {
	Data  *feature.Collection
	Style Style
}

// Map is a complete renderable composition.
type Map struct {
	Title    string
	Subtitle string
	Layers   []Layer
	Theme    Theme
	Width    vg.Length
	Height   vg.Length
}

// WritePNG renders the map and writes it to path.
func (m *Map) WritePNG(path string) error {
	if len(m.Layers) == 0 {
		return eris.Wrap(ErrRender, "no layers to draw")
	}

	b := geom.NewBounds()
	for _, layer := range m.Layers {
		for _, f := range layer.Data.Features {
			b.Extend(f.Geom.Bounds())
		}
	}

	img := vgimg.NewWith(vgimg.UseWH(m.Width, m.Height), vgimg.UseDPI(m.Theme.DPI))
	dc := draw.New(img)

	dc.FillPolygon(m.Theme.Background, rectPoints(dc.Rectangle))

	headerH := m.drawHeader(dc)
	legendH := m.legendHeight()

	legendc := draw.Crop(dc, 0, 0, 0, legendH-(dc.Max.Y-dc.Min.Y))
	mapc := draw.Crop(dc, 0, 0, legendH, -headerH)

	mc := carto.NewCanvas(b.Max.Y, b.Min.Y, b.Max.X, b.Min.X, mapc)

	for _, layer := range m.Layers {
		if err := m.drawLayer(mc, layer); err != nil {
			return errs.Wrapf(ErrRender, err, "draw layer")
		}
	}
	m.drawLegends(legendc)

	f, err := os.Create(path)
	if err != nil {
		return errs.Wrapf(ErrRender, err, "create %s", path)
	}
	defer func() { _ = f.Close() }()

	pngc := vgimg.PngCanvas{Canvas: img}
	if _, err := pngc.WriteTo(f); err != nil {
		return errs.Wrapf(ErrRender, err, "write %s", path)
	}

	zap.L().Info("map written",
		zap.String("path", path),
		zap.Int("layers", len(m.Layers)),
	)
	return nil
}

// drawHeader draws the title and subtitle and returns the vertical space
// they consume.
func (m *Map) drawHeader(dc draw.Canvas) vg.Length {
	if m.Title == "" && m.Subtitle == "" {
		return 0
	}

	var used vg.Length
	center := (dc.Min.X + dc.Max.X) / 2
	y := dc.Max.Y

	if m.Title != "" {
		sty := textStyle(m.Theme.TitleSize, color.Black)
		dc.FillText(sty, vg.Point{X: center, Y: y - m.Theme.TitleSize}, m.Title)
		used += m.Theme.TitleSize * 1.6
	}
	if m.Subtitle != "" {
		sty := textStyle(m.Theme.SubtitleSize, color.Gray{Y: 96})
		dc.FillText(sty, vg.Point{X: center, Y: y - used - m.Theme.SubtitleSize}, m.Subtitle)
		used += m.Theme.SubtitleSize * 1.6
	}
	return used + vg.Millimeter
}

// drawLayer draws one layer's geometries, then its labels.
func (m *Map) drawLayer(mc *carto.Canvas, layer Layer) error {
	lineStyle := draw.LineStyle{Width: layer.Style.StrokeWidth}
	if layer.Style.Stroke != nil {
		lineStyle.Color = layer.Style.Stroke
	} else {
		lineStyle.Color = color.Transparent
	}

	categories := categoryColors(layer)

	for _, f := range layer.Data.Features {
		fill := layer.Style.Fill
		switch {
		case layer.Style.FillBy != "" && layer.Style.Ramp != nil:
			if v, ok := f.Float(layer.Style.FillBy); ok {
				fill = layer.Style.Ramp.At(v)
			}
		case layer.Style.ColorBy != "":
			fill = categories[f.String(layer.Style.ColorBy)]
		}
		if fill == nil {
			fill = color.Transparent
		}

		glyph := draw.GlyphStyle{}
		if _, isPoint := f.Geom.(geom.Point); isPoint {
			glyph = draw.GlyphStyle{
				Color:  fill,
				Radius: layer.Style.PointRadius,
				Shape:  draw.CircleGlyph{},
			}
		}
		if err := mc.DrawVector(f.Geom, toNRGBA(fill), lineStyle, glyph); err != nil {
			return err
		}
	}

	if layer.Style.LabelBy != "" {
		m.drawLabels(mc, layer)
	}
	return nil
}

// drawLabels places the label attribute at each feature centroid.
func (m *Map) drawLabels(mc *carto.Canvas, layer Layer) {
	sty := textStyle(m.Theme.LabelSize, color.Black)
	for _, f := range layer.Data.Features {
		txt := f.String(layer.Style.LabelBy)
		if txt == "" {
			continue
		}
		var c geom.Point
		switch g := f.Geom.(type) {
		case geom.Point:
			c = g
		case geom.Polygonal:
			c = g.Centroid()
		default:
			continue
		}
		mc.FillText(sty, mc.Coordinates(c), txt)
	}
}

// toNRGBA converts any fill color to the non-premultiplied form the map
// canvas draws with. A nil fill becomes fully transparent, which skips
// the fill entirely.
func toNRGBA(c color.Color) color.NRGBA {
	if c == nil {
		return color.NRGBA{}
	}
	return color.NRGBAModel.Convert(c).(color.NRGBA)
}

func textStyle(size vg.Length, c color.Color) draw.TextStyle {
	font, err := vg.MakeFont("Helvetica", size)
	if err != nil {
		panic(err) // builtin font; cannot fail at runtime
	}
	return draw.TextStyle{
		Color:  c,
		Font:   font,
		XAlign: draw.XCenter,
		YAlign: draw.YBottom,
	}
}

// categoryColors assigns palette colors to the distinct values of the
// ColorBy attribute, in first-appearance order.
func categoryColors(layer Layer) map[string]color.Color {
	if layer.Style.ColorBy == "" {
		return nil
	}
	out := make(map[string]color.Color)
	for _, f := range layer.Data.Features {
		v := f.String(layer.Style.ColorBy)
		if _, ok := out[v]; !ok {
			out[v] = plotutil.Color(len(out))
		}
	}
	return out
}

func rectPoints(r vg.Rectangle) []vg.Point {
	return []vg.Point{
		{X: r.Min.X, Y: r.Min.Y},
		{X: r.Max.X, Y: r.Min.Y},
		{X: r.Max.X, Y: r.Max.Y},
		{X: r.Min.X, Y: r.Max.Y},
	}
}
