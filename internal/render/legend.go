package render

import (
	"fmt"
	"image/color"
	"sort"

	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

const rampSteps = 64

// legendHeight returns the vertical strip reserved for legends, zero
// when no layer asks for one.
func (m *Map) legendHeight() vg.Length {
	for _, layer := range m.Layers {
		if layer.Style.Legend {
			return m.Theme.LegendSize*3 + 2*vg.Millimeter
		}
	}
	return 0
}

// drawLegends draws one legend per requesting layer, side by side.
func (m *Map) drawLegends(dc draw.Canvas) {
	var want []Layer
	for _, layer := range m.Layers {
		if layer.Style.Legend {
			want = append(want, layer)
		}
	}
	if len(want) == 0 {
		return
	}

	tiles := draw.Tiles{Cols: len(want), Rows: 1}
	for i, layer := range want {
		cell := tiles.At(dc, i, 0)
		switch {
		case layer.Style.FillBy != "" && layer.Style.Ramp != nil:
			m.drawRampLegend(cell, layer)
		case layer.Style.ColorBy != "":
			m.drawCategoryLegend(cell, layer)
		}
	}
}

// drawRampLegend draws a horizontal color gradient with the domain
// endpoints printed underneath.
func (m *Map) drawRampLegend(dc draw.Canvas, layer Layer) {
	ramp := *layer.Style.Ramp
	width := (dc.Max.X - dc.Min.X) * 3 / 5
	left := dc.Min.X + (dc.Max.X-dc.Min.X-width)/2
	barH := m.Theme.LegendSize
	barY := dc.Min.Y + m.Theme.LegendSize*1.4

	step := width / rampSteps
	for i := 0; i < rampSteps; i++ {
		v := ramp.Min + (ramp.Max-ramp.Min)*float64(i)/(rampSteps-1)
		x := left + step*vg.Length(i)
		dc.FillPolygon(ramp.At(v), []vg.Point{
			{X: x, Y: barY},
			{X: x + step, Y: barY},
			{X: x + step, Y: barY + barH},
			{X: x, Y: barY + barH},
		})
	}

	sty := textStyle(m.Theme.LegendSize, color.Black)
	dc.FillText(sty, vg.Point{X: left, Y: dc.Min.Y}, fmt.Sprintf("%.0f", ramp.Min))
	dc.FillText(sty, vg.Point{X: left + width, Y: dc.Min.Y}, fmt.Sprintf("%.0f", ramp.Max))
	if layer.Style.FillBy != "" {
		dc.FillText(sty, vg.Point{X: left + width/2, Y: dc.Min.Y}, layer.Style.FillBy)
	}
}

// drawCategoryLegend draws color swatches with category names for the
// distinct ColorBy values, alphabetically.
func (m *Map) drawCategoryLegend(dc draw.Canvas, layer Layer) {
	colors := categoryColors(layer)
	names := make([]string, 0, len(colors))
	for name := range colors {
		names = append(names, name)
	}
	sort.Strings(names)

	sty := textStyle(m.Theme.LegendSize, color.Black)
	sty.XAlign = draw.XLeft

	swatch := m.Theme.LegendSize
	x := dc.Min.X + vg.Millimeter
	y := dc.Min.Y + m.Theme.LegendSize
	for _, name := range names {
		dc.FillPolygon(colors[name], []vg.Point{
			{X: x, Y: y},
			{X: x + swatch, Y: y},
			{X: x + swatch, Y: y + swatch},
			{X: x, Y: y + swatch},
		})
		label := name
		if label == "" {
			label = "(unknown)"
		}
		dc.FillText(sty, vg.Point{X: x + swatch + vg.Millimeter/2, Y: y}, label)
		x += swatch + vg.Millimeter + sty.Font.Width(label) + 3*vg.Millimeter
		if x > dc.Max.X-2*swatch {
			x = dc.Min.X + vg.Millimeter
			y += swatch + vg.Millimeter
		}
	}
}
