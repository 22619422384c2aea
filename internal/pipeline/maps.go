package pipeline

import (
	"image/color"

	"gonum.org/v1/plot/vg"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/atlasbio/occmap/internal/aggregate"
	"github.com/atlasbio/occmap/internal/config"
	"github.com/atlasbio/occmap/internal/render"
)

var (
	stateFill   = color.NRGBA{R: 0xEB, G: 0xEB, B: 0xEB, A: 0xFF}
	stateStroke = color.NRGBA{R: 0xB0, G: 0xB0, B: 0xB0, A: 0xFF}
)

// speciesMap builds the occurrence-point map: state outlines underneath,
// points colored by species on top.
func speciesMap(cfg *config.Config, res *Result) *render.Map {
	p := message.NewPrinter(language.English)

	return &render.Map{
		Title:    "Species occurrence records",
		Subtitle: p.Sprintf("%d records across %d states", res.Joined.Len(), res.StateCounts.Len()),
		Width:    vg.Length(cfg.Render.WidthInches) * vg.Inch,
		Height:   vg.Length(cfg.Render.HeightInches) * vg.Inch,
		Theme:    theme(cfg),
		Layers: []render.Layer{
			{
				Data: res.States,
				Style: render.Style{
					Fill:        stateFill,
					Stroke:      color.White,
					StrokeWidth: 0.3 * vg.Millimeter,
				},
			},
			{
				Data: res.Points,
				Style: render.Style{
					ColorBy:     cfg.Map.SpeciesColumn,
					PointRadius: 0.6 * vg.Millimeter,
					Legend:      true,
				},
			},
		},
	}
}

// countsMap builds the per-state choropleth: the full outline layer is
// always drawn underneath so states with zero matched records keep
// their geography even though they carry no color.
func countsMap(cfg *config.Config, res *Result) *render.Map {
	p := message.NewPrinter(language.English)

	var maxSqrt float64
	for _, f := range res.StateCounts.Features {
		if v, ok := f.Float(aggregate.FieldRecordsSqrt); ok && v > maxSqrt {
			maxSqrt = v
		}
	}

	ramp := &render.Ramp{
		Low:  parseHexColor(cfg.Render.RampLow),
		High: parseHexColor(cfg.Render.RampHigh),
		Min:  0,
		Max:  maxSqrt,
	}

	return &render.Map{
		Title:    "Occurrence records by state",
		Subtitle: p.Sprintf("%d records, square-root color scale", res.Joined.Len()),
		Width:    vg.Length(cfg.Render.WidthInches) * vg.Inch,
		Height:   vg.Length(cfg.Render.HeightInches) * vg.Inch,
		Theme:    theme(cfg),
		Layers: []render.Layer{
			{
				Data: res.States,
				Style: render.Style{
					Fill:        color.White,
					Stroke:      stateStroke,
					StrokeWidth: 0.2 * vg.Millimeter,
				},
			},
			{
				Data: res.StateCounts,
				Style: render.Style{
					FillBy:      aggregate.FieldRecordsSqrt,
					Ramp:        ramp,
					Stroke:      stateStroke,
					StrokeWidth: 0.2 * vg.Millimeter,
					LabelBy:     cfg.Map.GroupKey,
					Legend:      true,
				},
			},
		},
	}
}

func theme(cfg *config.Config) render.Theme {
	t := render.DefaultTheme()
	if cfg.Render.DPI > 0 {
		t.DPI = cfg.Render.DPI
	}
	return t
}
