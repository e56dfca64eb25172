package render

import (
	"fmt"
	"io"
	"strings"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/okian/snnvision/internal/domain/dataset"
	"github.com/okian/snnvision/internal/domain/model"
	"github.com/okian/snnvision/internal/domain/panels"
)

// pointStyle returns a style that renders points only (no connecting line).
func pointStyle(col drawing.Color) chart.Style {
	return chart.Style{
		StrokeWidth: chart.Disabled,
		DotWidth:    PointRadius,
		DotColor:    col,
	}
}

// RenderPNG writes a static scatter plot of p. Positive and negative events
// are separate dot-only series over the sensor's native axes.
func RenderPNG(w io.Writer, p Plot) error {
	if len(p.Events) == 0 {
		return ErrNoEvents
	}
	info, err := dataset.Lookup(p.Dataset)
	if err != nil {
		return fmt.Errorf("render png: %w", err)
	}

	var posX, posY, negX, negY []float64
	for _, e := range p.Events {
		if e.Polarity == model.Positive {
			posX, posY = append(posX, e.X), append(posY, e.Y)
			continue
		}
		negX, negY = append(negX, e.X), append(negY, e.Y)
	}

	series := []chart.Series{}
	if len(posX) > 0 {
		series = append(series, chart.ContinuousSeries{Name: "Positive", XValues: posX, YValues: posY, Style: pointStyle(hex(PositiveColor))})
	}
	if len(negX) > 0 {
		series = append(series, chart.ContinuousSeries{Name: "Negative", XValues: negX, YValues: negY, Style: pointStyle(hex(NegativeColor))})
	}

	bg := hex(BackgroundColor)
	axis := chart.Style{FontColor: hex(LabelColor), StrokeColor: hex(LabelColor)}
	ch := chart.Chart{
		Title:      panels.Caption(len(p.Events), p.Dataset),
		TitleStyle: chart.Style{FontColor: hex(LabelColor), FontSize: 10},
		Width:      Width,
		Height:     Height,
		Background: chart.Style{FillColor: bg, Padding: chart.Box{Top: Margin, Left: Margin, Right: Margin, Bottom: Margin}},
		Canvas:     chart.Style{FillColor: bg},
		XAxis:      chart.XAxis{Style: axis, Range: &chart.ContinuousRange{Min: 0, Max: float64(info.Resolution.Width)}},
		YAxis:      chart.YAxis{Style: axis, Range: &chart.ContinuousRange{Min: 0, Max: float64(info.Resolution.Height)}},
		Series:     series,
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}

	if err := ch.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("render png: %w", err)
	}
	return nil
}

func hex(c string) drawing.Color {
	return drawing.ColorFromHex(strings.TrimPrefix(c, "#"))
}

// Format is an output image format.
type Format string

// Supported formats.
const (
	FormatSVG Format = "svg"
	FormatPNG Format = "png"
)

// ContentType returns the MIME type for f.
func (f Format) ContentType() string {
	switch f {
	case FormatPNG:
		return "image/png"
	default:
		return "image/svg+xml"
	}
}

// Render dispatches to the renderer for f.
func Render(w io.Writer, f Format, p Plot) error {
	switch f {
	case FormatSVG:
		return RenderSVG(w, p)
	case FormatPNG:
		return RenderPNG(w, p)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, string(f))
	}
}
