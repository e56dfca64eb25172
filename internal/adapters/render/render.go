// Package render draws event sets as a scatter plot. SVG output animates
// each point in; PNG output is a static export.
package render

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/template"
	"unicode/utf8"

	"github.com/okian/snnvision/internal/domain/dataset"
	"github.com/okian/snnvision/internal/domain/model"
	"github.com/okian/snnvision/internal/domain/panels"
)

// Canvas and styling.
const (
	Width  = 400
	Height = 300
	Margin = 20

	PointRadius   = 1.5
	FadeMS        = 2000
	StaggerMS     = 2
	TargetOpacity = 0.8

	BackgroundColor = "#0f172a"
	PositiveColor   = "#10b981"
	NegativeColor   = "#3b82f6"
	LabelColor      = "#e2e8f0"

	LoadingText = "Loading event data..."
)

// Plot is the input to a render.
type Plot struct {
	Dataset    dataset.ID
	Events     []model.Event
	Processing bool
}

// Loading reports whether the placeholder is shown instead of the plot.
func (p Plot) Loading() bool {
	return p.Processing && len(p.Events) == 0
}

// Scales returns the x and y scales for ds. Y is inverted so data y=0 sits
// on the bottom margin.
func Scales(ds dataset.ID) (Scale, Scale, error) {
	info, err := dataset.Lookup(ds)
	if err != nil {
		return Scale{}, Scale{}, err
	}
	x := NewScale(0, float64(info.Resolution.Width), Margin, Width-Margin)
	y := NewScale(0, float64(info.Resolution.Height), Height-Margin, Margin)
	return x, y, nil
}

type point struct {
	CX, CY, Fill, Begin string
}

type svgData struct {
	Width, Height  int
	Background     string
	Radius         string
	Opacity        string
	FadeMS         int
	Points         []point
	Legend         bool
	LegendX        int
	Positive       string
	Negative       string
	LabelColor     string
	Caption        string
	CaptionWidth   int
	Loading        bool
	LoadingText    string
	LoadingCenterX int
	LoadingCenterY int
}

var svgTemplate = template.Must(template.New("svg").Parse(`<svg xmlns="http://www.w3.org/2000/svg" width="100%" height="{{.Height}}" viewBox="0 0 {{.Width}} {{.Height}}">
<rect width="{{.Width}}" height="{{.Height}}" fill="{{.Background}}" rx="8"/>
{{- if .Loading}}
<g class="loading">
<circle cx="{{.LoadingCenterX}}" cy="{{.LoadingCenterY}}" r="14" fill="none" stroke="{{.Positive}}" stroke-width="3" stroke-dasharray="66 22">
<animateTransform attributeName="transform" type="rotate" from="0 {{.LoadingCenterX}} {{.LoadingCenterY}}" to="360 {{.LoadingCenterX}} {{.LoadingCenterY}}" dur="1s" repeatCount="indefinite"/>
</circle>
<text x="{{.LoadingCenterX}}" y="{{.LoadingCenterY}}" dy="40" text-anchor="middle" fill="#cbd5e1" font-size="14px">{{.LoadingText}}</text>
</g>
{{- end}}
{{- range .Points}}
<circle cx="{{.CX}}" cy="{{.CY}}" r="{{$.Radius}}" fill="{{.Fill}}" opacity="0"><animate attributeName="opacity" from="0" to="{{$.Opacity}}" dur="{{$.FadeMS}}ms" begin="{{.Begin}}ms" fill="freeze"/></circle>
{{- end}}
{{- if .Legend}}
<g transform="translate({{.LegendX}}, 30)">
<circle cx="0" cy="0" r="3" fill="{{.Positive}}"/>
<text x="10" y="5" fill="{{.LabelColor}}" font-size="12px">Positive</text>
<circle cx="0" cy="20" r="3" fill="{{.Negative}}"/>
<text x="10" y="25" fill="{{.LabelColor}}" font-size="12px">Negative</text>
</g>
{{- end}}
{{- if .Caption}}
<g class="caption">
<rect x="8" y="8" width="{{.CaptionWidth}}" height="20" rx="4" fill="#1e293b" fill-opacity="0.8"/>
<text x="16" y="22" fill="#cbd5e1" font-size="12px">{{.Caption}}</text>
</g>
{{- end}}
</svg>
`))

// RenderSVG writes a full SVG document for p. Every call redraws from
// scratch.
func RenderSVG(w io.Writer, p Plot) error {
	d := svgData{
		Width:          Width,
		Height:         Height,
		Background:     BackgroundColor,
		Radius:         num(PointRadius),
		Opacity:        num(TargetOpacity),
		FadeMS:         FadeMS,
		LegendX:        Width - 120,
		Positive:       PositiveColor,
		Negative:       NegativeColor,
		LabelColor:     LabelColor,
		LoadingText:    LoadingText,
		LoadingCenterX: Width / 2,
		LoadingCenterY: Height/2 - 20,
	}
	switch {
	case p.Loading():
		d.Loading = true
	case len(p.Events) > 0:
		xs, ys, err := Scales(p.Dataset)
		if err != nil {
			return fmt.Errorf("render svg: %w", err)
		}
		d.Points = make([]point, len(p.Events))
		for i, e := range p.Events {
			d.Points[i] = point{
				CX:    num(xs.Apply(e.X)),
				CY:    num(ys.Apply(e.Y)),
				Fill:  Color(e.Polarity),
				Begin: strconv.Itoa(i * StaggerMS),
			}
		}
		d.Legend = true
		d.Caption = panels.Caption(len(p.Events), p.Dataset)
		d.CaptionWidth = 16 + 7*utf8.RuneCountInString(d.Caption)
	}
	if err := svgTemplate.Execute(w, d); err != nil {
		return fmt.Errorf("render svg: %w", err)
	}
	return nil
}

// Color returns the fill for a polarity.
func Color(p model.Polarity) string {
	if p == model.Positive {
		return PositiveColor
	}
	return NegativeColor
}

func num(v float64) string {
	s := strconv.FormatFloat(v, 'f', 2, 64)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}
