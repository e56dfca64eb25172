// Package panels builds the view-models shown on the dashboard: dataset
// cards, the prediction summary and the performance metrics grid.
package panels

import (
	"math"
	"strconv"
	"strings"

	"github.com/okian/snnvision/internal/domain/dataset"
	"github.com/okian/snnvision/internal/domain/model"
	"github.com/okian/snnvision/internal/domain/pipeline"
)

// Summary modes.
const (
	ModeIdle       = "idle"
	ModeProcessing = "processing"
	ModeResult     = "result"
)

const placeholder = "--"

// Card is one selectable dataset.
type Card struct {
	ID          dataset.ID `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Resolution  string     `json:"resolution"`
	Format      string     `json:"format"`
	Features    []string   `json:"features"`
	Selected    bool       `json:"selected"`
}

// DatasetCards returns a card per dataset with selected highlighted.
func DatasetCards(selected dataset.ID) []Card {
	all := dataset.All()
	cards := make([]Card, 0, len(all))
	for _, info := range all {
		cards = append(cards, Card{
			ID:          info.ID,
			Title:       info.Title,
			Description: info.Description,
			Resolution:  info.Resolution.String(),
			Format:      info.Format,
			Features:    info.Features,
			Selected:    info.ID == selected,
		})
	}
	return cards
}

// Fact is a label/value row.
type Fact struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Architecture lists the static network description shown under a result.
var Architecture = []Fact{
	{Label: "Architecture", Value: "2 Conv + LIF + FC"},
	{Label: "Channels", Value: "8, 16 → 10 classes"},
	{Label: "Optimizer", Value: "Adam (lr=1e-3)"},
	{Label: "Framework", Value: "Norse + PyTorch"},
}

// Summary is the prediction card.
type Summary struct {
	Mode     string `json:"mode"`
	Headline string `json:"headline"`
	Detail   string `json:"detail,omitempty"`

	Class             string  `json:"class,omitempty"`
	ClassColor        string  `json:"classColor,omitempty"`
	DatasetTitle      string  `json:"datasetTitle,omitempty"`
	Confidence        string  `json:"confidence,omitempty"`
	ConfidenceBar     float64 `json:"confidenceBar,omitempty"`
	Accuracy          string  `json:"accuracy,omitempty"`
	Latency           string  `json:"latency,omitempty"`
	ConfidenceRounded string  `json:"confidenceRounded,omitempty"`
	Architecture      []Fact  `json:"architecture,omitempty"`
}

// PredictionSummary derives the prediction card from a snapshot. Processing
// takes precedence over a previous result.
func PredictionSummary(s pipeline.Snapshot) Summary {
	if s.Phase == pipeline.Processing {
		return Summary{
			Mode:     ModeProcessing,
			Headline: "Processing with SNN...",
			Detail:   "Training lightweight SNN (5 epochs)",
		}
	}
	if s.Prediction == nil {
		return Summary{
			Mode:     ModeIdle,
			Headline: "No prediction yet",
			Detail:   `Click "Process Sample" to start SNN inference`,
		}
	}
	p := *s.Prediction
	return Summary{
		Mode:              ModeResult,
		Headline:          "Classification Result",
		Class:             p.Class,
		ClassColor:        ClassColor(p.Class),
		DatasetTitle:      s.Dataset.Title(),
		Confidence:        Percent(p.Confidence, 1),
		ConfidenceBar:     p.Confidence * 100,
		Accuracy:          Percent(p.Accuracy, 1),
		Latency:           Millis(p.Latency),
		ConfidenceRounded: Percent(p.Confidence, 0),
		Architecture:      Architecture,
	}
}

// ClassColor picks the label colour class for a prediction.
func ClassColor(class string) string {
	c := strings.ToLower(class)
	if strings.Contains(c, "wave") || strings.Contains(c, "hand") {
		return "text-blue-400"
	}
	return "text-emerald-400"
}

// Metric is one performance card.
type Metric struct {
	Title       string  `json:"title"`
	Value       string  `json:"value"`
	Progress    float64 `json:"progress"`
	Color       string  `json:"color"`
	Background  string  `json:"background"`
	Description string  `json:"description"`
}

// Resource is one system resource row.
type Resource struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Color string `json:"color"`
}

// Grid is the performance metrics section.
type Grid struct {
	Metrics        []Metric   `json:"metrics"`
	Resources      []Resource `json:"resources"`
	EfficiencyNote bool       `json:"efficiencyNote"`
}

// MetricsGrid builds the metrics section for p, which may be nil.
func MetricsGrid(p *model.Prediction) Grid {
	has := p != nil
	value := func(f func(model.Prediction) string) string {
		if !has {
			return placeholder
		}
		return f(*p)
	}
	progress := func(f func(model.Prediction) float64) float64 {
		if !has {
			return 0
		}
		return f(*p)
	}

	g := Grid{
		Metrics: []Metric{
			{
				Title:       "Classification Accuracy",
				Value:       value(func(p model.Prediction) string { return Percent(p.Accuracy, 1) }),
				Progress:    progress(func(p model.Prediction) float64 { return p.Accuracy * 100 }),
				Color:       "text-blue-400",
				Background:  "bg-blue-600/20",
				Description: "Single sample accuracy on test data",
			},
			{
				Title:       "Inference Latency",
				Value:       value(func(p model.Prediction) string { return Millis(p.Latency) }),
				Progress:    progress(func(p model.Prediction) float64 { return math.Max(0, float64(100-p.Latency)) }),
				Color:       "text-emerald-400",
				Background:  "bg-emerald-600/20",
				Description: "Time to process and classify one sample",
			},
			{
				Title:       "Model Confidence",
				Value:       value(func(p model.Prediction) string { return Percent(p.Confidence, 1) }),
				Progress:    progress(func(p model.Prediction) float64 { return p.Confidence * 100 }),
				Color:       "text-yellow-400",
				Background:  "bg-yellow-600/20",
				Description: "SNN output confidence score",
			},
			{
				Title:       "Energy Efficiency",
				Value:       value(func(model.Prediction) string { return "~2.3mJ" }),
				Progress:    progress(func(model.Prediction) float64 { return 85 }),
				Color:       "text-purple-400",
				Background:  "bg-purple-600/20",
				Description: "Estimated energy per inference (SNN advantage)",
			},
		},
		Resources: []Resource{
			{Title: "GPU Utilization", Value: "0%", Color: "text-orange-400"},
			{Title: "Memory Usage", Value: "1.1GB", Color: "text-cyan-400"},
		},
		EfficiencyNote: has,
	}
	if has {
		g.Resources[0].Value = "67%"
		g.Resources[1].Value = "3.2GB"
	}
	return g
}

// Percent formats a [0,1] ratio as a percentage with digits decimals.
func Percent(v float64, digits int) string {
	if digits < 0 {
		digits = 0
	}
	return strconv.FormatFloat(v*100, 'f', digits, 64) + "%"
}

// Millis formats a latency in milliseconds.
func Millis(ms int) string {
	return strconv.Itoa(ms) + "ms"
}

// View bundles every panel for one snapshot.
type View struct {
	Cards      []Card  `json:"cards"`
	Summary    Summary `json:"summary"`
	Metrics    Grid    `json:"metrics"`
	EventCount int     `json:"eventCount"`
	Caption    string  `json:"caption,omitempty"`
	Loading    bool    `json:"loading"`
}

// Build assembles the full page view for s.
func Build(s pipeline.Snapshot) View {
	v := View{
		Cards:      DatasetCards(s.Dataset),
		Summary:    PredictionSummary(s),
		Metrics:    MetricsGrid(s.Prediction),
		EventCount: len(s.Events),
		Loading:    s.Processing() && !s.HasEvents(),
	}
	if s.HasEvents() {
		v.Caption = Caption(len(s.Events), s.Dataset)
	}
	return v
}

// Caption is the overlay text for a rendered event set.
func Caption(n int, ds dataset.ID) string {
	res := ""
	if info, err := dataset.Lookup(ds); err == nil {
		res = info.Resolution.Label()
	}
	return strconv.Itoa(n) + " events | " + res
}
