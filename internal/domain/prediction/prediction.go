// Package prediction defines the contract for classifying a sample and a
// mock implementation that returns a fixed result per dataset.
package prediction

import (
	"context"
	"fmt"

	"github.com/okian/snnvision/internal/domain/dataset"
	"github.com/okian/snnvision/internal/domain/model"
)

// Mock result values shared by both datasets.
const (
	MockConfidence = 0.87
	MockLatencyMS  = 45
	MockAccuracy   = 0.92
)

// Predictor classifies the current sample of a dataset.
type Predictor interface {
	// Predict returns a classification, honoring ctx for cancellation.
	Predict(ctx context.Context, ds dataset.ID) (model.Prediction, error)
}

// Option applies a configuration option to the Mock.
type Option func(*Mock)

// WithClass overrides the label returned for ds.
func WithClass(ds dataset.ID, class string) Option {
	return func(m *Mock) {
		if class != "" {
			m.classes[ds] = class
		}
	}
}

// Mock is a Predictor that never looks at the data.
type Mock struct {
	classes map[dataset.ID]string
}

// NewMock creates a Mock with the dashboard's fixed labels.
func NewMock(opts ...Option) *Mock {
	m := &Mock{
		classes: map[dataset.ID]string{
			dataset.DVSGesture:  "Hand Wave",
			dataset.NCaltech101: "Accordion",
		},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Predict returns the fixed record for ds.
func (m *Mock) Predict(ctx context.Context, ds dataset.ID) (model.Prediction, error) {
	if err := ctx.Err(); err != nil {
		return model.Prediction{}, fmt.Errorf("context cancelled: %w", err)
	}
	class, ok := m.classes[ds]
	if !ok {
		return model.Prediction{}, fmt.Errorf("predict: %w: %q", dataset.ErrUnknownDataset, string(ds))
	}
	p := model.Prediction{
		Class:      class,
		Confidence: MockConfidence,
		Latency:    MockLatencyMS,
		Accuracy:   MockAccuracy,
	}
	if err := p.Validate(); err != nil {
		return model.Prediction{}, err
	}
	return p, nil
}
