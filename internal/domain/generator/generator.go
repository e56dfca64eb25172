// Package generator produces synthetic event batches shaped like the two
// sample datasets. Nothing is read from disk: every batch is fresh noise.
package generator

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/okian/snnvision/internal/domain/dataset"
	"github.com/okian/snnvision/internal/domain/model"
)

// DefaultEventCount is the batch size shown by the dashboard.
const DefaultEventCount = 500

// Gesture spiral parameters in sensor pixels.
const (
	gestureCenter       = 64.0
	gestureTurns        = 2 // full rotations across the batch
	gestureRadiusMin    = 30.0
	gestureRadiusSpread = 20.0
	gestureJitter       = 10.0
	gesturePositiveAt   = 0.6 // polarity is positive above this draw
)

// Object edge-grid parameters in sensor pixels.
const (
	objectWidth       = 304.0
	objectHeight      = 240.0
	objectColumnPitch = 20.0
	objectRowPitch    = 15.0
	objectColumnAt    = 0.7 // draws above this snap to a vertical line
	objectColumnJit   = 5.0
	objectRowJit      = 3.0
	objectPositiveAt  = 0.5
)

// Rand is the subset of a random source the generator needs.
type Rand interface {
	Float64() float64
}

// globalRand draws from the auto-seeded, goroutine-safe package source.
type globalRand struct{}

func (globalRand) Float64() float64 { return rand.Float64() }

// Generator builds event batches.
type Generator struct {
	count int
	rng   Rand
}

// New creates a Generator. Without options it yields DefaultEventCount
// events per batch from an unseeded source.
func New(opts ...Option) *Generator {
	g := &Generator{
		count: DefaultEventCount,
		rng:   globalRand{},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Count returns the batch size.
func (g *Generator) Count() int { return g.count }

// Generate returns a batch for ds. Callers pass validated identifiers; an
// unknown id yields an empty batch.
func (g *Generator) Generate(ds dataset.ID) []model.Event {
	events, err := g.GenerateChecked(ds)
	if err != nil {
		return nil
	}
	return events
}

// GenerateChecked is Generate with an error for unknown identifiers.
func (g *Generator) GenerateChecked(ds dataset.ID) ([]model.Event, error) {
	info, err := dataset.Lookup(ds)
	if err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}
	events := make([]model.Event, g.count)
	for i := range events {
		switch info.Pattern {
		case dataset.PatternGesture:
			events[i] = g.gesturePoint(i)
		default:
			events[i] = g.objectPoint()
		}
	}
	return events, nil
}

// gesturePoint places event i on a spiral that sweeps gestureTurns rotations.
func (g *Generator) gesturePoint(i int) model.Event {
	angle := float64(i) / float64(g.count) * math.Pi * 2 * gestureTurns
	radius := gestureRadiusMin + g.rng.Float64()*gestureRadiusSpread
	x := gestureCenter + radius*math.Cos(angle) + (g.rng.Float64()-0.5)*gestureJitter
	y := gestureCenter + radius*math.Sin(angle) + (g.rng.Float64()-0.5)*gestureJitter
	return model.Event{X: x, Y: y, Polarity: g.polarity(gesturePositiveAt)}
}

// objectPoint samples the bounding box and snaps onto a column or a row.
func (g *Generator) objectPoint() model.Event {
	x := g.rng.Float64() * objectWidth
	y := g.rng.Float64() * objectHeight
	if g.rng.Float64() > objectColumnAt {
		x = math.Floor(x/objectColumnPitch)*objectColumnPitch + (g.rng.Float64()-0.5)*objectColumnJit
	} else {
		y = math.Floor(y/objectRowPitch)*objectRowPitch + (g.rng.Float64()-0.5)*objectRowJit
	}
	return model.Event{X: x, Y: y, Polarity: g.polarity(objectPositiveAt)}
}

func (g *Generator) polarity(threshold float64) model.Polarity {
	if g.rng.Float64() > threshold {
		return model.Positive
	}
	return model.Negative
}

// Bounds returns the region every event for ds falls inside, jitter included.
func Bounds(ds dataset.ID) (minX, minY, maxX, maxY float64) {
	if ds == dataset.DVSGesture {
		reach := gestureRadiusMin + gestureRadiusSpread + gestureJitter/2
		return gestureCenter - reach, gestureCenter - reach, gestureCenter + reach, gestureCenter + reach
	}
	return -objectColumnJit / 2, -objectRowJit / 2, objectWidth, objectHeight
}
