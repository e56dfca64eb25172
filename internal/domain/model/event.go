// Package model contains domain values passed between layers.
package model

import (
	"fmt"
	"time"

	"github.com/okian/snnvision/internal/domain/dataset"
)

// Polarity is the sign of a simulated brightness change.
type Polarity uint8

const (
	Negative Polarity = 0
	Positive Polarity = 1
)

// Event is one simulated sensor spike in native sensor coordinates.
type Event struct {
	X        float64  `json:"x"`
	Y        float64  `json:"y"`
	Polarity Polarity `json:"polarity"`
}

// Prediction is a mock classification result.
type Prediction struct {
	Class      string  `json:"class"`
	Confidence float64 `json:"confidence"` // [0,1]
	Latency    int     `json:"latency"`    // milliseconds
	Accuracy   float64 `json:"accuracy"`   // [0,1]
}

// Validate checks the value ranges of p.
func (p Prediction) Validate() error {
	switch {
	case p.Class == "":
		return fmt.Errorf("prediction: empty class")
	case p.Confidence < 0 || p.Confidence > 1:
		return fmt.Errorf("prediction: confidence %v out of [0,1]", p.Confidence)
	case p.Accuracy < 0 || p.Accuracy > 1:
		return fmt.Errorf("prediction: accuracy %v out of [0,1]", p.Accuracy)
	case p.Latency < 0:
		return fmt.Errorf("prediction: negative latency %d", p.Latency)
	}
	return nil
}

// Job is one processing run scheduled for a session. Generation ties the
// job to the trigger that created it.
type Job struct {
	Session    string
	Generation uint64
	Dataset    dataset.ID
	EnqueuedAt time.Time
}
