package pipeline

import (
	"fmt"
	"time"

	"github.com/okian/snnvision/internal/domain/dataset"
	"github.com/okian/snnvision/internal/domain/model"
)

// Phase is the stage of the simulated pipeline.
type Phase int

const (
	// Idle means no prediction is shown and nothing is running.
	Idle Phase = iota
	// Processing means a run was triggered and its timers are pending.
	Processing
	// Result means a prediction is available.
	Result
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Processing:
		return "processing"
	case Result:
		return "result"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// MarshalText encodes the phase by name.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText decodes a phase name.
func (p *Phase) UnmarshalText(b []byte) error {
	switch string(b) {
	case "idle":
		*p = Idle
	case "processing":
		*p = Processing
	case "result":
		*p = Result
	default:
		return fmt.Errorf("unknown phase %q", string(b))
	}
	return nil
}

// Snapshot is a point-in-time copy of a controller. Events is shared and
// must be treated as read-only.
type Snapshot struct {
	Session    string            `json:"session"`
	Dataset    dataset.ID        `json:"dataset"`
	Phase      Phase             `json:"phase"`
	Prediction *model.Prediction `json:"prediction,omitempty"`
	Events     []model.Event     `json:"events"`
	Generation uint64            `json:"generation"`
	Revision   uint64            `json:"revision"`
	LastError  string            `json:"lastError,omitempty"`
	UpdatedAt  time.Time         `json:"updatedAt"`
}

// Processing reports whether a run is in flight.
func (s Snapshot) Processing() bool { return s.Phase == Processing }

// HasEvents reports whether events are available for rendering.
func (s Snapshot) HasEvents() bool { return len(s.Events) > 0 }
