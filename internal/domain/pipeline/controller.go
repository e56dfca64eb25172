// Package pipeline holds the per-session page controller: the selected
// dataset, the processing phase and the latest prediction.
//
// Every trigger and every dataset change bumps a generation counter. Timer
// completions carry the generation they were scheduled for and are dropped
// when it is no longer current.
package pipeline

import (
	"fmt"
	"sync"
	"time"

	"github.com/okian/snnvision/internal/domain/dataset"
	"github.com/okian/snnvision/internal/domain/model"
)

// Listener receives every new snapshot.
type Listener func(Snapshot)

// Option applies a configuration option to the Controller.
type Option func(*Controller)

// WithClock sets the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		if now != nil {
			c.now = now
		}
	}
}

// Controller is safe for concurrent use.
type Controller struct {
	mu sync.Mutex

	session    string
	dataset    dataset.ID
	phase      Phase
	prediction *model.Prediction // kept visible during Processing until replaced
	events     []model.Event     // kept across re-triggers until replaced
	generation uint64
	revision   uint64
	lastErr    string
	updatedAt  time.Time

	listeners    map[uint64]Listener
	nextListener uint64

	now func() time.Time
}

// New creates an Idle controller for session with ds selected.
func New(session string, ds dataset.ID, opts ...Option) (*Controller, error) {
	if !ds.Valid() {
		return nil, fmt.Errorf("new controller: %w: %q", dataset.ErrUnknownDataset, string(ds))
	}
	c := &Controller{
		session:   session,
		dataset:   ds,
		phase:     Idle,
		listeners: make(map[uint64]Listener),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.updatedAt = c.now()
	return c, nil
}

// Session returns the owning session id.
func (c *Controller) Session() string { return c.session }

// Select makes ds the active dataset. Selecting the active dataset is a
// no-op and returns false. Any other selection abandons pending work and
// resets the controller to Idle.
func (c *Controller) Select(ds dataset.ID) (bool, error) {
	if !ds.Valid() {
		return false, fmt.Errorf("select: %w: %q", dataset.ErrUnknownDataset, string(ds))
	}
	c.mu.Lock()
	if c.dataset == ds {
		c.mu.Unlock()
		return false, nil
	}
	c.dataset = ds
	c.generation++
	c.phase = Idle
	c.prediction = nil
	c.events = nil
	c.lastErr = ""
	snap, ls := c.commitLocked()
	c.mu.Unlock()

	notify(ls, snap)
	return true, nil
}

// Trigger enters Processing and returns the job that will complete it.
// Events from an earlier run stay visible until ApplyEvents replaces them.
func (c *Controller) Trigger() (model.Job, error) {
	c.mu.Lock()
	if c.phase == Processing {
		c.mu.Unlock()
		return model.Job{}, ErrAlreadyProcessing
	}
	c.generation++
	c.phase = Processing
	c.lastErr = ""
	job := model.Job{
		Session:    c.session,
		Generation: c.generation,
		Dataset:    c.dataset,
		EnqueuedAt: c.now(),
	}
	snap, ls := c.commitLocked()
	c.mu.Unlock()

	notify(ls, snap)
	return job, nil
}

// ApplyEvents stores events produced for gen. It returns false when gen is
// stale or the controller is not processing.
func (c *Controller) ApplyEvents(gen uint64, events []model.Event) bool {
	c.mu.Lock()
	if gen != c.generation || c.phase != Processing {
		c.mu.Unlock()
		return false
	}
	c.events = append([]model.Event(nil), events...)
	snap, ls := c.commitLocked()
	c.mu.Unlock()

	notify(ls, snap)
	return true
}

// Complete moves a current run to Result, replacing any earlier prediction.
// It returns false for stale generations and invalid predictions.
func (c *Controller) Complete(gen uint64, p model.Prediction) bool {
	if p.Validate() != nil {
		return false
	}
	c.mu.Lock()
	if gen != c.generation || c.phase != Processing {
		c.mu.Unlock()
		return false
	}
	c.prediction = &p
	c.phase = Result
	snap, ls := c.commitLocked()
	c.mu.Unlock()

	notify(ls, snap)
	return true
}

// Abort ends a current run that could not finish. The controller falls
// back to Result when an earlier prediction is still shown, otherwise Idle.
func (c *Controller) Abort(gen uint64, cause error) bool {
	c.mu.Lock()
	if gen != c.generation || c.phase != Processing {
		c.mu.Unlock()
		return false
	}
	c.phase = Idle
	if c.prediction != nil {
		c.phase = Result
	}
	if cause != nil {
		c.lastErr = cause.Error()
	}
	snap, ls := c.commitLocked()
	c.mu.Unlock()

	notify(ls, snap)
	return true
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Generation returns the current generation id.
func (c *Controller) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation
}

// Subscribe registers fn for future snapshots and returns a func that
// removes it. fn runs on the goroutine that changed the state and must not
// block.
func (c *Controller) Subscribe(fn Listener) func() {
	c.mu.Lock()
	id := c.nextListener
	c.nextListener++
	c.listeners[id] = fn
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.listeners, id)
			c.mu.Unlock()
		})
	}
}

// Subscribers returns the number of registered listeners.
func (c *Controller) Subscribers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.listeners)
}

func (c *Controller) commitLocked() (Snapshot, []Listener) {
	c.revision++
	c.updatedAt = c.now()
	ls := make([]Listener, 0, len(c.listeners))
	for _, l := range c.listeners {
		ls = append(ls, l)
	}
	return c.snapshotLocked(), ls
}

func (c *Controller) snapshotLocked() Snapshot {
	s := Snapshot{
		Session:    c.session,
		Dataset:    c.dataset,
		Phase:      c.phase,
		Events:     c.events,
		Generation: c.generation,
		Revision:   c.revision,
		LastError:  c.lastErr,
		UpdatedAt:  c.updatedAt,
	}
	if c.prediction != nil {
		p := *c.prediction
		s.Prediction = &p
	}
	return s
}

func notify(ls []Listener, s Snapshot) {
	for _, l := range ls {
		l(s)
	}
}
