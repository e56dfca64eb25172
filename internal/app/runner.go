package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/okian/snnvision/internal/adapters/repository"
	"github.com/okian/snnvision/internal/domain/generator"
	"github.com/okian/snnvision/internal/domain/model"
	"github.com/okian/snnvision/internal/domain/pipeline"
	"github.com/okian/snnvision/internal/domain/prediction"
	"github.com/okian/snnvision/pkg/logger"
	"github.com/okian/snnvision/pkg/metrics"
)

// Default timer offsets, measured from the trigger.
const (
	DefaultEventsDelay     = 1500 * time.Millisecond
	DefaultPredictionDelay = 3000 * time.Millisecond
)

// SessionLookup resolves the controller a job belongs to.
type SessionLookup interface {
	Get(ctx context.Context, id string) (*pipeline.Controller, error)
}

// Runner executes processing runs: it publishes events once the events
// timer fires and completes the run once the prediction timer fires. Both
// timers are offsets from Job.EnqueuedAt. A run whose generation is no
// longer current is dropped without touching the controller.
//
// Handle only dispatches. Each run waits on its own goroutine, so a worker
// is free again as soon as the run is scheduled.
type Runner struct {
	sessions        SessionLookup
	generator       *generator.Generator
	predictor       prediction.Predictor
	eventsDelay     time.Duration
	predictionDelay time.Duration
	onDone          func(model.Job)
	logger          logger.Logger

	inflight sync.WaitGroup
}

// RunnerOption applies a configuration option to the Runner.
type RunnerOption func(*Runner)

// WithRunnerDelays sets the events and prediction offsets. The events
// offset must not exceed the prediction offset.
func WithRunnerDelays(events, prediction time.Duration) RunnerOption {
	return func(r *Runner) {
		if events >= 0 && prediction >= events {
			r.eventsDelay = events
			r.predictionDelay = prediction
		}
	}
}

// WithRunnerDone registers fn to be called once per dispatched job after
// its run has ended, whatever the outcome.
func WithRunnerDone(fn func(model.Job)) RunnerOption {
	return func(r *Runner) {
		r.onDone = fn
	}
}

// WithRunnerLogger sets a custom logger for the runner.
func WithRunnerLogger(l logger.Logger) RunnerOption {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRunner creates a runner.
func NewRunner(sessions SessionLookup, gen *generator.Generator, p prediction.Predictor, opts ...RunnerOption) *Runner {
	r := &Runner{
		sessions:        sessions,
		generator:       gen,
		predictor:       p,
		eventsDelay:     DefaultEventsDelay,
		predictionDelay: DefaultPredictionDelay,
		logger:          logger.Get().Named("runner"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Handle implements worker.Handler. It starts the run for j in the
// background and returns immediately.
func (r *Runner) Handle(ctx context.Context, j model.Job) error {
	if err := ctx.Err(); err != nil {
		r.done(j)
		return fmt.Errorf("dispatch run: %w", err)
	}
	r.inflight.Add(1)
	go func() {
		defer r.inflight.Done()
		defer r.done(j)
		err := r.Run(ctx, j)
		switch {
		case err == nil:
		case errors.Is(err, context.Canceled):
			r.logger.Debug(ctx, "run cancelled", logger.String("session", j.Session))
		default:
			metrics.RecordErrorByComponent("runner", "run_error")
			r.logger.Error(ctx, "run failed",
				logger.String("session", j.Session),
				logger.Uint64("generation", j.Generation),
				logger.Error(err),
			)
		}
	}()
	return nil
}

// Wait blocks until every dispatched run has ended or ctx is done.
func (r *Runner) Wait(ctx context.Context) error {
	finished := make(chan struct{})
	go func() {
		r.inflight.Wait()
		close(finished)
	}()
	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("wait for runs: %w", ctx.Err())
	}
}

func (r *Runner) done(j model.Job) {
	if r.onDone != nil {
		r.onDone(j)
	}
}

// Run executes j to completion on the calling goroutine.
func (r *Runner) Run(ctx context.Context, j model.Job) error {
	ctrl, err := r.sessions.Get(ctx, j.Session)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			metrics.RecordStaleCompletion("session")
			r.logger.Debug(ctx, "session gone before run", logger.String("session", j.Session))
			return nil
		}
		return fmt.Errorf("lookup session: %w", err)
	}

	if err := sleepUntil(ctx, j.EnqueuedAt.Add(r.eventsDelay)); err != nil {
		ctrl.Abort(j.Generation, ErrStopped)
		return err
	}
	if ctrl.Generation() != j.Generation {
		metrics.RecordStaleCompletion("events")
		return nil
	}

	start := time.Now()
	events, err := r.generator.GenerateChecked(j.Dataset)
	metrics.RecordGenerationLatency(float64(time.Since(start).Microseconds()) / 1000)
	if err != nil {
		ctrl.Abort(j.Generation, err)
		return fmt.Errorf("generate events: %w", err)
	}
	if !ctrl.ApplyEvents(j.Generation, events) {
		metrics.RecordStaleCompletion("events")
		return nil
	}
	metrics.RecordEventsGenerated(string(j.Dataset), len(events))

	if err := sleepUntil(ctx, j.EnqueuedAt.Add(r.predictionDelay)); err != nil {
		ctrl.Abort(j.Generation, ErrStopped)
		return err
	}
	p, err := r.predictor.Predict(ctx, j.Dataset)
	if err != nil {
		ctrl.Abort(j.Generation, err)
		return fmt.Errorf("predict: %w", err)
	}
	if !ctrl.Complete(j.Generation, p) {
		metrics.RecordStaleCompletion("prediction")
		return nil
	}

	metrics.RecordPredictionDelivered(string(j.Dataset), p.Class)
	metrics.RecordRunDuration(float64(time.Since(j.EnqueuedAt).Milliseconds()))
	r.logger.Debug(ctx, "run completed",
		logger.String("session", j.Session),
		logger.Uint64("generation", j.Generation),
		logger.String("class", p.Class),
	)
	return nil
}

// sleepUntil blocks until t or until ctx is done.
func sleepUntil(ctx context.Context, t time.Time) error {
	d := time.Until(t)
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("context cancelled: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}
