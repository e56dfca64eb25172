// Package service wires the session store, job queue, worker pool and
// runner into the operations the HTTP API needs.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	eventqueue "github.com/okian/snnvision/internal/adapters/mq/queue"
	workerpool "github.com/okian/snnvision/internal/adapters/mq/worker"
	repository "github.com/okian/snnvision/internal/adapters/repository"
	"github.com/okian/snnvision/internal/domain/dataset"
	"github.com/okian/snnvision/internal/domain/generator"
	"github.com/okian/snnvision/internal/domain/model"
	"github.com/okian/snnvision/internal/domain/pipeline"
	"github.com/okian/snnvision/internal/domain/prediction"
	"github.com/okian/snnvision/pkg/logger"
	"github.com/okian/snnvision/pkg/metrics"
)

// Service implements the API dependencies for the dashboard.
type Service struct {
	mu sync.RWMutex

	// Core components
	sessions  *repository.MemoryStore
	queue     *eventqueue.InMemoryQueue
	pool      *workerpool.Pool
	runner    *Runner
	predictor prediction.Predictor

	// Configuration
	workerCount     int
	queueSize       int
	maxSessions     int
	eventCount      int
	eventsDelay     time.Duration
	predictionDelay time.Duration
	defaultDataset  dataset.ID
	generatorOpts   []generator.Option

	// State
	started   bool
	startedAt time.Time
	cancel    context.CancelFunc
	inFlight  atomic.Int64 // queued or running jobs, bounded by queueSize

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of worker goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum number of pending runs.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithMaxSessions caps the number of sessions kept in memory.
func WithMaxSessions(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxSessions = n
		}
	}
}

// WithEventCount sets the size of each generated event batch.
func WithEventCount(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.eventCount = n
		}
	}
}

// WithDelays sets the events and prediction timer offsets.
func WithDelays(events, prediction time.Duration) Option {
	return func(s *Service) {
		if events >= 0 && prediction >= events {
			s.eventsDelay = events
			s.predictionDelay = prediction
		}
	}
}

// WithDefaultDataset sets the dataset selected for new sessions.
func WithDefaultDataset(ds dataset.ID) Option {
	return func(s *Service) {
		if ds.Valid() {
			s.defaultDataset = ds
		}
	}
}

// WithPredictor replaces the mock predictor.
func WithPredictor(p prediction.Predictor) Option {
	return func(s *Service) {
		if p != nil {
			s.predictor = p
		}
	}
}

// WithGeneratorOptions passes options through to the event generator.
func WithGeneratorOptions(opts ...generator.Option) Option {
	return func(s *Service) {
		s.generatorOpts = append(s.generatorOpts, opts...)
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:     runtime.NumCPU() * 4,
		queueSize:       1024,
		maxSessions:     10000,
		eventCount:      generator.DefaultEventCount,
		eventsDelay:     DefaultEventsDelay,
		predictionDelay: DefaultPredictionDelay,
		defaultDataset:  dataset.DVSGesture,
		predictor:       prediction.NewMock(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	s.logger.Info(ctx, "starting dashboard service...")

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.sessions = repository.NewMemoryStore(runCtx,
		repository.WithMaxSessions(s.maxSessions),
		repository.WithEvictHook(func(id string) {
			s.logger.Debug(runCtx, "session evicted", logger.String("session", id))
		}),
	)
	s.queue = eventqueue.NewInMemoryQueue(
		eventqueue.WithCapacity(s.queueSize),
		eventqueue.WithBufferSize(s.queueSize),
	)
	gen := generator.New(append([]generator.Option{generator.WithEventCount(s.eventCount)}, s.generatorOpts...)...)
	s.inFlight.Store(0)
	s.runner = NewRunner(s.sessions, gen, s.predictor,
		WithRunnerDelays(s.eventsDelay, s.predictionDelay),
		WithRunnerDone(func(model.Job) { s.inFlight.Add(-1) }),
	)
	s.pool = workerpool.NewPool(s.workerCount, s.queue, s.runner)
	s.pool.Start(runCtx)

	s.started = true
	s.startedAt = time.Now()
	s.logger.Info(ctx, "dashboard service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("maxSessions", s.maxSessions),
		logger.Duration("eventsDelay", s.eventsDelay),
		logger.Duration("predictionDelay", s.predictionDelay),
	)
	return nil
}

// Stop cancels in-flight runs, stops the workers and returns every
// processing session to its resting phase.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx := context.Background()
	s.logger.Info(ctx, "stopping dashboard service...")

	s.cancel()
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.pool.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn(ctx, "worker pool shutdown", logger.Error(err))
	}
	if err := s.runner.Wait(shutdownCtx); err != nil {
		s.logger.Warn(ctx, "runs still in flight", logger.Error(err))
	}

	for _, snap := range s.sessions.Snapshots(ctx) {
		if snap.Phase != pipeline.Processing {
			continue
		}
		if ctrl, err := s.sessions.Get(ctx, snap.Session); err == nil {
			ctrl.Abort(snap.Generation, ErrStopped)
		}
	}
	_ = s.sessions.Close()

	s.started = false
	s.logger.Info(ctx, "dashboard service stopped")
}

func (s *Service) store() (*repository.MemoryStore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, ErrNotStarted
	}
	return s.sessions, nil
}

// Session returns the controller for id, creating it on first contact.
func (s *Service) Session(ctx context.Context, id string) (*pipeline.Controller, bool, error) {
	store, err := s.store()
	if err != nil {
		return nil, false, err
	}
	ds := s.defaultDataset
	return store.GetOrCreate(ctx, id, func(id string) (*pipeline.Controller, error) {
		return pipeline.New(id, ds)
	})
}

// Snapshot returns the state of session id.
func (s *Service) Snapshot(ctx context.Context, id string) (pipeline.Snapshot, error) {
	ctrl, _, err := s.Session(ctx, id)
	if err != nil {
		return pipeline.Snapshot{}, err
	}
	return ctrl.Snapshot(), nil
}

// Select changes the dataset of session id.
func (s *Service) Select(ctx context.Context, id string, ds dataset.ID) (pipeline.Snapshot, error) {
	ctrl, _, err := s.Session(ctx, id)
	if err != nil {
		return pipeline.Snapshot{}, err
	}
	changed, err := ctrl.Select(ds)
	if err != nil {
		return pipeline.Snapshot{}, err
	}
	if changed {
		s.logger.Debug(ctx, "dataset selected", logger.String("session", id), logger.String("dataset", string(ds)))
	}
	return ctrl.Snapshot(), nil
}

// Process triggers a run for session id and queues it. When too many runs
// are in flight or the queue refuses the job, the run is aborted and the
// error returned.
func (s *Service) Process(ctx context.Context, id string) (model.Job, error) {
	ctrl, _, err := s.Session(ctx, id)
	if err != nil {
		return model.Job{}, err
	}
	job, err := ctrl.Trigger()
	if err != nil {
		if errors.Is(err, pipeline.ErrAlreadyProcessing) {
			metrics.RecordProcessRejected("busy")
		}
		return model.Job{}, err
	}
	if !s.reserve() {
		ctrl.Abort(job.Generation, ErrTooManyRuns)
		metrics.RecordProcessRejected("capacity")
		s.logger.Warn(ctx, "processing run refused", logger.String("session", id), logger.Error(ErrTooManyRuns))
		return model.Job{}, ErrTooManyRuns
	}
	if err := s.queue.Enqueue(ctx, job); err != nil {
		s.inFlight.Add(-1)
		ctrl.Abort(job.Generation, err)
		metrics.RecordProcessRejected("queue")
		s.logger.Warn(ctx, "processing job rejected", logger.String("session", id), logger.Error(err))
		return model.Job{}, fmt.Errorf("enqueue run: %w", err)
	}
	metrics.RecordProcessTrigger(string(job.Dataset))
	return job, nil
}

// reserve claims an in-flight slot. It fails once queueSize runs are
// queued or waiting on their timers.
func (s *Service) reserve() bool {
	limit := int64(s.queueSize)
	for {
		n := s.inFlight.Load()
		if n >= limit {
			return false
		}
		if s.inFlight.CompareAndSwap(n, n+1) {
			return true
		}
	}
}

// Subscribe streams snapshots of session id to fn until the returned
// func is called.
func (s *Service) Subscribe(ctx context.Context, id string, fn pipeline.Listener) (func(), error) {
	ctrl, _, err := s.Session(ctx, id)
	if err != nil {
		return nil, err
	}
	return ctrl.Subscribe(fn), nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":           s.started,
		"workerCount":       s.workerCount,
		"queueSize":         s.queueSize,
		"maxSessions":       s.maxSessions,
		"eventCount":        s.eventCount,
		"eventsDelayMs":     s.eventsDelay.Milliseconds(),
		"predictionDelayMs": s.predictionDelay.Milliseconds(),
	}

	if s.started {
		phases := map[string]int{
			pipeline.Idle.String():       0,
			pipeline.Processing.String(): 0,
			pipeline.Result.String():     0,
		}
		for _, snap := range s.sessions.Snapshots(ctx) {
			phases[snap.Phase.String()]++
		}
		stats["uptimeSeconds"] = int64(time.Since(s.startedAt).Seconds())
		stats["queueLength"] = s.queue.Len(ctx)
		stats["runsInFlight"] = s.inFlight.Load()
		stats["sessions"] = s.sessions.Count(ctx)
		stats["sessionsEvicted"] = s.sessions.Evicted()
		stats["phases"] = phases
		stats["workers"] = s.pool.Stats()
	}
	return stats
}
