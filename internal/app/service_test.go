package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	service "github.com/okian/snnvision/internal/app"
	"github.com/okian/snnvision/internal/domain/dataset"
	"github.com/okian/snnvision/internal/domain/pipeline"
	"github.com/okian/snnvision/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

const (
	eventsDelay     = 30 * time.Millisecond
	predictionDelay = 60 * time.Millisecond
)

func newFastService(opts ...service.Option) *service.Service {
	base := []service.Option{
		service.WithWorkerCount(2),
		service.WithQueueSize(16),
		service.WithDelays(eventsDelay, predictionDelay),
	}
	return service.New(append(base, opts...)...)
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func TestService_Lifecycle(t *testing.T) {
	Convey("Given a new service with default options", t, func() {
		svc := service.New()

		Convey("Then it reports defaults and rejects calls before Start", func() {
			stats := svc.GetStats()
			So(stats["started"], ShouldEqual, false)
			So(stats["eventCount"], ShouldEqual, 500)
			So(stats["eventsDelayMs"], ShouldEqual, int64(1500))
			So(stats["predictionDelayMs"], ShouldEqual, int64(3000))

			_, err := svc.Snapshot(context.Background(), "s1")
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
		})
	})

	Convey("Given a started service", t, func() {
		svc := newFastService()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		So(svc.Start(ctx), ShouldBeNil)
		So(svc.Start(ctx), ShouldBeNil)

		Convey("When it is stopped", func() {
			svc.Stop()
			svc.Stop()

			Convey("Then it should be marked as stopped", func() {
				So(svc.GetStats()["started"], ShouldEqual, false)
			})
		})

		Convey("When stats are requested", func() {
			_, _ = svc.Snapshot(ctx, "s1")
			stats := svc.GetStats()
			defer svc.Stop()

			Convey("Then runtime figures are included", func() {
				So(stats["started"], ShouldEqual, true)
				So(stats["sessions"], ShouldEqual, 1)
				So(stats["queueLength"], ShouldEqual, 0)
				So(stats["phases"], ShouldResemble, map[string]int{"idle": 1, "processing": 0, "result": 0})
			})
		})
	})
}

func TestService_ProcessFlow(t *testing.T) {
	Convey("Given a started service and a fresh session", t, func() {
		svc := newFastService()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		snap, err := svc.Snapshot(ctx, "s1")
		So(err, ShouldBeNil)
		So(snap.Phase, ShouldEqual, pipeline.Idle)
		So(snap.Dataset, ShouldEqual, dataset.DVSGesture)

		Convey("When processing DVS Gesture", func() {
			job, err := svc.Process(ctx, "s1")
			So(err, ShouldBeNil)

			Convey("Then Processing is visible immediately", func() {
				s, _ := svc.Snapshot(ctx, "s1")
				So(s.Phase, ShouldEqual, pipeline.Processing)
				So(s.Generation, ShouldEqual, job.Generation)
			})

			Convey("Then a second trigger is rejected", func() {
				_, err := svc.Process(ctx, "s1")
				So(errors.Is(err, pipeline.ErrAlreadyProcessing), ShouldBeTrue)
			})

			Convey("Then events arrive before the prediction", func() {
				ok := waitFor(t, time.Second, func() bool {
					s, _ := svc.Snapshot(ctx, "s1")
					return len(s.Events) == 500
				})
				So(ok, ShouldBeTrue)
			})

			Convey("Then the result is Hand Wave", func() {
				ok := waitFor(t, time.Second, func() bool {
					s, _ := svc.Snapshot(ctx, "s1")
					return s.Phase == pipeline.Result
				})
				So(ok, ShouldBeTrue)
				s, _ := svc.Snapshot(ctx, "s1")
				So(s.Prediction.Class, ShouldEqual, "Hand Wave")
				So(s.Prediction.Confidence, ShouldEqual, 0.87)
				So(s.Prediction.Latency, ShouldEqual, 45)
				So(s.Prediction.Accuracy, ShouldEqual, 0.92)
				So(len(s.Events), ShouldEqual, 500)
			})
		})

		Convey("When N-Caltech101 is selected and processed", func() {
			_, err := svc.Select(ctx, "s1", dataset.NCaltech101)
			So(err, ShouldBeNil)
			_, err = svc.Process(ctx, "s1")
			So(err, ShouldBeNil)

			Convey("Then the result is Accordion", func() {
				ok := waitFor(t, time.Second, func() bool {
					s, _ := svc.Snapshot(ctx, "s1")
					return s.Phase == pipeline.Result
				})
				So(ok, ShouldBeTrue)
				s, _ := svc.Snapshot(ctx, "s1")
				So(s.Prediction.Class, ShouldEqual, "Accordion")
			})
		})

		Convey("When the dataset changes while processing", func() {
			_, err := svc.Process(ctx, "s1")
			So(err, ShouldBeNil)
			_, err = svc.Select(ctx, "s1", dataset.NCaltech101)
			So(err, ShouldBeNil)
			time.Sleep(predictionDelay + 50*time.Millisecond)

			Convey("Then the abandoned run never lands", func() {
				s, _ := svc.Snapshot(ctx, "s1")
				So(s.Phase, ShouldEqual, pipeline.Idle)
				So(s.Dataset, ShouldEqual, dataset.NCaltech101)
				So(s.Prediction, ShouldBeNil)
				So(s.Events, ShouldBeEmpty)
			})
		})

		Convey("When an unknown dataset is selected", func() {
			_, err := svc.Select(ctx, "s1", "mnist")

			Convey("Then it is rejected", func() {
				So(errors.Is(err, dataset.ErrUnknownDataset), ShouldBeTrue)
			})
		})

		Convey("When subscribed to a session", func() {
			var mu sync.Mutex
			var phases []pipeline.Phase
			unsubscribe, err := svc.Subscribe(ctx, "s1", func(s pipeline.Snapshot) {
				mu.Lock()
				phases = append(phases, s.Phase)
				mu.Unlock()
			})
			So(err, ShouldBeNil)
			defer unsubscribe()

			_, err = svc.Process(ctx, "s1")
			So(err, ShouldBeNil)

			Convey("Then processing, events and result are streamed", func() {
				ok := waitFor(t, time.Second, func() bool {
					mu.Lock()
					defer mu.Unlock()
					return len(phases) == 3
				})
				So(ok, ShouldBeTrue)
				mu.Lock()
				defer mu.Unlock()
				So(phases, ShouldResemble, []pipeline.Phase{pipeline.Processing, pipeline.Processing, pipeline.Result})
			})
		})
	})
}

func TestService_Backpressure(t *testing.T) {
	Convey("Given a service that holds two runs at a time", t, func() {
		svc := service.New(
			service.WithWorkerCount(1),
			service.WithQueueSize(2),
			service.WithDelays(time.Second, 2*time.Second),
		)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("When more sessions trigger than can be held", func() {
			var rejected []string
			var lastErr error
			for _, id := range []string{"a", "b", "c", "d"} {
				if _, err := svc.Process(ctx, id); err != nil {
					rejected = append(rejected, id)
					lastErr = err
				}
			}

			Convey("Then the overflow is refused and its sessions rolled back", func() {
				So(rejected, ShouldResemble, []string{"c", "d"})
				So(errors.Is(lastErr, service.ErrTooManyRuns), ShouldBeTrue)
				s, _ := svc.Snapshot(ctx, "d")
				So(s.Phase, ShouldEqual, pipeline.Idle)
				So(s.LastError, ShouldNotBeEmpty)
				So(svc.GetStats()["runsInFlight"], ShouldEqual, int64(2))
			})
		})

		Convey("When the service stops with runs in flight", func() {
			_, err := svc.Process(ctx, "a")
			So(err, ShouldBeNil)
			svc.Stop()

			Convey("Then the session no longer reports Processing", func() {
				stats := svc.GetStats()
				So(stats["started"], ShouldEqual, false)
			})
		})
	})
}

func TestService_TimersIndependentOfWorkers(t *testing.T) {
	Convey("Given one worker and three sessions triggered together", t, func() {
		const (
			slowEvents     = 100 * time.Millisecond
			slowPrediction = 400 * time.Millisecond
		)
		svc := service.New(
			service.WithWorkerCount(1),
			service.WithQueueSize(8),
			service.WithDelays(slowEvents, slowPrediction),
		)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		ids := []string{"a", "b", "c"}
		var mu sync.Mutex
		arrived := make(map[string]time.Duration)
		started := make(map[string]time.Time)
		for _, id := range ids {
			id := id
			unsubscribe, err := svc.Subscribe(ctx, id, func(s pipeline.Snapshot) {
				if !s.HasEvents() {
					return
				}
				mu.Lock()
				defer mu.Unlock()
				if _, seen := arrived[id]; !seen {
					arrived[id] = time.Since(started[id])
				}
			})
			So(err, ShouldBeNil)
			defer unsubscribe()
		}
		for _, id := range ids {
			mu.Lock()
			started[id] = time.Now()
			mu.Unlock()
			_, err := svc.Process(ctx, id)
			So(err, ShouldBeNil)
		}

		Convey("Then every session gets its events at the events offset", func() {
			ok := waitFor(t, time.Second, func() bool {
				mu.Lock()
				defer mu.Unlock()
				return len(arrived) == len(ids)
			})
			So(ok, ShouldBeTrue)
			mu.Lock()
			defer mu.Unlock()
			for _, id := range ids {
				So(arrived[id], ShouldBeGreaterThanOrEqualTo, slowEvents-10*time.Millisecond)
				So(arrived[id], ShouldBeLessThan, slowPrediction-100*time.Millisecond)
			}
		})
	})
}
