package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	app "github.com/okian/snnvision/internal/app"
	"github.com/okian/snnvision/internal/config"
	"github.com/okian/snnvision/pkg/logger"
	"github.com/okian/snnvision/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func TestMainConfiguration(t *testing.T) {
	convey.Convey("Given environment overrides", t, func() {
		t.Setenv("SNNV_ADDR", ":8080")
		t.Setenv("SNNV_QUEUE_SIZE", "64")
		t.Setenv("SNNV_WORKER_COUNT", "4")
		t.Setenv("SNNV_DEFAULT_DATASET", "n-caltech101")

		convey.Convey("Then configuration should be loadable", func() {
			cfg, err := config.Load(context.Background())
			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
			convey.So(cfg.QueueSize, convey.ShouldEqual, 64)
			convey.So(cfg.WorkerCount, convey.ShouldEqual, 4)

			convey.Convey("And the service picks them up", func() {
				stats := newService(cfg, logger.Get()).GetStats()
				convey.So(stats["workerCount"], convey.ShouldEqual, 4)
				convey.So(stats["queueSize"], convey.ShouldEqual, 64)
			})
		})
	})

	convey.Convey("Given an invalid address", t, func() {
		t.Setenv("SNNV_ADDR", "")

		convey.Convey("Then configuration loading should fail", func() {
			cfg, err := config.Load(context.Background())
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(cfg, convey.ShouldBeNil)
		})
	})
}

func TestMainRoutes(t *testing.T) {
	convey.Convey("Given the full route table over a started service", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		cfg := config.New(ctx)
		cfg.WorkerCount = 2
		cfg.QueueSize = 8
		cfg.EventsDelayMS = 10
		cfg.PredictionDelayMS = 20

		svc := newService(cfg, logger.Get())
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		mux, apiServer := newMux(ctx, cfg, svc)

		convey.Reset(func() {
			apiServer.Close()
			svc.Stop()
			cancel()
		})

		routes := []struct {
			method string
			path   string
			status int
		}{
			{http.MethodGet, "/", http.StatusOK},
			{http.MethodGet, "/static/app.js", http.StatusOK},
			{http.MethodGet, "/api/datasets", http.StatusOK},
			{http.MethodGet, "/api/state", http.StatusOK},
			{http.MethodGet, "/api/events", http.StatusOK},
			{http.MethodGet, "/api/visualization.svg", http.StatusOK},
			{http.MethodPost, "/api/process", http.StatusAccepted},
			{http.MethodGet, "/stats", http.StatusOK},
			{http.MethodGet, "/healthz", http.StatusOK},
			{http.MethodGet, "/api-docs", http.StatusOK},
			{http.MethodGet, "/openapi.yaml", http.StatusOK},
			{http.MethodGet, "/missing", http.StatusNotFound},
		}
		for _, rt := range routes {
			convey.Convey("When calling "+rt.method+" "+rt.path, func() {
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, httptest.NewRequest(rt.method, rt.path, http.NoBody))

				convey.Convey("Then it responds with the expected status", func() {
					convey.So(w.Code, convey.ShouldEqual, rt.status)
				})
			})
		}
	})
}

func TestMainApplicationComponents(t *testing.T) {
	convey.Convey("Given main application components", t, func() {
		convey.Convey("When running the system metrics updater", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer cancel()

			convey.So(func() {
				startSystemMetricsUpdater(ctx)
			}, convey.ShouldNotPanic)
		})

		convey.Convey("When running the service metrics updater", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer cancel()

			convey.So(func() {
				startServiceMetricsUpdater(ctx, app.New())
			}, convey.ShouldNotPanic)
		})

		convey.Convey("When updating metrics once", func() {
			convey.So(updateSystemMetrics, convey.ShouldNotPanic)
			convey.So(func() { updateServiceMetrics(app.New()) }, convey.ShouldNotPanic)
		})

		convey.Convey("When creating a metrics manager on its own registry", func() {
			manager := metrics.NewManager(metrics.WithPrometheusRegistry(prometheus.NewRegistry()))
			convey.So(manager, convey.ShouldNotBeNil)
		})
	})
}
