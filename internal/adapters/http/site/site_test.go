package site

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/okian/snnvision/internal/adapters/http/session"
	"github.com/okian/snnvision/internal/domain/dataset"
	"github.com/okian/snnvision/internal/domain/model"
	"github.com/okian/snnvision/internal/domain/pipeline"
	. "github.com/smartystreets/goconvey/convey"
)

type fixedSource struct {
	snap pipeline.Snapshot
	err  error
}

func (f fixedSource) Snapshot(context.Context, string) (pipeline.Snapshot, error) {
	return f.snap, f.err
}

func serve(mux *http.ServeMux, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, http.NoBody))
	return w
}

func TestSiteHandler(t *testing.T) {
	Convey("Given a site registered for an idle session", t, func() {
		ctx := context.Background()
		mux := http.NewServeMux()
		src := fixedSource{snap: pipeline.Snapshot{Dataset: dataset.DVSGesture, Phase: pipeline.Idle}}
		Register(ctx, mux, src, session.New(""))

		Convey("When requesting the root page", func() {
			w := serve(mux, "/")

			Convey("Then the dashboard is rendered", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Content-Type"), ShouldContainSubstring, "text/html")
				body := w.Body.String()
				So(body, ShouldContainSubstring, "Neuromorphic Vision Demo")
				So(body, ShouldContainSubstring, "T4 GPU Enabled")
				So(body, ShouldContainSubstring, "DVS Gesture")
				So(body, ShouldContainSubstring, "No prediction yet")
				So(body, ShouldContainSubstring, "Process Sample")
				So(body, ShouldContainSubstring, "<svg")
				So(body, ShouldNotContainSubstring, "efficiency-note")
			})

			Convey("And a session cookie is issued", func() {
				So(len(w.Result().Cookies()), ShouldEqual, 1)
			})
		})

		Convey("When requesting assets", func() {
			for _, path := range []string{"/static/app.js", "/static/style.css"} {
				So(serve(mux, path).Code, ShouldEqual, http.StatusOK)
			}
		})

		Convey("When requesting an unknown path", func() {
			So(serve(mux, "/some-asset").Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestSiteRendersResult(t *testing.T) {
	Convey("Given a session holding a result", t, func() {
		mux := http.NewServeMux()
		snap := pipeline.Snapshot{
			Dataset:    dataset.NCaltech101,
			Phase:      pipeline.Result,
			Prediction: &model.Prediction{Class: "Airplane", Confidence: 0.87, Latency: 45, Accuracy: 0.92},
			Events:     []model.Event{{X: 10, Y: 20, Polarity: model.Positive}, {X: 30, Y: 40, Polarity: model.Negative}},
		}
		Register(context.Background(), mux, fixedSource{snap: snap}, nil)

		Convey("Then the prediction, metrics and plot are in the page", func() {
			body := serve(mux, "/").Body.String()
			So(body, ShouldContainSubstring, "Airplane")
			So(body, ShouldContainSubstring, "87.0%")
			So(body, ShouldContainSubstring, "45ms")
			So(body, ShouldContainSubstring, "efficiency-note")
			So(strings.Count(body, `<animate attributeName="opacity"`), ShouldEqual, 2)
			So(body, ShouldContainSubstring, "2 events | 304×240")
		})
	})
}

func TestSiteProcessing(t *testing.T) {
	Convey("Given a session that is processing", t, func() {
		mux := http.NewServeMux()
		snap := pipeline.Snapshot{Dataset: dataset.DVSGesture, Phase: pipeline.Processing}
		Register(context.Background(), mux, fixedSource{snap: snap}, nil)

		Convey("Then the button is disabled and the loading text shown", func() {
			body := serve(mux, "/").Body.String()
			So(body, ShouldContainSubstring, "Processing...")
			So(body, ShouldContainSubstring, "disabled")
			So(body, ShouldContainSubstring, "Loading event data...")
		})
	})
}

func TestSiteRevision(t *testing.T) {
	Convey("Given a session at revision 7 still drawing earlier events", t, func() {
		mux := http.NewServeMux()
		snap := pipeline.Snapshot{
			Dataset:  dataset.DVSGesture,
			Phase:    pipeline.Processing,
			Revision: 7,
			Events:   []model.Event{{X: 1, Y: 2, Polarity: model.Positive}},
		}
		Register(context.Background(), mux, fixedSource{snap: snap}, nil)

		Convey("Then the page is stamped with its revision and keeps the plot", func() {
			body := serve(mux, "/").Body.String()
			So(body, ShouldContainSubstring, `data-revision="7"`)
			So(body, ShouldNotContainSubstring, "Loading event data...")
			So(strings.Count(body, `<animate attributeName="opacity"`), ShouldEqual, 1)
		})

		Convey("Then the script discards pages older than the one on screen", func() {
			js := serve(mux, "/static/app.js").Body.String()
			So(js, ShouldContainSubstring, "dataset.revision")
			So(js, ShouldContainSubstring, "if (pageRevision < rendered)")
		})
	})
}

func TestSiteErrors(t *testing.T) {
	Convey("Given a source that fails", t, func() {
		mux := http.NewServeMux()
		Register(context.Background(), mux, fixedSource{err: ErrServe}, nil)

		Convey("Then the page is unavailable", func() {
			So(serve(mux, "/").Code, ShouldEqual, http.StatusServiceUnavailable)
		})
	})

	Convey("Given a nil mux", t, func() {
		So(func() {
			Register(context.Background(), nil, fixedSource{}, nil)
		}, ShouldPanic)
	})
}
