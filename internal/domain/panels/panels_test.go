package panels

import (
	"testing"

	"github.com/okian/snnvision/internal/domain/dataset"
	"github.com/okian/snnvision/internal/domain/model"
	"github.com/okian/snnvision/internal/domain/pipeline"
	. "github.com/smartystreets/goconvey/convey"
)

var mock = model.Prediction{Class: "Hand Wave", Confidence: 0.87, Latency: 45, Accuracy: 0.92}

func TestDatasetCards(t *testing.T) {
	Convey("Given DVS Gesture is selected", t, func() {
		cards := DatasetCards(dataset.DVSGesture)

		Convey("Then both cards are listed with only the first selected", func() {
			So(len(cards), ShouldEqual, 2)
			So(cards[0].Title, ShouldEqual, "DVS Gesture")
			So(cards[0].Description, ShouldEqual, "user10_fluorescent_led.aedat")
			So(cards[0].Resolution, ShouldEqual, "128x128")
			So(cards[0].Format, ShouldEqual, "AEDAT 3.1")
			So(cards[0].Selected, ShouldBeTrue)
			So(len(cards[0].Features), ShouldEqual, 3)

			So(cards[1].Title, ShouldEqual, "N-Caltech101")
			So(cards[1].Description, ShouldEqual, "accordion/image_0001.bin")
			So(cards[1].Resolution, ShouldEqual, "304x240")
			So(cards[1].Format, ShouldEqual, "Binary Events")
			So(cards[1].Selected, ShouldBeFalse)
		})
	})
}

func TestPredictionSummary(t *testing.T) {
	Convey("Given an idle snapshot", t, func() {
		s := PredictionSummary(pipeline.Snapshot{Dataset: dataset.DVSGesture, Phase: pipeline.Idle})

		Convey("Then the empty state is shown", func() {
			So(s.Mode, ShouldEqual, ModeIdle)
			So(s.Headline, ShouldEqual, "No prediction yet")
			So(s.Class, ShouldBeEmpty)
		})
	})

	Convey("Given a processing snapshot with a previous result", t, func() {
		p := mock
		s := PredictionSummary(pipeline.Snapshot{Dataset: dataset.DVSGesture, Phase: pipeline.Processing, Prediction: &p})

		Convey("Then processing takes precedence", func() {
			So(s.Mode, ShouldEqual, ModeProcessing)
			So(s.Headline, ShouldEqual, "Processing with SNN...")
			So(s.Detail, ShouldEqual, "Training lightweight SNN (5 epochs)")
		})
	})

	Convey("Given a result for DVS Gesture", t, func() {
		p := mock
		s := PredictionSummary(pipeline.Snapshot{Dataset: dataset.DVSGesture, Phase: pipeline.Result, Prediction: &p})

		Convey("Then the formatted metrics match the dashboard", func() {
			So(s.Mode, ShouldEqual, ModeResult)
			So(s.Class, ShouldEqual, "Hand Wave")
			So(s.ClassColor, ShouldEqual, "text-blue-400")
			So(s.DatasetTitle, ShouldEqual, "DVS Gesture")
			So(s.Confidence, ShouldEqual, "87.0%")
			So(s.ConfidenceBar, ShouldAlmostEqual, 87, 1e-9)
			So(s.Accuracy, ShouldEqual, "92.0%")
			So(s.Latency, ShouldEqual, "45ms")
			So(s.ConfidenceRounded, ShouldEqual, "87%")
			So(len(s.Architecture), ShouldEqual, 4)
		})
	})

	Convey("Given class labels", t, func() {
		So(ClassColor("Accordion"), ShouldEqual, "text-emerald-400")
		So(ClassColor("HAND clap"), ShouldEqual, "text-blue-400")
		So(ClassColor("big wave"), ShouldEqual, "text-blue-400")
	})
}

func TestMetricsGrid(t *testing.T) {
	Convey("Given no prediction", t, func() {
		g := MetricsGrid(nil)

		Convey("Then every card shows a placeholder", func() {
			So(len(g.Metrics), ShouldEqual, 4)
			for _, m := range g.Metrics {
				So(m.Value, ShouldEqual, "--")
				So(m.Progress, ShouldEqual, 0.0)
			}
			So(g.Resources[0].Value, ShouldEqual, "0%")
			So(g.Resources[1].Value, ShouldEqual, "1.1GB")
			So(g.EfficiencyNote, ShouldBeFalse)
		})
	})

	Convey("Given the mock prediction", t, func() {
		p := mock
		g := MetricsGrid(&p)

		Convey("Then the cards carry the derived values", func() {
			So(g.Metrics[0].Value, ShouldEqual, "92.0%")
			So(g.Metrics[1].Value, ShouldEqual, "45ms")
			So(g.Metrics[1].Progress, ShouldEqual, 55.0)
			So(g.Metrics[2].Value, ShouldEqual, "87.0%")
			So(g.Metrics[3].Value, ShouldEqual, "~2.3mJ")
			So(g.Metrics[3].Progress, ShouldEqual, 85.0)
			So(g.Resources[0].Value, ShouldEqual, "67%")
			So(g.Resources[1].Value, ShouldEqual, "3.2GB")
			So(g.EfficiencyNote, ShouldBeTrue)
		})
	})

	Convey("Given a latency above 100ms", t, func() {
		p := mock
		p.Latency = 250
		g := MetricsGrid(&p)

		Convey("Then the latency progress floors at zero", func() {
			So(g.Metrics[1].Progress, ShouldEqual, 0.0)
		})
	})
}

func TestFormatting(t *testing.T) {
	Convey("Given ratios", t, func() {
		So(Percent(0.87, 1), ShouldEqual, "87.0%")
		So(Percent(0.87, 0), ShouldEqual, "87%")
		So(Percent(0.5, -1), ShouldEqual, "50%")
		So(Millis(45), ShouldEqual, "45ms")
		So(Caption(500, dataset.NCaltech101), ShouldEqual, "500 events | 304×240")
	})
}

func TestBuild(t *testing.T) {
	Convey("Given a processing snapshot without events", t, func() {
		v := Build(pipeline.Snapshot{Dataset: dataset.NCaltech101, Phase: pipeline.Processing})

		Convey("Then the view shows the loading state", func() {
			So(v.Loading, ShouldBeTrue)
			So(v.Caption, ShouldBeEmpty)
			So(v.Cards[1].Selected, ShouldBeTrue)
		})
	})

	Convey("Given a snapshot with events", t, func() {
		v := Build(pipeline.Snapshot{Dataset: dataset.DVSGesture, Phase: pipeline.Processing, Events: make([]model.Event, 500)})

		Convey("Then the caption reports the count and resolution", func() {
			So(v.Loading, ShouldBeFalse)
			So(v.EventCount, ShouldEqual, 500)
			So(v.Caption, ShouldEqual, "500 events | 128×128")
		})
	})
}
