package prediction_test

import (
	"context"
	"errors"
	"testing"

	"github.com/okian/snnvision/internal/domain/dataset"
	"github.com/okian/snnvision/internal/domain/model"
	"github.com/okian/snnvision/internal/domain/prediction"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMockPredict(t *testing.T) {
	Convey("Given the mock predictor", t, func() {
		p := prediction.NewMock()
		ctx := context.Background()

		Convey("When predicting DVS Gesture", func() {
			got, err := p.Predict(ctx, dataset.DVSGesture)

			Convey("Then it returns Hand Wave with the fixed metrics", func() {
				So(err, ShouldBeNil)
				So(got, ShouldResemble, model.Prediction{Class: "Hand Wave", Confidence: 0.87, Latency: 45, Accuracy: 0.92})
			})
		})

		Convey("When predicting N-Caltech101", func() {
			got, err := p.Predict(ctx, dataset.NCaltech101)

			Convey("Then only the class differs", func() {
				So(err, ShouldBeNil)
				So(got.Class, ShouldEqual, "Accordion")
				So(got.Confidence, ShouldEqual, 0.87)
				So(got.Latency, ShouldEqual, 45)
				So(got.Accuracy, ShouldEqual, 0.92)
			})
		})

		Convey("When predicting repeatedly", func() {
			first, _ := p.Predict(ctx, dataset.NCaltech101)
			second, _ := p.Predict(ctx, dataset.NCaltech101)

			Convey("Then results are constant", func() {
				So(first, ShouldResemble, second)
			})
		})

		Convey("When the dataset is unknown", func() {
			_, err := p.Predict(ctx, "mnist")

			Convey("Then ErrUnknownDataset is wrapped", func() {
				So(errors.Is(err, dataset.ErrUnknownDataset), ShouldBeTrue)
			})
		})

		Convey("When the context is cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			_, err := p.Predict(cctx, dataset.DVSGesture)

			Convey("Then the cancellation is reported", func() {
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
			})
		})
	})

	Convey("Given a mock with an overridden label", t, func() {
		p := prediction.NewMock(prediction.WithClass(dataset.DVSGesture, "Clap"), prediction.WithClass(dataset.NCaltech101, ""))

		Convey("Then the override applies and empty labels are ignored", func() {
			got, err := p.Predict(context.Background(), dataset.DVSGesture)
			So(err, ShouldBeNil)
			So(got.Class, ShouldEqual, "Clap")
			got, _ = p.Predict(context.Background(), dataset.NCaltech101)
			So(got.Class, ShouldEqual, "Accordion")
		})
	})
}
