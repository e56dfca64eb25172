package model_test

import (
	"testing"

	"github.com/okian/snnvision/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestPredictionValidate(t *testing.T) {
	Convey("Given a prediction", t, func() {
		p := model.Prediction{Class: "Hand Wave", Confidence: 0.87, Latency: 45, Accuracy: 0.92}

		Convey("When every value is in range", func() {
			Convey("Then it validates", func() {
				So(p.Validate(), ShouldBeNil)
			})
		})

		Convey("When confidence exceeds 1", func() {
			p.Confidence = 1.2
			So(p.Validate(), ShouldNotBeNil)
		})

		Convey("When accuracy is negative", func() {
			p.Accuracy = -0.1
			So(p.Validate(), ShouldNotBeNil)
		})

		Convey("When latency is negative", func() {
			p.Latency = -1
			So(p.Validate(), ShouldNotBeNil)
		})

		Convey("When the class is empty", func() {
			p.Class = ""
			So(p.Validate(), ShouldNotBeNil)
		})
	})
}
