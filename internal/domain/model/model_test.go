package model_test

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/wikibird2024/intergrate-fall/internal/domain/model"
)

func TestPosture(t *testing.T) {
	Convey("Given the posture classes", t, func() {
		Convey("Then each has a stable lowercase name", func() {
			So(model.PostureStanding.String(), ShouldEqual, "standing")
			So(model.PostureSitting.String(), ShouldEqual, "sitting")
			So(model.PostureLyingDown.String(), ShouldEqual, "lying_down")
			So(model.PostureFalling.String(), ShouldEqual, "falling")
			So(model.PostureUnknown.String(), ShouldEqual, "unknown")
			So(model.Posture(99).String(), ShouldEqual, "unknown")
		})

		Convey("Then only lying and falling count as grounded", func() {
			So(model.PostureLyingDown.Grounded(), ShouldBeTrue)
			So(model.PostureFalling.Grounded(), ShouldBeTrue)
			So(model.PostureStanding.Grounded(), ShouldBeFalse)
			So(model.PostureSitting.Grounded(), ShouldBeFalse)
			So(model.PostureUnknown.Grounded(), ShouldBeFalse)
		})

		Convey("Then only standing and sitting count as upright", func() {
			So(model.PostureStanding.Upright(), ShouldBeTrue)
			So(model.PostureSitting.Upright(), ShouldBeTrue)
			So(model.PostureLyingDown.Upright(), ShouldBeFalse)
			So(model.PostureFalling.Upright(), ShouldBeFalse)
			So(model.PostureUnknown.Upright(), ShouldBeFalse)
		})

		Convey("Then the zero value is unknown", func() {
			var p model.Posture
			So(p, ShouldEqual, model.PostureUnknown)
		})
	})
}

func TestBoundingBox(t *testing.T) {
	Convey("Given an axis-aligned bounding box", t, func() {
		box := model.BoundingBox{X1: 100, Y1: 230, X2: 160, Y2: 400}

		Convey("Then width and height follow the corner coordinates", func() {
			So(box.Width(), ShouldEqual, 60)
			So(box.Height(), ShouldEqual, 170)
		})
	})
}
