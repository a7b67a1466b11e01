package site

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/smartystreets/goconvey/convey"
)

func TestSiteHandler(t *testing.T) {
	convey.Convey("Given the embedded monitoring page", t, func() {
		ctx := context.Background()
		mux := http.NewServeMux()

		convey.Convey("When registering the site handler", func() {
			Register(ctx, mux)

			convey.Convey("Then it should serve the index page at /", func() {
				req := httptest.NewRequest("GET", "/", http.NoBody)
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, req)

				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
				convey.So(w.Body.String(), convey.ShouldContainSubstring, "Fall Detection Monitor")
			})
		})
	})
}

func TestSiteHandlerWithNilMux(t *testing.T) {
	convey.Convey("Given a nil mux", t, func() {
		convey.Convey("When registering the site handler", func() {
			convey.Convey("Then it should panic", func() {
				convey.So(func() {
					Register(context.Background(), nil)
				}, convey.ShouldPanic)
			})
		})
	})
}
