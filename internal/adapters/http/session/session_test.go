package session

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	. "github.com/smartystreets/goconvey/convey"
)

func TestCookies(t *testing.T) {
	Convey("Given a cookie helper", t, func() {
		c := New("")

		Convey("Then a blank name falls back to the default", func() {
			So(c.Name(), ShouldEqual, DefaultCookie)
			So(New(" custom ").Name(), ShouldEqual, "custom")
		})

		Convey("When a request carries no cookie", func() {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
			id := c.ID(w, r)

			Convey("Then a uuid is minted and set", func() {
				_, err := uuid.Parse(id)
				So(err, ShouldBeNil)
				cookies := w.Result().Cookies()
				So(len(cookies), ShouldEqual, 1)
				So(cookies[0].Name, ShouldEqual, DefaultCookie)
				So(cookies[0].Value, ShouldEqual, id)
				So(cookies[0].HttpOnly, ShouldBeTrue)
			})
		})

		Convey("When a request carries a valid cookie", func() {
			want := uuid.NewString()
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
			r.AddCookie(&http.Cookie{Name: DefaultCookie, Value: want})

			Convey("Then the id is reused and nothing is set", func() {
				So(c.ID(w, r), ShouldEqual, want)
				So(len(w.Result().Cookies()), ShouldEqual, 0)
			})
		})

		Convey("When the cookie is not a uuid", func() {
			r := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
			r.AddCookie(&http.Cookie{Name: DefaultCookie, Value: "../etc"})
			id, ck := c.Resolve(r)

			Convey("Then a replacement is issued", func() {
				So(id, ShouldNotEqual, "../etc")
				So(ck, ShouldNotBeNil)
				So(ck.Value, ShouldEqual, id)
			})
		})
	})
}
