package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	. "github.com/smartystreets/goconvey/convey"

	"baytt/internal/pkg/ctxutil"
)

func newEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(Recovery(), RequestID(), Logger(), CORS())
	engine.GET("/echo", func(c *gin.Context) {
		id, _ := ctxutil.GetRequestID(c.Request.Context())
		c.String(http.StatusOK, id)
	})
	engine.GET("/panic", func(c *gin.Context) {
		panic("boom")
	})
	return engine
}

func TestMiddleware(t *testing.T) {
	Convey("全局中间件", t, func() {
		engine := newEngine()

		Convey("生成 request id 并写回响应头", func() {
			w := httptest.NewRecorder()
			engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/echo", nil))
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Header().Get(RequestIDHeader), ShouldNotBeEmpty)
			So(w.Body.String(), ShouldEqual, w.Header().Get(RequestIDHeader))
		})

		Convey("沿用客户端传入的 request id", func() {
			req := httptest.NewRequest(http.MethodGet, "/echo", nil)
			req.Header.Set(RequestIDHeader, "client-42")
			w := httptest.NewRecorder()
			engine.ServeHTTP(w, req)
			So(w.Body.String(), ShouldEqual, "client-42")
			So(w.Header().Get(RequestIDHeader), ShouldEqual, "client-42")
		})

		Convey("OPTIONS 预检直接返回 204", func() {
			req := httptest.NewRequest(http.MethodOptions, "/echo", nil)
			req.Header.Set("Origin", "http://studio.local")
			w := httptest.NewRecorder()
			engine.ServeHTTP(w, req)
			So(w.Code, ShouldEqual, http.StatusNoContent)
			So(w.Header().Get("Access-Control-Allow-Origin"), ShouldEqual, "http://studio.local")
		})

		Convey("panic 被恢复为 500", func() {
			w := httptest.NewRecorder()
			engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))
			So(w.Code, ShouldEqual, http.StatusInternalServerError)
			So(w.Body.String(), ShouldContainSubstring, "50000")
		})
	})
}
