package render

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"baytt/internal/config"
	apperrors "baytt/internal/errors"
)

func TestClient_Render(t *testing.T) {
	Convey("render Client", t, func() {
		req := &Request{
			MovieID: "m1",
			Scenes: []Scene{
				{SceneNumber: 1, VideoURL: "https://v/1.mp4", Duration: 5},
				{SceneNumber: 2, VideoURL: "https://v/2.mp4", Duration: 5},
			},
			Transitions: []Transition{{FromScene: 1, ToScene: 2, Type: "fade", Duration: 1, Offset: 4}},
		}

		Convey("成功", func() {
			var got Request
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_ = json.NewDecoder(r.Body).Decode(&got)
				_ = json.NewEncoder(w).Encode(Response{VideoURL: "https://v/final.mp4", DurationSeconds: 9, SizeBytes: 1024})
			}))
			defer srv.Close()

			client, err := NewClient(&config.RenderProviderConfig{BaseURL: srv.URL})
			So(err, ShouldBeNil)
			out, err := client.Render(context.Background(), req)
			So(err, ShouldBeNil)
			So(out.VideoURL, ShouldEqual, "https://v/final.mp4")
			So(got.Scenes, ShouldResemble, req.Scenes)
			So(got.Transitions[0].Offset, ShouldEqual, 4.0)
		})

		Convey("超时返回 TimeoutError", func() {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				select {
				case <-r.Context().Done():
				case <-time.After(2 * time.Second):
				}
			}))
			defer srv.Close()

			client, err := NewClient(&config.RenderProviderConfig{BaseURL: srv.URL, Timeout: 50 * time.Millisecond})
			So(err, ShouldBeNil)
			_, err = client.Render(context.Background(), req)
			So(apperrors.IsTimeoutError(err), ShouldBeTrue)
		})

		Convey("空结果为 ProviderError", func() {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"video_url": ""}`))
			}))
			defer srv.Close()

			client, _ := NewClient(&config.RenderProviderConfig{BaseURL: srv.URL})
			_, err := client.Render(context.Background(), req)
			So(apperrors.IsProviderError(err), ShouldBeTrue)
		})

		Convey("5xx 为 ProviderError", func() {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			}))
			defer srv.Close()

			client, _ := NewClient(&config.RenderProviderConfig{BaseURL: srv.URL})
			_, err := client.Render(context.Background(), req)
			So(apperrors.IsProviderError(err), ShouldBeTrue)
		})
	})
}
