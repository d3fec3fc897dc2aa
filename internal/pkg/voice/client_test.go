package voice

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"baytt/internal/config"
	apperrors "baytt/internal/errors"
)

func TestClient_Synthesize(t *testing.T) {
	Convey("Client.Synthesize", t, func() {
		var (
			status   = http.StatusOK
			respBody = []byte("ID3fake-mp3")
			got      map[string]any
			path     string
		)
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path = r.URL.Path
			_ = json.NewDecoder(r.Body).Decode(&got)
			if status == http.StatusOK {
				w.Header().Set("Content-Type", "audio/mpeg")
			}
			w.WriteHeader(status)
			_, _ = w.Write(respBody)
		}))
		defer srv.Close()

		client, err := NewClient(&config.VoiceProviderConfig{APIKey: "k", BaseURL: srv.URL + "/"})
		So(err, ShouldBeNil)
		req := Request{Text: "Where were you last night?", VoiceID: "v-male-1", Stability: 1.4, Similarity: 0.75, Style: -1}

		Convey("成功返回二进制音频", func() {
			res, err := client.Synthesize(context.Background(), req)
			So(err, ShouldBeNil)
			So(string(res.AudioData), ShouldEqual, "ID3fake-mp3")
			So(res.ContentType, ShouldEqual, "audio/mpeg")
			So(path, ShouldEqual, "/v1/text-to-speech/v-male-1")

			settings := got["voice_settings"].(map[string]any)
			So(settings["stability"], ShouldEqual, 1.0)
			So(settings["style"], ShouldEqual, 0.0)
		})

		Convey("429 为 QuotaError", func() {
			status = http.StatusTooManyRequests
			respBody = []byte(`{"detail":{"status":"too_many_requests","message":"slow down"}}`)
			_, err := client.Synthesize(context.Background(), req)
			So(apperrors.IsQuotaError(err), ShouldBeTrue)
		})

		Convey("401 但提示 quota 也为 QuotaError", func() {
			status = http.StatusUnauthorized
			respBody = []byte(`{"detail":{"status":"quota_exceeded","message":"This request exceeds your quota"}}`)
			_, err := client.Synthesize(context.Background(), req)
			So(apperrors.IsQuotaError(err), ShouldBeTrue)
		})

		Convey("其他错误为 ProviderError", func() {
			status = http.StatusInternalServerError
			respBody = []byte(`{"detail":"internal"}`)
			_, err := client.Synthesize(context.Background(), req)
			So(apperrors.IsProviderError(err), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "internal")
		})

		Convey("空文本直接报错", func() {
			_, err := client.Synthesize(context.Background(), Request{Text: "  ", VoiceID: "v"})
			So(err, ShouldNotBeNil)
		})
	})
}
