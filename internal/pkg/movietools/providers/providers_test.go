package providers

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
	"baytt/internal/pkg/ffmpeg"
	"baytt/internal/pkg/lipsync"
	"baytt/internal/pkg/movietools"
	"baytt/internal/pkg/render"
	"baytt/internal/pkg/voice"
)

func TestRemoteRenderProvider(t *testing.T) {
	Convey("RemoteRenderProvider 转换请求与结果", t, func() {
		var got render.Request
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewDecoder(r.Body).Decode(&got)
			_ = json.NewEncoder(w).Encode(render.Response{VideoURL: "https://cdn/final.mp4", DurationSeconds: 14, SizeBytes: 2048})
		}))
		defer srv.Close()

		client, err := render.NewClient(&config.RenderProviderConfig{BaseURL: srv.URL})
		So(err, ShouldBeNil)
		p := NewRemoteRenderProvider(client)

		out, err := p.Render(context.Background(), &movietools.RenderRequest{
			MovieID: "m1",
			Scenes: []movietools.RenderScene{
				{SceneNumber: 1, VideoURL: "https://v/1.mp4", Duration: 5},
				{SceneNumber: 2, VideoURL: "https://v/2.mp4", Duration: 5},
				{SceneNumber: 3, VideoURL: "https://v/3.mp4", Duration: 5},
			},
			Transitions: []movietools.RenderTransition{
				{FromScene: 1, ToScene: 2, Type: "cut", Offset: 5},
				{FromScene: 2, ToScene: 3, Type: "fade", Duration: 1, Offset: 9},
			},
			AudioTracks: []movietools.RenderAudio{{SceneNumber: 2, URL: "https://a/1.mp3", Start: 5.5}},
			MusicURL:    "https://a/music.mp3",
		})
		So(err, ShouldBeNil)
		So(out.VideoURL, ShouldEqual, "https://cdn/final.mp4")
		So(out.DurationSeconds, ShouldEqual, 14.0)
		So(out.SizeBytes, ShouldEqual, 2048)

		So(got.MovieID, ShouldEqual, "m1")
		So(len(got.Scenes), ShouldEqual, 3)
		So(got.Transitions[1].Type, ShouldEqual, "fade")
		So(got.Transitions[1].Offset, ShouldEqual, 9.0)
		So(got.AudioTracks[0].Start, ShouldEqual, 5.5)
		So(got.MusicURL, ShouldEqual, "https://a/music.mp3")
	})
}

func TestVoiceProvider(t *testing.T) {
	Convey("VoiceProvider", t, func() {
		Convey("成功返回音频", func() {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "audio/mpeg")
				_, _ = w.Write([]byte("ID3-audio"))
			}))
			defer srv.Close()

			client, err := voice.NewClient(&config.VoiceProviderConfig{APIKey: "k", BaseURL: srv.URL})
			So(err, ShouldBeNil)
			out, err := NewVoiceProvider(client).Synthesize(context.Background(), &movietools.SpeechRequest{
				Text:    "Where were you last night?",
				VoiceID: "v-1",
			})
			So(err, ShouldBeNil)
			So(string(out.AudioData), ShouldEqual, "ID3-audio")
			So(out.ContentType, ShouldEqual, "audio/mpeg")
		})

		Convey("额度不足透传 QuotaError", func() {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusTooManyRequests)
			}))
			defer srv.Close()

			client, err := voice.NewClient(&config.VoiceProviderConfig{APIKey: "k", BaseURL: srv.URL})
			So(err, ShouldBeNil)
			_, err = NewVoiceProvider(client).Synthesize(context.Background(), &movietools.SpeechRequest{Text: "hi", VoiceID: "v"})
			So(apperrors.IsQuotaError(err), ShouldBeTrue)
		})
	})
}

func TestLipSyncProvider(t *testing.T) {
	Convey("LipSyncProvider 提交后轮询到完成", t, func() {
		polls := 0
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodPost {
				_ = json.NewEncoder(w).Encode(map[string]string{"task_id": "ls-1"})
				return
			}
			polls++
			if polls < 2 {
				_ = json.NewEncoder(w).Encode(map[string]string{"status": "running"})
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "succeeded", "output_url": "https://v/synced.mp4"})
		}))
		defer srv.Close()

		client, err := lipsync.NewClient(&config.LipSyncProviderConfig{BaseURL: srv.URL})
		So(err, ShouldBeNil)
		url, err := NewLipSyncProvider(client, time.Millisecond, 5).Sync(context.Background(), "https://v/1.mp4", "https://a/1.mp3")
		So(err, ShouldBeNil)
		So(url, ShouldEqual, "https://v/synced.mp4")
		So(polls, ShouldEqual, 2)
	})
}

func TestAllCuts(t *testing.T) {
	Convey("全部硬切时走 concat", t, func() {
		So(allCuts(nil), ShouldBeTrue)
		So(allCuts([]ffmpeg.Transition{{Type: "cut"}, {Type: ""}}), ShouldBeTrue)
		So(allCuts([]ffmpeg.Transition{{Type: "cut"}, {Type: "dissolve", Duration: 0.75}}), ShouldBeFalse)
	})
}
