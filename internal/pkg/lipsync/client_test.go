package lipsync

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

func TestClient(t *testing.T) {
	Convey("lipsync Client", t, func() {
		status := "processing"
		output := ""
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodPost:
				var body map[string]string
				_ = json.NewDecoder(r.Body).Decode(&body)
				if body["video_url"] == "" || body["audio_url"] == "" {
					w.WriteHeader(http.StatusBadRequest)
					return
				}
				_ = json.NewEncoder(w).Encode(map[string]string{"task_id": "ls-1"})
			default:
				_ = json.NewEncoder(w).Encode(map[string]string{"status": status, "output_url": output})
			}
		}))
		defer srv.Close()

		client, err := NewClient(&config.LipSyncProviderConfig{BaseURL: srv.URL, APIKey: "k"})
		So(err, ShouldBeNil)
		ctx := context.Background()

		Convey("提交返回 task_id", func() {
			taskID, err := client.Submit(ctx, "https://v/1.mp4", "https://a/1.mp3")
			So(err, ShouldBeNil)
			So(taskID, ShouldEqual, "ls-1")
		})

		Convey("缺少参数时为 ProviderError", func() {
			_, err := client.Submit(ctx, "", "https://a/1.mp3")
			So(apperrors.IsProviderError(err), ShouldBeTrue)
		})

		Convey("成功返回输出地址", func() {
			status, output = "completed", "https://v/1-synced.mp4"
			task, err := client.Wait(ctx, "ls-1", time.Millisecond, 3)
			So(err, ShouldBeNil)
			So(task.OutputURL, ShouldEqual, "https://v/1-synced.mp4")
		})

		Convey("一直处理中则超时", func() {
			_, err := client.Wait(ctx, "ls-1", time.Millisecond, 3)
			So(apperrors.IsTimeoutError(err), ShouldBeTrue)
		})
	})
}
