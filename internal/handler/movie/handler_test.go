package movie

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	. "github.com/smartystreets/goconvey/convey"

	apperrors "baytt/internal/errors"
	"baytt/internal/model/movie"
	moviesvc "baytt/internal/service/movie"
)

type fakeMovieService struct {
	mu      sync.Mutex
	movies  map[string]*movie.Movie
	videos  map[string][]*movie.SceneVideo
	started []string
	failErr error
}

func newFakeMovieService() *fakeMovieService {
	return &fakeMovieService{
		movies: map[string]*movie.Movie{},
		videos: map[string][]*movie.SceneVideo{},
	}
}

func (f *fakeMovieService) CreateMovie(ctx context.Context, req *moviesvc.CreateMovieRequest) (*movie.Movie, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if f.failErr != nil {
		return nil, f.failErr
	}
	m := &movie.Movie{
		ID:              "m-1",
		Title:           req.Title,
		Brief:           req.Brief,
		Genre:           req.Genre,
		DurationMinutes: req.DurationMinutes,
		Status:          movie.MovieStatusPending,
		CreatedAt:       time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		UpdatedAt:       time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	f.mu.Lock()
	f.movies[m.ID] = m
	f.mu.Unlock()
	return m, nil
}

func (f *fakeMovieService) GetMovie(ctx context.Context, movieID string) (*movie.Movie, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.movies[movieID]
	if !ok {
		return nil, apperrors.NewNotFoundError("movie not found", nil)
	}
	return m, nil
}

func (f *fakeMovieService) GetSceneVideos(ctx context.Context, movieID string) ([]*movie.SceneVideo, error) {
	if _, err := f.GetMovie(ctx, movieID); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.videos[movieID], nil
}

func (f *fakeMovieService) Produce(ctx context.Context, movieID string) (*moviesvc.RunResult, error) {
	return &moviesvc.RunResult{MovieID: movieID}, nil
}

func (f *fakeMovieService) StartProduction(movieID string) {
	f.mu.Lock()
	f.started = append(f.started, movieID)
	f.mu.Unlock()
}

func (f *fakeMovieService) Wait() {}

func newTestRouter(svc moviesvc.MovieService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	NewHandler(svc).RegisterRoutes(engine.Group("/api/v1"))
	return engine
}

func doJSON(engine *gin.Engine, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	var out map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return w, out
}

func TestCreateMovie(t *testing.T) {
	Convey("POST /api/v1/movies", t, func() {
		svc := newFakeMovieService()
		engine := newTestRouter(svc)

		Convey("创建成功后异步启动流水线", func() {
			w, out := doJSON(engine, http.MethodPost, "/api/v1/movies",
				`{"title":"Night Shift","brief":"A detective in the rain","genre":"noir","duration_minutes":2}`)
			So(w.Code, ShouldEqual, http.StatusAccepted)
			So(out["code"], ShouldEqual, float64(0))

			data := out["data"].(map[string]any)
			So(data["movie_id"], ShouldEqual, "m-1")
			info := data["movie"].(map[string]any)
			So(info["status"], ShouldEqual, "pending")
			So(info["created_at"], ShouldEqual, "2026-01-02T03:04:05Z")
			So(svc.started, ShouldResemble, []string{"m-1"})
		})

		Convey("缺少 brief 返回 400", func() {
			w, out := doJSON(engine, http.MethodPost, "/api/v1/movies", `{"duration_minutes":2}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(out["code"], ShouldEqual, float64(CodeBadRequest))
			So(svc.started, ShouldBeEmpty)
		})

		Convey("时长越界由服务校验拒绝", func() {
			w, out := doJSON(engine, http.MethodPost, "/api/v1/movies", `{"brief":"x","duration_minutes":45}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(out["code"], ShouldEqual, float64(CodeBadRequest))
			So(out["message"], ShouldContainSubstring, "duration_minutes")
		})

		Convey("存储失败返回 500", func() {
			svc.failErr = context.DeadlineExceeded
			w, out := doJSON(engine, http.MethodPost, "/api/v1/movies", `{"brief":"x","duration_minutes":1}`)
			So(w.Code, ShouldEqual, http.StatusInternalServerError)
			So(out["code"], ShouldEqual, float64(CodeServiceError))
		})
	})
}

func TestGetMovie(t *testing.T) {
	Convey("GET /api/v1/movies/:movie_id", t, func() {
		svc := newFakeMovieService()
		done := time.Date(2026, 1, 2, 4, 0, 0, 0, time.UTC)
		svc.movies["m-9"] = &movie.Movie{
			ID:              "m-9",
			Status:          movie.MovieStatusCompletedPartial,
			Stage:           movie.StageDone,
			Progress:        100,
			SceneCount:      12,
			CompletedScenes: 7,
			FinalVideoURL:   "https://cdn.example.com/m-9/final.mp4",
			AssemblyStatus:  movie.AssemblyStatusCompleted,
			Metadata:        map[string]any{"audio_generated": 10},
			CompletedAt:     &done,
		}
		engine := newTestRouter(svc)

		Convey("返回台账", func() {
			w, out := doJSON(engine, http.MethodGet, "/api/v1/movies/m-9", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			info := out["data"].(map[string]any)["movie"].(map[string]any)
			So(info["status"], ShouldEqual, "completed_partial")
			So(info["stage"], ShouldEqual, "done")
			So(info["progress"], ShouldEqual, float64(100))
			So(info["completed_scenes"], ShouldEqual, float64(7))
			So(info["final_video_url"], ShouldEqual, "https://cdn.example.com/m-9/final.mp4")
			So(info["assembly_status"], ShouldEqual, "completed")
			So(info["completed_at"], ShouldEqual, "2026-01-02T04:00:00Z")
		})

		Convey("不存在返回 404", func() {
			w, out := doJSON(engine, http.MethodGet, "/api/v1/movies/missing", "")
			So(w.Code, ShouldEqual, http.StatusNotFound)
			So(out["code"], ShouldEqual, float64(CodeNotFound))
		})
	})
}

func TestGetScenes(t *testing.T) {
	Convey("GET /api/v1/movies/:movie_id/scenes", t, func() {
		svc := newFakeMovieService()
		svc.movies["m-3"] = &movie.Movie{ID: "m-3"}
		svc.videos["m-3"] = []*movie.SceneVideo{
			{
				ID: "v1", MovieID: "m-3", SceneNumber: 1,
				Status:          movie.SceneStatusCompleted,
				ReferenceSource: movie.ReferenceSourceGenerated,
				VideoURL:        "https://video.example.com/1.mp4",
				EndFrameURL:     "https://video.example.com/1_last.jpg",
				Duration:        5,
			},
			{
				ID: "v2", MovieID: "m-3", SceneNumber: 2,
				Status:       movie.SceneStatusFailed,
				ErrorMessage: "provider error",
			},
		}
		engine := newTestRouter(svc)

		Convey("返回场景记录", func() {
			w, out := doJSON(engine, http.MethodGet, "/api/v1/movies/m-3/scenes", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			data := out["data"].(map[string]any)
			So(data["total"], ShouldEqual, float64(2))
			scenes := data["scenes"].([]any)
			first := scenes[0].(map[string]any)
			So(first["reference_source"], ShouldEqual, "generated")
			So(first["end_frame_url"], ShouldEqual, "https://video.example.com/1_last.jpg")
			second := scenes[1].(map[string]any)
			So(second["status"], ShouldEqual, "failed")
			So(second["error_message"], ShouldEqual, "provider error")
		})

		Convey("电影不存在返回 404", func() {
			w, _ := doJSON(engine, http.MethodGet, "/api/v1/movies/nope/scenes", "")
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})
	})
}
