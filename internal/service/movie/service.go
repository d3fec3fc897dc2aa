package movie

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/mongo"

	apperrors "baytt/internal/errors"
	"baytt/internal/model/movie"
	"baytt/internal/pkg/ctxutil"
	"baytt/internal/pkg/id"
	movierepo "baytt/internal/repository/movie"
)

// 影片时长上限（分钟）
const maxDurationMinutes = 30

// MovieService 电影服务接口
type MovieService interface {
	// CreateMovie 创建电影台账记录（pending）
	CreateMovie(ctx context.Context, req *CreateMovieRequest) (*movie.Movie, error)

	// GetMovie 获取电影台账
	GetMovie(ctx context.Context, movieID string) (*movie.Movie, error)

	// GetSceneVideos 获取电影的场景视频记录
	GetSceneVideos(ctx context.Context, movieID string) ([]*movie.SceneVideo, error)

	// Produce 同步执行流水线
	Produce(ctx context.Context, movieID string) (*RunResult, error)

	// StartProduction 异步执行流水线，立即返回
	StartProduction(movieID string)

	// Wait 等待所有异步流水线结束
	Wait()
}

// CreateMovieRequest 创建电影请求
type CreateMovieRequest struct {
	Title           string
	Brief           string
	Genre           string
	DurationMinutes float64
	MusicURL        string
}

// Validate 校验请求
func (r *CreateMovieRequest) Validate() error {
	if strings.TrimSpace(r.Brief) == "" {
		return apperrors.NewValidationError("brief is required", nil)
	}
	if r.DurationMinutes <= 0 || r.DurationMinutes > maxDurationMinutes {
		return apperrors.NewValidationError("duration_minutes must be within (0, 30]", nil)
	}
	return nil
}

// movieService 电影服务实现
type movieService struct {
	orchestrator *Orchestrator
	movies       movierepo.MovieRepository
	videos       movierepo.SceneVideoRepository
	runTimeout   time.Duration
	wg           sync.WaitGroup
}

// NewMovieService 创建电影服务
// runTimeout 为单部电影异步执行的总时长上限，<=0 表示不限制
func NewMovieService(
	orchestrator *Orchestrator,
	movies movierepo.MovieRepository,
	videos movierepo.SceneVideoRepository,
	runTimeout time.Duration,
) MovieService {
	return &movieService{
		orchestrator: orchestrator,
		movies:       movies,
		videos:       videos,
		runTimeout:   runTimeout,
	}
}

func (s *movieService) CreateMovie(ctx context.Context, req *CreateMovieRequest) (*movie.Movie, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = "Untitled"
	}
	genre := strings.TrimSpace(req.Genre)
	if genre == "" {
		genre = "drama"
	}

	m := &movie.Movie{
		ID:              id.New(),
		Title:           title,
		Brief:           strings.TrimSpace(req.Brief),
		Genre:           genre,
		DurationMinutes: req.DurationMinutes,
		MusicURL:        req.MusicURL,
		Status:          movie.MovieStatusPending,
		Metadata:        map[string]any{},
	}
	// 经 API 创建时记录请求 ID
	requestID, _ := ctxutil.GetRequestID(ctx)
	if requestID != "" {
		m.Metadata["request_id"] = requestID
	}
	if err := s.movies.Create(ctx, m); err != nil {
		return nil, err
	}
	log.Info().
		Str("movie_id", m.ID).
		Str("request_id", requestID).
		Str("title", m.Title).
		Float64("duration_minutes", m.DurationMinutes).
		Msg("电影已创建")
	return m, nil
}

func (s *movieService) GetMovie(ctx context.Context, movieID string) (*movie.Movie, error) {
	m, err := s.movies.FindByID(ctx, movieID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperrors.NewNotFoundError("movie not found", err)
	}
	return m, err
}

func (s *movieService) GetSceneVideos(ctx context.Context, movieID string) ([]*movie.SceneVideo, error) {
	if _, err := s.GetMovie(ctx, movieID); err != nil {
		return nil, err
	}
	return s.videos.FindByMovieID(ctx, movieID)
}

func (s *movieService) Produce(ctx context.Context, movieID string) (*RunResult, error) {
	return s.orchestrator.Run(ctx, movieID)
}

func (s *movieService) StartProduction(movieID string) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				log.Error().Interface("panic", r).Str("movie_id", movieID).Msg("流水线 panic")
				s.markFailed(movieID, fmt.Sprintf("pipeline panic: %v", r))
			}
		}()

		ctx := context.Background()
		if s.runTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, s.runTimeout)
			defer cancel()
		}
		if _, err := s.orchestrator.Run(ctx, movieID); err != nil {
			log.Error().Err(err).Str("movie_id", movieID).Msg("流水线执行失败")
		}
	}()
}

// markFailed 流水线异常退出时把台账置为失败，避免一直停留在 running
func (s *movieService) markFailed(movieID, reason string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := s.movies.Update(ctx, movieID, &movie.MovieUpdate{
		Status:       movie.MovieStatusFailed,
		Stage:        movie.StageFailed,
		ErrorMessage: reason,
	})
	if err != nil {
		log.Error().Err(err).Str("movie_id", movieID).Msg("更新失败状态出错")
	}
}

func (s *movieService) Wait() {
	s.wg.Wait()
}
