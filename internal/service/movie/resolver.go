package movie

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/mongo"

	apperrors "baytt/internal/errors"
	"baytt/internal/model/movie"
	"baytt/internal/pkg/movietools"
	movierepo "baytt/internal/repository/movie"
)

// locationFuzzyThreshold 参考图缓存模糊匹配的最低相似度
const locationFuzzyThreshold = 0.6

// ArtifactStore 产物存储
type ArtifactStore interface {
	Put(ctx context.Context, movieID, kind string, data []byte, contentType string) (string, error)
}

// Reference 解析出的参考帧
type Reference struct {
	URL     string
	Source  movie.ReferenceSource
	CacheID string // 命中或写入的缓存条目
}

// ResolveRequest 参考帧解析参数
type ResolveRequest struct {
	MovieID          string
	Scene            *movie.Scene
	Bible            *movie.VisualBible
	Entry            ContinuityEntry
	PreviousEndFrame string
}

// ReferenceResolver 参考帧解析
// 严格按优先级：上一场景尾帧 > 缓存命中 > 新生成并写入缓存
type ReferenceResolver struct {
	cache     movierepo.LocationImageRepository
	images    movietools.ImageProvider
	store     ArtifactStore
	imageSize string
}

// NewReferenceResolver 创建参考帧解析器
func NewReferenceResolver(
	cache movierepo.LocationImageRepository,
	images movietools.ImageProvider,
	store ArtifactStore,
	imageSize string,
) *ReferenceResolver {
	if imageSize == "" {
		imageSize = "1280x720"
	}
	return &ReferenceResolver{
		cache:     cache,
		images:    images,
		store:     store,
		imageSize: imageSize,
	}
}

// Resolve 返回可用的参考帧地址，否则返回 ResolutionError
func (r *ReferenceResolver) Resolve(ctx context.Context, req *ResolveRequest) (*Reference, error) {
	scene := req.Scene
	logger := log.With().
		Str("movie_id", req.MovieID).
		Int("scene_number", scene.Number).
		Logger()

	if req.Entry.IsContinuation && !movietools.IsPlaceholderURL(req.PreviousEndFrame) {
		logger.Debug().Msg("使用上一场景尾帧")
		return &Reference{URL: req.PreviousEndFrame, Source: movie.ReferenceSourcePreviousFrame}, nil
	}
	if req.Entry.IsContinuation {
		logger.Warn().Msg("上一场景没有有效尾帧，改用场景参考图")
	}

	slug := scene.Header.LocationSlug
	if slug == "" {
		slug = movietools.Slugify(scene.Header.Location)
	}
	timeOfDay := movie.NormalizeTimeOfDay(scene.Header.TimeOfDay)
	weather := movie.NormalizeWeather(scene.Header.Weather)

	if hit := r.lookup(ctx, scene.Header.Location, slug, timeOfDay, weather); hit != nil {
		if err := r.cache.IncrementUsage(ctx, hit.ID); err != nil {
			logger.Warn().Err(err).Str("cache_id", hit.ID).Msg("缓存计数更新失败")
		}
		logger.Info().Str("slug", hit.Slug).Msg("场景参考图缓存命中")
		return &Reference{URL: hit.ImageURL, Source: movie.ReferenceSourceLibrary, CacheID: hit.ID}, nil
	}

	return r.generate(ctx, req, slug, timeOfDay, weather)
}

// lookup 先精确匹配 (slug, time_of_day, weather)，再在同一时间段内按名称模糊匹配
// 缓存查询失败只记日志，按未命中处理
func (r *ReferenceResolver) lookup(ctx context.Context, name, slug, timeOfDay, weather string) *movie.LocationImage {
	img, err := r.cache.FindExact(ctx, slug, timeOfDay, weather)
	if err == nil && !movietools.IsPlaceholderURL(img.ImageURL) {
		return img
	}
	if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		log.Warn().Err(err).Str("slug", slug).Msg("缓存精确查询失败")
	}

	candidates, err := r.cache.FindByTimeOfDay(ctx, timeOfDay)
	if err != nil {
		log.Warn().Err(err).Str("time_of_day", timeOfDay).Msg("缓存模糊查询失败")
		return nil
	}
	var best *movie.LocationImage
	bestScore := 0.0
	for _, c := range candidates {
		if movietools.IsPlaceholderURL(c.ImageURL) {
			continue
		}
		score := movietools.FuzzyMatch(name, c.Name)
		if s := movietools.FuzzyMatch(slug, c.Slug); s > score {
			score = s
		}
		if score > bestScore {
			best, bestScore = c, score
		}
	}
	if bestScore < locationFuzzyThreshold {
		return nil
	}
	return best
}

// generate 生成不含人物的场景参考图并写入缓存
func (r *ReferenceResolver) generate(ctx context.Context, req *ResolveRequest, slug, timeOfDay, weather string) (*Reference, error) {
	scene := req.Scene
	prompt := movietools.NewPromptBuilder(req.Bible).BuildLocationPrompt(scene)

	images, err := r.images.GenerateImages(ctx, prompt, r.imageSize, 1)
	if err != nil {
		return nil, apperrors.NewResolutionError(fmt.Sprintf("scene %d: generate reference image", scene.Number), err)
	}
	if len(images) == 0 || len(images[0].Data) == 0 {
		return nil, apperrors.NewResolutionError(fmt.Sprintf("scene %d: image service returned no image", scene.Number), nil)
	}

	contentType := images[0].ContentType
	if contentType == "" {
		contentType = "image/png"
	}
	url, err := r.store.Put(ctx, req.MovieID, "locations", images[0].Data, contentType)
	if err != nil {
		return nil, apperrors.NewResolutionError(fmt.Sprintf("scene %d: store reference image", scene.Number), err)
	}

	ref := &Reference{URL: url, Source: movie.ReferenceSourceGenerated}
	stored, err := r.cache.Upsert(ctx, &movie.LocationImage{
		Slug:      slug,
		Name:      scene.Header.Location,
		TimeOfDay: timeOfDay,
		Weather:   weather,
		ImageURL:  url,
		Prompt:    prompt,
	})
	if err != nil {
		// 缓存写入失败不影响本场景
		log.Warn().Err(err).Str("slug", slug).Msg("场景参考图写入缓存失败")
		return ref, nil
	}
	ref.CacheID = stored.ID

	log.Info().
		Str("movie_id", req.MovieID).
		Int("scene_number", scene.Number).
		Str("slug", slug).
		Str("time_of_day", timeOfDay).
		Str("weather", weather).
		Msg("场景参考图已生成")
	return ref, nil
}
