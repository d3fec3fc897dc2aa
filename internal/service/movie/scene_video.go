package movie

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	apperrors "baytt/internal/errors"
	"baytt/internal/model/movie"
	"baytt/internal/pkg/id"
	"baytt/internal/pkg/logger"
	"baytt/internal/pkg/movietools"
	movierepo "baytt/internal/repository/movie"
)

// SceneVideoRequest 单场景视频生成参数
type SceneVideoRequest struct {
	MovieID          string
	Scene            *movie.Scene
	Bible            *movie.VisualBible
	Entry            ContinuityEntry
	PreviousEndFrame string
}

// SceneVideoGenerator 场景视频生成
// 参考帧 -> 纯画面提示词 -> 提交图生视频任务 -> 轮询 -> 取尾帧
type SceneVideoGenerator struct {
	resolver    *ReferenceResolver
	video       movietools.VideoProvider
	frames      movietools.FrameExtractor
	store       ArtifactStore
	videos      movierepo.SceneVideoRepository
	aspectRatio string
	maxChars    int
}

// NewSceneVideoGenerator 创建场景视频生成器
// frames 可为空，此时只使用服务端返回的尾帧
func NewSceneVideoGenerator(
	resolver *ReferenceResolver,
	video movietools.VideoProvider,
	frames movietools.FrameExtractor,
	store ArtifactStore,
	videos movierepo.SceneVideoRepository,
	aspectRatio string,
	maxChars int,
) *SceneVideoGenerator {
	if aspectRatio == "" {
		aspectRatio = "16:9"
	}
	if maxChars <= 0 {
		maxChars = 1500
	}
	return &SceneVideoGenerator{
		resolver:    resolver,
		video:       video,
		frames:      frames,
		store:       store,
		videos:      videos,
		aspectRatio: aspectRatio,
		maxChars:    maxChars,
	}
}

// GenerateSceneVideo 生成一个场景的视频
// 成功和失败都会写入一条终态的 SceneVideo 记录；失败时同时返回错误
func (g *SceneVideoGenerator) GenerateSceneVideo(ctx context.Context, req *SceneVideoRequest) (*movie.SceneVideo, error) {
	scene := req.Scene
	lg := logger.ForScene(req.MovieID, scene.Number)

	record := &movie.SceneVideo{
		ID:          id.New(),
		MovieID:     req.MovieID,
		SceneNumber: scene.Number,
		Status:      movie.SceneStatusGenerating,
		Duration:    float64(scene.Duration),
	}

	ref, err := g.resolver.Resolve(ctx, &ResolveRequest{
		MovieID:          req.MovieID,
		Scene:            scene,
		Bible:            req.Bible,
		Entry:            req.Entry,
		PreviousEndFrame: req.PreviousEndFrame,
	})
	if err != nil {
		return g.fail(ctx, record, err)
	}
	record.ReferenceSource = ref.Source
	record.ReferenceURL = ref.URL

	prompt := BuildVisualPrompt(req.Bible, scene, g.maxChars)
	record.Prompt = prompt

	taskID, err := g.video.Submit(ctx, &movietools.VideoRequest{
		Prompt:         prompt,
		ReferenceImage: ref.URL,
		Duration:       scene.Duration,
		AspectRatio:    g.aspectRatio,
	})
	if err != nil {
		return g.fail(ctx, record, err)
	}
	record.TaskID = taskID
	lg.Info().
		Str("task_id", taskID).
		Str("source", ref.Source.String()).
		Int("prompt_len", len([]rune(prompt))).
		Msg("场景视频任务已提交")

	result, err := g.video.Wait(ctx, taskID)
	if err != nil {
		return g.fail(ctx, record, err)
	}
	if result == nil || result.VideoURL == "" {
		return g.fail(ctx, record, apperrors.NewProviderError(
			fmt.Sprintf("video task %s succeeded without output url", taskID), nil))
	}
	record.VideoURL = result.VideoURL
	record.Duration = g.measuredDuration(ctx, result, record.Duration)
	record.EndFrameURL = g.endFrame(ctx, req.MovieID, result)
	record.Status = movie.SceneStatusCompleted

	g.save(ctx, record)
	lg.Info().
		Str("task_id", taskID).
		Bool("has_end_frame", record.EndFrameURL != "").
		Float64("duration", record.Duration).
		Msg("场景视频生成完成")
	return record, nil
}

// BuildVisualPrompt 纯画面提示词
// 构建后再次确认不含任何台词原文
func BuildVisualPrompt(bible *movie.VisualBible, scene *movie.Scene, maxChars int) string {
	prompt := movietools.NewPromptBuilder(bible).BuildScenePrompt(scene, maxChars)
	lower := strings.ToLower(prompt)
	for _, line := range scene.DialogueTexts() {
		if strings.Contains(lower, strings.ToLower(line)) {
			prompt = movietools.StripQuotedDialogue(prompt, scene.DialogueTexts())
			break
		}
	}
	return prompt
}

// endFrame 下一场景的参考帧
// 优先使用服务端返回的尾帧，否则本地抽帧后上传；都失败返回空串，下一场景退回缓存
func (g *SceneVideoGenerator) endFrame(ctx context.Context, movieID string, result *movietools.VideoResult) string {
	if !movietools.IsPlaceholderURL(result.LastFrameURL) {
		return result.LastFrameURL
	}
	if g.frames == nil {
		return ""
	}

	data, err := g.frames.ExtractLastFrame(ctx, result.VideoURL)
	if err != nil {
		log.Warn().Err(err).Str("task_id", result.TaskID).Msg("尾帧提取失败")
		return ""
	}
	url, err := g.store.Put(ctx, movieID, "frames", data, "image/jpeg")
	if err != nil {
		log.Warn().Err(err).Str("task_id", result.TaskID).Msg("尾帧上传失败")
		return ""
	}
	return url
}

// measuredDuration 场景的实际时长：服务端报告值优先，其次 ffprobe 探测，都拿不到时用名义时长
// 拼接的转场 offset 和台词起点都依赖这个值
func (g *SceneVideoGenerator) measuredDuration(ctx context.Context, result *movietools.VideoResult, nominal float64) float64 {
	if result.Duration > 0 {
		return result.Duration
	}
	d, err := g.frames.ProbeDuration(ctx, result.VideoURL)
	if err != nil || d <= 0 {
		log.Warn().Err(err).Str("task_id", result.TaskID).Float64("nominal", nominal).Msg("无法获取场景实际时长，使用名义时长")
		return nominal
	}
	return d
}

func (g *SceneVideoGenerator) fail(ctx context.Context, record *movie.SceneVideo, err error) (*movie.SceneVideo, error) {
	record.Status = movie.SceneStatusFailed
	record.ErrorMessage = err.Error()
	g.save(ctx, record)
	log.Error().
		Err(err).
		Str("movie_id", record.MovieID).
		Int("scene_number", record.SceneNumber).
		Str("error_type", string(apperrors.TypeOf(err))).
		Msg("场景视频生成失败")
	return record, err
}

func (g *SceneVideoGenerator) save(ctx context.Context, record *movie.SceneVideo) {
	now := time.Now()
	record.CreatedAt = now
	record.UpdatedAt = now
	if err := g.videos.Create(ctx, record); err != nil {
		log.Error().Err(err).Str("movie_id", record.MovieID).Int("scene_number", record.SceneNumber).Msg("保存场景视频记录失败")
	}
}
