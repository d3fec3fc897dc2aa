package movie

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog/log"

	apperrors "baytt/internal/errors"
	"baytt/internal/model/movie"
	"baytt/internal/pkg/ffmpeg"
	"baytt/internal/pkg/movietools"
	movierepo "baytt/internal/repository/movie"
)

// AssembleRequest 成片合成参数
type AssembleRequest struct {
	MovieID    string
	Screenplay *movie.Screenplay
	Videos     []*movie.SceneVideo
	Audio      []*movie.DialogueAudio
	MusicURL   string
}

// AssemblyResult 成片合成结果
type AssemblyResult struct {
	VideoURL        string
	Status          movie.AssemblyStatus
	Scenes          int // 参与合成的场景数
	DurationSeconds float64
	SizeBytes       int64
	Error           string
}

// Assembler 按场景号拼接已完成的场景，交给渲染服务转场和混音
// 渲染失败时退化为第一个场景的视频
type Assembler struct {
	renderer movietools.RenderProvider
	movies   movierepo.MovieRepository
}

// NewAssembler 创建 Assembler
func NewAssembler(renderer movietools.RenderProvider, movies movierepo.MovieRepository) *Assembler {
	return &Assembler{renderer: renderer, movies: movies}
}

// Assemble 合成成片并把结果写入台账
// 只要有一个已完成场景就一定返回可播放地址
func (a *Assembler) Assemble(ctx context.Context, req *AssembleRequest) *AssemblyResult {
	ordered := orderCompleted(req.MovieID, req.Screenplay, req.Videos)
	if len(ordered) == 0 {
		result := &AssemblyResult{Status: movie.AssemblyStatusSkipped, Error: "no completed scenes"}
		a.persist(ctx, req.MovieID, result)
		return result
	}

	renderReq := BuildRenderRequest(req.MovieID, req.Screenplay, ordered, req.Audio, req.MusicURL)
	log.Info().
		Str("movie_id", req.MovieID).
		Int("scenes", len(renderReq.Scenes)).
		Int("audio_tracks", len(renderReq.AudioTracks)).
		Msg("开始合成成片")

	out, err := a.renderer.Render(ctx, renderReq)
	if err == nil && (out == nil || out.VideoURL == "") {
		err = fmt.Errorf("render returned empty result")
	}

	var result *AssemblyResult
	if err != nil {
		assemblyErr := apperrors.NewAssemblyError("render failed, falling back to first scene", err)
		log.Error().
			Err(assemblyErr).
			Str("movie_id", req.MovieID).
			Bool("timeout", apperrors.IsTimeoutError(err)).
			Msg("成片合成失败，使用第一个场景")
		result = &AssemblyResult{
			VideoURL:        ordered[0].PlayableURL(),
			Status:          movie.AssemblyStatusFallback,
			Scenes:          1,
			DurationSeconds: ordered[0].Duration,
			Error:           assemblyErr.Error(),
		}
	} else {
		result = &AssemblyResult{
			VideoURL:        out.VideoURL,
			Status:          movie.AssemblyStatusCompleted,
			Scenes:          len(ordered),
			DurationSeconds: out.DurationSeconds,
			SizeBytes:       out.SizeBytes,
		}
	}

	a.persist(ctx, req.MovieID, result)
	return result
}

// orderCompleted 已完成场景按场景号排序，其余丢弃并告警
func orderCompleted(movieID string, sp *movie.Screenplay, videos []*movie.SceneVideo) []*movie.SceneVideo {
	byScene := make(map[int]*movie.SceneVideo, len(videos))
	for _, v := range videos {
		if v.Status == movie.SceneStatusCompleted && v.PlayableURL() != "" {
			byScene[v.SceneNumber] = v
		}
	}
	if sp != nil {
		for _, s := range sp.Scenes {
			if _, ok := byScene[s.Number]; !ok {
				log.Warn().Str("movie_id", movieID).Int("scene_number", s.Number).Msg("场景未完成，不参与合成")
			}
		}
	}

	ordered := make([]*movie.SceneVideo, 0, len(byScene))
	for _, v := range byScene {
		ordered = append(ordered, v)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].SceneNumber < ordered[j].SceneNumber })
	return ordered
}

// BuildRenderRequest 转场计划与音轨时间线
// 转场 offset 按各场景的实际时长累计；台词起点 = 所在场景在成片中的起点 + 场景内起点。
// 已做口型同步的场景自带音轨，不再混入台词
func BuildRenderRequest(
	movieID string,
	sp *movie.Screenplay,
	ordered []*movie.SceneVideo,
	audio []*movie.DialogueAudio,
	musicURL string,
) *movietools.RenderRequest {
	req := &movietools.RenderRequest{MovieID: movieID, MusicURL: musicURL}

	durations := make([]float64, len(ordered))
	for i, v := range ordered {
		durations[i] = v.Duration
		req.Scenes = append(req.Scenes, movietools.RenderScene{
			SceneNumber: v.SceneNumber,
			VideoURL:    v.PlayableURL(),
			Duration:    v.Duration,
		})
	}

	types := make([]movie.TransitionType, 0, len(ordered))
	blends := make([]float64, 0, len(ordered))
	for k := 0; k+1 < len(ordered); k++ {
		t := movie.TransitionCut
		if sp != nil {
			if s, ok := sp.Scene(ordered[k].SceneNumber); ok {
				t = s.Transition.Type
			}
		}
		types = append(types, t)
		blends = append(blends, t.BlendDuration())
	}
	offsets := ffmpeg.XFadeOffsets(durations, blends)

	starts := make(map[int]float64, len(ordered))
	starts[ordered[0].SceneNumber] = 0
	for k, off := range offsets {
		req.Transitions = append(req.Transitions, movietools.RenderTransition{
			FromScene: ordered[k].SceneNumber,
			ToScene:   ordered[k+1].SceneNumber,
			Type:      string(types[k]),
			Duration:  blends[k],
			Offset:    off,
		})
		starts[ordered[k+1].SceneNumber] = off
	}

	lipSynced := make(map[int]bool)
	for _, v := range ordered {
		if v.LipSyncURL != "" {
			lipSynced[v.SceneNumber] = true
		}
	}
	for _, track := range audio {
		start, ok := starts[track.SceneNumber]
		if !ok || lipSynced[track.SceneNumber] || track.AudioURL == "" {
			continue
		}
		req.AudioTracks = append(req.AudioTracks, movietools.RenderAudio{
			SceneNumber: track.SceneNumber,
			URL:         track.AudioURL,
			Start:       start + track.Start,
		})
	}
	return req
}

func (a *Assembler) persist(ctx context.Context, movieID string, result *AssemblyResult) {
	if a.movies == nil {
		return
	}
	metadata := map[string]any{
		"assembled_scenes":       result.Scenes,
		"final_duration_seconds": result.DurationSeconds,
		"final_size_bytes":       result.SizeBytes,
	}
	if result.Error != "" {
		metadata["assembly_error"] = result.Error
	}
	err := a.movies.Update(ctx, movieID, &movie.MovieUpdate{
		FinalVideoURL:  result.VideoURL,
		AssemblyStatus: result.Status,
		Metadata:       metadata,
	})
	if err != nil {
		log.Error().Err(err).Str("movie_id", movieID).Msg("保存合成结果失败")
	}
}
