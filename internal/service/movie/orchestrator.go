package movie

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	apperrors "baytt/internal/errors"
	"baytt/internal/model/movie"
	"baytt/internal/pkg/logger"
	movierepo "baytt/internal/repository/movie"
)

// 各阶段的进度区间
const (
	progressPlanningStart = 1
	progressPlanningEnd   = 10
	progressScriptEnd     = 20
	progressScenesEnd     = 70
	progressAudioEnd      = 85
	progressDone          = 100
)

// RunResult 一次流水线执行的结果
type RunResult struct {
	MovieID         string               `json:"movie_id"`
	Status          movie.MovieStatus    `json:"status"`
	FinalVideoURL   string               `json:"final_video_url,omitempty"`
	AssemblyStatus  movie.AssemblyStatus `json:"assembly_status,omitempty"`
	SceneCount      int                  `json:"scene_count"`
	CompletedScenes int                  `json:"completed_scenes"`
	Error           string               `json:"error,omitempty"`
}

// Orchestrator 串联各阶段并持久化进度
// planning -> screenwriting -> scene_generation -> audio_generation -> assembling -> done | failed
type Orchestrator struct {
	planner         *Planner
	writer          *Screenwriter
	videoGen        *SceneVideoGenerator
	audioGen        *AudioGenerator
	assembler       *Assembler
	movies          movierepo.MovieRepository
	scenes          movierepo.SceneRepository
	minSuccessRatio float64
}

// NewOrchestrator 创建 Orchestrator
// minSuccessRatio：完成场景占比低于该值时，即使有成片也只标记为 completed_partial
func NewOrchestrator(
	planner *Planner,
	writer *Screenwriter,
	videoGen *SceneVideoGenerator,
	audioGen *AudioGenerator,
	assembler *Assembler,
	movies movierepo.MovieRepository,
	scenes movierepo.SceneRepository,
	minSuccessRatio float64,
) *Orchestrator {
	return &Orchestrator{
		planner:         planner,
		writer:          writer,
		videoGen:        videoGen,
		audioGen:        audioGen,
		assembler:       assembler,
		movies:          movies,
		scenes:          scenes,
		minSuccessRatio: minSuccessRatio,
	}
}

// progressTracker 保证写入台账的进度只增不减
type progressTracker struct {
	movies  movierepo.MovieRepository
	movieID string
	last    int
	logger  zerolog.Logger
}

func (t *progressTracker) update(ctx context.Context, u *movie.MovieUpdate) {
	if u.Progress < t.last {
		u.Progress = t.last
	}
	t.last = u.Progress
	if err := t.movies.Update(ctx, t.movieID, u); err != nil {
		// 台账写入失败不影响生成
		t.logger.Error().Err(err).Str("stage", string(u.Stage)).Msg("写入进度失败")
	}
}

// Run 同步执行一部电影的完整流水线
// 单个场景失败不中断；只有规划、剧本阶段失败或没有任何可播放结果时电影才失败
func (o *Orchestrator) Run(ctx context.Context, movieID string) (*RunResult, error) {
	m, err := o.movies.FindByID(ctx, movieID)
	if err != nil {
		return nil, apperrors.NewNotFoundError("movie not found: "+movieID, err)
	}

	lg := logger.ForMovie(movieID)
	tracker := &progressTracker{movies: o.movies, movieID: movieID, last: m.Progress, logger: lg}
	result := &RunResult{MovieID: movieID}

	// planning
	tracker.update(ctx, &movie.MovieUpdate{Status: movie.MovieStatusRunning, Stage: movie.StagePlanning, Progress: progressPlanningStart})
	bible, err := o.planner.CreateVisualBible(ctx, m.Title, m.Brief, m.Genre, m.DurationMinutes)
	if err != nil {
		return o.fail(ctx, tracker, result, movie.StagePlanning, err)
	}
	plan, err := o.planner.PlanProduction(ctx, m.Brief, bible)
	if err != nil {
		lg.Warn().Err(err).Msg("资源计划生成失败，继续使用空计划")
		plan = &movie.ProductionPlan{}
	}
	tracker.update(ctx, &movie.MovieUpdate{
		Stage:    movie.StagePlanning,
		Progress: progressPlanningEnd,
		Bible:    bible,
		Plan:     plan,
		Metadata: map[string]any{
			"bible_fallback":  bible.Fallback,
			"library_matches": plan.Found(),
		},
	})

	// screenwriting
	tracker.update(ctx, &movie.MovieUpdate{Stage: movie.StageScreenwriting})
	sp, err := o.writer.WriteScreenplay(ctx, movieID, m.Brief, bible, plan, m.DurationMinutes)
	if err != nil {
		return o.fail(ctx, tracker, result, movie.StageScreenwriting, err)
	}
	if err := o.scenes.CreateMany(ctx, sp.Scenes); err != nil {
		return o.fail(ctx, tracker, result, movie.StageScreenwriting, fmt.Errorf("save scenes: %w", err))
	}
	result.SceneCount = len(sp.Scenes)
	sceneCount := len(sp.Scenes)
	tracker.update(ctx, &movie.MovieUpdate{Stage: movie.StageScreenwriting, Progress: progressScriptEnd, SceneCount: &sceneCount})

	// scene_generation
	videos, err := o.generateScenes(ctx, tracker, lg, bible, sp)
	if err != nil {
		return o.fail(ctx, tracker, result, movie.StageSceneGeneration, err)
	}
	result.CompletedScenes = countCompleted(videos)
	if result.CompletedScenes == 0 {
		return o.fail(ctx, tracker, result, movie.StageSceneGeneration, fmt.Errorf("no scene completed"))
	}

	// audio_generation
	tracker.update(ctx, &movie.MovieUpdate{Stage: movie.StageAudioGeneration, Progress: progressScenesEnd})
	byScene := make(map[int]*movie.SceneVideo, len(videos))
	for _, v := range videos {
		byScene[v.SceneNumber] = v
	}
	report, err := o.audioGen.GenerateAudio(ctx, movieID, bible, sp, byScene, func(done, total int) {
		tracker.update(ctx, &movie.MovieUpdate{
			Stage:    movie.StageAudioGeneration,
			Progress: bandProgress(progressScenesEnd, progressAudioEnd, done, total),
		})
	})
	if err != nil {
		return o.fail(ctx, tracker, result, movie.StageAudioGeneration, err)
	}
	tracker.update(ctx, &movie.MovieUpdate{
		Stage:    movie.StageAudioGeneration,
		Progress: progressAudioEnd,
		Metadata: map[string]any{
			"audio_generated": report.Generated,
			"audio_skipped":   report.Skipped,
			"audio_failed":    report.Failed,
			"lipsynced":       report.LipSynced,
		},
	})

	// assembling
	tracker.update(ctx, &movie.MovieUpdate{Stage: movie.StageAssembling})
	assembly := o.assembler.Assemble(ctx, &AssembleRequest{
		MovieID:    movieID,
		Screenplay: sp,
		Videos:     videos,
		Audio:      report.Tracks,
		MusicURL:   m.MusicURL,
	})
	result.FinalVideoURL = assembly.VideoURL
	result.AssemblyStatus = assembly.Status
	if assembly.VideoURL == "" {
		return o.fail(ctx, tracker, result, movie.StageAssembling, apperrors.NewAssemblyError(assembly.Error, nil))
	}

	result.Status = o.finalStatus(result, assembly)
	tracker.update(ctx, &movie.MovieUpdate{
		Status:   result.Status,
		Stage:    movie.StageDone,
		Progress: progressDone,
		Done:     true,
	})
	lg.Info().
		Str("status", string(result.Status)).
		Str("assembly_status", string(result.AssemblyStatus)).
		Int("completed_scenes", result.CompletedScenes).
		Int("scene_count", result.SceneCount).
		Msg("电影生成结束")
	return result, nil
}

// generateScenes 按顺序生成所有场景
// 第 N 场只消费第 N-1 场的尾帧；某场失败后下一场的承接帧为空，退回缓存或新生成
func (o *Orchestrator) generateScenes(
	ctx context.Context,
	tracker *progressTracker,
	lg zerolog.Logger,
	bible *movie.VisualBible,
	sp *movie.Screenplay,
) ([]*movie.SceneVideo, error) {
	plan := BuildContinuityPlan(sp)
	videos := make([]*movie.SceneVideo, 0, len(sp.Scenes))
	endFrames := make(map[int]string, len(sp.Scenes))
	completed := 0

	tracker.update(ctx, &movie.MovieUpdate{Stage: movie.StageSceneGeneration})
	for i, scene := range sp.Scenes {
		if err := ctx.Err(); err != nil {
			return videos, err
		}
		o.setSceneStatus(ctx, lg, scene, movie.SceneStatusGenerating, "")

		entry, _ := plan.Entry(scene.Number)
		previous := ""
		if from := plan.ContinuesFrom(scene.Number); from > 0 {
			previous = endFrames[from]
		}

		video, err := o.videoGen.GenerateSceneVideo(ctx, &SceneVideoRequest{
			MovieID:          sp.MovieID,
			Scene:            scene,
			Bible:            bible,
			Entry:            entry,
			PreviousEndFrame: previous,
		})
		if video != nil {
			videos = append(videos, video)
		}
		if err != nil {
			o.setSceneStatus(ctx, lg, scene, movie.SceneStatusFailed, err.Error())
		} else {
			completed++
			endFrames[scene.Number] = video.EndFrameURL
			o.setSceneStatus(ctx, lg, scene, movie.SceneStatusCompleted, "")
		}

		done := completed
		tracker.update(ctx, &movie.MovieUpdate{
			Stage:     movie.StageSceneGeneration,
			Progress:  bandProgress(progressScriptEnd, progressScenesEnd, i+1, len(sp.Scenes)),
			Completed: &done,
		})
	}
	return videos, nil
}

func (o *Orchestrator) setSceneStatus(ctx context.Context, lg zerolog.Logger, scene *movie.Scene, status movie.SceneStatus, errMsg string) {
	scene.Status = status
	scene.Error = errMsg
	if err := o.scenes.UpdateStatus(ctx, scene.MovieID, scene.Number, status, errMsg); err != nil {
		lg.Error().Err(err).Int("scene_number", scene.Number).Msg("更新场景状态失败")
	}
}

// finalStatus 完成场景占比达到阈值且渲染成功才是 completed
func (o *Orchestrator) finalStatus(result *RunResult, assembly *AssemblyResult) movie.MovieStatus {
	if assembly.Status != movie.AssemblyStatusCompleted {
		return movie.MovieStatusCompletedPartial
	}
	if result.SceneCount == 0 {
		return movie.MovieStatusCompletedPartial
	}
	ratio := float64(result.CompletedScenes) / float64(result.SceneCount)
	if ratio < o.minSuccessRatio {
		return movie.MovieStatusCompletedPartial
	}
	return movie.MovieStatusCompleted
}

func (o *Orchestrator) fail(
	ctx context.Context,
	tracker *progressTracker,
	result *RunResult,
	stage movie.Stage,
	err error,
) (*RunResult, error) {
	result.Status = movie.MovieStatusFailed
	result.Error = err.Error()
	tracker.logger.Error().Err(err).Str("stage", string(stage)).Msg("电影生成失败")

	// 原 ctx 可能已取消，失败状态仍要写入
	tracker.update(context.WithoutCancel(ctx), &movie.MovieUpdate{
		Status:       movie.MovieStatusFailed,
		Stage:        movie.StageFailed,
		ErrorMessage: err.Error(),
		Metadata:     map[string]any{"failed_stage": string(stage)},
		Done:         true,
	})
	return result, err
}

func bandProgress(start, end, done, total int) int {
	if total <= 0 {
		return end
	}
	return start + (end-start)*done/total
}

func countCompleted(videos []*movie.SceneVideo) int {
	n := 0
	for _, v := range videos {
		if v.Status == movie.SceneStatusCompleted {
			n++
		}
	}
	return n
}
