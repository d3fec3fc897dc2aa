package providers

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	apperrors "baytt/internal/errors"
	"baytt/internal/pkg/artifact"
	"baytt/internal/pkg/ffmpeg"
	"baytt/internal/pkg/id"
	"baytt/internal/pkg/movietools"
	"baytt/internal/pkg/render"
)

// RemoteRenderProvider 外部渲染服务
type RemoteRenderProvider struct {
	client *render.Client
}

// NewRemoteRenderProvider 创建外部渲染提供者
func NewRemoteRenderProvider(client *render.Client) *RemoteRenderProvider {
	return &RemoteRenderProvider{client: client}
}

// Render 实现 movietools.RenderProvider
func (p *RemoteRenderProvider) Render(ctx context.Context, req *movietools.RenderRequest) (*movietools.RenderResult, error) {
	r := &render.Request{
		MovieID:  req.MovieID,
		MusicURL: req.MusicURL,
	}
	for _, s := range req.Scenes {
		r.Scenes = append(r.Scenes, render.Scene{SceneNumber: s.SceneNumber, VideoURL: s.VideoURL, Duration: s.Duration})
	}
	for _, t := range req.Transitions {
		r.Transitions = append(r.Transitions, render.Transition{
			FromScene: t.FromScene,
			ToScene:   t.ToScene,
			Type:      t.Type,
			Duration:  t.Duration,
			Offset:    t.Offset,
		})
	}
	for _, a := range req.AudioTracks {
		r.AudioTracks = append(r.AudioTracks, render.AudioTrack{SceneNumber: a.SceneNumber, URL: a.URL, Start: a.Start})
	}

	resp, err := p.client.Render(ctx, r)
	if err != nil {
		return nil, err
	}
	return &movietools.RenderResult{
		VideoURL:        resp.VideoURL,
		DurationSeconds: resp.DurationSeconds,
		SizeBytes:       resp.SizeBytes,
	}, nil
}

// LocalRenderProvider 本机 ffmpeg 渲染
// 下载场景视频，xfade 拼接，混入台词和音乐，结果写回产物存储
type LocalRenderProvider struct {
	ffmpeg  *ffmpeg.Client
	store   *artifact.Store
	workDir string
	timeout time.Duration
}

// NewLocalRenderProvider 创建本机渲染提供者
func NewLocalRenderProvider(ff *ffmpeg.Client, store *artifact.Store, workDir string, timeout time.Duration) *LocalRenderProvider {
	if workDir == "" {
		workDir = filepath.Join(os.TempDir(), "baytt-render")
	}
	if timeout <= 0 {
		timeout = render.DefaultTimeout
	}
	return &LocalRenderProvider{
		ffmpeg:  ff,
		store:   store,
		workDir: workDir,
		timeout: timeout,
	}
}

// Render 实现 movietools.RenderProvider
func (p *LocalRenderProvider) Render(ctx context.Context, req *movietools.RenderRequest) (*movietools.RenderResult, error) {
	if len(req.Scenes) == 0 {
		return nil, apperrors.NewAssemblyError("no scenes to render", nil)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	dir := filepath.Join(p.workDir, req.MovieID+"-"+id.Short())
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create work dir: %w", err)
	}
	defer os.RemoveAll(dir)

	result, err := p.render(ctx, dir, req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, apperrors.NewTimeoutError("local render timed out", err)
		}
		return nil, err
	}
	return result, nil
}

func (p *LocalRenderProvider) render(ctx context.Context, dir string, req *movietools.RenderRequest) (*movietools.RenderResult, error) {
	clips := make([]ffmpeg.Clip, 0, len(req.Scenes))
	for _, s := range req.Scenes {
		path, err := p.store.Materialize(ctx, s.VideoURL, dir, fmt.Sprintf("scene_%03d.mp4", s.SceneNumber))
		if err != nil {
			return nil, fmt.Errorf("fetch scene %d: %w", s.SceneNumber, err)
		}
		// xfade 的 offset 必须按文件的真实时长计算，记录里的时长只在探测失败时兜底
		duration := s.Duration
		info, err := p.ffmpeg.GetVideoInfo(ctx, path)
		switch {
		case err == nil && info.Duration > 0:
			duration = info.Duration
		case duration > 0:
			log.Warn().Err(err).Int("scene_number", s.SceneNumber).Float64("duration", duration).Msg("场景时长探测失败，使用记录时长")
		default:
			return nil, fmt.Errorf("probe scene %d: %w", s.SceneNumber, err)
		}
		clips = append(clips, ffmpeg.Clip{Path: path, Duration: duration})
	}

	transitions := make([]ffmpeg.Transition, 0, len(req.Transitions))
	for _, t := range req.Transitions {
		transitions = append(transitions, ffmpeg.Transition{Type: t.Type, Duration: t.Duration})
	}

	joined := filepath.Join(dir, "joined.mp4")
	if allCuts(transitions) {
		// 全部硬切时直接 concat，不重新编码，时间轴与 offset 完全一致
		paths := make([]string, len(clips))
		for i, c := range clips {
			paths[i] = c.Path
		}
		if err := p.ffmpeg.ConcatVideos(ctx, paths, joined); err != nil {
			return nil, err
		}
	} else if err := p.ffmpeg.ConcatWithTransitions(ctx, clips, transitions, joined); err != nil {
		return nil, err
	}

	output := joined
	if len(req.AudioTracks) > 0 || req.MusicURL != "" {
		overlays := make([]ffmpeg.AudioOverlay, 0, len(req.AudioTracks))
		for i, a := range req.AudioTracks {
			path, err := p.store.Materialize(ctx, a.URL, dir, fmt.Sprintf("line_%03d_%03d.mp3", a.SceneNumber, i))
			if err != nil {
				// 单条台词取不到不影响成片
				log.Warn().Err(err).Int("scene_number", a.SceneNumber).Msg("台词音频下载失败，跳过")
				continue
			}
			overlays = append(overlays, ffmpeg.AudioOverlay{Path: path, Start: a.Start})
		}
		music := ""
		if req.MusicURL != "" {
			path, err := p.store.Materialize(ctx, req.MusicURL, dir, "music.mp3")
			if err != nil {
				log.Warn().Err(err).Msg("背景音乐下载失败，跳过")
			} else {
				music = path
			}
		}
		if len(overlays) > 0 || music != "" {
			mixed := filepath.Join(dir, "final.mp4")
			if err := p.ffmpeg.MixAudio(ctx, joined, overlays, music, mixed); err != nil {
				return nil, err
			}
			output = mixed
		}
	}

	info, err := p.ffmpeg.GetVideoInfo(ctx, output)
	if err != nil {
		return nil, fmt.Errorf("probe output: %w", err)
	}
	stat, err := os.Stat(output)
	if err != nil {
		return nil, err
	}

	url, err := p.store.PutFile(ctx, req.MovieID, "final", output, "video/mp4")
	if err != nil {
		return nil, err
	}
	return &movietools.RenderResult{
		VideoURL:        url,
		DurationSeconds: info.Duration,
		SizeBytes:       stat.Size(),
	}, nil
}

func allCuts(transitions []ffmpeg.Transition) bool {
	for _, t := range transitions {
		if t.Type != "cut" && t.Type != "" {
			return false
		}
	}
	return true
}

// FFmpegFrameExtractor 用 ffmpeg 从视频中取尾帧
type FFmpegFrameExtractor struct {
	ffmpeg  *ffmpeg.Client
	store   *artifact.Store
	workDir string
}

// NewFFmpegFrameExtractor 创建尾帧提取器
// store 可为空；非空时本存储的地址直接读磁盘文件
func NewFFmpegFrameExtractor(ff *ffmpeg.Client, store *artifact.Store, workDir string) *FFmpegFrameExtractor {
	if workDir == "" {
		workDir = filepath.Join(os.TempDir(), "baytt-frames")
	}
	return &FFmpegFrameExtractor{ffmpeg: ff, store: store, workDir: workDir}
}

// ExtractLastFrame 实现 movietools.FrameExtractor，返回 JPEG 数据
func (e *FFmpegFrameExtractor) ExtractLastFrame(ctx context.Context, videoURL string) ([]byte, error) {
	out := filepath.Join(e.workDir, "frame_"+id.Short()+".jpg")
	defer os.Remove(out)

	if err := e.ffmpeg.ExtractLastFrame(ctx, e.input(videoURL), out); err != nil {
		return nil, err
	}
	return os.ReadFile(out)
}

// ProbeDuration 实现 movietools.FrameExtractor，ffprobe 读取实际时长（秒）
func (e *FFmpegFrameExtractor) ProbeDuration(ctx context.Context, videoURL string) (float64, error) {
	info, err := e.ffmpeg.GetVideoInfo(ctx, e.input(videoURL))
	if err != nil {
		return 0, err
	}
	if info.Duration <= 0 {
		return 0, fmt.Errorf("ffprobe reported no duration for %s", videoURL)
	}
	return info.Duration, nil
}

// input 本存储的地址直接读磁盘文件，其余交给 ffmpeg 按 URL 读取
func (e *FFmpegFrameExtractor) input(videoURL string) string {
	if e.store != nil {
		if p, ok := e.store.LocalPath(videoURL); ok {
			return p
		}
	}
	return videoURL
}
