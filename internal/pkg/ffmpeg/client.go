package ffmpeg

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Client FFmpeg 客户端
// 用于封装 FFmpeg 命令调用
type Client struct {
	ffmpegPath  string // FFmpeg 可执行文件路径（默认: ffmpeg）
	ffprobePath string // FFprobe 可执行文件路径（默认: ffprobe）
}

// NewClient 创建 FFmpeg 客户端
func NewClient() *Client {
	ffmpegPath := os.Getenv("FFMPEG_PATH")
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}

	ffprobePath := os.Getenv("FFPROBE_PATH")
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}

	return &Client{
		ffmpegPath:  ffmpegPath,
		ffprobePath: ffprobePath,
	}
}

// VideoInfo 视频信息
type VideoInfo struct {
	Width    int
	Height   int
	FPS      float64
	Duration float64 // 秒
	HasAudio bool
}

type probeOutput struct {
	Streams []struct {
		CodecType  string `json:"codec_type"`
		Width      int    `json:"width"`
		Height     int    `json:"height"`
		RFrameRate string `json:"r_frame_rate"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// GetVideoInfo 获取视频信息
// ffprobe -v error -show_entries stream=codec_type,width,height,r_frame_rate -show_entries format=duration -of json input
func (c *Client) GetVideoInfo(ctx context.Context, input string) (*VideoInfo, error) {
	cmd := exec.CommandContext(ctx, c.ffprobePath,
		"-v", "error",
		"-show_entries", "stream=codec_type,width,height,r_frame_rate",
		"-show_entries", "format=duration",
		"-of", "json",
		input,
	)

	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffprobe failed: %w", err)
	}
	return ParseProbeOutput(output)
}

// ParseProbeOutput 解析 ffprobe 的 JSON 输出
func ParseProbeOutput(output []byte) (*VideoInfo, error) {
	var probe probeOutput
	if err := json.Unmarshal(output, &probe); err != nil {
		return nil, fmt.Errorf("parse ffprobe output: %w", err)
	}

	info := &VideoInfo{}
	for _, s := range probe.Streams {
		switch s.CodecType {
		case "video":
			if info.Width == 0 {
				info.Width = s.Width
				info.Height = s.Height
				info.FPS = parseFrameRate(s.RFrameRate)
			}
		case "audio":
			info.HasAudio = true
		}
	}
	if probe.Format.Duration != "" {
		d, err := strconv.ParseFloat(probe.Format.Duration, 64)
		if err == nil {
			info.Duration = d
		}
	}
	return info, nil
}

// parseFrameRate 解析 "30000/1001" 格式的帧率
func parseFrameRate(rate string) float64 {
	num, den, ok := strings.Cut(rate, "/")
	if !ok {
		f, _ := strconv.ParseFloat(rate, 64)
		return f
	}
	n, err1 := strconv.ParseFloat(num, 64)
	d, err2 := strconv.ParseFloat(den, 64)
	if err1 != nil || err2 != nil || d == 0 {
		return 0
	}
	return n / d
}

// ExtractLastFrame 提取视频的最后一帧为图片
// input 可以是本地路径或 http(s) 地址
// ffmpeg -y -sseof -0.5 -i input -update 1 -q:v 2 output.jpg
func (c *Client) ExtractLastFrame(ctx context.Context, input, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	args := []string{
		"-y",
		"-sseof", "-0.5",
		"-i", input,
		"-update", "1",
		"-q:v", "2",
		outputPath,
	}
	if err := c.run(ctx, args); err != nil {
		return fmt.Errorf("extract last frame: %w", err)
	}

	info, err := os.Stat(outputPath)
	if err != nil {
		return fmt.Errorf("extract last frame: %w", err)
	}
	if info.Size() == 0 {
		return fmt.Errorf("extract last frame: empty output")
	}
	return nil
}

// ConcatVideos 硬切拼接（concat demuxer，不重新编码）
func (c *Client) ConcatVideos(ctx context.Context, videoPaths []string, outputPath string) error {
	if len(videoPaths) == 0 {
		return fmt.Errorf("no videos to concat")
	}

	tempDir := filepath.Dir(outputPath)
	concatListFile := filepath.Join(tempDir, fmt.Sprintf("concat_list_%d.txt", time.Now().UnixNano()))

	file, err := os.Create(concatListFile)
	if err != nil {
		return fmt.Errorf("create concat list file: %w", err)
	}
	defer os.Remove(concatListFile)

	for _, videoPath := range videoPaths {
		absPath, err := filepath.Abs(videoPath)
		if err != nil {
			file.Close()
			return fmt.Errorf("get absolute path: %w", err)
		}
		fmt.Fprintf(file, "file '%s'\n", absPath)
	}
	file.Close()

	args := []string{
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", concatListFile,
		"-c", "copy",
		outputPath,
	}
	if err := c.run(ctx, args); err != nil {
		return fmt.Errorf("ffmpeg concat failed: %w", err)
	}

	log.Info().
		Int("count", len(videoPaths)).
		Str("output", outputPath).
		Msg("视频合并成功")
	return nil
}

// Clip 参与转场拼接的片段
type Clip struct {
	Path     string
	Duration float64 // 实际时长（秒）
}

// Transition 片段 i 与 i+1 之间的转场
type Transition struct {
	Type     string  // cut, fade, dissolve, wipe
	Duration float64 // 秒
}

// 硬切在 xfade 中用一帧的淡入淡出表示
const cutDuration = 0.04

// XFadeOffsets 根据每个片段的实际时长计算 xfade 的 offset
// 第 k 次转场发生在已拼接部分结束前 transition[k].Duration 秒：
// L0 = d0; offset_k = L_k - t_k; L_{k+1} = L_k + d_{k+1} - t_k
func XFadeOffsets(durations []float64, transitions []float64) []float64 {
	if len(durations) < 2 {
		return nil
	}
	offsets := make([]float64, 0, len(durations)-1)
	length := durations[0]
	for k := 0; k < len(durations)-1; k++ {
		t := 0.0
		if k < len(transitions) {
			t = transitions[k]
		}
		// 转场不能长于相邻任一片段
		if t > length {
			t = length
		}
		if t > durations[k+1] {
			t = durations[k+1]
		}
		offset := length - t
		if offset < 0 {
			offset = 0
		}
		offsets = append(offsets, offset)
		length = length + durations[k+1] - t
	}
	return offsets
}

func xfadeName(transitionType string) string {
	switch transitionType {
	case "dissolve":
		return "dissolve"
	case "wipe":
		return "wipeleft"
	default:
		return "fade"
	}
}

// ConcatWithTransitions 带转场拼接（xfade），只保留视频流
func (c *Client) ConcatWithTransitions(ctx context.Context, clips []Clip, transitions []Transition, outputPath string) error {
	if len(clips) == 0 {
		return fmt.Errorf("no clips to concat")
	}
	if len(clips) == 1 {
		return c.run(ctx, []string{"-y", "-i", clips[0].Path, "-an", "-c:v", "libx264", "-pix_fmt", "yuv420p", outputPath})
	}

	durations := make([]float64, len(clips))
	for i, clip := range clips {
		durations[i] = clip.Duration
	}
	blend := make([]float64, len(clips)-1)
	names := make([]string, len(clips)-1)
	for k := range blend {
		t := Transition{Type: "cut"}
		if k < len(transitions) {
			t = transitions[k]
		}
		blend[k] = t.Duration
		if t.Type == "cut" || blend[k] <= 0 {
			blend[k] = cutDuration
		}
		names[k] = xfadeName(t.Type)
	}
	offsets := XFadeOffsets(durations, blend)

	args := []string{"-y"}
	for _, clip := range clips {
		args = append(args, "-i", clip.Path)
	}

	var filter strings.Builder
	prev := "[0:v]"
	for k := range offsets {
		out := fmt.Sprintf("[v%d]", k+1)
		fmt.Fprintf(&filter, "%s[%d:v]xfade=transition=%s:duration=%.3f:offset=%.3f%s;",
			prev, k+1, names[k], blend[k], offsets[k], out)
		prev = out
	}
	filterStr := strings.TrimSuffix(filter.String(), ";")

	args = append(args,
		"-filter_complex", filterStr,
		"-map", prev,
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
		outputPath,
	)
	if err := c.run(ctx, args); err != nil {
		return fmt.Errorf("ffmpeg xfade failed: %w", err)
	}

	log.Info().
		Int("clips", len(clips)).
		Str("output", outputPath).
		Msg("转场拼接完成")
	return nil
}

// AudioOverlay 需要混入的音轨
type AudioOverlay struct {
	Path  string
	Start float64 // 相对视频起点（秒）
}

// MixAudio 把台词与背景音乐混入视频（视频流直接复制）
func (c *Client) MixAudio(ctx context.Context, videoPath string, overlays []AudioOverlay, musicPath string, outputPath string) error {
	if len(overlays) == 0 && musicPath == "" {
		return fmt.Errorf("no audio to mix")
	}

	args := []string{"-y", "-i", videoPath}
	var filter strings.Builder
	var labels []string

	for i, o := range overlays {
		args = append(args, "-i", o.Path)
		delay := int(o.Start * 1000)
		label := fmt.Sprintf("[a%d]", i)
		fmt.Fprintf(&filter, "[%d:a]adelay=%d|%d%s;", i+1, delay, delay, label)
		labels = append(labels, label)
	}
	if musicPath != "" {
		idx := len(overlays) + 1
		args = append(args, "-i", musicPath)
		fmt.Fprintf(&filter, "[%d:a]volume=0.25[music];", idx)
		labels = append(labels, "[music]")
	}
	fmt.Fprintf(&filter, "%samix=inputs=%d:duration=longest:normalize=0[aout]", strings.Join(labels, ""), len(labels))

	args = append(args,
		"-filter_complex", filter.String(),
		"-map", "0:v",
		"-map", "[aout]",
		"-c:v", "copy",
		"-c:a", "aac",
		"-shortest",
		outputPath,
	)
	if err := c.run(ctx, args); err != nil {
		return fmt.Errorf("ffmpeg mix audio failed: %w", err)
	}
	return nil
}

func (c *Client) run(ctx context.Context, args []string) error {
	cmd := exec.CommandContext(ctx, c.ffmpegPath, args...)
	var stderr strings.Builder
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		tail := stderr.String()
		if len(tail) > 500 {
			tail = tail[len(tail)-500:]
		}
		log.Debug().Strs("args", args).Str("stderr", tail).Msg("ffmpeg failed")
		return fmt.Errorf("%w: %s", err, strings.TrimSpace(tail))
	}
	return nil
}
