package movietools

import (
	"context"
)

// TextProvider 文本生成服务
// 返回的 content 期望是 JSON，但不保证
type TextProvider interface {
	Generate(ctx context.Context, req *TextRequest) (string, error)
}

// TextRequest 文本生成请求
type TextRequest struct {
	SystemPrompt string
	UserPrompt   string
	MaxTokens    int
	Temperature  float64
}

// ImageProvider 图片生成服务
type ImageProvider interface {
	// GenerateImages 返回 count 张图片的二进制数据
	GenerateImages(ctx context.Context, prompt, size string, count int) ([]GeneratedImage, error)
}

// GeneratedImage 生成的图片
type GeneratedImage struct {
	Data        []byte
	ContentType string
}

// VideoProvider 图生视频服务（异步任务）
type VideoProvider interface {
	Submit(ctx context.Context, req *VideoRequest) (string, error)
	// Wait 轮询到终态；超过次数上限返回 TimeoutError
	Wait(ctx context.Context, taskID string) (*VideoResult, error)
}

// VideoRequest 图生视频请求
type VideoRequest struct {
	Prompt         string
	ReferenceImage string
	Duration       int
	AspectRatio    string
}

// VideoResult 图生视频结果
type VideoResult struct {
	TaskID       string
	VideoURL     string
	LastFrameURL string  // 服务端直接返回的尾帧，可能为空
	Duration     float64 // 服务端报告的实际时长（秒），未知为 0
}

// VoiceProvider 语音合成服务
type VoiceProvider interface {
	Synthesize(ctx context.Context, req *SpeechRequest) (*SpeechResult, error)
}

// SpeechRequest 语音合成请求
type SpeechRequest struct {
	Text       string
	VoiceID    string
	Stability  float64
	Similarity float64
	Style      float64
}

// SpeechResult 语音合成结果
type SpeechResult struct {
	AudioData   []byte
	ContentType string
}

// LipSyncProvider 口型同步服务（异步任务）
type LipSyncProvider interface {
	Sync(ctx context.Context, videoURL, audioURL string) (string, error)
}

// RenderProvider 成片渲染服务
type RenderProvider interface {
	Render(ctx context.Context, req *RenderRequest) (*RenderResult, error)
}

// RenderRequest 渲染请求
type RenderRequest struct {
	MovieID     string
	Scenes      []RenderScene
	Transitions []RenderTransition // len(Scenes)-1 项
	AudioTracks []RenderAudio
	MusicURL    string
}

// RenderScene 按顺序排列的场景
type RenderScene struct {
	SceneNumber int
	VideoURL    string
	Duration    float64
}

// RenderTransition 相邻场景之间的转场
type RenderTransition struct {
	FromScene int
	ToScene   int
	Type      string
	Duration  float64
	Offset    float64 // 在已拼接时间线上的起点（秒）
}

// RenderAudio 台词音轨
type RenderAudio struct {
	SceneNumber int
	URL         string
	Start       float64 // 相对成片起点（秒）
}

// RenderResult 渲染结果
type RenderResult struct {
	VideoURL        string
	DurationSeconds float64
	SizeBytes       int64
}

// FrameExtractor 读取已生成视频的尾帧和实际时长
type FrameExtractor interface {
	ExtractLastFrame(ctx context.Context, videoURL string) ([]byte, error)
	ProbeDuration(ctx context.Context, videoURL string) (float64, error)
}
