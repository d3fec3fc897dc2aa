package render

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"baytt/internal/config"
	apperrors "baytt/internal/errors"
)

// DefaultTimeout 渲染服务默认超时
const DefaultTimeout = 5 * time.Minute

// Client 外部渲染服务客户端
// POST {base}/render -> {video_url, duration_seconds, size_bytes}
type Client struct {
	baseURL    string
	apiKey     string
	timeout    time.Duration
	httpClient *http.Client
}

// NewClient 创建渲染服务客户端
func NewClient(cfg *config.RenderProviderConfig) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("render base_url is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL:    baseURL,
		apiKey:     cfg.APIKey,
		timeout:    timeout,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// Scene 有序场景
type Scene struct {
	SceneNumber int     `json:"scene_number"`
	VideoURL    string  `json:"video_url"`
	Duration    float64 `json:"duration,omitempty"`
}

// Transition 相邻场景之间的转场
type Transition struct {
	FromScene int     `json:"from_scene"`
	ToScene   int     `json:"to_scene"`
	Type      string  `json:"type"`
	Duration  float64 `json:"duration"`
	Offset    float64 `json:"offset"`
}

// AudioTrack 需要混入的台词音轨
type AudioTrack struct {
	SceneNumber int     `json:"scene_number"`
	URL         string  `json:"url"`
	Start       float64 `json:"start"` // 相对成片起点（秒）
}

// Request 渲染请求
type Request struct {
	MovieID     string       `json:"movie_id"`
	Scenes      []Scene      `json:"scenes"`
	Transitions []Transition `json:"transitions,omitempty"`
	AudioTracks []AudioTrack `json:"audio_tracks,omitempty"`
	MusicURL    string       `json:"music_url,omitempty"`
}

// Response 渲染结果
type Response struct {
	VideoURL        string  `json:"video_url"`
	DurationSeconds float64 `json:"duration_seconds"`
	SizeBytes       int64   `json:"size_bytes"`
}

// Render 提交渲染并同步等待结果，超过超时时间返回 TimeoutError
func (c *Client) Render(ctx context.Context, req *Request) (*Response, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal render request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/render", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	log.Info().
		Str("movie_id", req.MovieID).
		Int("scenes", len(req.Scenes)).
		Int("audio_tracks", len(req.AudioTracks)).
		Dur("timeout", c.timeout).
		Msg("submitting render")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) || isTimeout(err) {
			return nil, apperrors.NewTimeoutError(fmt.Sprintf("render exceeded %s", c.timeout), err)
		}
		return nil, fmt.Errorf("send render request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read render response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apperrors.NewProviderError(
			fmt.Sprintf("render failed: status %d", resp.StatusCode),
			fmt.Errorf("%s", strings.TrimSpace(string(body))),
		)
	}

	var out Response
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode render response: %w", err)
	}
	if out.VideoURL == "" {
		return nil, apperrors.NewProviderError("render returned empty video_url", nil)
	}
	return &out, nil
}

func isTimeout(err error) bool {
	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr) && netErr.Timeout()
}
