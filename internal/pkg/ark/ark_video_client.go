package ark

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"baytt/internal/config"
	apperrors "baytt/internal/errors"
	"baytt/internal/pkg/poll"
)

// VideoClient Ark 图生视频客户端（Seedance 异步任务）
// 创建任务: POST {base}/contents/generations/tasks
// 查询任务: GET  {base}/contents/generations/tasks/{task_id}
// 参考官方文档: https://www.volcengine.com/docs/82379/1520757
type VideoClient struct {
	rawBaseURL string
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewVideoClient 创建 Ark 视频生成客户端
func NewVideoClient(cfg *config.VideoProviderConfig) (*VideoClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("video provider api_key is required")
	}
	if _, err := CanonicalizeBaseURL(cfg.BaseURL); err != nil {
		return nil, err
	}

	modelName := cfg.Model
	if modelName == "" {
		modelName = "doubao-seedance-1-0-lite-i2v-250428"
	}

	return &VideoClient{
		rawBaseURL: cfg.BaseURL,
		apiKey:     cfg.APIKey,
		model:      modelName,
		// 提交任务时服务端要处理 base64 图片，耗时较长
		httpClient: &http.Client{Timeout: 10 * time.Minute},
	}, nil
}

// VideoTaskRequest 图生视频任务参数
type VideoTaskRequest struct {
	Prompt          string // 视觉提示词
	ReferenceImage  string // 首帧图片 URL 或 data URL（可选）
	Duration        int    // 时长（秒）
	AspectRatio     string // 例如 16:9
	ReturnLastFrame bool   // 要求服务端返回尾帧
}

// VideoTask 任务查询结果
type VideoTask struct {
	ID           string
	RawStatus    string
	State        poll.State
	VideoURL     string
	LastFrameURL string
	Duration     float64 // 秒，服务端未返回时为 0
	ErrorMessage string
}

// MaxVideoDuration 单个任务允许的最长时长（秒）
const MaxVideoDuration = 12

// Submit 提交图生视频任务，返回 task_id
func (c *VideoClient) Submit(ctx context.Context, req VideoTaskRequest) (string, error) {
	baseURL, err := CanonicalizeBaseURL(c.rawBaseURL)
	if err != nil {
		return "", apperrors.NewProviderError("video endpoint misconfigured", err)
	}

	duration := req.Duration
	if duration > MaxVideoDuration {
		log.Warn().Int("original", duration).Int("limited", MaxVideoDuration).Msg("视频时长超过限制，已调整")
		duration = MaxVideoDuration
	}
	ratio := req.AspectRatio
	if ratio == "" {
		ratio = "16:9"
	}

	content := []map[string]any{
		{"type": "text", "text": req.Prompt},
	}
	if req.ReferenceImage != "" {
		content = append(content, map[string]any{
			"type":      "image_url",
			"image_url": map[string]any{"url": req.ReferenceImage},
		})
	}

	body := map[string]any{
		"model":             c.model,
		"content":           content,
		"ratio":             ratio,
		"duration":          duration,
		"watermark":         false,
		"return_last_frame": req.ReturnLastFrame,
	}
	jsonData, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal request body: %w", err)
	}

	apiURL := baseURL + "/contents/generations/tasks"
	log.Debug().
		Str("api_url", apiURL).
		Str("model", c.model).
		Int("duration", duration).
		Str("ratio", ratio).
		Bool("has_reference", req.ReferenceImage != "").
		Msg("创建视频生成任务")

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		log.Error().
			Int("status_code", resp.StatusCode).
			Str("url", apiURL).
			Str("response_body", string(respBody)).
			Msg("创建视频任务失败")
		return "", apperrors.NewProviderError(
			fmt.Sprintf("create video task: status %d", resp.StatusCode),
			fmt.Errorf("%s", strings.TrimSpace(string(respBody))),
		)
	}

	var apiResp struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if apiResp.ID == "" {
		return "", apperrors.NewProviderError("task ID is empty in response", nil)
	}

	return apiResp.ID, nil
}

// GetTask 查询任务状态
func (c *VideoClient) GetTask(ctx context.Context, taskID string) (*VideoTask, error) {
	baseURL, err := CanonicalizeBaseURL(c.rawBaseURL)
	if err != nil {
		return nil, apperrors.NewProviderError("video endpoint misconfigured", err)
	}
	apiURL := fmt.Sprintf("%s/contents/generations/tasks/%s", baseURL, taskID)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	queryCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	resp, err := c.httpClient.Do(httpReq.WithContext(queryCtx))
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		log.Error().
			Int("status_code", resp.StatusCode).
			Str("task_id", taskID).
			Str("response_body", string(respBody)).
			Msg("查询任务状态失败")
		return nil, apperrors.NewProviderError(
			fmt.Sprintf("get video task: status %d", resp.StatusCode),
			fmt.Errorf("%s", strings.TrimSpace(string(respBody))),
		)
	}

	var apiResp struct {
		ID       string  `json:"id"`
		Status   string  `json:"status"`
		Duration float64 `json:"duration"`
		Content  struct {
			VideoURL     string `json:"video_url"`
			LastFrameURL string `json:"last_frame_url"`
		} `json:"content"`
		Error *struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	task := &VideoTask{
		ID:           taskID,
		RawStatus:    apiResp.Status,
		State:        MapTaskStatus(apiResp.Status),
		VideoURL:     apiResp.Content.VideoURL,
		LastFrameURL: apiResp.Content.LastFrameURL,
		Duration:     apiResp.Duration,
	}
	if apiResp.Error != nil {
		task.ErrorMessage = apiResp.Error.Message
	}
	return task, nil
}

// Wait 按固定间隔轮询直到任务结束
// succeeded 但没有 video_url 视为数据完整性错误，不会当作成功返回
func (c *VideoClient) Wait(ctx context.Context, taskID string, interval time.Duration, maxAttempts int) (*VideoTask, error) {
	task, err := poll.Until(ctx, poll.Options{
		Interval:    interval,
		MaxAttempts: maxAttempts,
		Name:        "video task " + taskID,
	}, func(ctx context.Context, attempt int) (*VideoTask, poll.State, error) {
		task, err := c.GetTask(ctx, taskID)
		if err != nil {
			return nil, poll.StatePending, err
		}
		log.Debug().
			Str("task_id", taskID).
			Str("status", task.RawStatus).
			Int("attempt", attempt).
			Msg("视频生成任务状态")
		if task.State == poll.StateSucceeded && task.VideoURL == "" {
			return task, poll.StatePending, apperrors.NewProviderError(
				fmt.Sprintf("video task %s succeeded without video_url", taskID), nil)
		}
		return task, task.State, nil
	})
	if err != nil {
		if task != nil && task.ErrorMessage != "" {
			return task, fmt.Errorf("%w: %s", err, task.ErrorMessage)
		}
		return task, err
	}
	return task, nil
}

// MapTaskStatus 把服务端状态映射为 pending/succeeded/failed
func MapTaskStatus(status string) poll.State {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "succeeded", "success", "completed":
		return poll.StateSucceeded
	case "failed", "cancelled", "canceled", "expired", "error":
		return poll.StateFailed
	default:
		// queued, running, pending 以及未知状态
		return poll.StatePending
	}
}

// ImageToDataURL 将图片数据转换为 data URL
func ImageToDataURL(imageData []byte, mimeType string) string {
	return fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(imageData))
}
