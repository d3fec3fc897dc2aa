package lipsync

import (
	"bytes"
	"context"
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

// Client 口型同步客户端（异步任务）
// 提交: POST {base}/v1/lipsync {video_url, audio_url} -> {task_id}
// 查询: GET  {base}/v1/lipsync/{task_id} -> {status, output_url}
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient 创建口型同步客户端
func NewClient(cfg *config.LipSyncProviderConfig) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("lipsync base_url is required")
	}
	return &Client{
		baseURL:    baseURL,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}, nil
}

// Task 任务状态
type Task struct {
	ID        string
	RawStatus string
	State     poll.State
	OutputURL string
}

// Submit 提交口型同步任务
func (c *Client) Submit(ctx context.Context, videoURL, audioURL string) (string, error) {
	payload, err := json.Marshal(map[string]string{
		"video_url": videoURL,
		"audio_url": audioURL,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	var out struct {
		TaskID string `json:"task_id"`
		ID     string `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, c.baseURL+"/v1/lipsync", payload, &out); err != nil {
		return "", err
	}

	taskID := out.TaskID
	if taskID == "" {
		taskID = out.ID
	}
	if taskID == "" {
		return "", apperrors.NewProviderError("lipsync task id is empty", nil)
	}
	return taskID, nil
}

// GetTask 查询任务
func (c *Client) GetTask(ctx context.Context, taskID string) (*Task, error) {
	var out struct {
		Status    string `json:"status"`
		OutputURL string `json:"output_url"`
	}
	if err := c.do(ctx, http.MethodGet, c.baseURL+"/v1/lipsync/"+taskID, nil, &out); err != nil {
		return nil, err
	}
	return &Task{
		ID:        taskID,
		RawStatus: out.Status,
		State:     mapStatus(out.Status),
		OutputURL: out.OutputURL,
	}, nil
}

// Wait 轮询直到任务结束，成功但没有输出地址视为错误
func (c *Client) Wait(ctx context.Context, taskID string, interval time.Duration, maxAttempts int) (*Task, error) {
	return poll.Until(ctx, poll.Options{
		Interval:    interval,
		MaxAttempts: maxAttempts,
		Name:        "lipsync task " + taskID,
	}, func(ctx context.Context, attempt int) (*Task, poll.State, error) {
		task, err := c.GetTask(ctx, taskID)
		if err != nil {
			return nil, poll.StatePending, err
		}
		if task.State == poll.StateSucceeded && task.OutputURL == "" {
			return task, poll.StatePending, apperrors.NewProviderError(
				fmt.Sprintf("lipsync task %s succeeded without output_url", taskID), nil)
		}
		return task, task.State, nil
	})
}

func (c *Client) do(ctx context.Context, method, url string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Error().
			Int("status_code", resp.StatusCode).
			Str("url", url).
			Str("response_body", string(respBody)).
			Msg("lipsync 请求失败")
		msg := fmt.Sprintf("lipsync request failed: status %d", resp.StatusCode)
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusPaymentRequired {
			return apperrors.NewQuotaError(msg, fmt.Errorf("%s", respBody))
		}
		return apperrors.NewProviderError(msg, fmt.Errorf("%s", respBody))
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func mapStatus(status string) poll.State {
	switch strings.ToLower(status) {
	case "succeeded", "success", "completed", "done":
		return poll.StateSucceeded
	case "failed", "error", "cancelled", "canceled":
		return poll.StateFailed
	default:
		return poll.StatePending
	}
}
