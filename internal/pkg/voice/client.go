package voice

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
	"baytt/internal/pkg/id"
)

// Client 语音合成客户端
// 请求: POST {base}/v1/text-to-speech/{voice_id}
// 请求体: {text, model_id, voice_settings: {stability, similarity_boost, style}}
// 响应: 二进制音频（audio/mpeg）
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewClient 创建语音合成客户端
func NewClient(cfg *config.VoiceProviderConfig) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("voice provider api_key is required")
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = "https://api.elevenlabs.io"
	}
	modelID := cfg.Model
	if modelID == "" {
		modelID = "eleven_multilingual_v2"
	}

	return &Client{
		baseURL: baseURL,
		apiKey:  cfg.APIKey,
		model:   modelID,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}, nil
}

// Request 合成参数
type Request struct {
	Text       string
	VoiceID    string
	Stability  float64 // 0-1，越低越富有表现力
	Similarity float64 // 0-1
	Style      float64 // 0-1，风格夸张程度
}

// Result 合成结果
type Result struct {
	AudioData   []byte
	ContentType string
	RequestID   string
}

// Synthesize 合成一句台词
// 429/402 或响应中提示额度不足时返回 QuotaError，其余非 2xx 返回 ProviderError
func (c *Client) Synthesize(ctx context.Context, req Request) (*Result, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, fmt.Errorf("text is required")
	}
	if req.VoiceID == "" {
		return nil, fmt.Errorf("voice_id is required")
	}

	requestID := id.New()
	body := map[string]any{
		"text":     req.Text,
		"model_id": c.model,
		"voice_settings": map[string]any{
			"stability":        clamp01(req.Stability),
			"similarity_boost": clamp01(req.Similarity),
			"style":            clamp01(req.Style),
		},
	}
	reqBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	apiURL := fmt.Sprintf("%s/v1/text-to-speech/%s", c.baseURL, req.VoiceID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("xi-api-key", c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "audio/mpeg")

	log.Debug().
		Str("request_id", requestID).
		Str("voice_id", req.VoiceID).
		Int("text_len", len([]rune(req.Text))).
		Msg("sending voice request")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail := parseErrorDetail(respBody)
		if isQuotaResponse(resp.StatusCode, detail) {
			return nil, apperrors.NewQuotaError(
				fmt.Sprintf("voice quota exceeded (status %d)", resp.StatusCode),
				fmt.Errorf("%s", detail),
			)
		}
		return nil, apperrors.NewProviderError(
			fmt.Sprintf("voice synthesis failed: status %d", resp.StatusCode),
			fmt.Errorf("%s", detail),
		)
	}

	if len(respBody) == 0 {
		return nil, apperrors.NewProviderError("voice synthesis returned empty audio", nil)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" || strings.HasPrefix(contentType, "application/json") {
		contentType = "audio/mpeg"
	}

	return &Result{
		AudioData:   respBody,
		ContentType: contentType,
		RequestID:   requestID,
	}, nil
}

// parseErrorDetail 提取错误信息，兼容 {"detail": {"status","message"}} 与 {"detail": "..."} 两种格式
func parseErrorDetail(body []byte) string {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || len(payload.Detail) == 0 {
		return strings.TrimSpace(string(body))
	}

	var detail struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(payload.Detail, &detail); err == nil && (detail.Status != "" || detail.Message != "") {
		return strings.TrimSpace(detail.Status + " " + detail.Message)
	}

	var text string
	if err := json.Unmarshal(payload.Detail, &text); err == nil {
		return text
	}
	return strings.TrimSpace(string(body))
}

func isQuotaResponse(status int, detail string) bool {
	if status == http.StatusTooManyRequests || status == http.StatusPaymentRequired {
		return true
	}
	lower := strings.ToLower(detail)
	return strings.Contains(lower, "quota") || strings.Contains(lower, "insufficient credits")
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
