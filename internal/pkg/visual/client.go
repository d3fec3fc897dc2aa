package visual

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/volcengine/volcengine-go-sdk/volcengine"
	"github.com/volcengine/volcengine-go-sdk/volcengine/credentials"
	"github.com/volcengine/volcengine-go-sdk/volcengine/session"

	"baytt/internal/config"
	apperrors "baytt/internal/errors"
)

const (
	defaultAPIURL = "https://visual.volcengineapi.com"
	defaultRegion = "cn-north-1"
	defaultReqKey = "high_aes_general_v21_L"
	serviceName   = "cv"

	// 场景参考图不需要文字和水印
	negativePrompt = "watermark, text, subtitle, logo, signature, letters, dialog box, lowres, blurry, worst quality, bad anatomy, deformed hands"
)

// Client 火山引擎视觉服务（CVProcess 文生图）客户端
// AK/SK 由 volcengine-go-sdk 的 credentials 管理，请求按 HMAC-SHA256 签名
type Client struct {
	apiURL     string
	region     string
	reqKey     string
	creds      *credentials.Credentials
	httpClient *http.Client
	now        func() time.Time
}

// NewClient 创建视觉服务客户端
func NewClient(cfg *config.ImageProviderConfig) (*Client, error) {
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("visual access_key and secret_key are required")
	}

	region := cfg.Region
	if region == "" {
		region = defaultRegion
	}
	sess, err := session.NewSession(volcengine.NewConfig().
		WithCredentials(credentials.NewStaticCredentials(cfg.AccessKey, cfg.SecretKey, "")).
		WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("create volcengine session: %w", err)
	}

	apiURL := strings.TrimRight(cfg.BaseURL, "/")
	if apiURL == "" {
		apiURL = defaultAPIURL
	}
	reqKey := cfg.ReqKey
	if reqKey == "" {
		reqKey = defaultReqKey
	}

	return &Client{
		apiURL:     apiURL,
		region:     region,
		reqKey:     reqKey,
		creds:      sess.Config.Credentials,
		httpClient: &http.Client{Timeout: 300 * time.Second},
		now:        time.Now,
	}, nil
}

type cvResponse struct {
	Code             int    `json:"code"`
	Message          string `json:"message"`
	ResponseMetadata *struct {
		Error *struct {
			Code    string `json:"Code"`
			Message string `json:"Message"`
		} `json:"Error,omitempty"`
	} `json:"ResponseMetadata,omitempty"`
	Data *struct {
		BinaryDataBase64 []string `json:"binary_data_base64,omitempty"`
	} `json:"data,omitempty"`
}

// GenerateImage 同步生成一张图片，返回二进制数据
// size 形如 "1280x720"，解析失败时使用 1280x720
func (c *Client) GenerateImage(ctx context.Context, prompt, size string) ([]byte, error) {
	width, height := ParseSize(size)
	body, err := json.Marshal(map[string]any{
		"req_key":         c.reqKey,
		"prompt":          prompt,
		"seed":            -1,
		"scale":           3.5,
		"ddim_steps":      25,
		"width":           width,
		"height":          height,
		"use_sr":          true,
		"return_url":      false,
		"negative_prompt": negativePrompt,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request body: %w", err)
	}

	apiURL := c.apiURL + "/?Action=CVProcess&Version=2022-08-31"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if err := c.sign(req, body); err != nil {
		return nil, fmt.Errorf("sign request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var out cvResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, apperrors.NewProviderError(
			fmt.Sprintf("visual: undecodable response (status %d)", resp.StatusCode), err)
	}
	if out.ResponseMetadata != nil && out.ResponseMetadata.Error != nil {
		e := out.ResponseMetadata.Error
		msg := fmt.Sprintf("visual API error: %s - %s", e.Code, e.Message)
		if resp.StatusCode == http.StatusTooManyRequests || strings.Contains(e.Code, "RateLimit") {
			return nil, apperrors.NewQuotaError(msg, nil)
		}
		return nil, apperrors.NewProviderError(msg, nil)
	}
	if resp.StatusCode != http.StatusOK || (out.Code != 0 && out.Code != 10000) {
		return nil, apperrors.NewProviderError(
			fmt.Sprintf("visual request failed: status %d code %d %s", resp.StatusCode, out.Code, out.Message), nil)
	}
	if out.Data == nil || len(out.Data.BinaryDataBase64) == 0 {
		return nil, apperrors.NewProviderError("visual: no image in response", nil)
	}

	data, err := base64.StdEncoding.DecodeString(out.Data.BinaryDataBase64[0])
	if err != nil {
		return nil, fmt.Errorf("decode image data: %w", err)
	}
	return data, nil
}

// ParseSize 解析 "WxH"
func ParseSize(size string) (int, int) {
	w, h, ok := strings.Cut(strings.ToLower(size), "x")
	if ok {
		width, err1 := strconv.Atoi(strings.TrimSpace(w))
		height, err2 := strconv.Atoi(strings.TrimSpace(h))
		if err1 == nil && err2 == nil && width > 0 && height > 0 {
			return width, height
		}
	}
	return 1280, 720
}

// sign 火山引擎 V4 签名
// CanonicalRequest = Method \n Path \n Query \n CanonicalHeaders \n SignedHeaders \n sha256(Body)
func (c *Client) sign(req *http.Request, body []byte) error {
	v, err := c.creds.Get()
	if err != nil {
		return fmt.Errorf("load credentials: %w", err)
	}

	xDate := c.now().UTC().Format("20060102T150405Z")
	shortDate := xDate[:8]
	payloadHash := hashHex(body)

	req.Header.Set("Host", req.URL.Host)
	req.Header.Set("X-Date", xDate)
	req.Header.Set("X-Content-Sha256", payloadHash)

	signed := []string{"content-type", "host", "x-content-sha256", "x-date"}
	var canonicalHeaders strings.Builder
	for _, h := range signed {
		value := req.Header.Get(h)
		if h == "host" {
			value = req.URL.Host
		}
		fmt.Fprintf(&canonicalHeaders, "%s:%s\n", h, strings.TrimSpace(value))
	}
	signedHeaders := strings.Join(signed, ";")

	path := req.URL.Path
	if path == "" {
		path = "/"
	}
	canonicalRequest := strings.Join([]string{
		req.Method,
		path,
		canonicalQuery(req.URL.Query()),
		canonicalHeaders.String(),
		signedHeaders,
		payloadHash,
	}, "\n")

	scope := strings.Join([]string{shortDate, c.region, serviceName, "request"}, "/")
	stringToSign := strings.Join([]string{"HMAC-SHA256", xDate, scope, hashHex([]byte(canonicalRequest))}, "\n")

	kDate := hmacSHA256([]byte(v.SecretAccessKey), shortDate)
	kRegion := hmacSHA256(kDate, c.region)
	kService := hmacSHA256(kRegion, serviceName)
	kSigning := hmacSHA256(kService, "request")
	signature := hex.EncodeToString(hmacSHA256(kSigning, stringToSign))

	req.Header.Set("Authorization", fmt.Sprintf("HMAC-SHA256 Credential=%s/%s, SignedHeaders=%s, Signature=%s",
		v.AccessKeyID, scope, signedHeaders, signature))
	return nil
}

func canonicalQuery(values url.Values) string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var parts []string
	for _, k := range keys {
		for _, v := range values[k] {
			parts = append(parts, url.QueryEscape(k)+"="+url.QueryEscape(v))
		}
	}
	return strings.Join(parts, "&")
}

func hashHex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func hmacSHA256(key []byte, data string) []byte {
	h := hmac.New(sha256.New, key)
	h.Write([]byte(data))
	return h.Sum(nil)
}
