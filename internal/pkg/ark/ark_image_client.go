package ark

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/volcengine/volcengine-go-sdk/service/arkruntime"
	"github.com/volcengine/volcengine-go-sdk/service/arkruntime/model"

	"baytt/internal/config"
)

// ImageClient Ark 图片生成客户端（Seedream）
type ImageClient struct {
	client *arkruntime.Client
	model  string
	size   string
}

// NewImageClient 创建 Ark 图片生成客户端
func NewImageClient(cfg *config.ImageProviderConfig) (*ImageClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("image provider api_key is required")
	}

	baseURL, err := CanonicalizeBaseURL(cfg.BaseURL)
	if err != nil {
		return nil, err
	}

	modelName := cfg.Model
	if modelName == "" {
		modelName = "doubao-seedream-3-0-t2i-250415"
	}
	size := cfg.Size
	if size == "" {
		size = "1280x720"
	}

	return &ImageClient{
		client: arkruntime.NewClientWithApiKey(cfg.APIKey, arkruntime.WithBaseUrl(baseURL)),
		model:  modelName,
		size:   size,
	}, nil
}

// GenerateImages 生成 count 张图片，返回解码后的图片数据
// size 为空时使用配置的默认尺寸
func (c *ImageClient) GenerateImages(ctx context.Context, prompt, size string, count int) ([][]byte, error) {
	if size == "" {
		size = c.size
	}
	if count <= 0 {
		count = 1
	}

	images := make([][]byte, 0, count)
	for i := 0; i < count; i++ {
		data, err := c.generateOne(ctx, prompt, size)
		if err != nil {
			return nil, err
		}
		images = append(images, data)
	}
	return images, nil
}

func (c *ImageClient) generateOne(ctx context.Context, prompt, size string) ([]byte, error) {
	responseFormat := "b64_json"
	watermark := false

	input := model.GenerateImagesRequest{
		Model:          c.model,
		Prompt:         prompt,
		Size:           &size,
		ResponseFormat: &responseFormat,
		Watermark:      &watermark,
	}

	output, err := c.client.GenerateImages(ctx, input)
	if err != nil {
		log.Error().Err(err).Str("model", c.model).Msg("failed to call Ark GenerateImages API")
		return nil, fmt.Errorf("Ark GenerateImages API call failed: %w", err)
	}

	if len(output.Data) == 0 {
		return nil, fmt.Errorf("no image data in response")
	}
	first := output.Data[0]
	if first.B64Json == nil {
		return nil, fmt.Errorf("no b64_json in response data")
	}

	imageData, err := base64.StdEncoding.DecodeString(*first.B64Json)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64 image data: %w", err)
	}
	return imageData, nil
}
