package providers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"

	"baytt/internal/pkg/ark"
	"baytt/internal/pkg/movietools"
	"baytt/internal/pkg/visual"
)

// ArkImageProvider Ark Seedream 图片生成
type ArkImageProvider struct {
	client *ark.ImageClient
}

// NewArkImageProvider 创建 Ark 图片生成提供者
func NewArkImageProvider(client *ark.ImageClient) *ArkImageProvider {
	return &ArkImageProvider{client: client}
}

// GenerateImages 实现 movietools.ImageProvider
func (p *ArkImageProvider) GenerateImages(ctx context.Context, prompt, size string, count int) ([]movietools.GeneratedImage, error) {
	raw, err := p.client.GenerateImages(ctx, prompt, size, count)
	if err != nil {
		return nil, fmt.Errorf("Ark generate image: %w", err)
	}

	images := make([]movietools.GeneratedImage, 0, len(raw))
	for _, data := range raw {
		images = append(images, movietools.GeneratedImage{
			Data:        data,
			ContentType: http.DetectContentType(data),
		})
	}

	log.Info().
		Int("count", len(images)).
		Msg("Ark 图片生成成功")
	return images, nil
}

// VisualImageProvider 火山引擎视觉服务文生图
// 接口每次只返回一张图片，count > 1 时顺序调用
type VisualImageProvider struct {
	client *visual.Client
}

// NewVisualImageProvider 创建视觉服务图片生成提供者
func NewVisualImageProvider(client *visual.Client) *VisualImageProvider {
	return &VisualImageProvider{client: client}
}

// GenerateImages 实现 movietools.ImageProvider
func (p *VisualImageProvider) GenerateImages(ctx context.Context, prompt, size string, count int) ([]movietools.GeneratedImage, error) {
	if count <= 0 {
		count = 1
	}
	images := make([]movietools.GeneratedImage, 0, count)
	for i := 0; i < count; i++ {
		data, err := p.client.GenerateImage(ctx, prompt, size)
		if err != nil {
			return nil, fmt.Errorf("visual generate image: %w", err)
		}
		images = append(images, movietools.GeneratedImage{
			Data:        data,
			ContentType: http.DetectContentType(data),
		})
	}
	return images, nil
}
