package providers

import (
	"context"
	"time"

	"baytt/internal/pkg/ark"
	"baytt/internal/pkg/movietools"
)

// ArkVideoProvider Ark Seedance 图生视频
type ArkVideoProvider struct {
	client       *ark.VideoClient
	pollInterval time.Duration
	maxAttempts  int
	inline       func(ctx context.Context, url string) (string, error)
}

// NewArkVideoProvider 创建图生视频提供者
func NewArkVideoProvider(client *ark.VideoClient, pollInterval time.Duration, maxAttempts int) *ArkVideoProvider {
	return &ArkVideoProvider{
		client:       client,
		pollInterval: pollInterval,
		maxAttempts:  maxAttempts,
	}
}

// SetReferenceInliner 设置参考图转换函数
// 本地存储的地址服务端无法访问，提交前需要转成 data URL
func (p *ArkVideoProvider) SetReferenceInliner(inline func(ctx context.Context, url string) (string, error)) {
	p.inline = inline
}

// Submit 实现 movietools.VideoProvider
// 始终要求服务端返回尾帧，省去本地抽帧
func (p *ArkVideoProvider) Submit(ctx context.Context, req *movietools.VideoRequest) (string, error) {
	reference := req.ReferenceImage
	if p.inline != nil && reference != "" {
		inlined, err := p.inline(ctx, reference)
		if err != nil {
			return "", err
		}
		reference = inlined
	}
	return p.client.Submit(ctx, ark.VideoTaskRequest{
		Prompt:          req.Prompt,
		ReferenceImage:  reference,
		Duration:        req.Duration,
		AspectRatio:     req.AspectRatio,
		ReturnLastFrame: true,
	})
}

// Wait 实现 movietools.VideoProvider
func (p *ArkVideoProvider) Wait(ctx context.Context, taskID string) (*movietools.VideoResult, error) {
	task, err := p.client.Wait(ctx, taskID, p.pollInterval, p.maxAttempts)
	if err != nil {
		return nil, err
	}
	return &movietools.VideoResult{
		TaskID:       task.ID,
		VideoURL:     task.VideoURL,
		LastFrameURL: task.LastFrameURL,
		Duration:     task.Duration,
	}, nil
}
