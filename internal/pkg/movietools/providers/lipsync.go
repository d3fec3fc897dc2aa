package providers

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"baytt/internal/pkg/lipsync"
)

// LipSyncProvider 口型同步适配层：提交后轮询到终态
type LipSyncProvider struct {
	client       *lipsync.Client
	pollInterval time.Duration
	maxAttempts  int
}

// NewLipSyncProvider 创建口型同步提供者
func NewLipSyncProvider(client *lipsync.Client, pollInterval time.Duration, maxAttempts int) *LipSyncProvider {
	return &LipSyncProvider{
		client:       client,
		pollInterval: pollInterval,
		maxAttempts:  maxAttempts,
	}
}

// Sync 实现 movietools.LipSyncProvider，返回合成后的视频地址
func (p *LipSyncProvider) Sync(ctx context.Context, videoURL, audioURL string) (string, error) {
	taskID, err := p.client.Submit(ctx, videoURL, audioURL)
	if err != nil {
		return "", err
	}
	log.Debug().Str("task_id", taskID).Msg("口型同步任务已提交")

	task, err := p.client.Wait(ctx, taskID, p.pollInterval, p.maxAttempts)
	if err != nil {
		return "", err
	}
	return task.OutputURL, nil
}
