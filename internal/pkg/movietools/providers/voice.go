package providers

import (
	"context"

	"baytt/internal/pkg/movietools"
	"baytt/internal/pkg/voice"
)

// VoiceProvider 语音合成适配层
type VoiceProvider struct {
	client *voice.Client
}

// NewVoiceProvider 创建语音合成提供者
func NewVoiceProvider(client *voice.Client) *VoiceProvider {
	return &VoiceProvider{client: client}
}

// Synthesize 实现 movietools.VoiceProvider
func (p *VoiceProvider) Synthesize(ctx context.Context, req *movietools.SpeechRequest) (*movietools.SpeechResult, error) {
	result, err := p.client.Synthesize(ctx, voice.Request{
		Text:       req.Text,
		VoiceID:    req.VoiceID,
		Stability:  req.Stability,
		Similarity: req.Similarity,
		Style:      req.Style,
	})
	if err != nil {
		return nil, err
	}
	return &movietools.SpeechResult{
		AudioData:   result.AudioData,
		ContentType: result.ContentType,
	}, nil
}
