package providers

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/google/generative-ai-go/genai"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"

	"baytt/internal/pkg/ark"
	"baytt/internal/pkg/movietools"
)

// EinoTextProvider Eino 封装的文本生成（默认使用）
// chatModel 通过 ai/component.NewChatModel 创建，支持 ark/openai/azure
type EinoTextProvider struct {
	chatModel model.ChatModel
}

// NewEinoTextProvider 创建基于 Eino 的文本生成提供者
func NewEinoTextProvider(chatModel model.ChatModel) *EinoTextProvider {
	return &EinoTextProvider{chatModel: chatModel}
}

// Generate 实现 movietools.TextProvider
func (p *EinoTextProvider) Generate(ctx context.Context, req *movietools.TextRequest) (string, error) {
	if p.chatModel == nil {
		return "", fmt.Errorf("chatModel is required")
	}

	messages := []*schema.Message{}
	if req.SystemPrompt != "" {
		messages = append(messages, schema.SystemMessage(req.SystemPrompt))
	}
	messages = append(messages, schema.UserMessage(req.UserPrompt))

	var opts []model.Option
	if req.MaxTokens > 0 {
		opts = append(opts, model.WithMaxTokens(req.MaxTokens))
	}
	if req.Temperature > 0 {
		opts = append(opts, model.WithTemperature(float32(req.Temperature)))
	}

	response, err := p.chatModel.Generate(ctx, messages, opts...)
	if err != nil {
		return "", fmt.Errorf("failed to generate text: %w", err)
	}
	if response.Content == "" {
		return "", fmt.Errorf("empty response from chat model")
	}
	if response.ResponseMeta != nil && response.ResponseMeta.Usage != nil {
		log.Debug().
			Int("prompt_tokens", response.ResponseMeta.Usage.PromptTokens).
			Int("completion_tokens", response.ResponseMeta.Usage.CompletionTokens).
			Str("finish_reason", response.ResponseMeta.FinishReason).
			Msg("chat model usage")
	}
	return response.Content, nil
}

// ArkTextProvider 直接使用 Ark SDK 的文本生成
type ArkTextProvider struct {
	client *ark.Client
}

// NewArkTextProvider 创建基于 Ark 的文本生成提供者
func NewArkTextProvider(client *ark.Client) *ArkTextProvider {
	return &ArkTextProvider{client: client}
}

// Generate 实现 movietools.TextProvider
func (p *ArkTextProvider) Generate(ctx context.Context, req *movietools.TextRequest) (string, error) {
	if p.client == nil {
		return "", fmt.Errorf("ark client is required")
	}
	return p.client.Generate(ctx, req.SystemPrompt, req.UserPrompt, req.MaxTokens, req.Temperature)
}

// GeminiTextProvider Gemini 文本生成
type GeminiTextProvider struct {
	client    *genai.Client
	modelName string
}

// NewGeminiTextProvider 创建 Gemini 文本生成提供者
func NewGeminiTextProvider(ctx context.Context, apiKey, modelName string) (*GeminiTextProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api_key is required")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	if modelName == "" {
		modelName = "gemini-1.5-flash"
	}
	return &GeminiTextProvider{client: client, modelName: modelName}, nil
}

// Close 关闭客户端
func (p *GeminiTextProvider) Close() error {
	return p.client.Close()
}

// Generate 实现 movietools.TextProvider
// 每次调用新建 GenerativeModel，温度和 token 上限是按请求设置的
func (p *GeminiTextProvider) Generate(ctx context.Context, req *movietools.TextRequest) (string, error) {
	m := p.client.GenerativeModel(p.modelName)
	if req.SystemPrompt != "" {
		m.SystemInstruction = genai.NewUserContent(genai.Text(req.SystemPrompt))
	}
	if req.Temperature > 0 {
		m.SetTemperature(float32(req.Temperature))
	}
	if req.MaxTokens > 0 {
		m.SetMaxOutputTokens(int32(req.MaxTokens))
	}

	resp, err := m.GenerateContent(ctx, genai.Text(req.UserPrompt))
	if err != nil {
		return "", fmt.Errorf("gemini generation error: %w", err)
	}

	var sb strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if txt, ok := part.(genai.Text); ok {
				sb.WriteString(string(txt))
			}
		}
		break
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("empty response from gemini")
	}
	return sb.String(), nil
}
