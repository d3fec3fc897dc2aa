package component

import (
	"context"
	"fmt"
	"strings"

	arkext "github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"

	"baytt/internal/config"
	"baytt/internal/pkg/ark"
	"baytt/internal/pkg/movietools"
	"baytt/internal/pkg/movietools/providers"
)

// DefaultArkModel ai.model 为空时使用的 Ark 模型
const DefaultArkModel = "doubao-seed-1-6-flash-250615"

// NewTextProvider 创建流水线各阶段共用的文本生成服务
//
//	gemini              -> genai
//	ark + sdk=native    -> volcengine SDK 直连
//	ark / openai / azure -> Eino ChatModel
//
// 返回值实现 io.Closer 时由调用方负责关闭
func NewTextProvider(ctx context.Context, cfg *config.AIConfig) (movietools.TextProvider, error) {
	switch {
	case cfg.Provider == "gemini":
		p, err := providers.NewGeminiTextProvider(ctx, cfg.APIKey, cfg.Model)
		if err != nil {
			return nil, err
		}
		return p, nil
	case cfg.Provider == "ark" && cfg.SDK == "native":
		client, err := ark.NewClient(cfg)
		if err != nil {
			return nil, err
		}
		return providers.NewArkTextProvider(client), nil
	}

	chatModel, err := NewChatModel(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return providers.NewEinoTextProvider(chatModel), nil
}

// NewChatModel 创建 Eino ChatModel，provider 为空时按 ark 处理
// ai.options 是默认采样参数，各阶段请求里的 temperature / max_tokens 会覆盖它们
func NewChatModel(ctx context.Context, cfg *config.AIConfig) (model.ChatModel, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("ai api_key is required for provider %q", cfg.Provider)
	}
	params := samplingFrom(cfg.Options)

	switch cfg.Provider {
	case "ark", "":
		baseURL, err := ark.CanonicalizeBaseURL(cfg.BaseURL)
		if err != nil {
			return nil, err
		}
		modelName := cfg.Model
		if modelName == "" {
			modelName = DefaultArkModel
		}
		return arkext.NewChatModel(ctx, &arkext.ChatModelConfig{
			Model:       modelName,
			APIKey:      cfg.APIKey,
			BaseURL:     baseURL,
			Temperature: params.temperature,
			TopP:        params.topP,
			MaxTokens:   params.maxTokens,
		})
	case "openai", "azure":
		byAzure := cfg.Provider == "azure"
		if byAzure && strings.TrimSpace(cfg.BaseURL) == "" {
			return nil, fmt.Errorf("azure provider requires ai.base_url")
		}
		if cfg.Model == "" {
			return nil, fmt.Errorf("ai.model is required for provider %q", cfg.Provider)
		}
		return openai.NewChatModel(ctx, &openai.ChatModelConfig{
			Model:       cfg.Model,
			APIKey:      cfg.APIKey,
			BaseURL:     cfg.BaseURL,
			ByAzure:     byAzure,
			Temperature: params.temperature,
			TopP:        params.topP,
			MaxTokens:   params.maxTokens,
		})
	default:
		return nil, fmt.Errorf("unsupported AI provider: %s", cfg.Provider)
	}
}

// sampling 未配置的参数保持 nil，使用服务端默认值
type sampling struct {
	temperature *float32
	topP        *float32
	maxTokens   *int
}

func samplingFrom(opts config.AIOptionsConfig) sampling {
	var s sampling
	if opts.Temperature > 0 {
		t := float32(opts.Temperature)
		s.temperature = &t
	}
	if opts.TopP > 0 {
		p := float32(opts.TopP)
		s.topP = &p
	}
	if opts.MaxTokens > 0 {
		n := opts.MaxTokens
		s.maxTokens = &n
	}
	return s
}
