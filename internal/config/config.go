package config

import (
	"errors"
	"time"
)

// Config 应用配置根结构
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	AI        AIConfig        `mapstructure:"ai"`
	Log       LogConfig       `mapstructure:"log"`
	Mongo     MongoConfig     `mapstructure:"mongo"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Providers ProvidersConfig `mapstructure:"providers"`
	Pipeline  PipelineConfig  `mapstructure:"pipeline"`
}

// ServerConfig HTTP 服务器配置
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Mode         string        `mapstructure:"mode"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// AIConfig 文本生成服务配置
// Provider: ark, openai, azure, gemini
// SDK: eino（默认，经 Eino ChatModel）或 native（仅 ark，直接使用 volcengine SDK）
type AIConfig struct {
	Provider string          `mapstructure:"provider"`
	SDK      string          `mapstructure:"sdk"`
	APIKey   string          `mapstructure:"api_key"`
	Model    string          `mapstructure:"model"`
	BaseURL  string          `mapstructure:"base_url"`
	Options  AIOptionsConfig `mapstructure:"options"`
}

// AIOptionsConfig AI 模型参数
type AIOptionsConfig struct {
	Temperature float64 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	TopP        float64 `mapstructure:"top_p"`
}

// LogConfig 日志配置 (Zerolog)
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	FilePath   string `mapstructure:"file_path"`
	TimeFormat string `mapstructure:"time_format"`
}

// MongoConfig MongoDB 配置
type MongoConfig struct {
	URI         string `mapstructure:"uri"`
	Database    string `mapstructure:"database"`
	MaxPoolSize uint64 `mapstructure:"max_pool_size"`
	MinPoolSize uint64 `mapstructure:"min_pool_size"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// StorageConfig 存储配置
type StorageConfig struct {
	Type  string       `mapstructure:"type"` // local, oss
	Local *LocalConfig `mapstructure:"local,omitempty"`
	OSS   *OSSConfig   `mapstructure:"oss,omitempty"`
}

// LocalConfig 本地文件系统配置
type LocalConfig struct {
	BasePath string `mapstructure:"base_path"` // 基础路径
	BaseURL  string `mapstructure:"base_url"`  // 基础URL（用于生成访问URL）
}

// OSSConfig 阿里云OSS配置
type OSSConfig struct {
	Endpoint        string `mapstructure:"endpoint"`          // OSS端点
	Bucket          string `mapstructure:"bucket"`            // Bucket名称
	AccessKeyID     string `mapstructure:"access_key_id"`     // AccessKey ID
	AccessKeySecret string `mapstructure:"access_key_secret"` // AccessKey Secret
	PresignExpiry   int    `mapstructure:"presign_expiry"`    // 预签名URL过期时间（秒）
}

// ProvidersConfig 各生成服务配置
type ProvidersConfig struct {
	Image   ImageProviderConfig   `mapstructure:"image"`
	Video   VideoProviderConfig   `mapstructure:"video"`
	Voice   VoiceProviderConfig   `mapstructure:"voice"`
	LipSync LipSyncProviderConfig `mapstructure:"lipsync"`
	Render  RenderProviderConfig  `mapstructure:"render"`
}

// ImageProviderConfig 图片生成配置
// Type: ark（Seedream，默认）或 visual（火山引擎视觉服务 CVProcess，AK/SK 签名）
type ImageProviderConfig struct {
	Type      string `mapstructure:"type"`
	APIKey    string `mapstructure:"api_key"`
	BaseURL   string `mapstructure:"base_url"`
	Model     string `mapstructure:"model"`
	Size      string `mapstructure:"size"`
	AccessKey string `mapstructure:"access_key"` // visual
	SecretKey string `mapstructure:"secret_key"` // visual
	Region    string `mapstructure:"region"`     // visual，默认 cn-north-1
	ReqKey    string `mapstructure:"req_key"`    // visual 模型标识
}

// VideoProviderConfig 图生视频配置（Ark Seedance 异步任务）
type VideoProviderConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
	Model   string `mapstructure:"model"`
}

// VoiceProviderConfig 语音合成配置
type VoiceProviderConfig struct {
	APIKey        string   `mapstructure:"api_key"`
	BaseURL       string   `mapstructure:"base_url"`
	Model         string   `mapstructure:"model"`
	MaleVoices    []string `mapstructure:"male_voices"`
	FemaleVoices  []string `mapstructure:"female_voices"`
	NeutralVoices []string `mapstructure:"neutral_voices"`
	Concurrency   int      `mapstructure:"concurrency"` // 单场景内并发合成的台词数
}

// LipSyncProviderConfig 口型同步配置
type LipSyncProviderConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
}

// RenderProviderConfig 成片渲染配置
// Type: remote（外部渲染服务）或 local（本机 ffmpeg）
type RenderProviderConfig struct {
	Type    string        `mapstructure:"type"`
	BaseURL string        `mapstructure:"base_url"`
	APIKey  string        `mapstructure:"api_key"`
	Timeout time.Duration `mapstructure:"timeout"`
	WorkDir string        `mapstructure:"work_dir"`
}

// PipelineConfig 生产流水线参数
type PipelineConfig struct {
	ScenesPerMinute      int           `mapstructure:"scenes_per_minute"`
	SceneDuration        int           `mapstructure:"scene_duration"` // 单场景时长（秒）
	AspectRatio          string        `mapstructure:"aspect_ratio"`
	PromptMaxChars       int           `mapstructure:"prompt_max_chars"`
	PollInterval         time.Duration `mapstructure:"poll_interval"`
	MaxPollAttempts      int           `mapstructure:"max_poll_attempts"`
	MinSceneSuccessRatio float64       `mapstructure:"min_scene_success_ratio"`
	RunTimeout           time.Duration `mapstructure:"run_timeout"` // 单部电影异步执行上限，0 不限制
	PlannerMaxTokens     int           `mapstructure:"planner_max_tokens"`
	ScreenplayMaxTokens  int           `mapstructure:"screenplay_max_tokens"`
}

// Validate 验证配置有效性
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return errors.New("invalid server port")
	}

	validModes := map[string]bool{"debug": true, "release": true, "test": true}
	if !validModes[c.Server.Mode] {
		return errors.New("invalid server mode, must be debug/release/test")
	}

	return c.Pipeline.Validate()
}

// Validate 验证流水线参数
func (p *PipelineConfig) Validate() error {
	if p.ScenesPerMinute <= 0 {
		return errors.New("pipeline.scenes_per_minute must be positive")
	}
	if p.SceneDuration <= 0 {
		return errors.New("pipeline.scene_duration must be positive")
	}
	if p.MaxPollAttempts <= 0 {
		return errors.New("pipeline.max_poll_attempts must be positive")
	}
	if p.PollInterval <= 0 {
		return errors.New("pipeline.poll_interval must be positive")
	}
	if p.MinSceneSuccessRatio < 0 || p.MinSceneSuccessRatio > 1 {
		return errors.New("pipeline.min_scene_success_ratio must be within [0,1]")
	}
	return nil
}
