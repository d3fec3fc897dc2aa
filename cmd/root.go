package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"baytt/internal/config"
	"baytt/internal/pkg/logger"
)

var (
	cfgFile string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "baytt",
	Short: "Baytt - AI movie production service",
	Long: `Baytt turns a short story brief into a finished movie.
It plans a visual bible, writes the screenplay, generates scene videos with
continuity, synthesizes dialogue and assembles the final cut.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: ./configs/config.yaml)")

	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
}

func initConfig() {
	// .env 中的密钥先进入进程环境，再由 viper 读取
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Failed to load .env: %v\n", err)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath("./configs")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.baytt")
	}

	// 环境变量设置
	viper.SetEnvPrefix("BAYTT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// 设置默认值
	setDefaults()

	// 读取配置文件
	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			fmt.Fprintln(os.Stderr, "No config file found, using defaults and environment variables")
		} else {
			fmt.Fprintf(os.Stderr, "Failed to read config: %v\n", err)
			os.Exit(1)
		}
	}

	// 反序列化到结构体
	cfg = &config.Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to unmarshal config: %v\n", err)
		os.Exit(1)
	}

	// 初始化日志
	if err := logger.Init(&cfg.Log); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to init logger: %v\n", err)
		os.Exit(1)
	}

	log.Debug().Str("config_file", viper.ConfigFileUsed()).Msg("configuration loaded")
}

func setDefaults() {
	// Server
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 7080)
	viper.SetDefault("server.mode", "release")
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "30s")

	// AI（文本生成）
	viper.SetDefault("ai.provider", "ark")
	viper.SetDefault("ai.sdk", "eino")
	viper.SetDefault("ai.model", "doubao-seed-1-6-flash-250615")
	viper.SetDefault("ai.options.temperature", 0.7)
	viper.SetDefault("ai.options.max_tokens", 8192)
	viper.SetDefault("ai.options.top_p", 1.0)

	// Log
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "console")
	viper.SetDefault("log.output", "stdout")
	viper.SetDefault("log.time_format", "RFC3339")

	// MongoDB
	viper.SetDefault("mongo.uri", "mongodb://localhost:27017")
	viper.SetDefault("mongo.database", "baytt")
	viper.SetDefault("mongo.max_pool_size", 100)
	viper.SetDefault("mongo.min_pool_size", 10)

	// Redis
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.db", 0)

	// Storage
	viper.SetDefault("storage.type", "local")
	viper.SetDefault("storage.local.base_path", "./data/storage")
	viper.SetDefault("storage.local.base_url", "http://localhost:7080/storage")
	viper.SetDefault("storage.oss.presign_expiry", 3600)

	// Providers
	viper.SetDefault("providers.image.type", "ark")
	viper.SetDefault("providers.image.model", "doubao-seedream-4-0-250828")
	viper.SetDefault("providers.image.size", "1280x720")
	viper.SetDefault("providers.video.model", "doubao-seedance-1-0-lite-i2v-250428")
	viper.SetDefault("providers.voice.base_url", "https://api.elevenlabs.io")
	viper.SetDefault("providers.voice.model", "eleven_multilingual_v2")
	viper.SetDefault("providers.voice.concurrency", 3)
	viper.SetDefault("providers.lipsync.enabled", false)
	viper.SetDefault("providers.render.type", "local")
	viper.SetDefault("providers.render.timeout", "5m")

	// Pipeline
	viper.SetDefault("pipeline.scenes_per_minute", 6)
	viper.SetDefault("pipeline.scene_duration", 5)
	viper.SetDefault("pipeline.aspect_ratio", "16:9")
	viper.SetDefault("pipeline.prompt_max_chars", 1500)
	viper.SetDefault("pipeline.poll_interval", "5s")
	viper.SetDefault("pipeline.max_poll_attempts", 120)
	viper.SetDefault("pipeline.min_scene_success_ratio", 0.5)
	viper.SetDefault("pipeline.run_timeout", "2h")
	viper.SetDefault("pipeline.planner_max_tokens", 4096)
	viper.SetDefault("pipeline.screenplay_max_tokens", 8192)
}

// GetConfig returns the global configuration
func GetConfig() *config.Config {
	return cfg
}
