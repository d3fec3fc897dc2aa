package app

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"baytt/internal/ai/component"
	"baytt/internal/config"
	"baytt/internal/pkg/ark"
	"baytt/internal/pkg/artifact"
	"baytt/internal/pkg/cache"
	"baytt/internal/pkg/ffmpeg"
	"baytt/internal/pkg/lipsync"
	"baytt/internal/pkg/mongodb"
	"baytt/internal/pkg/movietools"
	"baytt/internal/pkg/movietools/providers"
	"baytt/internal/pkg/render"
	"baytt/internal/pkg/storage"
	"baytt/internal/pkg/storage/local"
	"baytt/internal/pkg/storagefactory"
	"baytt/internal/pkg/visual"
	"baytt/internal/pkg/voice"
	movierepo "baytt/internal/repository/movie"
	moviesvc "baytt/internal/service/movie"
)

// App 装配好的应用依赖
// serve 与 produce 共用同一套装配
type App struct {
	Config  *config.Config
	Mongo   *mongodb.Client
	Redis   *cache.RedisCache // 未配置或连接失败时为 nil
	Storage storage.Storage
	Movies  moviesvc.MovieService

	closers []io.Closer
}

// New 按配置装配 存储 -> 生成服务 -> 仓储 -> 流水线
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{Config: cfg}

	mongoClient, err := mongodb.New(&cfg.Mongo)
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	a.Mongo = mongoClient
	log.Info().Str("database", cfg.Mongo.Database).Msg("connected to MongoDB")

	db := mongoClient.Database()
	if err := mongodb.EnsureIndexes(ctx, db); err != nil {
		log.Warn().Err(err).Msg("failed to ensure indexes")
	}

	if cfg.Redis.Addr != "" {
		rc, err := cache.NewRedisCache(&cfg.Redis)
		if err != nil {
			log.Warn().Err(err).Msg("failed to connect to Redis, voice assignments will not be cached")
		} else {
			a.Redis = rc
			log.Info().Str("addr", cfg.Redis.Addr).Msg("connected to Redis")
		}
	}

	st, err := storagefactory.NewStorage(ctx, &cfg.Storage)
	if err != nil {
		a.Close(ctx)
		return nil, fmt.Errorf("init storage: %w", err)
	}
	a.Storage = st
	store := artifact.NewStore(st)

	movies, err := a.buildService(ctx, store)
	if err != nil {
		a.Close(ctx)
		return nil, err
	}
	a.Movies = movies
	return a, nil
}

func (a *App) buildService(ctx context.Context, store *artifact.Store) (moviesvc.MovieService, error) {
	cfg := a.Config
	db := a.Mongo.Database()
	p := cfg.Pipeline

	text, err := component.NewTextProvider(ctx, &cfg.AI)
	if err != nil {
		return nil, fmt.Errorf("init text provider: %w", err)
	}
	if c, ok := text.(io.Closer); ok {
		a.closers = append(a.closers, c)
	}

	images, err := newImageProvider(&cfg.Providers.Image)
	if err != nil {
		return nil, err
	}
	videoClient, err := ark.NewVideoClient(&cfg.Providers.Video)
	if err != nil {
		return nil, fmt.Errorf("init video provider: %w", err)
	}
	voiceClient, err := voice.NewClient(&cfg.Providers.Voice)
	if err != nil {
		return nil, fmt.Errorf("init voice provider: %w", err)
	}

	videoProvider := providers.NewArkVideoProvider(videoClient, p.PollInterval, p.MaxPollAttempts)
	videoProvider.SetReferenceInliner(store.Inline)

	var lipSync movietools.LipSyncProvider
	if cfg.Providers.LipSync.Enabled {
		client, err := lipsync.NewClient(&cfg.Providers.LipSync)
		if err != nil {
			return nil, fmt.Errorf("init lipsync provider: %w", err)
		}
		lipSync = providers.NewLipSyncProvider(client, p.PollInterval, p.MaxPollAttempts)
	}

	ff := ffmpeg.NewClient()
	workDir := cfg.Providers.Render.WorkDir
	renderer, err := newRenderer(&cfg.Providers.Render, ff, store, workDir)
	if err != nil {
		return nil, err
	}
	var framesDir string
	if workDir != "" {
		framesDir = filepath.Join(workDir, "frames")
	}
	frames := providers.NewFFmpegFrameExtractor(ff, store, framesDir)

	var assignments moviesvc.VoiceAssignmentCache
	if a.Redis != nil {
		assignments = a.Redis
	}

	movieRepo := movierepo.NewMovieRepo(db)
	sceneRepo := movierepo.NewSceneRepo(db)
	videoRepo := movierepo.NewSceneVideoRepo(db)

	planner := moviesvc.NewPlanner(text, movierepo.NewLibraryRepo(db), p.PlannerMaxTokens)
	writer := moviesvc.NewScreenwriter(text, p.ScenesPerMinute, p.SceneDuration, p.ScreenplayMaxTokens)
	resolver := moviesvc.NewReferenceResolver(
		movierepo.NewLocationImageRepo(db),
		images,
		store,
		cfg.Providers.Image.Size,
	)
	videoGen := moviesvc.NewSceneVideoGenerator(resolver, videoProvider, frames, store, videoRepo, p.AspectRatio, p.PromptMaxChars)
	audioGen := moviesvc.NewAudioGenerator(
		providers.NewVoiceProvider(voiceClient),
		lipSync,
		store,
		movierepo.NewDialogueAudioRepo(db),
		videoRepo,
		assignments,
		moviesvc.VoicePools{
			Male:    cfg.Providers.Voice.MaleVoices,
			Female:  cfg.Providers.Voice.FemaleVoices,
			Neutral: cfg.Providers.Voice.NeutralVoices,
		},
		cfg.Providers.Voice.Concurrency,
	)
	assembler := moviesvc.NewAssembler(renderer, movieRepo)
	orchestrator := moviesvc.NewOrchestrator(planner, writer, videoGen, audioGen, assembler, movieRepo, sceneRepo, p.MinSceneSuccessRatio)

	log.Info().
		Str("text_provider", cfg.AI.Provider).
		Str("text_sdk", cfg.AI.SDK).
		Str("render", cfg.Providers.Render.Type).
		Bool("lipsync", lipSync != nil).
		Bool("voice_cache", assignments != nil).
		Msg("pipeline assembled")

	return moviesvc.NewMovieService(orchestrator, movieRepo, videoRepo, p.RunTimeout), nil
}

// newImageProvider ark 使用 Seedream，visual 使用视觉服务 CVProcess
func newImageProvider(cfg *config.ImageProviderConfig) (movietools.ImageProvider, error) {
	switch cfg.Type {
	case "ark", "":
		client, err := ark.NewImageClient(cfg)
		if err != nil {
			return nil, fmt.Errorf("init image provider: %w", err)
		}
		return providers.NewArkImageProvider(client), nil
	case "visual":
		client, err := visual.NewClient(cfg)
		if err != nil {
			return nil, fmt.Errorf("init image provider: %w", err)
		}
		return providers.NewVisualImageProvider(client), nil
	default:
		return nil, fmt.Errorf("unsupported image provider: %s", cfg.Type)
	}
}

// newRenderer remote 使用外部渲染服务，local 使用本机 ffmpeg
func newRenderer(cfg *config.RenderProviderConfig, ff *ffmpeg.Client, store *artifact.Store, workDir string) (movietools.RenderProvider, error) {
	switch cfg.Type {
	case "remote":
		client, err := render.NewClient(cfg)
		if err != nil {
			return nil, fmt.Errorf("init render provider: %w", err)
		}
		return providers.NewRemoteRenderProvider(client), nil
	case "local", "":
		return providers.NewLocalRenderProvider(ff, store, workDir, cfg.Timeout), nil
	default:
		return nil, fmt.Errorf("unsupported render type: %s", cfg.Type)
	}
}

// LocalMount 本地存储的静态路由前缀与磁盘根目录
// 使用 OSS 时返回 false
func (a *App) LocalMount() (prefix, root string, ok bool) {
	ls, isLocal := a.Storage.(*local.LocalStorage)
	if !isLocal || a.Config.Storage.Local == nil {
		return "", "", false
	}
	prefix = "/storage"
	if u, err := url.Parse(a.Config.Storage.Local.BaseURL); err == nil && u.Path != "" && u.Path != "/" {
		prefix = u.Path
	}
	return prefix, ls.BasePath(), true
}

// Close 等待后台流水线结束并释放连接
func (a *App) Close(ctx context.Context) {
	if a.Movies != nil {
		a.Movies.Wait()
	}
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close client")
		}
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close Redis connection")
		}
	}
	if a.Mongo != nil {
		if err := a.Mongo.Close(ctx); err != nil {
			log.Error().Err(err).Msg("failed to close MongoDB connection")
		}
	}
}
