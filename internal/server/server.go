package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "baytt/docs"
	"baytt/internal/app"
	"baytt/internal/config"
	"baytt/internal/handler"
	movieHandler "baytt/internal/handler/movie"
	"baytt/internal/server/middleware"
)

// Server HTTP 服务器
type Server struct {
	cfg    *config.Config
	app    *app.App
	engine *gin.Engine
}

// New 创建服务器实例
func New(cfg *config.Config, application *app.App) *Server {
	// 设置 Gin 模式
	switch cfg.Server.Mode {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	srv := &Server{
		cfg:    cfg,
		app:    application,
		engine: gin.New(),
	}
	srv.setupRoutes()
	return srv
}

// setupRoutes 设置路由
func (s *Server) setupRoutes() {
	// 全局中间件
	s.engine.Use(middleware.Recovery())
	s.engine.Use(middleware.RequestID())
	s.engine.Use(middleware.Logger())
	s.engine.Use(middleware.CORS())

	// 健康检查
	deps := map[string]handler.Pinger{}
	if s.app.Mongo != nil {
		deps["mongo"] = s.app.Mongo
	}
	if s.app.Redis != nil {
		deps["redis"] = s.app.Redis
	}
	healthHandler := handler.NewHealthHandler(deps)
	s.engine.GET("/health", healthHandler.Health)
	s.engine.GET("/ready", healthHandler.Ready)

	// Swagger 文档
	s.engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// 本地存储的产物（场景图、尾帧、音频、成片）
	if prefix, root, ok := s.app.LocalMount(); ok {
		s.engine.Static(prefix, root)
		log.Info().Str("prefix", prefix).Str("root", root).Msg("serving local storage")
	}

	// API v1
	v1 := s.engine.Group("/api/v1")
	movieHandler.NewHandler(s.app.Movies).RegisterRoutes(v1)
}

// Run 启动服务器
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.engine,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}

	// 启动服务器
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// 等待关闭信号或错误
	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down server...")
		err := srv.Shutdown(context.Background())

		// 等待后台流水线结束后关闭连接
		s.app.Close(context.Background())
		return err
	case err := <-errCh:
		return err
	}
}

// Engine 获取 Gin 引擎 (用于测试)
func (s *Server) Engine() *gin.Engine {
	return s.engine
}
