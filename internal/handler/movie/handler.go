package movie

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "baytt/internal/errors"
	moviesvc "baytt/internal/service/movie"
)

// Handler 电影处理器
// 所有 movie 相关的 Handler 方法都通过这个结构体访问 Service
type Handler struct {
	movieService moviesvc.MovieService
}

// NewHandler 创建电影处理器
func NewHandler(movieService moviesvc.MovieService) *Handler {
	return &Handler{
		movieService: movieService,
	}
}

// RegisterRoutes 注册路由
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	movies := r.Group("/movies")
	movies.POST("", h.CreateMovie)
	movies.GET("/:movie_id", h.GetMovie)
	movies.GET("/:movie_id/scenes", h.GetScenes)
}

// writeError 按错误类型映射 HTTP 状态码与业务错误码
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	code := CodeServiceError
	switch {
	case apperrors.IsValidationError(err):
		status, code = http.StatusBadRequest, CodeBadRequest
	case apperrors.IsNotFoundError(err):
		status, code = http.StatusNotFound, CodeNotFound
	}
	_ = c.Error(err)
	c.JSON(status, ErrorResponse{
		Code:    code,
		Message: err.Error(),
	})
}
