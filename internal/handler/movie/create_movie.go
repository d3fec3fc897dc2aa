package movie

import (
	"net/http"

	"github.com/gin-gonic/gin"

	moviesvc "baytt/internal/service/movie"
)

// CreateMovieRequest 创建电影请求
type CreateMovieRequest struct {
	Title           string  `json:"title"`                               // 片名（可选，默认 Untitled）
	Brief           string  `json:"brief" binding:"required"`            // 故事梗概（必填）
	Genre           string  `json:"genre"`                               // 类型（可选，默认 drama）
	DurationMinutes float64 `json:"duration_minutes" binding:"required"` // 目标时长（分钟，0-30）
	MusicURL        string  `json:"music_url"`                           // 背景音乐（可选）
}

// CreateMovieResponseData 创建电影响应数据
type CreateMovieResponseData struct {
	MovieID string    `json:"movie_id"` // 电影ID
	Movie   MovieInfo `json:"movie"`    // 台账
}

// CreateMovie 创建电影并异步启动生产流水线
// @Summary      创建电影
// @Description  创建电影台账（pending）并在后台启动生产流水线，通过 GET /api/v1/movies/{movie_id} 查询进度
// @Tags         电影生产
// @Accept       json
// @Produce      json
// @Param        request  body      CreateMovieRequest  true  "创建电影请求"
// @Success      202      {object}  map[string]interface{}  "已受理"  "{\"code\": 0, \"message\": \"accepted\", \"data\": {\"movie_id\": \"...\"}}"
// @Failure      400      {object}  ErrorResponse  "请求参数错误"
// @Failure      500      {object}  ErrorResponse  "服务器内部错误"
// @Router       /api/v1/movies [post]
func (h *Handler) CreateMovie(c *gin.Context) {
	var req CreateMovieRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    CodeBadRequest,
			Message: "Invalid request body",
			Detail:  err.Error(),
		})
		return
	}

	m, err := h.movieService.CreateMovie(c.Request.Context(), &moviesvc.CreateMovieRequest{
		Title:           req.Title,
		Brief:           req.Brief,
		Genre:           req.Genre,
		DurationMinutes: req.DurationMinutes,
		MusicURL:        req.MusicURL,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	h.movieService.StartProduction(m.ID)

	c.JSON(http.StatusAccepted, gin.H{
		"code":    0,
		"message": "accepted",
		"data": CreateMovieResponseData{
			MovieID: m.ID,
			Movie:   toMovieInfo(m),
		},
	})
}
