package movie

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetMovieRequest 获取电影请求
type GetMovieRequest struct {
	MovieID string `uri:"movie_id" binding:"required"` // 电影ID（必填）
}

// GetMovieResponseData 获取电影响应数据
type GetMovieResponseData struct {
	Movie MovieInfo `json:"movie"` // 台账
}

// GetMovie 获取电影台账
// @Summary      获取电影台账
// @Description  返回状态、阶段、进度、成片地址与拼接状态
// @Tags         电影生产
// @Accept       json
// @Produce      json
// @Param        movie_id  path      string  true  "电影ID"
// @Success      200       {object}  map[string]interface{}  "成功响应"  "{\"code\": 0, \"message\": \"success\", \"data\": {\"movie\": {...}}}"
// @Failure      400       {object}  ErrorResponse  "请求参数错误"
// @Failure      404       {object}  ErrorResponse  "电影不存在"
// @Failure      500       {object}  ErrorResponse  "服务器内部错误"
// @Router       /api/v1/movies/{movie_id} [get]
func (h *Handler) GetMovie(c *gin.Context) {
	var req GetMovieRequest
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    CodeBadRequest,
			Message: "Invalid movie_id",
			Detail:  err.Error(),
		})
		return
	}

	m, err := h.movieService.GetMovie(c.Request.Context(), req.MovieID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": "success",
		"data": GetMovieResponseData{
			Movie: toMovieInfo(m),
		},
	})
}
