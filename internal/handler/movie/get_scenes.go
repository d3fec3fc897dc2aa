package movie

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetScenesRequest 获取场景视频请求
type GetScenesRequest struct {
	MovieID string `uri:"movie_id" binding:"required"` // 电影ID（必填）
}

// GetScenesResponseData 获取场景视频响应数据
type GetScenesResponseData struct {
	MovieID string           `json:"movie_id"` // 电影ID
	Scenes  []SceneVideoInfo `json:"scenes"`   // 按场景序号排列
	Total   int              `json:"total"`    // 记录数
}

// GetScenes 获取电影的场景视频记录
// @Summary      获取场景视频
// @Description  返回每个场景的生成状态、视频地址、尾帧与参考图来源
// @Tags         电影生产
// @Accept       json
// @Produce      json
// @Param        movie_id  path      string  true  "电影ID"
// @Success      200       {object}  map[string]interface{}  "成功响应"  "{\"code\": 0, \"message\": \"success\", \"data\": {\"scenes\": [...]}}"
// @Failure      400       {object}  ErrorResponse  "请求参数错误"
// @Failure      404       {object}  ErrorResponse  "电影不存在"
// @Failure      500       {object}  ErrorResponse  "服务器内部错误"
// @Router       /api/v1/movies/{movie_id}/scenes [get]
func (h *Handler) GetScenes(c *gin.Context) {
	var req GetScenesRequest
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    CodeBadRequest,
			Message: "Invalid movie_id",
			Detail:  err.Error(),
		})
		return
	}

	videos, err := h.movieService.GetSceneVideos(c.Request.Context(), req.MovieID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": "success",
		"data": GetScenesResponseData{
			MovieID: req.MovieID,
			Scenes:  toSceneVideoInfoList(videos),
			Total:   len(videos),
		},
	})
}
