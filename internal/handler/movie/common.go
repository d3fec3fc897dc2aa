package movie

import (
	"time"

	"baytt/internal/model/movie"
	httputil "baytt/internal/pkg/http"
)

// ErrorResponse 错误响应类型别名（使用共用的 http.ErrorResponse）
type ErrorResponse = httputil.ErrorResponse

const (
	CodeBadRequest   = httputil.CodeBadRequest
	CodeNotFound     = httputil.CodeNotFound
	CodeServiceError = httputil.CodeServiceError
)

// MovieInfo 电影台账 DTO
type MovieInfo struct {
	ID              string         `json:"id"`                        // 电影ID
	Title           string         `json:"title"`                     // 片名
	Brief           string         `json:"brief"`                     // 故事梗概
	Genre           string         `json:"genre"`                     // 类型
	DurationMinutes float64        `json:"duration_minutes"`          // 目标时长（分钟）
	MusicURL        string         `json:"music_url,omitempty"`       // 背景音乐
	Status          string         `json:"status"`                    // pending, running, completed, completed_partial, failed
	Stage           string         `json:"stage,omitempty"`           // 当前阶段
	Progress        int            `json:"progress"`                  // 0-100
	SceneCount      int            `json:"scene_count"`               // 场景总数
	CompletedScenes int            `json:"completed_scenes"`          // 成功生成的场景数
	FinalVideoURL   string         `json:"final_video_url,omitempty"` // 成片地址
	AssemblyStatus  string         `json:"assembly_status,omitempty"` // completed, fallback, skipped
	Metadata        map[string]any `json:"metadata,omitempty"`        // 运行元数据
	ErrorMessage    string         `json:"error_message,omitempty"`   // 失败原因
	CreatedAt       string         `json:"created_at"`                // 创建时间
	UpdatedAt       string         `json:"updated_at"`                // 更新时间
	CompletedAt     string         `json:"completed_at,omitempty"`    // 完成时间
}

// toMovieInfo 将 Movie 实体转换为 MovieInfo DTO
func toMovieInfo(m *movie.Movie) MovieInfo {
	info := MovieInfo{
		ID:              m.ID,
		Title:           m.Title,
		Brief:           m.Brief,
		Genre:           m.Genre,
		DurationMinutes: m.DurationMinutes,
		MusicURL:        m.MusicURL,
		Status:          string(m.Status),
		Stage:           string(m.Stage),
		Progress:        m.Progress,
		SceneCount:      m.SceneCount,
		CompletedScenes: m.CompletedScenes,
		FinalVideoURL:   m.FinalVideoURL,
		AssemblyStatus:  string(m.AssemblyStatus),
		Metadata:        m.Metadata,
		ErrorMessage:    m.ErrorMessage,
		CreatedAt:       m.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       m.UpdatedAt.Format(time.RFC3339),
	}
	if m.CompletedAt != nil {
		info.CompletedAt = m.CompletedAt.Format(time.RFC3339)
	}
	return info
}

// SceneVideoInfo 场景视频 DTO
type SceneVideoInfo struct {
	ID              string  `json:"id"`                         // 记录ID
	SceneNumber     int     `json:"scene_number"`               // 场景序号
	Status          string  `json:"status"`                     // pending, generating, completed, failed
	Prompt          string  `json:"prompt,omitempty"`           // 视觉提示词
	TaskID          string  `json:"task_id,omitempty"`          // 生成任务ID
	ReferenceSource string  `json:"reference_source,omitempty"` // previous_frame, library, generated
	ReferenceURL    string  `json:"reference_url,omitempty"`    // 参考图
	VideoURL        string  `json:"video_url,omitempty"`        // 视频地址
	EndFrameURL     string  `json:"end_frame_url,omitempty"`    // 尾帧
	LipSyncURL      string  `json:"lipsync_url,omitempty"`      // 口型同步视频
	Duration        float64 `json:"duration"`                   // 时长（秒）
	ErrorMessage    string  `json:"error_message,omitempty"`    // 失败原因
	CreatedAt       string  `json:"created_at"`                 // 创建时间
	UpdatedAt       string  `json:"updated_at"`                 // 更新时间
}

// toSceneVideoInfo 将 SceneVideo 实体转换为 SceneVideoInfo
func toSceneVideoInfo(v *movie.SceneVideo) SceneVideoInfo {
	return SceneVideoInfo{
		ID:              v.ID,
		SceneNumber:     v.SceneNumber,
		Status:          string(v.Status),
		Prompt:          v.Prompt,
		TaskID:          v.TaskID,
		ReferenceSource: string(v.ReferenceSource),
		ReferenceURL:    v.ReferenceURL,
		VideoURL:        v.VideoURL,
		EndFrameURL:     v.EndFrameURL,
		LipSyncURL:      v.LipSyncURL,
		Duration:        v.Duration,
		ErrorMessage:    v.ErrorMessage,
		CreatedAt:       v.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       v.UpdatedAt.Format(time.RFC3339),
	}
}

// toSceneVideoInfoList 将 SceneVideo 列表转换为 DTO 列表
func toSceneVideoInfoList(videos []*movie.SceneVideo) []SceneVideoInfo {
	result := make([]SceneVideoInfo, len(videos))
	for i, v := range videos {
		result[i] = toSceneVideoInfo(v)
	}
	return result
}
