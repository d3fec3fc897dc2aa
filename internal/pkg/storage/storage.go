package storage

import (
	"context"
	"io"
	"time"
)

// Storage 媒体产物存储接口
// 参考图、尾帧、台词音频和成片都经由它落盘，返回可访问的 URL
type Storage interface {
	// Upload 上传对象，返回访问 URL
	Upload(ctx context.Context, key string, data io.Reader, contentType string) (string, error)

	// Download 读取对象
	Download(ctx context.Context, key string) (io.ReadCloser, error)

	// GetPresignedDownloadURL 获取带有效期的下载 URL
	GetPresignedDownloadURL(ctx context.Context, key string, expiresIn time.Duration) (string, error)

	// Delete 删除对象，不存在时视为成功
	Delete(ctx context.Context, key string) error

	// Exists 检查对象是否存在
	Exists(ctx context.Context, key string) (bool, error)

	// GetStorageType 获取存储类型
	GetStorageType() string
}

// PathResolver 能把自己签发的 URL 还原为本地文件路径的存储
// ffmpeg 等本地工具优先读文件而不是走 HTTP
type PathResolver interface {
	PathForURL(url string) (string, bool)
}

// StorageType 存储类型
type StorageType string

const (
	StorageTypeLocal StorageType = "local" // 本地文件系统
	StorageTypeOSS   StorageType = "oss"   // 阿里云OSS
)

// ContentTypeExt 根据 Content-Type 推断扩展名
func ContentTypeExt(contentType string) string {
	switch contentType {
	case "image/png":
		return ".png"
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	case "video/mp4":
		return ".mp4"
	case "audio/mpeg", "audio/mp3":
		return ".mp3"
	case "audio/wav", "audio/x-wav":
		return ".wav"
	case "application/json":
		return ".json"
	default:
		return ".bin"
	}
}
