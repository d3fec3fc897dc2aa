package artifact

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"baytt/internal/pkg/id"
	"baytt/internal/pkg/storage"
)

// Store 产物存储，在 storage.Storage 之上按电影组织 key
// key: movies/{movie_id}/{kind}/{short_id}{ext}
type Store struct {
	storage    storage.Storage
	httpClient *http.Client
}

// NewStore 创建产物存储
func NewStore(s storage.Storage) *Store {
	return &Store{
		storage:    s,
		httpClient: &http.Client{Timeout: 5 * time.Minute},
	}
}

// Put 保存字节数据，返回可访问的 URL
func (s *Store) Put(ctx context.Context, movieID, kind string, data []byte, contentType string) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("artifact %s is empty", kind)
	}
	key := Key(movieID, kind, contentType)
	url, err := s.storage.Upload(ctx, key, bytes.NewReader(data), contentType)
	if err != nil {
		return "", fmt.Errorf("store %s: %w", kind, err)
	}
	return url, nil
}

// PutFile 保存本地文件
func (s *Store) PutFile(ctx context.Context, movieID, kind, path, contentType string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	url, err := s.storage.Upload(ctx, Key(movieID, kind, contentType), f, contentType)
	if err != nil {
		return "", fmt.Errorf("store %s: %w", kind, err)
	}
	return url, nil
}

// Key 生成对象 key
func Key(movieID, kind, contentType string) string {
	if movieID == "" {
		movieID = "shared"
	}
	return fmt.Sprintf("movies/%s/%s/%s%s", movieID, kind, id.Short(), storage.ContentTypeExt(contentType))
}

// Fetch 读取 URL 内容，支持 data URL、本存储签发的 URL 和 http(s)
func (s *Store) Fetch(ctx context.Context, url string) ([]byte, error) {
	if strings.HasPrefix(url, "data:") {
		return decodeDataURL(url)
	}
	if p, ok := s.localPath(url); ok {
		return os.ReadFile(p)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// Materialize 保证 URL 在本地有文件可读，返回路径
// 本地存储直接返回磁盘路径，其他情况下载到 dir
func (s *Store) Materialize(ctx context.Context, url, dir, name string) (string, error) {
	if p, ok := s.localPath(url); ok {
		return p, nil
	}
	data, err := s.Fetch(ctx, url)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create work dir: %w", err)
	}
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, data, 0644); err != nil {
		return "", fmt.Errorf("write %s: %w", p, err)
	}
	return p, nil
}

// Inline 本存储签发的本地地址转为 data URL，外部服务无法访问本机文件
// 其他地址原样返回
func (s *Store) Inline(ctx context.Context, url string) (string, error) {
	p, ok := s.localPath(url)
	if !ok {
		return url, nil
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", p, err)
	}
	return "data:" + http.DetectContentType(data) + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

// LocalPath 本存储签发的地址对应的磁盘路径
func (s *Store) LocalPath(url string) (string, bool) {
	return s.localPath(url)
}

func (s *Store) localPath(url string) (string, bool) {
	r, ok := s.storage.(storage.PathResolver)
	if !ok {
		return "", false
	}
	return r.PathForURL(url)
}

func decodeDataURL(url string) ([]byte, error) {
	_, payload, ok := strings.Cut(url, ",")
	if !ok || payload == "" {
		return nil, fmt.Errorf("malformed data URL")
	}
	return base64.StdEncoding.DecodeString(payload)
}
