package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"baytt/internal/config"
)

// RedisCache Redis 缓存封装
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache 创建 Redis 缓存客户端
func NewRedisCache(cfg *config.RedisConfig) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// 测试连接
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &RedisCache{client: client}, nil
}

// Ping 探活
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close 关闭连接
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// 常用 key 模式
const (
	VoiceAssignmentKeyPrefix = "voice:"
	VoiceAssignmentTTL       = 7 * 24 * time.Hour
)

// VoiceAssignmentKey 角色配音分配 key
func VoiceAssignmentKey(movieID string) string {
	return VoiceAssignmentKeyPrefix + movieID
}

// LoadVoices 读取电影的角色 -> voice_id 分配
// 没有记录时返回空 map
func (c *RedisCache) LoadVoices(ctx context.Context, movieID string) (map[string]string, error) {
	m, err := c.client.HGetAll(ctx, VoiceAssignmentKey(movieID)).Result()
	if err == redis.Nil {
		return map[string]string{}, nil
	}
	return m, err
}

// SaveVoices 写入分配结果，已有字段不会被覆盖
func (c *RedisCache) SaveVoices(ctx context.Context, movieID string, voices map[string]string) error {
	if len(voices) == 0 {
		return nil
	}
	key := VoiceAssignmentKey(movieID)
	pipe := c.client.TxPipeline()
	for character, voiceID := range voices {
		pipe.HSetNX(ctx, key, character, voiceID)
	}
	pipe.Expire(ctx, key, VoiceAssignmentTTL)
	_, err := pipe.Exec(ctx)
	return err
}
