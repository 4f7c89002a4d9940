package storage

import (
	"context"
	"fmt"
	"time"

	"job-agent-go/internal/config"
	"job-agent-go/internal/constants"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
)

// ErrCacheMiss 键不存在时返回，封装底层的 redis.Nil
var ErrCacheMiss = redis.Nil

// Redis 封装Redis客户端
type Redis struct {
	Client *redis.Client
	cfg    *config.RedisConfig
}

// NewRedisAdapter 创建Redis客户端连接
func NewRedisAdapter(cfg *config.RedisConfig) (*Redis, error) {
	if cfg == nil {
		return nil, fmt.Errorf("redis config cannot be nil")
	}
	if cfg.Address == "" {
		return nil, fmt.Errorf("redis address is required")
	}

	opt := &redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,

		// 连接池设置
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,

		// 超时设置
		DialTimeout:  time.Duration(cfg.DialTimeoutSeconds) * time.Second,
		ReadTimeout:  time.Duration(cfg.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeoutSeconds) * time.Second,

		MaxRetries: cfg.MaxRetries,
	}

	client := redis.NewClient(opt)

	// 添加OpenTelemetry钩子，记录所有Redis操作
	if err := redisotel.InstrumentTracing(client); err != nil {
		return nil, fmt.Errorf("failed to instrument Redis with OpenTelemetry: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Address, err)
	}

	return &Redis{Client: client, cfg: cfg}, nil
}

// Close 关闭Redis连接
func (r *Redis) Close() error {
	return r.Client.Close()
}

// GetCachedResumeText 读取简历提取文本缓存，未命中返回 ErrCacheMiss
func (r *Redis) GetCachedResumeText(ctx context.Context, fileKey string) (string, error) {
	key := fmt.Sprintf(constants.KeyResumeExtractedText, fileKey)
	return r.Client.Get(ctx, key).Result()
}

// SetCachedResumeText 写入简历提取文本缓存
func (r *Redis) SetCachedResumeText(ctx context.Context, fileKey string, text string) error {
	key := fmt.Sprintf(constants.KeyResumeExtractedText, fileKey)
	return r.Client.Set(ctx, key, text, constants.ResumeTextCacheTTL).Err()
}

// DeleteCachedResumeText 删除简历提取文本缓存（简历被删除时调用）
func (r *Redis) DeleteCachedResumeText(ctx context.Context, fileKey string) error {
	key := fmt.Sprintf(constants.KeyResumeExtractedText, fileKey)
	return r.Client.Del(ctx, key).Err()
}
