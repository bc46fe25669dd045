package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"time-capsule/config"

	"github.com/redis/go-redis/v9"
)

// Store 封装Redis客户端，承载未读计数、在线状态与实时事件广播
type Store struct {
	client *redis.Client
}

// New 建立Redis连接并测试
func New(ctx context.Context, cfg config.RedisConfig) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
		// 连接池配置
		PoolSize:     10,
		MinIdleConns: 5,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis连接失败: %w", err)
	}

	return &Store{client: client}, nil
}

// NewFromClient 使用已有客户端
func NewFromClient(client *redis.Client) *Store {
	return &Store{client: client}
}

// Client 获取底层客户端
func (s *Store) Client() *redis.Client {
	return s.client
}

// Close 关闭Redis连接
func (s *Store) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}

// HealthCheck 检查Redis健康状态
func (s *Store) HealthCheck(ctx context.Context) error {
	if s == nil || s.client == nil {
		return errors.New("redis客户端未初始化")
	}
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis连接异常: %w", err)
	}
	return nil
}
