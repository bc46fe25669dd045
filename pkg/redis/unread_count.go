package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// 未读消息计数相关常量
const (
	UnreadCountKeyPrefix = "capsule:unread:" // 未读消息计数key前缀
	UnreadCountTTL       = 24 * time.Hour
)

// UnreadKey 未读计数key
func UnreadKey(profileID uint) string {
	return fmt.Sprintf("%s%d", UnreadCountKeyPrefix, profileID)
}

// IncrUnread 增加未读计数
func (s *Store) IncrUnread(ctx context.Context, profileID uint) error {
	key := UnreadKey(profileID)

	pipe := s.client.TxPipeline()
	pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, UnreadCountTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("增加未读消息计数失败: %w", err)
	}
	return nil
}

// DecrUnread 减少未读计数，不低于0
func (s *Store) DecrUnread(ctx context.Context, profileID uint, n int64) error {
	if n <= 0 {
		return nil
	}
	key := UnreadKey(profileID)

	count, err := s.client.DecrBy(ctx, key, n).Result()
	if err != nil {
		return fmt.Errorf("减少未读消息计数失败: %w", err)
	}
	// 计数为0或负数时删除key，下次读取从数据库重建
	if count <= 0 {
		s.client.Del(ctx, key)
	}
	return nil
}

// GetUnread 获取未读计数，found=false 表示缓存缺失需回源数据库
func (s *Store) GetUnread(ctx context.Context, profileID uint) (count int64, found bool, err error) {
	count, err = s.client.Get(ctx, UnreadKey(profileID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("获取未读消息计数失败: %w", err)
	}
	return count, true, nil
}

// SetUnread 设置未读计数（用于回源后重建）
func (s *Store) SetUnread(ctx context.Context, profileID uint, count int64) error {
	if err := s.client.Set(ctx, UnreadKey(profileID), count, UnreadCountTTL).Err(); err != nil {
		return fmt.Errorf("设置未读消息计数失败: %w", err)
	}
	return nil
}
