package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// 在线状态
const (
	StatusOnline  = "online"
	StatusOffline = "offline"
)

// 在线状态相关常量
const (
	PresenceKeyPrefix = "capsule:presence:" // 在线状态key前缀
	OnlineProfilesKey = "capsule:online"    // 在线档案集合key
	PresenceTTL       = 2 * time.Minute     // 在线状态TTL（2倍心跳周期以上）
)

// PresenceData 在线状态数据
type PresenceData struct {
	ProfileID uint      `json:"profile_id"`
	Status    string    `json:"status"`
	LastSeen  time.Time `json:"last_seen"`
}

// PresenceKey 在线状态key
func PresenceKey(profileID uint) string {
	return fmt.Sprintf("%s%d", PresenceKeyPrefix, profileID)
}

// SetPresence 设置在线状态
func (s *Store) SetPresence(ctx context.Context, profileID uint, status string) error {
	key := PresenceKey(profileID)

	if status != StatusOnline {
		pipe := s.client.TxPipeline()
		pipe.Del(ctx, key)
		pipe.SRem(ctx, OnlineProfilesKey, profileID)
		if _, err := pipe.Exec(ctx); err != nil {
			return fmt.Errorf("设置离线状态失败: %w", err)
		}
		return nil
	}

	data, err := json.Marshal(PresenceData{ProfileID: profileID, Status: status, LastSeen: time.Now()})
	if err != nil {
		return fmt.Errorf("序列化在线状态失败: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, key, data, PresenceTTL)
	pipe.SAdd(ctx, OnlineProfilesKey, profileID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("设置在线状态失败: %w", err)
	}
	return nil
}

// GetPresence 获取在线状态，不存在时返回 nil
func (s *Store) GetPresence(ctx context.Context, profileID uint) (*PresenceData, error) {
	data, err := s.client.Get(ctx, PresenceKey(profileID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("获取在线状态失败: %w", err)
	}

	var presence PresenceData
	if err := json.Unmarshal(data, &presence); err != nil {
		return nil, fmt.Errorf("反序列化在线状态失败: %w", err)
	}
	return &presence, nil
}

// IsOnline 检查是否在线
func (s *Store) IsOnline(ctx context.Context, profileID uint) (bool, error) {
	n, err := s.client.Exists(ctx, PresenceKey(profileID)).Result()
	if err != nil {
		return false, fmt.Errorf("检查在线状态失败: %w", err)
	}
	return n > 0, nil
}

// RefreshPresence 心跳续期，key已过期时重新写入
func (s *Store) RefreshPresence(ctx context.Context, profileID uint) error {
	ok, err := s.client.Expire(ctx, PresenceKey(profileID), PresenceTTL).Result()
	if err != nil {
		return fmt.Errorf("刷新在线状态失败: %w", err)
	}
	if !ok {
		return s.SetPresence(ctx, profileID, StatusOnline)
	}
	return nil
}

// OnlineProfiles 在线档案ID列表，顺带清理TTL已过期的成员
func (s *Store) OnlineProfiles(ctx context.Context) ([]uint, error) {
	members, err := s.client.SMembers(ctx, OnlineProfilesKey).Result()
	if err != nil {
		return nil, fmt.Errorf("获取在线列表失败: %w", err)
	}

	ids := make([]uint, 0, len(members))
	for _, m := range members {
		id, err := strconv.ParseUint(m, 10, 64)
		if err != nil {
			continue
		}
		online, err := s.IsOnline(ctx, uint(id))
		if err != nil {
			return nil, err
		}
		if !online {
			s.client.SRem(ctx, OnlineProfilesKey, m)
			continue
		}
		ids = append(ids, uint(id))
	}
	return ids, nil
}
