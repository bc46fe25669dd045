package service

import (
	"context"
	"errors"
	"fmt"

	"time-capsule/internal/model"
	"time-capsule/internal/repository"
)

// SettingsService 全局设置
type SettingsService struct {
	settings SettingsStore
	profiles ProfileStore
}

// NewSettingsService 创建SettingsService实例
func NewSettingsService(settings SettingsStore, profiles ProfileStore) *SettingsService {
	return &SettingsService{settings: settings, profiles: profiles}
}

// Get 读取设置，没有记录时返回默认值
func (s *SettingsService) Get(ctx context.Context) (*model.AdminSettings, error) {
	cur, err := s.settings.Get(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			d := model.DefaultAdminSettings()
			return &d, nil
		}
		return nil, fmt.Errorf("load settings: %w", err)
	}
	return cur, nil
}

// Update 管理员修改设置
func (s *SettingsService) Update(ctx context.Context, identity uint, minOrder, multiplier float64) (*model.AdminSettings, error) {
	if minOrder < 0 {
		return nil, invalid("min_order_amount", "最小订单金额不能为负数")
	}
	if multiplier <= 0 {
		return nil, invalid("price_multiplier", "价格系数必须大于0")
	}
	if err := requireAdmin(ctx, s.profiles, identity); err != nil {
		return nil, err
	}

	cur, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}
	cur.MinOrderAmount = minOrder
	cur.PriceMultiplier = multiplier
	if err := s.settings.Save(ctx, cur); err != nil {
		return nil, fmt.Errorf("save settings: %w", err)
	}
	return cur, nil
}
