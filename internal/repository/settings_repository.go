package repository

import (
	"context"

	"time-capsule/internal/model"

	"gorm.io/gorm"
)

// SettingsRepository 全局设置仓储
type SettingsRepository struct {
	db *gorm.DB
}

// NewSettingsRepository 创建SettingsRepository实例
func NewSettingsRepository(db *gorm.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// Get 获取设置，尚无记录返回 ErrNotFound
func (r *SettingsRepository) Get(ctx context.Context) (*model.AdminSettings, error) {
	var s model.AdminSettings
	if err := r.db.WithContext(ctx).Order("id ASC").First(&s).Error; err != nil {
		return nil, translate(err)
	}
	return &s, nil
}

// Save 新建或更新设置（ID为0时插入）
func (r *SettingsRepository) Save(ctx context.Context, s *model.AdminSettings) error {
	return translate(r.db.WithContext(ctx).Save(s).Error)
}
