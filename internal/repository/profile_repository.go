package repository

import (
	"context"
	"strings"
	"time"

	"time-capsule/internal/model"

	"gorm.io/gorm"
)

// ProfileRepository 档案数据仓储
type ProfileRepository struct {
	db *gorm.DB
}

// NewProfileRepository 创建ProfileRepository实例
func NewProfileRepository(db *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// Create 创建档案，邮箱重复返回 ErrDuplicate
func (r *ProfileRepository) Create(ctx context.Context, p *model.Profile) error {
	return translate(r.db.WithContext(ctx).Create(p).Error)
}

// GetByID 根据ID获取档案
func (r *ProfileRepository) GetByID(ctx context.Context, id uint) (*model.Profile, error) {
	var p model.Profile
	if err := r.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

// GetByEmail 根据邮箱获取档案
func (r *ProfileRepository) GetByEmail(ctx context.Context, email string) (*model.Profile, error) {
	var p model.Profile
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&p).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

// GetByIDs 批量获取档案
func (r *ProfileRepository) GetByIDs(ctx context.Context, ids []uint) ([]*model.Profile, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var out []*model.Profile
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&out).Error
	return out, translate(err)
}

// UsernameTaken 显示名是否被其他档案占用
func (r *ProfileRepository) UsernameTaken(ctx context.Context, username string, exceptID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Profile{}).
		Where("username = ? AND id <> ?", username, exceptID).
		Count(&count).Error
	return count > 0, translate(err)
}

// Update 更新指定字段，唯一约束冲突返回 ErrDuplicate
func (r *ProfileRepository) Update(ctx context.Context, id uint, fields map[string]interface{}) error {
	return translate(r.db.WithContext(ctx).Model(&model.Profile{}).
		Where("id = ?", id).
		Updates(fields).Error)
}

// UpdateStatus 更新在线状态与最近在线时间
func (r *ProfileRepository) UpdateStatus(ctx context.Context, id uint, status string) error {
	return r.Update(ctx, id, map[string]interface{}{
		"status":    status,
		"last_seen": time.Now(),
	})
}

// SearchByHandle 按公开ID模糊搜索（不区分大小写）
func (r *ProfileRepository) SearchByHandle(ctx context.Context, query string, limit int) ([]*model.Profile, error) {
	var out []*model.Profile
	pattern := "%" + escapeLike(strings.ToLower(query)) + "%"
	err := r.db.WithContext(ctx).
		Where("custom_id IS NOT NULL AND LOWER(custom_id) LIKE ?", pattern).
		Order("custom_id ASC").
		Limit(limit).
		Find(&out).Error
	return out, translate(err)
}

// escapeLike 转义 LIKE 通配符
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
