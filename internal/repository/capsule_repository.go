package repository

import (
	"context"

	"time-capsule/internal/model"

	"gorm.io/gorm"
)

// CapsuleRepository 时间胶囊仓储
// 所有查询都带 user_id 条件，他人胶囊视为不存在
type CapsuleRepository struct {
	db *gorm.DB
}

// NewCapsuleRepository 创建CapsuleRepository实例
func NewCapsuleRepository(db *gorm.DB) *CapsuleRepository {
	return &CapsuleRepository{db: db}
}

// Create 创建胶囊
func (r *CapsuleRepository) Create(ctx context.Context, c *model.TimeCapsule) error {
	return translate(r.db.WithContext(ctx).Create(c).Error)
}

// Get 获取本人的胶囊
func (r *CapsuleRepository) Get(ctx context.Context, userID, id uint) (*model.TimeCapsule, error) {
	var c model.TimeCapsule
	err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&c).Error
	if err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

// ListByUser 本人的全部胶囊
func (r *CapsuleRepository) ListByUser(ctx context.Context, userID uint) ([]*model.TimeCapsule, error) {
	var out []*model.TimeCapsule
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Find(&out).Error
	return out, translate(err)
}

// UpdateUnsealed 仅当胶囊未封存时更新，返回是否更新成功
func (r *CapsuleRepository) UpdateUnsealed(ctx context.Context, userID, id uint, fields map[string]interface{}) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.TimeCapsule{}).
		Where("id = ? AND user_id = ? AND is_sealed = ?", id, userID, false).
		Updates(fields)
	if res.Error != nil {
		return false, translate(res.Error)
	}
	return res.RowsAffected > 0, nil
}

// Update 不论封存状态更新指定字段
func (r *CapsuleRepository) Update(ctx context.Context, userID, id uint, fields map[string]interface{}) error {
	return translate(r.db.WithContext(ctx).Model(&model.TimeCapsule{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(fields).Error)
}

// ToggleFavorite 翻转收藏标记
func (r *CapsuleRepository) ToggleFavorite(ctx context.Context, userID, id uint) error {
	res := r.db.WithContext(ctx).Model(&model.TimeCapsule{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("is_favorite", gorm.Expr("NOT is_favorite"))
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete 删除本人的胶囊
func (r *CapsuleRepository) Delete(ctx context.Context, userID, id uint) error {
	res := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&model.TimeCapsule{})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
