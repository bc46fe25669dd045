package repository

import (
	"context"

	"time-capsule/internal/model"

	"gorm.io/gorm"
)

// VoiceRepository 语音动态仓储
type VoiceRepository struct {
	db *gorm.DB
}

// NewVoiceRepository 创建VoiceRepository实例
func NewVoiceRepository(db *gorm.DB) *VoiceRepository {
	return &VoiceRepository{db: db}
}

// Create 创建语音动态
func (r *VoiceRepository) Create(ctx context.Context, v *model.VoicePost) error {
	return translate(r.db.WithContext(ctx).Create(v).Error)
}

// Feed 最新语音动态
func (r *VoiceRepository) Feed(ctx context.Context, limit, offset int) ([]*model.VoicePost, error) {
	var out []*model.VoicePost
	err := r.db.WithContext(ctx).Order("created_at DESC").Order("id DESC").Limit(limit).Offset(offset).Find(&out).Error
	return out, translate(err)
}

// ByUser 某人的语音动态
func (r *VoiceRepository) ByUser(ctx context.Context, userID uint) ([]*model.VoicePost, error) {
	var out []*model.VoicePost
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Find(&out).Error
	return out, translate(err)
}

// Delete 删除本人发布的语音动态
func (r *VoiceRepository) Delete(ctx context.Context, userID, id uint) error {
	res := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&model.VoicePost{})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
