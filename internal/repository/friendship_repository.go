package repository

import (
	"context"

	"time-capsule/internal/model"

	"gorm.io/gorm"
)

// FriendshipRepository 好友关系仓储
type FriendshipRepository struct {
	db *gorm.DB
}

// NewFriendshipRepository 创建FriendshipRepository实例
func NewFriendshipRepository(db *gorm.DB) *FriendshipRepository {
	return &FriendshipRepository{db: db}
}

// Create 创建好友请求，同一无序对已存在时返回 ErrDuplicate
func (r *FriendshipRepository) Create(ctx context.Context, f *model.Friendship) error {
	return translate(r.db.WithContext(ctx).Create(f).Error)
}

// GetByID 根据ID获取
func (r *FriendshipRepository) GetByID(ctx context.Context, id uint) (*model.Friendship, error) {
	var f model.Friendship
	if err := r.db.WithContext(ctx).First(&f, id).Error; err != nil {
		return nil, translate(err)
	}
	return &f, nil
}

// FindBetween 查找两人之间的关系（任意方向）
func (r *FriendshipRepository) FindBetween(ctx context.Context, a, b uint) (*model.Friendship, error) {
	low, high := model.OrderedPair(a, b)
	var f model.Friendship
	err := r.db.WithContext(ctx).
		Where("pair_low = ? AND pair_high = ?", low, high).
		First(&f).Error
	if err != nil {
		return nil, translate(err)
	}
	return &f, nil
}

// Accepted 两人之间是否存在已接受的关系
func (r *FriendshipRepository) Accepted(ctx context.Context, a, b uint) (bool, error) {
	low, high := model.OrderedPair(a, b)
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Friendship{}).
		Where("pair_low = ? AND pair_high = ? AND status = ?", low, high, model.FriendshipAccepted).
		Count(&count).Error
	return count > 0, translate(err)
}

// TransitionStatus 仅当当前状态为 from 时更新为 to，返回是否更新成功
func (r *FriendshipRepository) TransitionStatus(ctx context.Context, id uint, from, to string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Friendship{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return false, translate(res.Error)
	}
	return res.RowsAffected > 0, nil
}

// ListFor 获取涉及该档案的全部关系
func (r *FriendshipRepository) ListFor(ctx context.Context, id uint) ([]*model.Friendship, error) {
	var out []*model.Friendship
	err := r.db.WithContext(ctx).
		Where("user_id = ? OR friend_id = ?", id, id).
		Order("created_at DESC").
		Find(&out).Error
	return out, translate(err)
}
