package repository

import (
	"context"

	"time-capsule/internal/model"

	"gorm.io/gorm"
)

// GamificationRepository 奖励与竞赛记录仓储
type GamificationRepository struct {
	db *gorm.DB
}

// NewGamificationRepository 创建GamificationRepository实例
func NewGamificationRepository(db *gorm.DB) *GamificationRepository {
	return &GamificationRepository{db: db}
}

// Awards 档案的全部奖励
func (r *GamificationRepository) Awards(ctx context.Context, profileID uint) ([]*model.ProfileAward, error) {
	var out []*model.ProfileAward
	err := r.db.WithContext(ctx).Where("profile_id = ?", profileID).Order("awarded_at DESC").Find(&out).Error
	return out, translate(err)
}

// CreateAward 颁发奖励
func (r *GamificationRepository) CreateAward(ctx context.Context, a *model.ProfileAward) error {
	return translate(r.db.WithContext(ctx).Create(a).Error)
}

// RecordParticipation 在同一事务中写入参与记录并累加档案计数
func (r *GamificationRepository) RecordParticipation(ctx context.Context, p *model.OlympiadParticipation, ratingDelta int) error {
	return translate(r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(p).Error; err != nil {
			return err
		}
		res := tx.Model(&model.Profile{}).
			Where("id = ?", p.ProfileID).
			Updates(map[string]interface{}{
				"completed_stages": gorm.Expr("completed_stages + ?", p.StagesCompleted),
				"total_olympiads":  gorm.Expr("total_olympiads + ?", 1),
				"rating":           gorm.Expr("rating + ?", ratingDelta),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	}))
}

// Participations 档案的竞赛参与记录
func (r *GamificationRepository) Participations(ctx context.Context, profileID uint) ([]*model.OlympiadParticipation, error) {
	var out []*model.OlympiadParticipation
	err := r.db.WithContext(ctx).Where("profile_id = ?", profileID).Order("created_at DESC").Find(&out).Error
	return out, translate(err)
}
