package repository

import (
	"context"
	"time"

	"time-capsule/internal/model"

	"gorm.io/gorm"
)

// MessageRepository 私信数据仓储
type MessageRepository struct {
	db *gorm.DB
}

// NewMessageRepository 创建MessageRepository实例
func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// Create 创建消息
func (r *MessageRepository) Create(ctx context.Context, m *model.DirectMessage) error {
	return translate(r.db.WithContext(ctx).Create(m).Error)
}

// GetByIDs 批量获取消息
func (r *MessageRepository) GetByIDs(ctx context.Context, ids []uint) ([]*model.DirectMessage, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var out []*model.DirectMessage
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("id ASC").Find(&out).Error
	return out, translate(err)
}

// Thread 两人之间的全部消息，按时间升序
func (r *MessageRepository) Thread(ctx context.Context, a, b uint) ([]*model.DirectMessage, error) {
	var out []*model.DirectMessage
	err := r.db.WithContext(ctx).
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)", a, b, b, a).
		Order("created_at ASC").
		Order("id ASC").
		Find(&out).Error
	return out, translate(err)
}

// History 涉及该档案的全部消息，按时间降序
func (r *MessageRepository) History(ctx context.Context, id uint) ([]*model.DirectMessage, error) {
	var out []*model.DirectMessage
	err := r.db.WithContext(ctx).
		Where("sender_id = ? OR receiver_id = ?", id, id).
		Order("created_at DESC").
		Order("id DESC").
		Find(&out).Error
	return out, translate(err)
}

// MarkRead 批量标记已读，只更新本人收到且未读的消息，返回更新条数
func (r *MessageRepository) MarkRead(ctx context.Context, receiverID uint, ids []uint, at time.Time) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).Model(&model.DirectMessage{}).
		Where("id IN ? AND receiver_id = ? AND read_at IS NULL", ids, receiverID).
		Update("read_at", at)
	return res.RowsAffected, translate(res.Error)
}

// UnreadCount 未读消息总数
func (r *MessageRepository) UnreadCount(ctx context.Context, receiverID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.DirectMessage{}).
		Where("receiver_id = ? AND read_at IS NULL", receiverID).
		Count(&count).Error
	return count, translate(err)
}

type senderCount struct {
	SenderID uint
	Total    int64
}

// UnreadBySender 按发送者分组的未读数
func (r *MessageRepository) UnreadBySender(ctx context.Context, receiverID uint) (map[uint]int64, error) {
	var rows []senderCount
	err := r.db.WithContext(ctx).Model(&model.DirectMessage{}).
		Select("sender_id, COUNT(*) AS total").
		Where("receiver_id = ? AND read_at IS NULL", receiverID).
		Group("sender_id").
		Scan(&rows).Error
	if err != nil {
		return nil, translate(err)
	}
	out := make(map[uint]int64, len(rows))
	for _, row := range rows {
		out[row.SenderID] = row.Total
	}
	return out, nil
}
