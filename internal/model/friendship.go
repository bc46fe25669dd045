package model

import (
	"time"

	"gorm.io/gorm"
)

// 好友关系状态
const (
	FriendshipPending  = "pending"
	FriendshipAccepted = "accepted"
	FriendshipRejected = "rejected"
)

// Friendship 好友关系
// UserID 为发起方，FriendID 为接收方
// PairLow/PairHigh 为无序对，唯一索引保证一对档案只有一行
type Friendship struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index;comment:发起方ID" json:"user_id"`
	FriendID  uint      `gorm:"not null;index;comment:接收方ID" json:"friend_id"`
	PairLow   uint      `gorm:"not null;uniqueIndex:idx_friend_pair;comment:较小ID" json:"-"`
	PairHigh  uint      `gorm:"not null;uniqueIndex:idx_friend_pair;comment:较大ID" json:"-"`
	Status    string    `gorm:"type:varchar(16);not null;default:'pending';comment:关系状态" json:"status"`
	CreatedAt time.Time `gorm:"comment:创建时间" json:"created_at"`
	UpdatedAt time.Time `gorm:"comment:更新时间" json:"updated_at"`
}

func (Friendship) TableName() string { return "friendship" }

// OrderedPair 返回 (较小ID, 较大ID)
func OrderedPair(a, b uint) (uint, uint) {
	if a > b {
		return b, a
	}
	return a, b
}

// BeforeCreate 写入前填充无序对
func (f *Friendship) BeforeCreate(tx *gorm.DB) error {
	f.PairLow, f.PairHigh = OrderedPair(f.UserID, f.FriendID)
	return nil
}

// Counterpart 返回关系中另一方的ID
func (f *Friendship) Counterpart(me uint) uint {
	if f.UserID == me {
		return f.FriendID
	}
	return f.UserID
}

// Involves 是否涉及该档案
func (f *Friendship) Involves(id uint) bool {
	return f.UserID == id || f.FriendID == id
}
