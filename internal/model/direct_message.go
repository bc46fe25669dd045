package model

import (
	"time"
)

// 消息类型
const (
	MsgTypeText  = "text"
	MsgTypeVoice = "voice"
)

// DirectMessage 私信
// ReadAt 为空表示接收方未读，只会由空变为非空
type DirectMessage struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	SenderID   uint       `gorm:"not null;index:idx_dm_pair,priority:1;comment:发送者ID" json:"sender_id"`
	ReceiverID uint       `gorm:"not null;index:idx_dm_pair,priority:2;index;comment:接收者ID" json:"receiver_id"`
	Content    string     `gorm:"type:text;not null;comment:消息内容" json:"content"`
	MsgType    string     `gorm:"type:varchar(16);not null;default:'text';comment:消息类型" json:"msg_type"`
	MediaURL   string     `gorm:"type:varchar(512);comment:语音地址" json:"media_url,omitempty"`
	ReadAt     *time.Time `gorm:"index;comment:已读时间" json:"read_at"`
	CreatedAt  time.Time  `gorm:"index;comment:创建时间" json:"created_at"`
}

func (DirectMessage) TableName() string { return "direct_message" }

// Counterpart 返回消息中另一方的ID
func (m *DirectMessage) Counterpart(me uint) uint {
	if m.SenderID == me {
		return m.ReceiverID
	}
	return m.SenderID
}

// IsRead 是否已读
func (m *DirectMessage) IsRead() bool {
	return m.ReadAt != nil
}

// Record 转为实时事件记录
func (m *DirectMessage) Record() map[string]interface{} {
	return map[string]interface{}{
		"id":          m.ID,
		"sender_id":   m.SenderID,
		"receiver_id": m.ReceiverID,
		"content":     m.Content,
		"msg_type":    m.MsgType,
		"media_url":   m.MediaURL,
		"read_at":     m.ReadAt,
		"created_at":  m.CreatedAt,
	}
}
