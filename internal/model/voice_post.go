package model

import "time"

// VoicePost 公开语音动态
type VoicePost struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"not null;index;comment:发布者ID" json:"user_id"`
	Title       string    `gorm:"type:varchar(255);comment:标题" json:"title"`
	AudioURL    string    `gorm:"type:varchar(512);not null;comment:音频地址" json:"audio_url"`
	DurationSec int       `gorm:"not null;default:0;comment:时长(秒)" json:"duration_sec"`
	CreatedAt   time.Time `gorm:"index;comment:创建时间" json:"created_at"`
}

func (VoicePost) TableName() string { return "voice_post" }
