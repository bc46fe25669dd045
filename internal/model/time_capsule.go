package model

import (
	"time"
)

// TimeCapsule 时间胶囊
// 未封存时可编辑；封存后只允许解封、收藏与删除
type TimeCapsule struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	UserID     uint       `gorm:"not null;index;comment:所属档案ID" json:"user_id"`
	Title      string     `gorm:"type:varchar(255);not null;default:'';comment:标题" json:"title"`
	Message    string     `gorm:"type:text;comment:内容" json:"message"`
	ImageURL   string     `gorm:"type:varchar(512);comment:图片地址" json:"image_url"`
	OpenDate   *time.Time `gorm:"type:date;comment:开启日期" json:"open_date"`
	IsSealed   bool       `gorm:"not null;default:false;comment:是否封存" json:"is_sealed"`
	IsFavorite bool       `gorm:"not null;default:false;comment:是否收藏" json:"is_favorite"`
	CreatedAt  time.Time  `gorm:"comment:创建时间" json:"created_at"`
	UpdatedAt  time.Time  `gorm:"comment:更新时间" json:"updated_at"`
}

func (TimeCapsule) TableName() string { return "time_capsule" }

// Record 转为实时事件记录
func (c *TimeCapsule) Record() map[string]interface{} {
	return map[string]interface{}{
		"id":          c.ID,
		"user_id":     c.UserID,
		"title":       c.Title,
		"is_sealed":   c.IsSealed,
		"is_favorite": c.IsFavorite,
		"open_date":   c.OpenDate,
	}
}
