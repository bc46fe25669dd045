package model

import (
	"time"
)

// 角色
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// 在线状态
const (
	StatusOnline  = "online"
	StatusOffline = "offline"
)

// Profile 用户档案
// 邮箱唯一；CustomID 为可选的唯一公开ID（用于搜索）
// 密码仅存储哈希（PasswordHash），不存储明文
// Status/LastSeen 记录在线状态
type Profile struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	Email           string    `gorm:"type:varchar(128);not null;uniqueIndex;comment:邮箱" json:"email"`
	PasswordHash    string    `gorm:"type:varchar(255);not null;comment:密码哈希" json:"-"`
	Username        *string   `gorm:"type:varchar(64);index;comment:显示名" json:"username"`
	CustomID        *string   `gorm:"type:varchar(64);uniqueIndex;comment:公开ID" json:"custom_id"`
	AvatarURL       string    `gorm:"type:varchar(512);comment:头像URL" json:"avatar_url"`
	Role            string    `gorm:"type:varchar(16);not null;default:'user';comment:角色" json:"role"`
	Rating          int       `gorm:"not null;default:0;comment:积分" json:"rating"`
	Rank            string    `gorm:"type:varchar(64);comment:等级" json:"rank"`
	CompletedStages int       `gorm:"not null;default:0;comment:完成阶段数" json:"completed_stages"`
	TotalOlympiads  int       `gorm:"not null;default:0;comment:参加竞赛次数" json:"total_olympiads"`
	Status          string    `gorm:"type:varchar(16);default:'offline';comment:在线状态" json:"status"`
	LastSeen        time.Time `gorm:"comment:最近在线时间" json:"last_seen"`
	CreatedAt       time.Time `gorm:"comment:创建时间" json:"created_at"`
	UpdatedAt       time.Time `gorm:"comment:更新时间" json:"updated_at"`
}

func (Profile) TableName() string { return "profile" }

// IsAdmin 是否管理员
func (p *Profile) IsAdmin() bool {
	return p != nil && p.Role == RoleAdmin
}

// DisplayName 显示名，未设置时回退到邮箱
func (p *Profile) DisplayName() string {
	if p.Username != nil && *p.Username != "" {
		return *p.Username
	}
	return p.Email
}
