package model

import "time"

// 奖励类型
const (
	AwardAchievement = "achievement"
	AwardMedal       = "medal"
	AwardCertificate = "certificate"
)

// ProfileAward 成就/奖牌/证书
type ProfileAward struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ProfileID uint      `gorm:"not null;index;comment:档案ID" json:"profile_id"`
	Kind      string    `gorm:"type:varchar(16);not null;comment:类型" json:"kind"`
	Name      string    `gorm:"type:varchar(255);not null;comment:名称" json:"name"`
	AwardedAt time.Time `gorm:"comment:获得时间" json:"awarded_at"`
}

func (ProfileAward) TableName() string { return "profile_award" }

// OlympiadParticipation 竞赛参与记录
type OlympiadParticipation struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	ProfileID       uint      `gorm:"not null;index;comment:档案ID" json:"profile_id"`
	Title           string    `gorm:"type:varchar(255);not null;comment:竞赛名称" json:"title"`
	StagesCompleted int       `gorm:"not null;default:0;comment:完成阶段数" json:"stages_completed"`
	CreatedAt       time.Time `gorm:"comment:创建时间" json:"created_at"`
}

func (OlympiadParticipation) TableName() string { return "olympiad_participation" }
