package model

import "time"

// AdminSettings 全局设置，单行
type AdminSettings struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	MinOrderAmount  float64   `gorm:"not null;default:0;comment:最小订单金额" json:"min_order_amount"`
	PriceMultiplier float64   `gorm:"not null;default:1;comment:价格系数" json:"price_multiplier"`
	CreatedAt       time.Time `gorm:"comment:创建时间" json:"created_at"`
	UpdatedAt       time.Time `gorm:"comment:更新时间" json:"updated_at"`
}

func (AdminSettings) TableName() string { return "admin_settings" }

// DefaultAdminSettings 尚无记录时的默认值
func DefaultAdminSettings() AdminSettings {
	return AdminSettings{MinOrderAmount: 0, PriceMultiplier: 1}
}

// All 需要自动迁移的全部模型
func All() []interface{} {
	return []interface{}{
		&Profile{},
		&Friendship{},
		&DirectMessage{},
		&TimeCapsule{},
		&VoicePost{},
		&ProfileAward{},
		&OlympiadParticipation{},
		&AdminSettings{},
	}
}
