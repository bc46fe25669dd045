package handler

import (
	"context"

	"time-capsule/internal/model"
	"time-capsule/internal/service"
)

// 处理器依赖的服务接口，由 internal/service 中的实现满足

// AuthAPI 认证
type AuthAPI interface {
	Register(ctx context.Context, email, password, confirm string) (*model.Profile, string, error)
	Login(ctx context.Context, email, password string) (*model.Profile, string, error)
	Logout(ctx context.Context, identity uint) error
	Session(ctx context.Context, identity uint) (*model.Profile, error)
	Refresh(ctx context.Context, identity uint) (string, error)
}

// ProfileAPI 档案
type ProfileAPI interface {
	Get(ctx context.Context, id uint) (*model.Profile, error)
	UpdateUsername(ctx context.Context, identity uint, username string) (*model.Profile, error)
	SetHandle(ctx context.Context, identity uint, handle string) (*model.Profile, error)
	UploadAvatar(ctx context.Context, identity uint, file service.Upload) (*model.Profile, error)
	ChangePassword(ctx context.Context, identity uint, oldPassword, newPassword, confirm string) error
	Search(ctx context.Context, query string) ([]*model.Profile, error)
	AdminUpdate(ctx context.Context, identity, id uint, upd service.AdminProfileUpdate) (*model.Profile, error)
	Online(ctx context.Context, id uint) (bool, error)
}

// FriendshipAPI 好友关系
type FriendshipAPI interface {
	Request(ctx context.Context, identity, friendID uint) (*model.Friendship, error)
	Respond(ctx context.Context, identity, id uint, status string) (*model.Friendship, error)
	List(ctx context.Context, identity uint) (*service.FriendList, error)
}

// MessageAPI 私信
type MessageAPI interface {
	OpenThread(ctx context.Context, identity, counterpart uint) ([]*model.DirectMessage, error)
	Send(ctx context.Context, identity, counterpart uint, content string) (*model.DirectMessage, error)
	SendVoice(ctx context.Context, identity, counterpart uint, audio service.Upload) (*model.DirectMessage, error)
	MarkRead(ctx context.Context, identity uint, ids []uint) (int64, error)
	Conversations(ctx context.Context, identity uint) ([]service.Conversation, error)
	UnreadCount(ctx context.Context, identity uint) (int64, error)
}

// CapsuleAPI 时间胶囊
type CapsuleAPI interface {
	Get(ctx context.Context, identity, id uint) (*model.TimeCapsule, error)
	CreateDraft(ctx context.Context, identity uint, in service.CapsuleInput) (*model.TimeCapsule, error)
	Update(ctx context.Context, identity, id uint, in service.CapsuleInput) (*model.TimeCapsule, error)
	Seal(ctx context.Context, identity, id uint, in service.CapsuleInput) (*model.TimeCapsule, error)
	Unseal(ctx context.Context, identity, id uint) (*model.TimeCapsule, error)
	ToggleFavorite(ctx context.Context, identity, id uint) (*model.TimeCapsule, error)
	Delete(ctx context.Context, identity, id uint) error
	UploadImage(ctx context.Context, identity, id uint, file service.Upload) (*model.TimeCapsule, error)
	List(ctx context.Context, identity uint, opts service.ListOptions) ([]*model.TimeCapsule, error)
}

// VoiceAPI 语音动态
type VoiceAPI interface {
	Create(ctx context.Context, identity uint, title string, durationSec int, audio service.Upload) (*model.VoicePost, error)
	Feed(ctx context.Context, limit, offset int) ([]*model.VoicePost, error)
	Mine(ctx context.Context, identity uint) ([]*model.VoicePost, error)
	Delete(ctx context.Context, identity, id uint) error
}

// GamificationAPI 积分与奖励
type GamificationAPI interface {
	Awards(ctx context.Context, profileID uint) (*service.AwardGroups, error)
	Progress(ctx context.Context, profileID uint) (*service.Progress, error)
	Participations(ctx context.Context, profileID uint) ([]*model.OlympiadParticipation, error)
	RecordParticipation(ctx context.Context, identity uint, title string, stages int) (*model.OlympiadParticipation, error)
	GrantAward(ctx context.Context, identity, profileID uint, kind, name string) (*model.ProfileAward, error)
}

// SettingsAPI 全局设置
type SettingsAPI interface {
	Get(ctx context.Context) (*model.AdminSettings, error)
	Update(ctx context.Context, identity uint, minOrder, multiplier float64) (*model.AdminSettings, error)
}
