package service

import (
	"context"
	"io"
	"time"

	"time-capsule/internal/model"
)

// ProfileStore 档案存储
type ProfileStore interface {
	Create(ctx context.Context, p *model.Profile) error
	GetByID(ctx context.Context, id uint) (*model.Profile, error)
	GetByEmail(ctx context.Context, email string) (*model.Profile, error)
	GetByIDs(ctx context.Context, ids []uint) ([]*model.Profile, error)
	UsernameTaken(ctx context.Context, username string, exceptID uint) (bool, error)
	Update(ctx context.Context, id uint, fields map[string]interface{}) error
	UpdateStatus(ctx context.Context, id uint, status string) error
	SearchByHandle(ctx context.Context, query string, limit int) ([]*model.Profile, error)
}

// FriendshipStore 好友关系存储
type FriendshipStore interface {
	Create(ctx context.Context, f *model.Friendship) error
	GetByID(ctx context.Context, id uint) (*model.Friendship, error)
	FindBetween(ctx context.Context, a, b uint) (*model.Friendship, error)
	Accepted(ctx context.Context, a, b uint) (bool, error)
	TransitionStatus(ctx context.Context, id uint, from, to string) (bool, error)
	ListFor(ctx context.Context, id uint) ([]*model.Friendship, error)
}

// MessageStore 私信存储
type MessageStore interface {
	Create(ctx context.Context, m *model.DirectMessage) error
	GetByIDs(ctx context.Context, ids []uint) ([]*model.DirectMessage, error)
	Thread(ctx context.Context, a, b uint) ([]*model.DirectMessage, error)
	History(ctx context.Context, id uint) ([]*model.DirectMessage, error)
	MarkRead(ctx context.Context, receiverID uint, ids []uint, at time.Time) (int64, error)
	UnreadCount(ctx context.Context, receiverID uint) (int64, error)
	UnreadBySender(ctx context.Context, receiverID uint) (map[uint]int64, error)
}

// CapsuleStore 时间胶囊存储
type CapsuleStore interface {
	Create(ctx context.Context, c *model.TimeCapsule) error
	Get(ctx context.Context, userID, id uint) (*model.TimeCapsule, error)
	ListByUser(ctx context.Context, userID uint) ([]*model.TimeCapsule, error)
	UpdateUnsealed(ctx context.Context, userID, id uint, fields map[string]interface{}) (bool, error)
	Update(ctx context.Context, userID, id uint, fields map[string]interface{}) error
	ToggleFavorite(ctx context.Context, userID, id uint) error
	Delete(ctx context.Context, userID, id uint) error
}

// VoiceStore 语音动态存储
type VoiceStore interface {
	Create(ctx context.Context, v *model.VoicePost) error
	Feed(ctx context.Context, limit, offset int) ([]*model.VoicePost, error)
	ByUser(ctx context.Context, userID uint) ([]*model.VoicePost, error)
	Delete(ctx context.Context, userID, id uint) error
}

// GamificationStore 奖励与竞赛存储
type GamificationStore interface {
	Awards(ctx context.Context, profileID uint) ([]*model.ProfileAward, error)
	CreateAward(ctx context.Context, a *model.ProfileAward) error
	RecordParticipation(ctx context.Context, p *model.OlympiadParticipation, ratingDelta int) error
	Participations(ctx context.Context, profileID uint) ([]*model.OlympiadParticipation, error)
}

// SettingsStore 全局设置存储
type SettingsStore interface {
	Get(ctx context.Context) (*model.AdminSettings, error)
	Save(ctx context.Context, s *model.AdminSettings) error
}

// ObjectStore 对象存储
type ObjectStore interface {
	Upload(ctx context.Context, bucket, key string, body io.Reader, contentType string) (string, error)
	Delete(ctx context.Context, bucket, key string) error
}

// UnreadCache 未读计数缓存
type UnreadCache interface {
	IncrUnread(ctx context.Context, profileID uint) error
	DecrUnread(ctx context.Context, profileID uint, n int64) error
	GetUnread(ctx context.Context, profileID uint) (int64, bool, error)
	SetUnread(ctx context.Context, profileID uint, count int64) error
}

// PresenceStore 在线状态
type PresenceStore interface {
	SetPresence(ctx context.Context, profileID uint, status string) error
	IsOnline(ctx context.Context, profileID uint) (bool, error)
}

// TokenIssuer 令牌签发
type TokenIssuer interface {
	GenerateToken(profileID uint, extra map[string]interface{}) (string, error)
}

// Recorder 业务指标
type Recorder interface {
	MessageSent(msgType string)
	CapsuleAction(action string)
	FriendshipEvent(status string)
}

// Buckets 对象存储 bucket 名称
type Buckets struct {
	Avatar  string
	Capsule string
	Voice   string
}

// Upload 待上传的文件
type Upload struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

type nopRecorder struct{}

func (nopRecorder) MessageSent(string)     {}
func (nopRecorder) CapsuleAction(string)   {}
func (nopRecorder) FriendshipEvent(string) {}

// NopRecorder 不记录任何指标
func NopRecorder() Recorder { return nopRecorder{} }
