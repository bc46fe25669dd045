package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"time-capsule/internal/model"
	"time-capsule/internal/repository"
	"time-capsule/pkg/logger"
	"time-capsule/pkg/realtime"
	"time-capsule/pkg/storage"

	"go.uber.org/zap"
)

// MaxMessageLength 单条消息最大字符数
const MaxMessageLength = 4000

// FriendGate 好友关系校验
type FriendGate interface {
	AreFriends(ctx context.Context, a, b uint) bool
}

// MessageService 私信服务
type MessageService struct {
	messages  MessageStore
	profiles  ProfileStore
	gate      FriendGate
	objects   ObjectStore
	bucket    string
	unread    UnreadCache
	publisher realtime.Publisher
	recorder  Recorder
	now       func() time.Time
}

// MessageDeps MessageService 依赖
type MessageDeps struct {
	Messages    MessageStore
	Profiles    ProfileStore
	Gate        FriendGate
	Objects     ObjectStore
	VoiceBucket string
	Unread      UnreadCache // 可为 nil，此时只使用数据库计数
	Publisher   realtime.Publisher
	Recorder    Recorder
	Now         func() time.Time
}

// NewMessageService 创建MessageService实例
func NewMessageService(d MessageDeps) *MessageService {
	if d.Recorder == nil {
		d.Recorder = NopRecorder()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return &MessageService{
		messages:  d.Messages,
		profiles:  d.Profiles,
		gate:      d.Gate,
		objects:   d.Objects,
		bucket:    d.VoiceBucket,
		unread:    d.Unread,
		publisher: d.Publisher,
		recorder:  d.Recorder,
		now:       d.Now,
	}
}

// OpenThread 打开与对方的会话
// 非好友时返回空列表与 ErrNotFriends；否则按时间升序返回全部消息，并把对方发来的未读消息一次性标记为已读
func (s *MessageService) OpenThread(ctx context.Context, identity, counterpart uint) ([]*model.DirectMessage, error) {
	if err := s.checkCounterpart(ctx, identity, counterpart); err != nil {
		return []*model.DirectMessage{}, err
	}

	thread, err := s.messages.Thread(ctx, identity, counterpart)
	if err != nil {
		return nil, fmt.Errorf("load thread: %w", err)
	}

	var unread []uint
	for _, m := range thread {
		if m.SenderID == counterpart && m.ReceiverID == identity && m.ReadAt == nil {
			unread = append(unread, m.ID)
		}
	}
	if len(unread) == 0 {
		return thread, nil
	}

	at := s.now()
	n, err := s.messages.MarkRead(ctx, identity, unread, at)
	if err != nil {
		// 已读回执失败不影响读取
		logger.Warn("标记已读失败", zap.Uint("profile_id", identity), zap.Error(err))
		return thread, nil
	}
	marked := make(map[uint]bool, len(unread))
	for _, id := range unread {
		marked[id] = true
	}
	for _, m := range thread {
		if marked[m.ID] {
			t := at
			m.ReadAt = &t
			s.publishMessage(ctx, realtime.EventUpdate, m)
		}
	}
	s.adjustUnread(ctx, identity, n)
	return thread, nil
}

// Send 发送文本消息
func (s *MessageService) Send(ctx context.Context, identity, counterpart uint, content string) (*model.DirectMessage, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, invalid("content", "消息内容不能为空")
	}
	if utf8.RuneCountInString(content) > MaxMessageLength {
		return nil, invalid("content", "消息内容过长")
	}
	if err := s.checkCounterpart(ctx, identity, counterpart); err != nil {
		return nil, err
	}

	m := &model.DirectMessage{
		SenderID:   identity,
		ReceiverID: counterpart,
		Content:    content,
		MsgType:    model.MsgTypeText,
		CreatedAt:  s.now(),
	}
	if err := s.store(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// SendVoice 发送语音消息：先上传音频再写入消息
func (s *MessageService) SendVoice(ctx context.Context, identity, counterpart uint, audio Upload) (*model.DirectMessage, error) {
	if audio.Body == nil || audio.Filename == "" {
		return nil, invalid("file", "请选择语音文件")
	}
	if err := s.checkCounterpart(ctx, identity, counterpart); err != nil {
		return nil, err
	}

	key := storage.ObjectKey(fmt.Sprintf("dm-%d", identity), audio.Filename)
	url, err := s.objects.Upload(ctx, s.bucket, key, audio.Body, audio.ContentType)
	if err != nil {
		if errors.Is(err, storage.ErrEmptyObject) {
			return nil, invalid("file", "语音文件为空")
		}
		return nil, fmt.Errorf("upload voice: %w", err)
	}

	m := &model.DirectMessage{
		SenderID:   identity,
		ReceiverID: counterpart,
		MsgType:    model.MsgTypeVoice,
		MediaURL:   url,
		CreatedAt:  s.now(),
	}
	if err := s.store(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// MarkRead 接收方批量标记已读，重复标记无效果
func (s *MessageService) MarkRead(ctx context.Context, identity uint, ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	n, err := s.messages.MarkRead(ctx, identity, ids, s.now())
	if err != nil {
		return 0, fmt.Errorf("mark read: %w", err)
	}
	if n == 0 {
		return 0, nil
	}

	updated, err := s.messages.GetByIDs(ctx, ids)
	if err != nil {
		logger.Warn("读取已读消息失败", zap.Error(err))
	} else {
		for _, m := range updated {
			if m.ReceiverID == identity && m.ReadAt != nil {
				s.publishMessage(ctx, realtime.EventUpdate, m)
			}
		}
	}
	s.adjustUnread(ctx, identity, n)
	return n, nil
}

// Conversations 会话列表：每个对方一条最新消息，附带对方档案与未读数
func (s *MessageService) Conversations(ctx context.Context, identity uint) ([]Conversation, error) {
	history, err := s.messages.History(ctx, identity)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	convs := DeriveConversations(identity, history)
	if len(convs) == 0 {
		return convs, nil
	}

	ids := make([]uint, 0, len(convs))
	for _, c := range convs {
		ids = append(ids, c.CounterpartID)
	}
	profiles, err := s.profiles.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load profiles: %w", err)
	}
	byID := make(map[uint]*model.Profile, len(profiles))
	for _, p := range profiles {
		byID[p.ID] = p
	}
	counts, err := s.messages.UnreadBySender(ctx, identity)
	if err != nil {
		return nil, fmt.Errorf("count unread: %w", err)
	}

	for i := range convs {
		convs[i].Counterpart = byID[convs[i].CounterpartID]
		convs[i].UnreadCount = counts[convs[i].CounterpartID]
	}
	return convs, nil
}

// UnreadCount 未读总数，优先读缓存，缓存缺失时回源并重建
func (s *MessageService) UnreadCount(ctx context.Context, identity uint) (int64, error) {
	if s.unread != nil {
		count, found, err := s.unread.GetUnread(ctx, identity)
		if err == nil && found && count >= 0 {
			return count, nil
		}
		if err != nil {
			logger.Warn("读取未读缓存失败", zap.Uint("profile_id", identity), zap.Error(err))
		}
	}

	count, err := s.messages.UnreadCount(ctx, identity)
	if err != nil {
		return 0, fmt.Errorf("count unread: %w", err)
	}
	if s.unread != nil {
		if err := s.unread.SetUnread(ctx, identity, count); err != nil {
			logger.Warn("重建未读缓存失败", zap.Uint("profile_id", identity), zap.Error(err))
		}
	}
	return count, nil
}

// checkCounterpart 校验对方存在且双方为好友
func (s *MessageService) checkCounterpart(ctx context.Context, identity, counterpart uint) error {
	if counterpart == 0 {
		return invalid("counterpart", "对方ID不能为空")
	}
	if counterpart == identity {
		return invalid("counterpart", "不能给自己发消息")
	}
	if !s.gate.AreFriends(ctx, identity, counterpart) {
		return ErrNotFriends
	}
	return nil
}

func (s *MessageService) store(ctx context.Context, m *model.DirectMessage) error {
	if err := s.messages.Create(ctx, m); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("create message: %w", err)
	}
	s.recorder.MessageSent(m.MsgType)
	s.publishMessage(ctx, realtime.EventInsert, m)
	if s.unread != nil {
		if err := s.unread.IncrUnread(ctx, m.ReceiverID); err != nil {
			logger.Warn("增加未读计数失败", zap.Uint("profile_id", m.ReceiverID), zap.Error(err))
		}
	}
	return nil
}

func (s *MessageService) adjustUnread(ctx context.Context, identity uint, n int64) {
	if s.unread == nil || n <= 0 {
		return
	}
	if err := s.unread.DecrUnread(ctx, identity, n); err != nil {
		logger.Warn("减少未读计数失败", zap.Uint("profile_id", identity), zap.Error(err))
	}
}

func (s *MessageService) publishMessage(ctx context.Context, eventType string, m *model.DirectMessage) {
	ev := realtime.Event{
		Table:        realtime.TableDirectMessage,
		Type:         eventType,
		Record:       m.Record(),
		Participants: []uint{m.SenderID, m.ReceiverID},
	}
	if err := s.publisher.Publish(ctx, ev); err != nil {
		logger.Warn("发布消息事件失败", zap.Uint("message_id", m.ID), zap.Error(err))
	}
}
