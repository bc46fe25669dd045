package service

import (
	"context"
	"errors"
	"fmt"

	"time-capsule/internal/model"
	"time-capsule/internal/repository"
	"time-capsule/pkg/logger"
	"time-capsule/pkg/realtime"

	"go.uber.org/zap"
)

// FriendshipService 好友关系服务
type FriendshipService struct {
	friends   FriendshipStore
	profiles  ProfileStore
	publisher realtime.Publisher
	recorder  Recorder
}

// NewFriendshipService 创建FriendshipService实例
func NewFriendshipService(friends FriendshipStore, profiles ProfileStore, publisher realtime.Publisher, recorder Recorder) *FriendshipService {
	if recorder == nil {
		recorder = NopRecorder()
	}
	return &FriendshipService{friends: friends, profiles: profiles, publisher: publisher, recorder: recorder}
}

// FriendEntry 关系及对方档案
type FriendEntry struct {
	Friendship  *model.Friendship `json:"friendship"`
	Counterpart *model.Profile    `json:"counterpart"`
}

// FriendList 好友列表
type FriendList struct {
	Friends  []FriendEntry `json:"friends"`
	Incoming []FriendEntry `json:"incoming"`
	Outgoing []FriendEntry `json:"outgoing"`
}

// Request 发起好友请求
// 两人之间已有任意方向的关系时返回该记录与 ErrConflict
func (s *FriendshipService) Request(ctx context.Context, identity, friendID uint) (*model.Friendship, error) {
	if friendID == 0 {
		return nil, invalid("friend_id", "好友ID不能为空")
	}
	if friendID == identity {
		return nil, invalid("friend_id", "不能添加自己为好友")
	}
	if _, err := s.profiles.GetByID(ctx, friendID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load profile: %w", err)
	}

	existing, err := s.existing(ctx, identity, friendID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, ErrConflict
	}

	f, err := s.insert(ctx, identity, friendID)
	if errors.Is(err, repository.ErrDuplicate) {
		// 并发请求已写入同一无序对，重新读取一次
		existing, lookupErr := s.existing(ctx, identity, friendID)
		if lookupErr != nil {
			return nil, lookupErr
		}
		if existing != nil {
			return existing, ErrConflict
		}
		f, err = s.insert(ctx, identity, friendID)
	}
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("create friendship: %w", err)
	}

	s.recorder.FriendshipEvent(model.FriendshipPending)
	s.publish(ctx, realtime.EventInsert, f)
	return f, nil
}

// Respond 接收方接受或拒绝请求，只能从 pending 转换
func (s *FriendshipService) Respond(ctx context.Context, identity, id uint, status string) (*model.Friendship, error) {
	if status != model.FriendshipAccepted && status != model.FriendshipRejected {
		return nil, invalid("status", "状态只能是 accepted 或 rejected")
	}
	f, err := s.friends.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load friendship: %w", err)
	}
	if !f.Involves(identity) {
		return nil, ErrNotFound
	}
	if f.FriendID != identity {
		return nil, fmt.Errorf("%w: 只有接收方可以处理请求", ErrForbidden)
	}
	if f.Status != model.FriendshipPending {
		return f, fmt.Errorf("%w: 请求已处理", ErrConflict)
	}

	ok, err := s.friends.TransitionStatus(ctx, id, model.FriendshipPending, status)
	if err != nil {
		return nil, fmt.Errorf("update friendship: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: 请求已处理", ErrConflict)
	}
	f.Status = status

	s.recorder.FriendshipEvent(status)
	s.publish(ctx, realtime.EventUpdate, f)
	return f, nil
}

// List 好友、收到的请求、发出的请求
func (s *FriendshipService) List(ctx context.Context, identity uint) (*FriendList, error) {
	rows, err := s.friends.ListFor(ctx, identity)
	if err != nil {
		return nil, fmt.Errorf("list friendships: %w", err)
	}

	ids := make([]uint, 0, len(rows))
	for _, f := range rows {
		ids = append(ids, f.Counterpart(identity))
	}
	profiles, err := s.profiles.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load profiles: %w", err)
	}
	byID := make(map[uint]*model.Profile, len(profiles))
	for _, p := range profiles {
		byID[p.ID] = p
	}

	out := &FriendList{Friends: []FriendEntry{}, Incoming: []FriendEntry{}, Outgoing: []FriendEntry{}}
	for _, f := range rows {
		entry := FriendEntry{Friendship: f, Counterpart: byID[f.Counterpart(identity)]}
		switch {
		case f.Status == model.FriendshipAccepted:
			out.Friends = append(out.Friends, entry)
		case f.Status == model.FriendshipPending && f.FriendID == identity:
			out.Incoming = append(out.Incoming, entry)
		case f.Status == model.FriendshipPending:
			out.Outgoing = append(out.Outgoing, entry)
		}
	}
	return out, nil
}

// AreFriends 两人之间是否存在已接受的关系（任意方向）
// 查询失败按拒绝处理
func (s *FriendshipService) AreFriends(ctx context.Context, a, b uint) bool {
	if a == 0 || b == 0 || a == b {
		return false
	}
	ok, err := s.friends.Accepted(ctx, a, b)
	if err != nil {
		logger.Warn("好友关系查询失败，按非好友处理", zap.Uint("a", a), zap.Uint("b", b), zap.Error(err))
		return false
	}
	return ok
}

func (s *FriendshipService) existing(ctx context.Context, a, b uint) (*model.Friendship, error) {
	f, err := s.friends.FindBetween(ctx, a, b)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("check friendship: %w", err)
	}
	return f, nil
}

func (s *FriendshipService) insert(ctx context.Context, from, to uint) (*model.Friendship, error) {
	f := &model.Friendship{UserID: from, FriendID: to, Status: model.FriendshipPending}
	if err := s.friends.Create(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

func (s *FriendshipService) publish(ctx context.Context, eventType string, f *model.Friendship) {
	ev := realtime.Event{
		Table: realtime.TableFriendship,
		Type:  eventType,
		Record: map[string]interface{}{
			"id":        f.ID,
			"user_id":   f.UserID,
			"friend_id": f.FriendID,
			"status":    f.Status,
		},
		Participants: []uint{f.UserID, f.FriendID},
	}
	if err := s.publisher.Publish(ctx, ev); err != nil {
		logger.Warn("发布好友事件失败", zap.Uint("friendship_id", f.ID), zap.Error(err))
	}
}
