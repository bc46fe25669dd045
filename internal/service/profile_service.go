package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"time-capsule/internal/model"
	"time-capsule/internal/repository"
	"time-capsule/pkg/logger"
	"time-capsule/pkg/password"
	"time-capsule/pkg/storage"

	"go.uber.org/zap"
)

// SearchLimit 公开ID搜索最多返回条数
const SearchLimit = 10

var handlePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]{3,32}$`)

// ProfileService 档案服务
type ProfileService struct {
	profiles ProfileStore
	objects  ObjectStore
	buckets  Buckets
	presence PresenceStore
}

// NewProfileService 创建ProfileService实例，presence 可为 nil
func NewProfileService(profiles ProfileStore, objects ObjectStore, buckets Buckets, presence PresenceStore) *ProfileService {
	return &ProfileService{profiles: profiles, objects: objects, buckets: buckets, presence: presence}
}

// AdminProfileUpdate 管理员可修改的字段，nil 表示不修改
type AdminProfileUpdate struct {
	Rating *int
	Rank   *string
	Role   *string
}

// Get 获取档案
func (s *ProfileService) Get(ctx context.Context, id uint) (*model.Profile, error) {
	p, err := s.profiles.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load profile: %w", err)
	}
	return p, nil
}

// UpdateUsername 修改显示名，不能与其他档案重复
func (s *ProfileService) UpdateUsername(ctx context.Context, identity uint, username string) (*model.Profile, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, invalid("username", "用户名不能为空")
	}
	if len([]rune(username)) > 64 {
		return nil, invalid("username", "用户名过长")
	}

	taken, err := s.profiles.UsernameTaken(ctx, username, identity)
	if err != nil {
		return nil, fmt.Errorf("check username: %w", err)
	}
	if taken {
		return nil, fmt.Errorf("%w: 用户名已被占用", ErrConflict)
	}
	if err := s.profiles.Update(ctx, identity, map[string]interface{}{"username": username}); err != nil {
		return nil, fmt.Errorf("update username: %w", err)
	}
	return s.Get(ctx, identity)
}

// SetHandle 设置公开ID
func (s *ProfileService) SetHandle(ctx context.Context, identity uint, handle string) (*model.Profile, error) {
	handle = strings.TrimSpace(handle)
	if !handlePattern.MatchString(handle) {
		return nil, invalid("custom_id", "公开ID需为3-32位字母、数字或 _ . -")
	}
	if err := s.profiles.Update(ctx, identity, map[string]interface{}{"custom_id": handle}); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("%w: 公开ID已被占用", ErrConflict)
		}
		return nil, fmt.Errorf("update handle: %w", err)
	}
	return s.Get(ctx, identity)
}

// UploadAvatar 上传头像并保存公共地址
func (s *ProfileService) UploadAvatar(ctx context.Context, identity uint, file Upload) (*model.Profile, error) {
	if file.Body == nil || file.Filename == "" {
		return nil, invalid("file", "请选择要上传的文件")
	}
	key := storage.ObjectKey(strconv.FormatUint(uint64(identity), 10), file.Filename)
	url, err := s.objects.Upload(ctx, s.buckets.Avatar, key, file.Body, file.ContentType)
	if err != nil {
		if errors.Is(err, storage.ErrEmptyObject) {
			return nil, invalid("file", "文件内容为空")
		}
		return nil, fmt.Errorf("upload avatar: %w", err)
	}
	if err := s.profiles.Update(ctx, identity, map[string]interface{}{"avatar_url": url}); err != nil {
		return nil, fmt.Errorf("save avatar: %w", err)
	}
	return s.Get(ctx, identity)
}

// ChangePassword 修改密码
func (s *ProfileService) ChangePassword(ctx context.Context, identity uint, oldPassword, newPassword, confirm string) error {
	if newPassword == "" {
		return invalid("new_password", "新密码不能为空")
	}
	if newPassword != confirm {
		return invalid("confirm_password", "两次输入的密码不一致")
	}
	if newPassword == oldPassword {
		return invalid("new_password", "新密码不能与旧密码相同")
	}

	p, err := s.Get(ctx, identity)
	if err != nil {
		return err
	}
	if !password.Verify(oldPassword, p.PasswordHash) {
		return ErrUnauthorized
	}
	hash, err := password.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.profiles.Update(ctx, identity, map[string]interface{}{"password_hash": hash}); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	logger.Info("用户修改密码", zap.Uint("profile_id", identity))
	return nil
}

// Search 按公开ID搜索
func (s *ProfileService) Search(ctx context.Context, query string) ([]*model.Profile, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, invalid("q", "搜索内容不能为空")
	}
	out, err := s.profiles.SearchByHandle(ctx, query, SearchLimit)
	if err != nil {
		return nil, fmt.Errorf("search profiles: %w", err)
	}
	return out, nil
}

// AdminUpdate 管理员修改积分、等级或角色
func (s *ProfileService) AdminUpdate(ctx context.Context, identity, id uint, upd AdminProfileUpdate) (*model.Profile, error) {
	if err := s.requireAdmin(ctx, identity); err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if upd.Rating != nil {
		if *upd.Rating < 0 {
			return nil, invalid("rating", "积分不能为负数")
		}
		fields["rating"] = *upd.Rating
	}
	if upd.Rank != nil {
		fields["rank"] = strings.TrimSpace(*upd.Rank)
	}
	if upd.Role != nil {
		if *upd.Role != model.RoleUser && *upd.Role != model.RoleAdmin {
			return nil, invalid("role", "角色只能是 user 或 admin")
		}
		fields["role"] = *upd.Role
	}
	if len(fields) == 0 {
		return nil, invalid("", "没有需要修改的字段")
	}

	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	if err := s.profiles.Update(ctx, id, fields); err != nil {
		return nil, fmt.Errorf("admin update: %w", err)
	}
	logger.Info("管理员修改档案", zap.Uint("admin_id", identity), zap.Uint("profile_id", id))
	return s.Get(ctx, id)
}

// Online 是否在线，未启用在线状态存储时回退到数据库字段
func (s *ProfileService) Online(ctx context.Context, id uint) (bool, error) {
	if s.presence != nil {
		online, err := s.presence.IsOnline(ctx, id)
		if err == nil {
			return online, nil
		}
		logger.Warn("查询在线状态失败，回退数据库", zap.Uint("profile_id", id), zap.Error(err))
	}
	p, err := s.Get(ctx, id)
	if err != nil {
		return false, err
	}
	return p.Status == model.StatusOnline, nil
}

func (s *ProfileService) requireAdmin(ctx context.Context, identity uint) error {
	return requireAdmin(ctx, s.profiles, identity)
}

// requireAdmin 身份必须为管理员
func requireAdmin(ctx context.Context, profiles ProfileStore, identity uint) error {
	p, err := profiles.GetByID(ctx, identity)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrForbidden
		}
		return fmt.Errorf("load profile: %w", err)
	}
	if !p.IsAdmin() {
		return ErrForbidden
	}
	return nil
}
