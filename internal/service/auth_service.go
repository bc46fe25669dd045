package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"time-capsule/internal/model"
	"time-capsule/internal/repository"
	"time-capsule/pkg/logger"
	"time-capsule/pkg/password"
	"time-capsule/pkg/realtime"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

var validate = validator.New()

// AuthService 注册、登录、登出与会话
type AuthService struct {
	profiles  ProfileStore
	tokens    TokenIssuer
	presence  PresenceStore
	publisher realtime.Publisher
}

// NewAuthService 创建AuthService实例，presence 可为 nil
func NewAuthService(profiles ProfileStore, tokens TokenIssuer, presence PresenceStore, publisher realtime.Publisher) *AuthService {
	return &AuthService{profiles: profiles, tokens: tokens, presence: presence, publisher: publisher}
}

// Register 注册
func (s *AuthService) Register(ctx context.Context, email, plainPassword, confirm string) (*model.Profile, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := validate.Var(email, "required,email"); err != nil {
		return nil, "", invalid("email", "邮箱格式不正确")
	}
	if plainPassword == "" {
		return nil, "", invalid("password", "密码不能为空")
	}
	if plainPassword != confirm {
		return nil, "", invalid("confirm_password", "两次输入的密码不一致")
	}

	hash, err := password.Hash(plainPassword)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}
	p := &model.Profile{
		Email:        email,
		PasswordHash: hash,
		Role:         model.RoleUser,
		Status:       model.StatusOffline,
		LastSeen:     time.Now(),
	}
	if err := s.profiles.Create(ctx, p); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, "", fmt.Errorf("%w: 邮箱已被注册", ErrConflict)
		}
		return nil, "", fmt.Errorf("create profile: %w", err)
	}

	token, err := s.issue(p)
	if err != nil {
		return nil, "", err
	}
	logger.Info("用户注册成功", zap.Uint("profile_id", p.ID))
	return p, token, nil
}

// Login 登录
func (s *AuthService) Login(ctx context.Context, email, plainPassword string) (*model.Profile, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || plainPassword == "" {
		return nil, "", invalid("", "邮箱和密码不能为空")
	}
	p, err := s.profiles.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, "", ErrUnauthorized
		}
		return nil, "", fmt.Errorf("load profile: %w", err)
	}
	if !password.Verify(plainPassword, p.PasswordHash) {
		return nil, "", ErrUnauthorized
	}

	token, err := s.issue(p)
	if err != nil {
		return nil, "", err
	}
	return p, token, nil
}

// Logout 登出：标记离线并通知本人的实时连接
func (s *AuthService) Logout(ctx context.Context, identity uint) error {
	if err := s.profiles.UpdateStatus(ctx, identity, model.StatusOffline); err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	if s.presence != nil {
		if err := s.presence.SetPresence(ctx, identity, model.StatusOffline); err != nil {
			logger.Warn("更新在线状态失败", zap.Uint("profile_id", identity), zap.Error(err))
		}
	}
	ev := realtime.Event{
		Table:        realtime.TableSession,
		Type:         realtime.EventSignedOut,
		Record:       map[string]interface{}{"profile_id": identity},
		Participants: []uint{identity},
	}
	if err := s.publisher.Publish(ctx, ev); err != nil {
		logger.Warn("发布登出事件失败", zap.Uint("profile_id", identity), zap.Error(err))
	}
	return nil
}

// Session 当前令牌对应的档案
func (s *AuthService) Session(ctx context.Context, identity uint) (*model.Profile, error) {
	p, err := s.profiles.GetByID(ctx, identity)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// 档案已不存在，令牌视为无效
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("load profile: %w", err)
	}
	return p, nil
}

// Refresh 为仍有效的令牌签发新令牌
func (s *AuthService) Refresh(ctx context.Context, identity uint) (string, error) {
	p, err := s.Session(ctx, identity)
	if err != nil {
		return "", err
	}
	return s.issue(p)
}

func (s *AuthService) issue(p *model.Profile) (string, error) {
	token, err := s.tokens.GenerateToken(p.ID, map[string]interface{}{"email": p.Email})
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	return token, nil
}
