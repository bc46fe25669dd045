package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"time-capsule/internal/model"
	"time-capsule/internal/repository"
)

const (
	// StagesForFullProgress 进度达到100%所需阶段数
	StagesForFullProgress = 10
	// RatingPerStage 每完成一个阶段增加的积分
	RatingPerStage = 10
)

// AwardGroups 按类型分组的奖励
type AwardGroups struct {
	Achievements []*model.ProfileAward `json:"achievements"`
	Medals       []*model.ProfileAward `json:"medals"`
	Certificates []*model.ProfileAward `json:"certificates"`
}

// Progress 竞赛进度
type Progress struct {
	CompletedStages int `json:"completed_stages"`
	TotalOlympiads  int `json:"total_olympiads"`
	Percent         int `json:"percent"`
}

// GamificationService 积分、奖励与竞赛进度
type GamificationService struct {
	store    GamificationStore
	profiles ProfileStore
	now      func() time.Time
}

// NewGamificationService 创建GamificationService实例
func NewGamificationService(store GamificationStore, profiles ProfileStore, now func() time.Time) *GamificationService {
	if now == nil {
		now = time.Now
	}
	return &GamificationService{store: store, profiles: profiles, now: now}
}

// Awards 查询奖励并分组
func (s *GamificationService) Awards(ctx context.Context, profileID uint) (*AwardGroups, error) {
	awards, err := s.store.Awards(ctx, profileID)
	if err != nil {
		return nil, fmt.Errorf("load awards: %w", err)
	}
	g := &AwardGroups{
		Achievements: []*model.ProfileAward{},
		Medals:       []*model.ProfileAward{},
		Certificates: []*model.ProfileAward{},
	}
	for _, a := range awards {
		switch a.Kind {
		case model.AwardAchievement:
			g.Achievements = append(g.Achievements, a)
		case model.AwardMedal:
			g.Medals = append(g.Medals, a)
		case model.AwardCertificate:
			g.Certificates = append(g.Certificates, a)
		}
	}
	return g, nil
}

// Progress 读取档案上的竞赛计数
func (s *GamificationService) Progress(ctx context.Context, profileID uint) (*Progress, error) {
	p, err := s.profiles.GetByID(ctx, profileID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load profile: %w", err)
	}
	return &Progress{
		CompletedStages: p.CompletedStages,
		TotalOlympiads:  p.TotalOlympiads,
		Percent:         ProgressPercent(p.CompletedStages),
	}, nil
}

// ProgressPercent 完成阶段数换算成百分比，上限100
func ProgressPercent(completed int) int {
	if completed <= 0 {
		return 0
	}
	pct := completed * 100 / StagesForFullProgress
	if pct > 100 {
		return 100
	}
	return pct
}

// RecordParticipation 记录一次竞赛并累加档案计数与积分
func (s *GamificationService) RecordParticipation(ctx context.Context, identity uint, title string, stages int) (*model.OlympiadParticipation, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, invalid("title", "请填写竞赛名称")
	}
	if stages < 0 {
		return nil, invalid("stages", "阶段数不能为负数")
	}
	p := &model.OlympiadParticipation{ProfileID: identity, Title: title, StagesCompleted: stages}
	if err := s.store.RecordParticipation(ctx, p, stages*RatingPerStage); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("record participation: %w", err)
	}
	return p, nil
}

// Participations 竞赛记录
func (s *GamificationService) Participations(ctx context.Context, profileID uint) ([]*model.OlympiadParticipation, error) {
	list, err := s.store.Participations(ctx, profileID)
	if err != nil {
		return nil, fmt.Errorf("load participations: %w", err)
	}
	return list, nil
}

// GrantAward 管理员授予奖励
func (s *GamificationService) GrantAward(ctx context.Context, identity, profileID uint, kind, name string) (*model.ProfileAward, error) {
	switch kind {
	case model.AwardAchievement, model.AwardMedal, model.AwardCertificate:
	default:
		return nil, invalid("kind", "奖励类型只能是 achievement、medal 或 certificate")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid("name", "请填写奖励名称")
	}
	if err := requireAdmin(ctx, s.profiles, identity); err != nil {
		return nil, err
	}
	if _, err := s.profiles.GetByID(ctx, profileID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load profile: %w", err)
	}

	a := &model.ProfileAward{ProfileID: profileID, Kind: kind, Name: name, AwardedAt: s.now()}
	if err := s.store.CreateAward(ctx, a); err != nil {
		return nil, fmt.Errorf("create award: %w", err)
	}
	return a, nil
}
