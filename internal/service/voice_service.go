package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"time-capsule/internal/model"
	"time-capsule/internal/repository"
	"time-capsule/pkg/storage"
)

// 动态分页
const (
	DefaultFeedLimit = 20
	MaxFeedLimit     = 100
)

// VoiceService 语音动态服务
type VoiceService struct {
	posts   VoiceStore
	objects ObjectStore
	bucket  string
}

// NewVoiceService 创建VoiceService实例
func NewVoiceService(posts VoiceStore, objects ObjectStore, bucket string) *VoiceService {
	return &VoiceService{posts: posts, objects: objects, bucket: bucket}
}

// Create 上传音频并发布动态
func (s *VoiceService) Create(ctx context.Context, identity uint, title string, durationSec int, audio Upload) (*model.VoicePost, error) {
	title = strings.TrimSpace(title)
	if len([]rune(title)) > 255 {
		return nil, invalid("title", "标题过长")
	}
	if durationSec < 0 {
		return nil, invalid("duration", "时长不能为负数")
	}
	if audio.Body == nil || audio.Filename == "" {
		return nil, invalid("file", "请选择要上传的音频")
	}

	key := storage.ObjectKey("post-"+strconv.FormatUint(uint64(identity), 10), audio.Filename)
	url, err := s.objects.Upload(ctx, s.bucket, key, audio.Body, audio.ContentType)
	if err != nil {
		if errors.Is(err, storage.ErrEmptyObject) {
			return nil, invalid("file", "文件内容为空")
		}
		return nil, fmt.Errorf("upload audio: %w", err)
	}

	p := &model.VoicePost{UserID: identity, Title: title, AudioURL: url, DurationSec: durationSec}
	if err := s.posts.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create voice post: %w", err)
	}
	return p, nil
}

// Feed 公开动态，最新在前；limit 越界时收敛到合法范围
func (s *VoiceService) Feed(ctx context.Context, limit, offset int) ([]*model.VoicePost, error) {
	if limit <= 0 {
		limit = DefaultFeedLimit
	}
	if limit > MaxFeedLimit {
		limit = MaxFeedLimit
	}
	if offset < 0 {
		offset = 0
	}
	posts, err := s.posts.Feed(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("load feed: %w", err)
	}
	return posts, nil
}

// Mine 本人发布的动态
func (s *VoiceService) Mine(ctx context.Context, identity uint) ([]*model.VoicePost, error) {
	posts, err := s.posts.ByUser(ctx, identity)
	if err != nil {
		return nil, fmt.Errorf("load voice posts: %w", err)
	}
	return posts, nil
}

// Delete 只能删除本人的动态
func (s *VoiceService) Delete(ctx context.Context, identity, id uint) error {
	if err := s.posts.Delete(ctx, identity, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("delete voice post: %w", err)
	}
	return nil
}
