package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"time-capsule/internal/model"
	"time-capsule/internal/repository"
	"time-capsule/pkg/logger"
	"time-capsule/pkg/realtime"
	"time-capsule/pkg/storage"

	"go.uber.org/zap"
)

// 列表排序方式
const (
	SortByDate  = "date"
	SortByTitle = "title"
)

// CapsuleInput 胶囊可编辑字段
type CapsuleInput struct {
	Title    string
	Message  string
	OpenDate *time.Time
}

// ListOptions 列表过滤与排序
type ListOptions struct {
	Search        string
	Sort          string
	FavoritesOnly bool
}

// CapsuleService 时间胶囊服务
type CapsuleService struct {
	capsules  CapsuleStore
	objects   ObjectStore
	bucket    string
	publisher realtime.Publisher
	recorder  Recorder
	now       func() time.Time
}

// NewCapsuleService 创建CapsuleService实例，now 为 nil 时使用 time.Now
func NewCapsuleService(capsules CapsuleStore, objects ObjectStore, bucket string, publisher realtime.Publisher, recorder Recorder, now func() time.Time) *CapsuleService {
	if recorder == nil {
		recorder = NopRecorder()
	}
	if now == nil {
		now = time.Now
	}
	return &CapsuleService{capsules: capsules, objects: objects, bucket: bucket, publisher: publisher, recorder: recorder, now: now}
}

// Get 获取本人的胶囊
func (s *CapsuleService) Get(ctx context.Context, identity, id uint) (*model.TimeCapsule, error) {
	c, err := s.capsules.Get(ctx, identity, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load capsule: %w", err)
	}
	return c, nil
}

// CreateDraft 新建未封存的草稿
func (s *CapsuleService) CreateDraft(ctx context.Context, identity uint, in CapsuleInput) (*model.TimeCapsule, error) {
	in, err := s.normalize(in)
	if err != nil {
		return nil, err
	}
	c := &model.TimeCapsule{
		UserID:   identity,
		Title:    in.Title,
		Message:  in.Message,
		OpenDate: in.OpenDate,
	}
	if err := s.capsules.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create capsule: %w", err)
	}
	s.publish(ctx, realtime.EventInsert, c)
	return c, nil
}

// Update 编辑草稿，封存后返回 ErrCapsuleSealed
func (s *CapsuleService) Update(ctx context.Context, identity, id uint, in CapsuleInput) (*model.TimeCapsule, error) {
	in, err := s.normalize(in)
	if err != nil {
		return nil, err
	}
	c, err := s.Get(ctx, identity, id)
	if err != nil {
		return nil, err
	}
	if c.IsSealed {
		return nil, ErrCapsuleSealed
	}

	ok, err := s.capsules.UpdateUnsealed(ctx, identity, id, fieldsOf(in))
	if err != nil {
		return nil, fmt.Errorf("update capsule: %w", err)
	}
	if !ok {
		return nil, ErrCapsuleSealed
	}
	return s.reload(ctx, identity, id, realtime.EventUpdate)
}

// Seal 封存：标题、内容与开启日期必填，开启日期不能早于今天
// id 为 0 时新建；否则请求中为空的字段沿用草稿已保存的值
// 已封存的胶囊返回 ErrCapsuleSealed
func (s *CapsuleService) Seal(ctx context.Context, identity, id uint, in CapsuleInput) (*model.TimeCapsule, error) {
	if id != 0 {
		c, err := s.Get(ctx, identity, id)
		if err != nil {
			return nil, err
		}
		if c.IsSealed {
			return nil, ErrCapsuleSealed
		}
		in = overlayDraft(in, c)
	}

	in, err := s.normalize(in)
	if err != nil {
		return nil, err
	}
	if in.Title == "" {
		return nil, invalid("title", "封存前请填写标题")
	}
	if in.Message == "" {
		return nil, invalid("message", "封存前请填写内容")
	}
	if in.OpenDate == nil {
		return nil, invalid("open_date", "封存前请选择开启日期")
	}

	if id == 0 {
		c := &model.TimeCapsule{
			UserID:   identity,
			Title:    in.Title,
			Message:  in.Message,
			OpenDate: in.OpenDate,
			IsSealed: true,
		}
		if err := s.capsules.Create(ctx, c); err != nil {
			return nil, fmt.Errorf("create capsule: %w", err)
		}
		s.recorder.CapsuleAction("sealed")
		s.publish(ctx, realtime.EventInsert, c)
		return c, nil
	}

	fields := fieldsOf(in)
	fields["is_sealed"] = true
	ok, err := s.capsules.UpdateUnsealed(ctx, identity, id, fields)
	if err != nil {
		return nil, fmt.Errorf("seal capsule: %w", err)
	}
	if !ok {
		return nil, ErrCapsuleSealed
	}
	s.recorder.CapsuleAction("sealed")
	return s.reload(ctx, identity, id, realtime.EventUpdate)
}

// overlayDraft 用草稿补齐请求中的空字段
func overlayDraft(in CapsuleInput, draft *model.TimeCapsule) CapsuleInput {
	if strings.TrimSpace(in.Title) == "" {
		in.Title = draft.Title
	}
	if strings.TrimSpace(in.Message) == "" {
		in.Message = draft.Message
	}
	if in.OpenDate == nil {
		in.OpenDate = draft.OpenDate
	}
	return in
}

// Unseal 解封，只清除封存标记，内容保持不变
func (s *CapsuleService) Unseal(ctx context.Context, identity, id uint) (*model.TimeCapsule, error) {
	c, err := s.Get(ctx, identity, id)
	if err != nil {
		return nil, err
	}
	if !c.IsSealed {
		return c, nil
	}
	if err := s.capsules.Update(ctx, identity, id, map[string]interface{}{"is_sealed": false}); err != nil {
		return nil, fmt.Errorf("unseal capsule: %w", err)
	}
	s.recorder.CapsuleAction("unsealed")
	return s.reload(ctx, identity, id, realtime.EventUpdate)
}

// ToggleFavorite 切换收藏，任意状态可用
func (s *CapsuleService) ToggleFavorite(ctx context.Context, identity, id uint) (*model.TimeCapsule, error) {
	if err := s.capsules.ToggleFavorite(ctx, identity, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("toggle favorite: %w", err)
	}
	return s.reload(ctx, identity, id, realtime.EventUpdate)
}

// Delete 删除，任意状态可用
func (s *CapsuleService) Delete(ctx context.Context, identity, id uint) error {
	if err := s.capsules.Delete(ctx, identity, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("delete capsule: %w", err)
	}
	s.recorder.CapsuleAction("deleted")
	s.publish(ctx, realtime.EventDelete, &model.TimeCapsule{ID: id, UserID: identity})
	return nil
}

// UploadImage 为草稿上传图片
func (s *CapsuleService) UploadImage(ctx context.Context, identity, id uint, file Upload) (*model.TimeCapsule, error) {
	if file.Body == nil || file.Filename == "" {
		return nil, invalid("file", "请选择要上传的图片")
	}
	c, err := s.Get(ctx, identity, id)
	if err != nil {
		return nil, err
	}
	if c.IsSealed {
		return nil, ErrCapsuleSealed
	}

	key := storage.ObjectKey(strconv.FormatUint(uint64(identity), 10), file.Filename)
	url, err := s.objects.Upload(ctx, s.bucket, key, file.Body, file.ContentType)
	if err != nil {
		if errors.Is(err, storage.ErrEmptyObject) {
			return nil, invalid("file", "文件内容为空")
		}
		return nil, fmt.Errorf("upload image: %w", err)
	}
	ok, err := s.capsules.UpdateUnsealed(ctx, identity, id, map[string]interface{}{"image_url": url})
	if err != nil {
		return nil, fmt.Errorf("save image: %w", err)
	}
	if !ok {
		// 上传期间被封存，清理已上传的对象
		if delErr := s.objects.Delete(ctx, s.bucket, key); delErr != nil {
			logger.Warn("清理图片失败", zap.String("key", key), zap.Error(delErr))
		}
		return nil, ErrCapsuleSealed
	}
	return s.reload(ctx, identity, id, realtime.EventUpdate)
}

// List 本人的胶囊列表
func (s *CapsuleService) List(ctx context.Context, identity uint, opts ListOptions) ([]*model.TimeCapsule, error) {
	if opts.Sort != "" && opts.Sort != SortByDate && opts.Sort != SortByTitle {
		return nil, invalid("sort", "排序方式只能是 date 或 title")
	}
	all, err := s.capsules.ListByUser(ctx, identity)
	if err != nil {
		return nil, fmt.Errorf("list capsules: %w", err)
	}
	return FilterAndSort(all, opts), nil
}

// FilterAndSort 标题包含搜索词（不区分大小写），按开启日期（无日期排最后）或标题排序
func FilterAndSort(in []*model.TimeCapsule, opts ListOptions) []*model.TimeCapsule {
	needle := strings.ToLower(strings.TrimSpace(opts.Search))
	out := make([]*model.TimeCapsule, 0, len(in))
	for _, c := range in {
		if opts.FavoritesOnly && !c.IsFavorite {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(c.Title), needle) {
			continue
		}
		out = append(out, c)
	}

	switch opts.Sort {
	case SortByTitle:
		sort.SliceStable(out, func(i, j int) bool {
			return strings.ToLower(out[i].Title) < strings.ToLower(out[j].Title)
		})
	case SortByDate, "":
		sort.SliceStable(out, func(i, j int) bool {
			a, b := out[i].OpenDate, out[j].OpenDate
			switch {
			case a == nil:
				return false
			case b == nil:
				return true
			default:
				return a.Before(*b)
			}
		})
	}
	return out
}

// normalize 去除首尾空白，开启日期截断到天并校验不早于今天
func (s *CapsuleService) normalize(in CapsuleInput) (CapsuleInput, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Message = strings.TrimSpace(in.Message)
	if len([]rune(in.Title)) > 255 {
		return in, invalid("title", "标题过长")
	}
	if in.OpenDate != nil {
		d := dateOnly(*in.OpenDate)
		if d.Before(dateOnly(s.now())) {
			return in, invalid("open_date", "开启日期不能早于今天")
		}
		in.OpenDate = &d
	}
	return in, nil
}

func (s *CapsuleService) reload(ctx context.Context, identity, id uint, eventType string) (*model.TimeCapsule, error) {
	c, err := s.Get(ctx, identity, id)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, eventType, c)
	return c, nil
}

func (s *CapsuleService) publish(ctx context.Context, eventType string, c *model.TimeCapsule) {
	ev := realtime.Event{
		Table:        realtime.TableTimeCapsule,
		Type:         eventType,
		Record:       c.Record(),
		Participants: []uint{c.UserID},
	}
	if err := s.publisher.Publish(ctx, ev); err != nil {
		logger.Warn("发布胶囊事件失败", zap.Uint("capsule_id", c.ID), zap.Error(err))
	}
}

func fieldsOf(in CapsuleInput) map[string]interface{} {
	return map[string]interface{}{
		"title":     in.Title,
		"message":   in.Message,
		"open_date": in.OpenDate,
	}
}

// dateOnly 取日历日期（UTC零点），忽略时区
func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
