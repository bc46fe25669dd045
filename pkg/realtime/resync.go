package realtime

import (
	"context"
)

// Resyncer 收到变更后全量重新拉取
// 连续多次 Notify 在一次拉取期间最多合并为一次待执行的拉取
type Resyncer struct {
	refetch []func(ctx context.Context) error
	pending chan struct{}
	onError func(error)
}

// NewResyncer 创建重同步器，refetch 按顺序执行（如会话列表、当前线程）
func NewResyncer(refetch ...func(ctx context.Context) error) *Resyncer {
	return &Resyncer{
		refetch: refetch,
		pending: make(chan struct{}, 1),
	}
}

// OnError 设置拉取失败回调，失败不会中断后续重同步
func (r *Resyncer) OnError(fn func(error)) {
	r.onError = fn
}

// Notify 标记需要重新拉取，不阻塞
func (r *Resyncer) Notify() {
	select {
	case r.pending <- struct{}{}:
	default:
	}
}

// Run 执行重同步循环，直到 ctx 取消
func (r *Resyncer) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-r.pending:
			for _, fn := range r.refetch {
				if err := fn(ctx); err != nil && r.onError != nil {
					r.onError(err)
				}
			}
		}
	}
}
