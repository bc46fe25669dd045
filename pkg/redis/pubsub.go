package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"time-capsule/pkg/logger"
	"time-capsule/pkg/realtime"

	"go.uber.org/zap"
)

// Dispatcher 本实例的事件分发器（realtime.Hub）
type Dispatcher interface {
	Dispatch(ev realtime.Event) int
}

// Broadcaster 通过 Redis pub/sub 在多个实例之间广播实时事件
// 每个实例订阅同一频道，收到后交给本地 Hub 分发
type Broadcaster struct {
	store   *Store
	channel string
	local   Dispatcher
}

// NewBroadcaster 创建广播器
func NewBroadcaster(store *Store, channel string, local Dispatcher) *Broadcaster {
	return &Broadcaster{store: store, channel: channel, local: local}
}

// Publish 发布事件到频道，实现 realtime.Publisher
func (b *Broadcaster) Publish(ctx context.Context, ev realtime.Event) error {
	payload, err := EncodeEvent(ev)
	if err != nil {
		return err
	}
	if err := b.store.client.Publish(ctx, b.channel, payload).Err(); err != nil {
		return fmt.Errorf("发布实时事件失败: %w", err)
	}
	return nil
}

// Run 订阅频道并分发到本地，直到 ctx 取消
func (b *Broadcaster) Run(ctx context.Context) error {
	sub := b.store.client.Subscribe(ctx, b.channel)
	defer sub.Close()

	// 等待订阅确认，连接失败时尽早返回
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("订阅实时频道失败: %w", err)
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			ev, err := DecodeEvent([]byte(msg.Payload))
			if err != nil {
				logger.Warn("丢弃无法解析的实时事件", zap.Error(err))
				continue
			}
			b.local.Dispatch(ev)
		}
	}
}

// 订阅断开后的重试间隔
const (
	DefaultMinBackoff = 500 * time.Millisecond
	DefaultMaxBackoff = 30 * time.Second
)

// Serve 持续运行订阅循环，订阅失败或连接断开后按指数退避重新订阅，直到 ctx 取消
// onRestart 可为 nil，每次重试前回调
func (b *Broadcaster) Serve(ctx context.Context, minBackoff, maxBackoff time.Duration, onRestart func(attempt int, err error)) error {
	if minBackoff <= 0 {
		minBackoff = DefaultMinBackoff
	}
	if maxBackoff < minBackoff {
		maxBackoff = minBackoff
	}
	backoff := minBackoff
	for attempt := 1; ; attempt++ {
		start := time.Now()
		err := b.Run(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err == nil {
			err = errors.New("订阅通道已关闭")
		}
		// 正常运行过一段时间后断开，从最小间隔重新计算
		if time.Since(start) > maxBackoff {
			backoff = minBackoff
		}
		logger.Warn("实时频道订阅中断，稍后重试",
			zap.Int("attempt", attempt),
			zap.Duration("backoff", backoff),
			zap.Error(err),
		)
		if onRestart != nil {
			onRestart(attempt, err)
		}

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}

// EncodeEvent 序列化事件
func EncodeEvent(ev realtime.Event) ([]byte, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("序列化实时事件失败: %w", err)
	}
	return data, nil
}

// DecodeEvent 反序列化事件
func DecodeEvent(data []byte) (realtime.Event, error) {
	var ev realtime.Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return realtime.Event{}, fmt.Errorf("反序列化实时事件失败: %w", err)
	}
	if ev.Table == "" || ev.Type == "" {
		return realtime.Event{}, fmt.Errorf("实时事件缺少 table/type")
	}
	return ev, nil
}
