package realtime

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// SessionSubscriptionID 会话事件投递时使用的订阅ID
const SessionSubscriptionID = "session"

var (
	// ErrUnknownTable 订阅了不支持的表
	ErrUnknownTable = errors.New("unknown table")
	// ErrSessionClosed 连接已释放
	ErrSessionClosed = errors.New("session closed")
)

var subscribableTables = map[string]bool{
	TableDirectMessage: true,
	TableFriendship:    true,
	TableTimeCapsule:   true,
}

// Delivery 投递给某个连接的一条变更
type Delivery struct {
	SubscriptionID string
	Event          Event
}

// Sink 连接的发送端，Deliver 不得阻塞，缓冲区满时返回 false
type Sink interface {
	Deliver(d Delivery) bool
}

type subscription struct {
	table  string
	filter Filter
}

// Hub 订阅注册表，按身份索引所有连接
type Hub struct {
	mu       sync.RWMutex
	sessions map[uint]map[*Session]struct{}
	observe  func(ev Event, delivered int)
}

// NewHub 创建订阅注册表
func NewHub() *Hub {
	return &Hub{sessions: make(map[uint]map[*Session]struct{})}
}

// OnDispatch 注册分发回调（用于指标统计）
func (h *Hub) OnDispatch(fn func(ev Event, delivered int)) {
	h.mu.Lock()
	h.observe = fn
	h.mu.Unlock()
}

// Attach 为一个已认证连接创建会话
func (h *Hub) Attach(identity uint, sink Sink) *Session {
	s := &Session{hub: h, identity: identity, sink: sink, subs: make(map[string]subscription)}
	h.mu.Lock()
	set, ok := h.sessions[identity]
	if !ok {
		set = make(map[*Session]struct{})
		h.sessions[identity] = set
	}
	set[s] = struct{}{}
	h.mu.Unlock()
	return s
}

// Connections 返回身份当前的连接数
func (h *Hub) Connections(identity uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions[identity])
}

// Publish 本地分发，实现 Publisher
func (h *Hub) Publish(_ context.Context, ev Event) error {
	h.Dispatch(ev)
	return nil
}

// Dispatch 把事件投递给参与方中匹配的订阅，返回投递次数
func (h *Hub) Dispatch(ev Event) int {
	targets := h.targets(ev.Participants)
	delivered := 0
	for _, s := range targets {
		delivered += s.dispatch(ev)
	}

	h.mu.RLock()
	observe := h.observe
	h.mu.RUnlock()
	if observe != nil {
		observe(ev, delivered)
	}
	return delivered
}

func (h *Hub) targets(participants []uint) []*Session {
	h.mu.RLock()
	defer h.mu.RUnlock()
	seen := make(map[uint]bool, len(participants))
	var out []*Session
	for _, id := range participants {
		if seen[id] {
			continue
		}
		seen[id] = true
		for s := range h.sessions[id] {
			out = append(out, s)
		}
	}
	return out
}

func (h *Hub) detach(s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.sessions[s.identity]
	delete(set, s)
	if len(set) == 0 {
		delete(h.sessions, s.identity)
	}
}

// Session 一个连接上的订阅集合
type Session struct {
	hub      *Hub
	identity uint
	sink     Sink

	mu     sync.Mutex
	subs   map[string]subscription
	closed bool
}

// Identity 连接所属身份
func (s *Session) Identity() uint {
	return s.identity
}

// Subscribe 注册或替换订阅，同一ID再次订阅时替换过滤条件
func (s *Session) Subscribe(id, table, filterExpr string) error {
	if id == "" {
		return errors.New("subscription id is required")
	}
	if !subscribableTables[table] {
		return fmt.Errorf("%w: %s", ErrUnknownTable, table)
	}
	f, err := ParseFilter(filterExpr)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	s.subs[id] = subscription{table: table, filter: f}
	return nil
}

// Unsubscribe 释放订阅，返回是否存在
func (s *Session) Unsubscribe(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.subs[id]
	delete(s.subs, id)
	return ok
}

// Len 当前订阅数
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

// Close 释放全部订阅并从注册表移除
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.subs = map[string]subscription{}
	s.mu.Unlock()
	s.hub.detach(s)
}

func (s *Session) dispatch(ev Event) int {
	if ev.Table == TableSession {
		if s.sink.Deliver(Delivery{SubscriptionID: SessionSubscriptionID, Event: ev}) {
			return 1
		}
		return 0
	}

	s.mu.Lock()
	var ids []string
	for id, sub := range s.subs {
		if sub.table == ev.Table && sub.filter.Matches(ev.Record) {
			ids = append(ids, id)
		}
	}
	s.mu.Unlock()

	n := 0
	for _, id := range ids {
		if s.sink.Deliver(Delivery{SubscriptionID: id, Event: ev}) {
			n++
		}
	}
	return n
}
