package service

import "time-capsule/internal/model"

// Conversation 与某个对方的会话摘要（不存储，按消息历史推导）
type Conversation struct {
	CounterpartID uint                 `json:"counterpart_id"`
	Counterpart   *model.Profile       `json:"counterpart"`
	LastMessage   *model.DirectMessage `json:"last_message"`
	UnreadCount   int64                `json:"unread_count"`
}

// DeriveConversations 从按时间降序的消息中为每个对方保留最新一条
// 输出保持首次出现的顺序，每个对方只出现一次
func DeriveConversations(me uint, newestFirst []*model.DirectMessage) []Conversation {
	seen := make(map[uint]bool)
	out := make([]Conversation, 0)
	for _, m := range newestFirst {
		other := m.Counterpart(me)
		if seen[other] {
			continue
		}
		seen[other] = true
		out = append(out, Conversation{CounterpartID: other, LastMessage: m})
	}
	return out
}
