package realtime

import "context"

// 变更事件类型
const (
	EventInsert    = "INSERT"
	EventUpdate    = "UPDATE"
	EventDelete    = "DELETE"
	EventSignedOut = "SIGNED_OUT"
)

// 可订阅的表名
const (
	TableDirectMessage = "direct_message"
	TableFriendship    = "friendship"
	TableTimeCapsule   = "time_capsule"
	// TableSession 会话事件，不需要订阅，直接投递给身份本人的所有连接
	TableSession = "session"
)

// Event 一次行变更通知
// Participants 为有权接收该事件的档案ID，投递时在服务端校验
type Event struct {
	Table        string                 `json:"table"`
	Type         string                 `json:"type"`
	Record       map[string]interface{} `json:"record,omitempty"`
	Participants []uint                 `json:"participants"`
}

// HasParticipant 判断档案是否为事件参与方
func (e Event) HasParticipant(id uint) bool {
	for _, p := range e.Participants {
		if p == id {
			return true
		}
	}
	return false
}

// Publisher 事件发布接口
// 本地实现直接分发到 Hub，Redis 实现先广播到所有实例
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// PublisherFunc 函数适配器
type PublisherFunc func(ctx context.Context, ev Event) error

// Publish 实现 Publisher
func (f PublisherFunc) Publish(ctx context.Context, ev Event) error {
	return f(ctx, ev)
}
