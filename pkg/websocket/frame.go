package websocket

import "encoding/json"

// 客户端帧类型
const (
	FrameSubscribe   = "subscribe"
	FrameUnsubscribe = "unsubscribe"
	FrameHeartbeat   = "heartbeat"
	FrameAckRead     = "ack_read"
)

// 服务端帧类型
const (
	FrameSubscribed   = "subscribed"
	FrameUnsubscribed = "unsubscribed"
	FrameChange       = "change"
	FrameError        = "error"
	FramePong         = "pong"
)

// ClientFrame 客户端发来的帧
//
//	{"type":"subscribe","id":"thread","table":"direct_message","filter":"sender_id=eq.2"}
//	{"type":"ack_read","message_ids":[1,2]}
type ClientFrame struct {
	Type       string `json:"type"`
	ID         string `json:"id,omitempty"`
	Table      string `json:"table,omitempty"`
	Filter     string `json:"filter,omitempty"`
	MessageIDs []uint `json:"message_ids,omitempty"`
}

// ServerFrame 服务端推送的帧
type ServerFrame struct {
	Type      string                 `json:"type"`
	ID        string                 `json:"id,omitempty"`
	Table     string                 `json:"table,omitempty"`
	EventType string                 `json:"event,omitempty"`
	Record    map[string]interface{} `json:"record,omitempty"`
	Updated   int64                  `json:"updated,omitempty"`
	Error     string                 `json:"error,omitempty"`
}

func encode(f ServerFrame) []byte {
	data, err := json.Marshal(f)
	if err != nil {
		data, _ = json.Marshal(ServerFrame{Type: FrameError, Error: "encode failed"})
	}
	return data
}
