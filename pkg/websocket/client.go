package websocket

import (
	"sync"
	"time"

	"time-capsule/pkg/realtime"

	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

// Client 一个WebSocket连接，实现 realtime.Sink
type Client struct {
	identity uint
	conn     *websocket.Conn
	send     chan []byte

	mu     sync.Mutex
	closed bool
}

func newClient(identity uint, conn *websocket.Conn, buffer int) *Client {
	if buffer <= 0 {
		buffer = 256
	}
	return &Client{identity: identity, conn: conn, send: make(chan []byte, buffer)}
}

// Deliver 把变更转为 change 帧写入发送队列，队列满时丢弃
func (c *Client) Deliver(d realtime.Delivery) bool {
	return c.enqueue(encode(ServerFrame{
		Type:      FrameChange,
		ID:        d.SubscriptionID,
		Table:     d.Event.Table,
		EventType: d.Event.Type,
		Record:    d.Event.Record,
	}))
}

func (c *Client) enqueue(msg []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

// close 关闭发送队列，写协程随之退出
func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// writePump 串行写出队列中的帧，并定时发送 ping
func (c *Client) writePump(pingInterval time.Duration) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}
