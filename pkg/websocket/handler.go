package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"time-capsule/config"
	"time-capsule/pkg/jwt"
	"time-capsule/pkg/logger"
	"time-capsule/pkg/realtime"
	"time-capsule/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// 在线状态取值，与档案表一致
const (
	statusOnline  = "online"
	statusOffline = "offline"
)

// TokenValidator 令牌校验
type TokenValidator interface {
	ValidateToken(token string) (*jwt.CustomClaims, error)
}

// ReadMarker 已读回执
type ReadMarker interface {
	MarkRead(ctx context.Context, identity uint, ids []uint) (int64, error)
}

// Presence 在线状态存储
type Presence interface {
	SetPresence(ctx context.Context, profileID uint, status string) error
	RefreshPresence(ctx context.Context, profileID uint) error
}

// StatusWriter 档案上的在线状态字段
type StatusWriter interface {
	UpdateStatus(ctx context.Context, id uint, status string) error
}

// ConnObserver 连接数指标
type ConnObserver interface {
	ConnOpened()
	ConnClosed()
}

// Deps Handler 依赖，Presence/Status/Observer 可为 nil
type Deps struct {
	Hub      *realtime.Hub
	Tokens   TokenValidator
	Reads    ReadMarker
	Presence Presence
	Status   StatusWriter
	Observer ConnObserver
	Config   config.WebSocketConfig
}

// Handler WebSocket 入口
type Handler struct {
	deps     Deps
	upgrader websocket.Upgrader
}

// NewHandler 创建Handler实例
func NewHandler(d Deps) *Handler {
	if d.Config.PingInterval <= 0 {
		d.Config.PingInterval = 30 * time.Second
	}
	if d.Config.ReadTimeout <= 0 {
		d.Config.ReadTimeout = 3 * d.Config.PingInterval
	}
	return &Handler{
		deps: d,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// ServeWS 校验令牌后升级连接
// 令牌可放在 Authorization 头、?token= 或 Sec-WebSocket-Protocol 中
func (h *Handler) ServeWS(c *gin.Context) {
	token := jwt.BearerToken(c)
	if token == "" {
		response.Unauthorized(c, "缺少token")
		return
	}
	claims, err := h.deps.Tokens.ValidateToken(token)
	if err != nil {
		response.Unauthorized(c, "token无效或已过期")
		return
	}
	identity, err := claims.ProfileID()
	if err != nil || identity == 0 {
		response.Unauthorized(c, "token无效")
		return
	}

	// 回显子协议，避免客户端提示 "Server sent no subprotocol"
	respHeader := http.Header{}
	if protocol := c.GetHeader("Sec-WebSocket-Protocol"); protocol != "" {
		respHeader.Set("Sec-WebSocket-Protocol", protocol)
	}
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, respHeader)
	if err != nil {
		logger.Warn("WebSocket升级失败", zap.Error(err))
		return
	}

	client := newClient(identity, conn, h.deps.Config.SendBuffer)
	session := h.deps.Hub.Attach(identity, client)
	h.connected(identity)

	go client.writePump(h.deps.Config.PingInterval)
	h.readLoop(client, session)

	session.Close()
	client.close()
	h.disconnected(identity)
}

// readLoop 读取客户端帧直到连接断开或读超时
func (h *Handler) readLoop(client *Client, session *realtime.Session) {
	conn := client.conn
	timeout := h.deps.Config.ReadTimeout
	_ = conn.SetReadDeadline(time.Now().Add(timeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(timeout))
	})

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Debug("WebSocket连接异常关闭", zap.Uint("profile_id", client.identity), zap.Error(err))
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(timeout))

		var frame ClientFrame
		if err := json.Unmarshal(payload, &frame); err != nil {
			client.enqueue(encode(ServerFrame{Type: FrameError, Error: "invalid frame"}))
			continue
		}
		if reply, ok := h.handleFrame(client.identity, session, frame); ok {
			client.enqueue(encode(reply))
		}
	}
}

// handleFrame 处理一帧，返回需要回复的帧
func (h *Handler) handleFrame(identity uint, session *realtime.Session, f ClientFrame) (ServerFrame, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	switch f.Type {
	case FrameSubscribe:
		if err := session.Subscribe(f.ID, f.Table, f.Filter); err != nil {
			return ServerFrame{Type: FrameError, ID: f.ID, Error: err.Error()}, true
		}
		return ServerFrame{Type: FrameSubscribed, ID: f.ID, Table: f.Table}, true

	case FrameUnsubscribe:
		session.Unsubscribe(f.ID)
		return ServerFrame{Type: FrameUnsubscribed, ID: f.ID}, true

	case FrameHeartbeat:
		if h.deps.Presence != nil {
			if err := h.deps.Presence.RefreshPresence(ctx, identity); err != nil {
				logger.Warn("刷新在线状态失败", zap.Uint("profile_id", identity), zap.Error(err))
			}
		}
		return ServerFrame{Type: FramePong}, true

	case FrameAckRead:
		n, err := h.deps.Reads.MarkRead(ctx, identity, f.MessageIDs)
		if err != nil {
			logger.Warn("已读回执失败", zap.Uint("profile_id", identity), zap.Error(err))
			return ServerFrame{Type: FrameError, Error: "mark read failed"}, true
		}
		return ServerFrame{Type: FrameAckRead, Updated: n}, true

	default:
		return ServerFrame{Type: FrameError, ID: f.ID, Error: "unknown frame type: " + f.Type}, true
	}
}

func (h *Handler) connected(identity uint) {
	if h.deps.Observer != nil {
		h.deps.Observer.ConnOpened()
	}
	h.setStatus(identity, statusOnline)
}

// disconnected 最后一个连接断开时才标记离线
func (h *Handler) disconnected(identity uint) {
	if h.deps.Observer != nil {
		h.deps.Observer.ConnClosed()
	}
	if h.deps.Hub.Connections(identity) == 0 {
		h.setStatus(identity, statusOffline)
	}
}

func (h *Handler) setStatus(identity uint, status string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if h.deps.Presence != nil {
		if err := h.deps.Presence.SetPresence(ctx, identity, status); err != nil {
			logger.Warn("更新在线状态失败", zap.Uint("profile_id", identity), zap.Error(err))
		}
	}
	if h.deps.Status != nil {
		if err := h.deps.Status.UpdateStatus(ctx, identity, status); err != nil {
			logger.Warn("更新档案状态失败", zap.Uint("profile_id", identity), zap.Error(err))
		}
	}
}
