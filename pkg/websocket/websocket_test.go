package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"time-capsule/config"
	"time-capsule/pkg/jwt"
	"time-capsule/pkg/realtime"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReads struct {
	mu    sync.Mutex
	calls [][]uint
}

func (f *fakeReads) MarkRead(_ context.Context, _ uint, ids []uint) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, ids)
	return int64(len(ids)), nil
}

type fakePresence struct {
	mu      sync.Mutex
	history []string
}

func (f *fakePresence) SetPresence(_ context.Context, _ uint, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.history = append(f.history, status)
	return nil
}

func (f *fakePresence) RefreshPresence(context.Context, uint) error { return nil }

func (f *fakePresence) last() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.history) == 0 {
		return ""
	}
	return f.history[len(f.history)-1]
}

type fixture struct {
	server   *httptest.Server
	hub      *realtime.Hub
	tokens   *jwt.JWTService
	reads    *fakeReads
	presence *fakePresence
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	fx := &fixture{
		hub:      realtime.NewHub(),
		tokens:   jwt.NewJWTService(config.JWTConfig{Secret: "ws-secret", ExpireTime: time.Hour, Issuer: "test"}),
		reads:    &fakeReads{},
		presence: &fakePresence{},
	}
	h := NewHandler(Deps{
		Hub:      fx.hub,
		Tokens:   fx.tokens,
		Reads:    fx.reads,
		Presence: fx.presence,
		Config:   config.WebSocketConfig{PingInterval: time.Second, ReadTimeout: 5 * time.Second, SendBuffer: 16},
	})
	r := gin.New()
	r.GET("/ws", h.ServeWS)
	fx.server = httptest.NewServer(r)
	t.Cleanup(fx.server.Close)
	return fx
}

func (fx *fixture) dial(t *testing.T, identity uint) *websocket.Conn {
	t.Helper()
	token, err := fx.tokens.GenerateToken(identity, nil)
	require.NoError(t, err)
	url := "ws" + strings.TrimPrefix(fx.server.URL, "http") + "/ws?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, f ClientFrame) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(f))
}

func read(t *testing.T, conn *websocket.Conn) ServerFrame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var f ServerFrame
	require.NoError(t, conn.ReadJSON(&f))
	return f
}

func TestServeWS_RejectsMissingToken(t *testing.T) {
	fx := newFixture(t)
	resp, err := http.Get(fx.server.URL + "/ws")
	require.NoError(t, err)
	defer resp.Body.Close()

	var env struct {
		Code int `json:"code"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	assert.Equal(t, http.StatusUnauthorized, env.Code)
}

func TestServeWS_SubscribeReceivesOnlyOwnEvents(t *testing.T) {
	fx := newFixture(t)
	conn := fx.dial(t, 1)

	send(t, conn, ClientFrame{Type: FrameSubscribe, ID: "thread", Table: realtime.TableDirectMessage, Filter: "sender_id=eq.2"})
	ack := read(t, conn)
	assert.Equal(t, FrameSubscribed, ack.Type)
	assert.Equal(t, "thread", ack.ID)
	assert.Equal(t, statusOnline, fx.presence.last())

	// 不含本人的事件不会投递
	require.NoError(t, fx.hub.Publish(context.Background(), realtime.Event{
		Table: realtime.TableDirectMessage, Type: realtime.EventInsert,
		Record:       map[string]interface{}{"sender_id": 2, "content": "secret"},
		Participants: []uint{2, 3},
	}))
	require.NoError(t, fx.hub.Publish(context.Background(), realtime.Event{
		Table: realtime.TableDirectMessage, Type: realtime.EventInsert,
		Record:       map[string]interface{}{"sender_id": 2, "content": "hello"},
		Participants: []uint{2, 1},
	}))

	change := read(t, conn)
	assert.Equal(t, FrameChange, change.Type)
	assert.Equal(t, "thread", change.ID)
	assert.Equal(t, realtime.EventInsert, change.EventType)
	assert.Equal(t, "hello", change.Record["content"])
}

func TestServeWS_AckReadAndUnsubscribe(t *testing.T) {
	fx := newFixture(t)
	conn := fx.dial(t, 7)

	send(t, conn, ClientFrame{Type: FrameAckRead, MessageIDs: []uint{4, 5}})
	reply := read(t, conn)
	assert.Equal(t, FrameAckRead, reply.Type)
	assert.Equal(t, int64(2), reply.Updated)
	fx.reads.mu.Lock()
	assert.Equal(t, [][]uint{{4, 5}}, fx.reads.calls)
	fx.reads.mu.Unlock()

	send(t, conn, ClientFrame{Type: FrameUnsubscribe, ID: "gone"})
	assert.Equal(t, FrameUnsubscribed, read(t, conn).Type)

	send(t, conn, ClientFrame{Type: FrameSubscribe, ID: "x", Table: "unknown"})
	assert.Equal(t, FrameError, read(t, conn).Type)

	send(t, conn, ClientFrame{Type: "dance"})
	assert.Equal(t, FrameError, read(t, conn).Type)

	send(t, conn, ClientFrame{Type: FrameHeartbeat})
	assert.Equal(t, FramePong, read(t, conn).Type)
}

func TestServeWS_SignedOutWithoutSubscription(t *testing.T) {
	fx := newFixture(t)
	conn := fx.dial(t, 3)

	// 等待连接注册完成
	send(t, conn, ClientFrame{Type: FrameHeartbeat})
	require.Equal(t, FramePong, read(t, conn).Type)

	require.NoError(t, fx.hub.Publish(context.Background(), realtime.Event{
		Table: realtime.TableSession, Type: realtime.EventSignedOut, Participants: []uint{3},
	}))
	f := read(t, conn)
	assert.Equal(t, FrameChange, f.Type)
	assert.Equal(t, realtime.EventSignedOut, f.EventType)
}

func TestServeWS_DisconnectReleasesSession(t *testing.T) {
	fx := newFixture(t)
	conn := fx.dial(t, 9)
	send(t, conn, ClientFrame{Type: FrameHeartbeat})
	require.Equal(t, FramePong, read(t, conn).Type)
	require.Equal(t, 1, fx.hub.Connections(9))

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool {
		return fx.hub.Connections(9) == 0 && fx.presence.last() == statusOffline
	}, 2*time.Second, 10*time.Millisecond)
}
