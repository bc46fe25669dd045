package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

// apiClient 压测用的HTTP客户端，解析统一响应结构
type apiClient struct {
	base  string
	http  *http.Client
	token string
	id    uint
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newAPIClient(base string) *apiClient {
	return &apiClient{base: strings.TrimRight(base, "/"), http: &http.Client{Timeout: 8 * time.Second}}
}

func (c *apiClient) do(method, path string, body, out interface{}) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequest(method, c.base+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("%s %s: decode: %w", method, path, err)
	}
	if env.Code != 0 {
		return fmt.Errorf("%s %s: %d %s", method, path, env.Code, env.Message)
	}
	if out != nil && len(env.Data) > 0 {
		return json.Unmarshal(env.Data, out)
	}
	return nil
}

func (c *apiClient) register(email, password string) error {
	var out struct {
		Profile struct {
			ID uint `json:"id"`
		} `json:"profile"`
		AccessToken string `json:"access_token"`
	}
	err := c.do(http.MethodPost, "/api/v1/auth/register", map[string]string{
		"email": email, "password": password, "confirm_password": password,
	}, &out)
	if err != nil {
		return err
	}
	c.id, c.token = out.Profile.ID, out.AccessToken
	return nil
}

func (c *apiClient) befriend(other *apiClient) error {
	var f struct {
		ID uint `json:"id"`
	}
	if err := c.do(http.MethodPost, "/api/v1/friendships", map[string]uint{"friend_id": other.id}, &f); err != nil {
		return err
	}
	return other.do(http.MethodPut, fmt.Sprintf("/api/v1/friendships/%d", f.ID), map[string]string{"status": "accepted"}, nil)
}

func (c *apiClient) send(to uint, content string) error {
	return c.do(http.MethodPost, fmt.Sprintf("/api/v1/conversations/%d/messages", to), map[string]string{"content": content}, nil)
}

func (c *apiClient) thread(with uint) (int, error) {
	var msgs []json.RawMessage
	err := c.do(http.MethodGet, fmt.Sprintf("/api/v1/conversations/%d/messages", with), nil, &msgs)
	return len(msgs), err
}

// dialRealtime 建立WebSocket连接并订阅来自 sender 的私信
func (c *apiClient) dialRealtime(sender uint) (*websocket.Conn, error) {
	u, err := url.Parse(c.base)
	if err != nil {
		return nil, err
	}
	u.Scheme = strings.Replace(u.Scheme, "http", "ws", 1)
	u.Path = "/ws"
	u.RawQuery = url.Values{"token": {c.token}}.Encode()

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return nil, err
	}
	err = conn.WriteJSON(map[string]string{
		"type":   "subscribe",
		"id":     "thread",
		"table":  "direct_message",
		"filter": fmt.Sprintf("sender_id=eq.%d", sender),
	})
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	var ack struct {
		Type  string `json:"type"`
		Error string `json:"error"`
	}
	if err := conn.ReadJSON(&ack); err != nil {
		_ = conn.Close()
		return nil, err
	}
	if ack.Type != "subscribed" {
		_ = conn.Close()
		return nil, errors.New("subscribe failed: " + ack.Error)
	}
	return conn, nil
}
