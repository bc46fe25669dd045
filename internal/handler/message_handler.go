package handler

import (
	"time-capsule/pkg/response"

	"github.com/gin-gonic/gin"
)

// MessageHandler 私信处理器
type MessageHandler struct {
	service   MessageAPI
	maxUpload int64
}

// NewMessageHandler 创建MessageHandler实例
func NewMessageHandler(s MessageAPI, maxUpload int64) *MessageHandler {
	return &MessageHandler{service: s, maxUpload: maxUpload}
}

// Conversations 会话列表
func (h *MessageHandler) Conversations(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	convs, err := h.service.Conversations(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, convs)
}

// Thread 打开会话，对方发来的未读消息会被标记为已读
func (h *MessageHandler) Thread(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	counterpart, ok := paramID(c, "counterpart")
	if !ok {
		return
	}
	thread, err := h.service.OpenThread(c.Request.Context(), id, counterpart)
	if err != nil {
		failWith(c, err, thread)
		return
	}
	response.Success(c, thread)
}

// Send 发送文本消息
func (h *MessageHandler) Send(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	counterpart, ok := paramID(c, "counterpart")
	if !ok {
		return
	}
	var req struct {
		Content string `json:"content"`
	}
	if !bindJSON(c, &req) {
		return
	}
	m, err := h.service.Send(c.Request.Context(), id, counterpart, req.Content)
	if err != nil {
		fail(c, err)
		return
	}
	response.SuccessWithMessage(c, "消息发送成功", m)
}

// SendVoice 发送语音消息，表单字段 file
func (h *MessageHandler) SendVoice(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	counterpart, ok := paramID(c, "counterpart")
	if !ok {
		return
	}
	audio, ok := formFile(c, "file", h.maxUpload)
	if !ok {
		return
	}
	m, err := h.service.SendVoice(c.Request.Context(), id, counterpart, audio)
	if err != nil {
		fail(c, err)
		return
	}
	response.SuccessWithMessage(c, "消息发送成功", m)
}

// MarkRead 批量标记已读
func (h *MessageHandler) MarkRead(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	var req struct {
		IDs []uint `json:"ids"`
	}
	if !bindJSON(c, &req) {
		return
	}
	n, err := h.service.MarkRead(c.Request.Context(), id, req.IDs)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, gin.H{"updated": n})
}

// UnreadCount 未读总数
func (h *MessageHandler) UnreadCount(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	n, err := h.service.UnreadCount(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, gin.H{"unread_count": n})
}
