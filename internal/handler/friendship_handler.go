package handler

import (
	"errors"

	"time-capsule/internal/service"
	"time-capsule/pkg/response"

	"github.com/gin-gonic/gin"
)

// FriendshipHandler 好友关系处理器
type FriendshipHandler struct {
	service FriendshipAPI
}

// NewFriendshipHandler 创建FriendshipHandler实例
func NewFriendshipHandler(s FriendshipAPI) *FriendshipHandler {
	return &FriendshipHandler{service: s}
}

// List 好友与待处理请求
func (h *FriendshipHandler) List(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	list, err := h.service.List(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, list)
}

// Request 发起请求，已存在关系时返回409并附带该记录
func (h *FriendshipHandler) Request(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	var req struct {
		FriendID uint `json:"friend_id"`
	}
	if !bindJSON(c, &req) {
		return
	}
	f, err := h.service.Request(c.Request.Context(), id, req.FriendID)
	if err != nil {
		if errors.Is(err, service.ErrConflict) && f != nil {
			response.Conflict(c, "好友关系已存在", f)
			return
		}
		fail(c, err)
		return
	}
	response.SuccessWithMessage(c, "好友请求已发送", f)
}

// Respond 接受或拒绝
func (h *FriendshipHandler) Respond(c *gin.Context) {
	me, ok := identity(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Status string `json:"status"`
	}
	if !bindJSON(c, &req) {
		return
	}
	f, err := h.service.Respond(c.Request.Context(), me, id, req.Status)
	if err != nil {
		failWith(c, err, f)
		return
	}
	response.Success(c, f)
}
