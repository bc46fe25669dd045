package handler

import (
	"time-capsule/pkg/response"

	"github.com/gin-gonic/gin"
)

// AuthHandler 认证处理器
type AuthHandler struct {
	service AuthAPI
}

// NewAuthHandler 创建AuthHandler实例
func NewAuthHandler(s AuthAPI) *AuthHandler {
	return &AuthHandler{service: s}
}

// Register 注册
func (h *AuthHandler) Register(c *gin.Context) {
	var req struct {
		Email           string `json:"email"`
		Password        string `json:"password"`
		ConfirmPassword string `json:"confirm_password"`
	}
	if !bindJSON(c, &req) {
		return
	}
	p, token, err := h.service.Register(c.Request.Context(), req.Email, req.Password, req.ConfirmPassword)
	if err != nil {
		fail(c, err)
		return
	}
	response.SuccessWithMessage(c, "注册成功", gin.H{"profile": p, "access_token": token})
}

// Login 登录
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !bindJSON(c, &req) {
		return
	}
	p, token, err := h.service.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		fail(c, err)
		return
	}
	response.SuccessWithMessage(c, "登录成功", gin.H{"profile": p, "access_token": token})
}

// Logout 登出
func (h *AuthHandler) Logout(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	if err := h.service.Logout(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	response.SuccessWithMessage(c, "已登出", nil)
}

// Session 当前会话
func (h *AuthHandler) Session(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	p, err := h.service.Session(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, p)
}

// Refresh 刷新令牌
func (h *AuthHandler) Refresh(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	token, err := h.service.Refresh(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, gin.H{"access_token": token})
}
