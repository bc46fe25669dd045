package handler

import (
	"time-capsule/internal/service"
	"time-capsule/pkg/response"

	"github.com/gin-gonic/gin"
)

// ProfileHandler 档案处理器
type ProfileHandler struct {
	service   ProfileAPI
	maxUpload int64
}

// NewProfileHandler 创建ProfileHandler实例，maxUpload 为头像大小上限（字节）
func NewProfileHandler(s ProfileAPI, maxUpload int64) *ProfileHandler {
	return &ProfileHandler{service: s, maxUpload: maxUpload}
}

// Me 当前档案
func (h *ProfileHandler) Me(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	h.respond(c, id)
}

// Get 查看档案
func (h *ProfileHandler) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	h.respond(c, id)
}

func (h *ProfileHandler) respond(c *gin.Context, id uint) {
	p, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, p)
}

// Online 在线状态
func (h *ProfileHandler) Online(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	online, err := h.service.Online(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, gin.H{"profile_id": id, "online": online})
}

// Search 按公开ID搜索，?q=
func (h *ProfileHandler) Search(c *gin.Context) {
	out, err := h.service.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, out)
}

// UpdateUsername 修改显示名
func (h *ProfileHandler) UpdateUsername(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	var req struct {
		Username string `json:"username"`
	}
	if !bindJSON(c, &req) {
		return
	}
	p, err := h.service.UpdateUsername(c.Request.Context(), id, req.Username)
	if err != nil {
		fail(c, err)
		return
	}
	response.SuccessWithMessage(c, "用户名已更新", p)
}

// SetHandle 设置公开ID
func (h *ProfileHandler) SetHandle(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	var req struct {
		CustomID string `json:"custom_id"`
	}
	if !bindJSON(c, &req) {
		return
	}
	p, err := h.service.SetHandle(c.Request.Context(), id, req.CustomID)
	if err != nil {
		fail(c, err)
		return
	}
	response.SuccessWithMessage(c, "公开ID已更新", p)
}

// UploadAvatar 上传头像，表单字段 file
func (h *ProfileHandler) UploadAvatar(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	file, ok := formFile(c, "file", h.maxUpload)
	if !ok {
		return
	}
	p, err := h.service.UploadAvatar(c.Request.Context(), id, file)
	if err != nil {
		fail(c, err)
		return
	}
	response.SuccessWithMessage(c, "头像已更新", p)
}

// ChangePassword 修改密码
func (h *ProfileHandler) ChangePassword(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	var req struct {
		OldPassword     string `json:"old_password"`
		NewPassword     string `json:"new_password"`
		ConfirmPassword string `json:"confirm_password"`
	}
	if !bindJSON(c, &req) {
		return
	}
	if err := h.service.ChangePassword(c.Request.Context(), id, req.OldPassword, req.NewPassword, req.ConfirmPassword); err != nil {
		fail(c, err)
		return
	}
	response.SuccessWithMessage(c, "密码已修改", nil)
}

// AdminUpdate 管理员修改档案
func (h *ProfileHandler) AdminUpdate(c *gin.Context) {
	me, ok := identity(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Rating *int    `json:"rating"`
		Rank   *string `json:"rank"`
		Role   *string `json:"role"`
	}
	if !bindJSON(c, &req) {
		return
	}
	p, err := h.service.AdminUpdate(c.Request.Context(), me, id, service.AdminProfileUpdate{
		Rating: req.Rating,
		Rank:   req.Rank,
		Role:   req.Role,
	})
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, p)
}
