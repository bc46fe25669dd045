package handler

import (
	"strconv"

	"time-capsule/pkg/response"

	"github.com/gin-gonic/gin"
)

// VoiceHandler 语音动态处理器
type VoiceHandler struct {
	service   VoiceAPI
	maxUpload int64
}

// NewVoiceHandler 创建VoiceHandler实例
func NewVoiceHandler(s VoiceAPI, maxUpload int64) *VoiceHandler {
	return &VoiceHandler{service: s, maxUpload: maxUpload}
}

// Feed 公开动态，limit/offset 分页
func (h *VoiceHandler) Feed(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))
	posts, err := h.service.Feed(c.Request.Context(), limit, offset)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, posts)
}

// Mine 本人的动态
func (h *VoiceHandler) Mine(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	posts, err := h.service.Mine(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, posts)
}

// Create 发布，multipart 字段 file、title、duration
func (h *VoiceHandler) Create(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	audio, ok := formFile(c, "file", h.maxUpload)
	if !ok {
		return
	}
	duration, err := strconv.Atoi(c.DefaultPostForm("duration", "0"))
	if err != nil {
		response.BadRequest(c, "duration 参数无效")
		return
	}
	post, err := h.service.Create(c.Request.Context(), id, c.PostForm("title"), duration, audio)
	if err != nil {
		fail(c, err)
		return
	}
	response.SuccessWithMessage(c, "发布成功", post)
}

// Delete 删除本人的动态
func (h *VoiceHandler) Delete(c *gin.Context) {
	me, ok := identity(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), me, id); err != nil {
		fail(c, err)
		return
	}
	response.SuccessWithMessage(c, "已删除", nil)
}
