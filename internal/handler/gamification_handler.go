package handler

import (
	"time-capsule/pkg/response"

	"github.com/gin-gonic/gin"
)

// GamificationHandler 积分、奖励与竞赛
type GamificationHandler struct {
	service GamificationAPI
}

// NewGamificationHandler 创建GamificationHandler实例
func NewGamificationHandler(s GamificationAPI) *GamificationHandler {
	return &GamificationHandler{service: s}
}

// Awards 奖励（按类型分组）
func (h *GamificationHandler) Awards(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	groups, err := h.service.Awards(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, groups)
}

// Progress 竞赛进度
func (h *GamificationHandler) Progress(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	p, err := h.service.Progress(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, p)
}

// Participations 竞赛记录
func (h *GamificationHandler) Participations(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	list, err := h.service.Participations(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, list)
}

// RecordParticipation 记录本人参加的竞赛
func (h *GamificationHandler) RecordParticipation(c *gin.Context) {
	me, ok := identity(c)
	if !ok {
		return
	}
	var req struct {
		Title  string `json:"title"`
		Stages int    `json:"stages_completed"`
	}
	if !bindJSON(c, &req) {
		return
	}
	p, err := h.service.RecordParticipation(c.Request.Context(), me, req.Title, req.Stages)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, p)
}

// GrantAward 管理员授予奖励
func (h *GamificationHandler) GrantAward(c *gin.Context) {
	me, ok := identity(c)
	if !ok {
		return
	}
	var req struct {
		ProfileID uint   `json:"profile_id"`
		Kind      string `json:"kind"`
		Name      string `json:"name"`
	}
	if !bindJSON(c, &req) {
		return
	}
	a, err := h.service.GrantAward(c.Request.Context(), me, req.ProfileID, req.Kind, req.Name)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, a)
}
