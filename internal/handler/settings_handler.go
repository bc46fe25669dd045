package handler

import (
	"time-capsule/pkg/response"

	"github.com/gin-gonic/gin"
)

// SettingsHandler 全局设置
type SettingsHandler struct {
	service SettingsAPI
}

// NewSettingsHandler 创建SettingsHandler实例
func NewSettingsHandler(s SettingsAPI) *SettingsHandler {
	return &SettingsHandler{service: s}
}

// Get 读取设置
func (h *SettingsHandler) Get(c *gin.Context) {
	s, err := h.service.Get(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, s)
}

// Update 修改设置（管理员）
func (h *SettingsHandler) Update(c *gin.Context) {
	me, ok := identity(c)
	if !ok {
		return
	}
	var req struct {
		MinOrderAmount  float64 `json:"min_order_amount"`
		PriceMultiplier float64 `json:"price_multiplier"`
	}
	if !bindJSON(c, &req) {
		return
	}
	s, err := h.service.Update(c.Request.Context(), me, req.MinOrderAmount, req.PriceMultiplier)
	if err != nil {
		fail(c, err)
		return
	}
	response.SuccessWithMessage(c, "设置已保存", s)
}
