package handler

import (
	"strings"
	"time"

	"time-capsule/internal/service"
	"time-capsule/pkg/response"

	"github.com/gin-gonic/gin"
)

const dateLayout = "2006-01-02"

// CapsuleHandler 时间胶囊处理器
type CapsuleHandler struct {
	service   CapsuleAPI
	maxUpload int64
}

// NewCapsuleHandler 创建CapsuleHandler实例
func NewCapsuleHandler(s CapsuleAPI, maxUpload int64) *CapsuleHandler {
	return &CapsuleHandler{service: s, maxUpload: maxUpload}
}

type capsuleRequest struct {
	Title    string `json:"title"`
	Message  string `json:"message"`
	OpenDate string `json:"open_date"` // YYYY-MM-DD，也接受 RFC3339
	Seal     bool   `json:"seal"`
}

func (r capsuleRequest) input() (service.CapsuleInput, bool) {
	in := service.CapsuleInput{Title: r.Title, Message: r.Message}
	raw := strings.TrimSpace(r.OpenDate)
	if raw == "" {
		return in, true
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		if t, err = time.Parse(time.RFC3339, raw); err != nil {
			return in, false
		}
	}
	in.OpenDate = &t
	return in, true
}

func (h *CapsuleHandler) bind(c *gin.Context) (capsuleRequest, service.CapsuleInput, bool) {
	var req capsuleRequest
	if !bindJSON(c, &req) {
		return req, service.CapsuleInput{}, false
	}
	in, ok := req.input()
	if !ok {
		response.Invalid(c, "open_date", "开启日期格式应为 YYYY-MM-DD")
		return req, in, false
	}
	return req, in, true
}

// List 列表，支持 search、sort(date|title)、favorites=true
func (h *CapsuleHandler) List(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	opts := service.ListOptions{
		Search:        c.Query("search"),
		Sort:          c.Query("sort"),
		FavoritesOnly: c.Query("favorites") == "true",
	}
	out, err := h.service.List(c.Request.Context(), id, opts)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, out)
}

// Get 查看
func (h *CapsuleHandler) Get(c *gin.Context) {
	me, id, ok := h.ids(c)
	if !ok {
		return
	}
	capsule, err := h.service.Get(c.Request.Context(), me, id)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, capsule)
}

// Create 新建；seal=true 时直接封存
func (h *CapsuleHandler) Create(c *gin.Context) {
	me, ok := identity(c)
	if !ok {
		return
	}
	req, in, ok := h.bind(c)
	if !ok {
		return
	}
	if req.Seal {
		capsule, err := h.service.Seal(c.Request.Context(), me, 0, in)
		if err != nil {
			fail(c, err)
			return
		}
		response.SuccessWithMessage(c, "胶囊已封存", capsule)
		return
	}
	capsule, err := h.service.CreateDraft(c.Request.Context(), me, in)
	if err != nil {
		fail(c, err)
		return
	}
	response.SuccessWithMessage(c, "草稿已保存", capsule)
}

// Update 编辑草稿
func (h *CapsuleHandler) Update(c *gin.Context) {
	me, id, ok := h.ids(c)
	if !ok {
		return
	}
	_, in, ok := h.bind(c)
	if !ok {
		return
	}
	capsule, err := h.service.Update(c.Request.Context(), me, id, in)
	if err != nil {
		fail(c, err)
		return
	}
	response.SuccessWithMessage(c, "草稿已保存", capsule)
}

// Seal 封存已有草稿
func (h *CapsuleHandler) Seal(c *gin.Context) {
	me, id, ok := h.ids(c)
	if !ok {
		return
	}
	_, in, ok := h.bind(c)
	if !ok {
		return
	}
	capsule, err := h.service.Seal(c.Request.Context(), me, id, in)
	if err != nil {
		fail(c, err)
		return
	}
	response.SuccessWithMessage(c, "胶囊已封存", capsule)
}

// Unseal 解封
func (h *CapsuleHandler) Unseal(c *gin.Context) {
	me, id, ok := h.ids(c)
	if !ok {
		return
	}
	capsule, err := h.service.Unseal(c.Request.Context(), me, id)
	if err != nil {
		fail(c, err)
		return
	}
	response.SuccessWithMessage(c, "胶囊已解封", capsule)
}

// ToggleFavorite 切换收藏
func (h *CapsuleHandler) ToggleFavorite(c *gin.Context) {
	me, id, ok := h.ids(c)
	if !ok {
		return
	}
	capsule, err := h.service.ToggleFavorite(c.Request.Context(), me, id)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, capsule)
}

// Delete 删除
func (h *CapsuleHandler) Delete(c *gin.Context) {
	me, id, ok := h.ids(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), me, id); err != nil {
		fail(c, err)
		return
	}
	response.SuccessWithMessage(c, "胶囊已删除", nil)
}

// UploadImage 上传图片，表单字段 file
func (h *CapsuleHandler) UploadImage(c *gin.Context) {
	me, id, ok := h.ids(c)
	if !ok {
		return
	}
	file, ok := formFile(c, "file", h.maxUpload)
	if !ok {
		return
	}
	capsule, err := h.service.UploadImage(c.Request.Context(), me, id, file)
	if err != nil {
		fail(c, err)
		return
	}
	response.SuccessWithMessage(c, "图片已上传", capsule)
}

func (h *CapsuleHandler) ids(c *gin.Context) (uint, uint, bool) {
	me, ok := identity(c)
	if !ok {
		return 0, 0, false
	}
	id, ok := paramID(c, "id")
	return me, id, ok
}
