package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// CodeOK 成功时的业务码，失败时业务码取对应的HTTP状态码
const CodeOK = 0

// Response 统一响应结构，HTTP状态码始终为200，业务状态看 Code
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func write(c *gin.Context, code int, message string, data interface{}) {
	c.JSON(http.StatusOK, Response{Code: code, Message: message, Data: data})
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	write(c, CodeOK, "success", data)
}

// SuccessWithMessage 带自定义消息的成功响应
func SuccessWithMessage(c *gin.Context, message string, data interface{}) {
	write(c, CodeOK, message, data)
}

// Invalid 校验失败，data 中带出出错字段
func Invalid(c *gin.Context, field, message string) {
	write(c, http.StatusBadRequest, message, gin.H{"field": field})
}

func BadRequest(c *gin.Context, message string) {
	write(c, http.StatusBadRequest, message, nil)
}

func Unauthorized(c *gin.Context, message string) {
	write(c, http.StatusUnauthorized, message, nil)
}

func Forbidden(c *gin.Context, message string) {
	write(c, http.StatusForbidden, message, nil)
}

// ForbiddenWithData 403，附带拒绝时的结果（如空的会话线程）
func ForbiddenWithData(c *gin.Context, message string, data interface{}) {
	write(c, http.StatusForbidden, message, data)
}

func NotFound(c *gin.Context, message string) {
	write(c, http.StatusNotFound, message, nil)
}

// Conflict 409，data 可为空
func Conflict(c *gin.Context, message string, data interface{}) {
	write(c, http.StatusConflict, message, data)
}

func TooManyRequests(c *gin.Context, message string) {
	write(c, http.StatusTooManyRequests, message, nil)
}

// InternalError 500，不向客户端暴露内部错误
func InternalError(c *gin.Context, message string) {
	write(c, http.StatusInternalServerError, message, nil)
}
