package handler

import (
	"errors"

	"time-capsule/internal/service"
	"time-capsule/pkg/logger"
	"time-capsule/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// fail 把服务层错误翻译为统一响应
func fail(c *gin.Context, err error) {
	failWith(c, err, nil)
}

// failWith 同 fail，冲突时附带 data（如已存在的好友关系）
func failWith(c *gin.Context, err error, data interface{}) {
	var ve *service.ValidationError
	switch {
	case errors.As(err, &ve):
		response.Invalid(c, ve.Field, ve.Message)
	case errors.Is(err, service.ErrUnauthorized):
		response.Unauthorized(c, "邮箱或密码错误")
	case errors.Is(err, service.ErrNotFriends):
		response.ForbiddenWithData(c, "只能与好友互发消息", data)
	case errors.Is(err, service.ErrForbidden):
		response.Forbidden(c, "无权执行该操作")
	case errors.Is(err, service.ErrNotFound):
		response.NotFound(c, "资源不存在")
	case errors.Is(err, service.ErrCapsuleSealed):
		response.Conflict(c, "胶囊已封存，无法修改", data)
	case errors.Is(err, service.ErrConflict):
		response.Conflict(c, err.Error(), data)
	default:
		_ = c.Error(err)
		logger.Error("请求处理失败", zap.String("path", c.FullPath()), zap.Error(err))
		response.InternalError(c, "服务器内部错误")
	}
}
