package handler

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strconv"

	"time-capsule/internal/service"
	"time-capsule/pkg/jwt"
	"time-capsule/pkg/response"

	"github.com/gin-gonic/gin"
)

const defaultMaxUpload int64 = 10 << 20

// identity 读取认证中间件写入的身份，缺失时直接返回401
func identity(c *gin.Context) (uint, bool) {
	id, ok := jwt.Identity(c)
	if !ok {
		response.Unauthorized(c, "用户未认证")
		return 0, false
	}
	return id, true
}

// paramID 解析路径中的数字ID
func paramID(c *gin.Context, name string) (uint, bool) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || v == 0 {
		response.BadRequest(c, name+" 参数无效")
		return 0, false
	}
	return uint(v), true
}

// formFile 读取 multipart 文件，超过 maxBytes 时返回400
func formFile(c *gin.Context, field string, maxBytes int64) (service.Upload, bool) {
	if maxBytes <= 0 {
		maxBytes = defaultMaxUpload
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes+1<<20)

	fh, err := c.FormFile(field)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.BadRequest(c, "文件过大")
			return service.Upload{}, false
		}
		response.BadRequest(c, "请选择要上传的文件")
		return service.Upload{}, false
	}
	if fh.Size > maxBytes {
		response.BadRequest(c, "文件过大")
		return service.Upload{}, false
	}

	f, err := fh.Open()
	if err != nil {
		response.BadRequest(c, "读取文件失败")
		return service.Upload{}, false
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		response.BadRequest(c, "读取文件失败")
		return service.Upload{}, false
	}

	contentType := fh.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	return service.Upload{Filename: fh.Filename, ContentType: contentType, Body: bytes.NewReader(data)}, true
}

func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		response.BadRequest(c, err.Error())
		return false
	}
	return true
}
