package service

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound 资源不存在（或不属于当前身份）
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized 凭证无效
	ErrUnauthorized = errors.New("invalid credentials")
	// ErrForbidden 无权操作
	ErrForbidden = errors.New("forbidden")
	// ErrNotFriends 双方不是已接受的好友
	ErrNotFriends = errors.New("not friends")
	// ErrConflict 与现有数据冲突
	ErrConflict = errors.New("conflict")
	// ErrCapsuleSealed 胶囊已封存
	ErrCapsuleSealed = errors.New("capsule is sealed")
)

// ValidationError 输入校验失败，不会访问存储
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// IsValidation 是否为校验错误
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
