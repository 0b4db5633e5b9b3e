package capability

import (
	"errors"
	"fmt"
)

// ErrInvalidInput 调用方输入不合法
//
// 处理函数返回包装了该错误的 error 时，
// 执行错误归属为 client，其余归属为 server。
var ErrInvalidInput = errors.New("capability: invalid input")

// InvalidInput 构造调用方输入错误
//
// 错误信息只包含格式化后的文本，不带前缀。
func InvalidInput(format string, args ...any) error {
	return &inputError{msg: fmt.Sprintf(format, args...)}
}

type inputError struct {
	msg string
}

func (e *inputError) Error() string { return e.msg }

func (e *inputError) Is(target error) bool { return target == ErrInvalidInput }

// ArgumentError 参数转换失败
type ArgumentError struct {
	// Index 参数位置（从 0 开始）
	Index int

	// Param 声明的参数
	Param Param

	// Value 原始值
	Value any

	// Err 底层原因
	Err error
}

func (e *ArgumentError) Error() string {
	name := e.Param.Name
	if name == "" {
		name = "?"
	}
	return fmt.Sprintf("argument %d (%s %s): %v", e.Index, name, e.Param.Kind, e.Err)
}

func (e *ArgumentError) Unwrap() error { return e.Err }
