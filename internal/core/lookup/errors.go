package lookup

import (
	"errors"

	"github.com/dep2p/go-hostrpc/pkg/capability"
)

// ErrNotFound 宿主对象不存在
var ErrNotFound = errors.New("lookup: not found")

// NotFoundError 宿主对象不存在
//
// 同时匹配 ErrNotFound 与 capability.ErrInvalidInput：
// 查不到调用方给出的对象属于调用方错误。
type NotFoundError struct {
	// Kind 对象类型（Subject/World）
	Kind string

	// Key 查询键
	Key string
}

func (e *NotFoundError) Error() string {
	return e.Kind + " not found: " + e.Key
}

// Is 支持 errors.Is
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound || target == capability.ErrInvalidInput
}
