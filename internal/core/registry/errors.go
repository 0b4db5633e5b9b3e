package registry

import "errors"

var (
	// ErrModuleNotFound 模块不存在
	ErrModuleNotFound = errors.New("module not found")

	// ErrMethodNotFound 方法不存在
	ErrMethodNotFound = errors.New("method not found")

	// ErrNilModule 模块为 nil
	ErrNilModule = errors.New("registry: nil module")

	// ErrEmptyModuleName 无法确定模块名
	ErrEmptyModuleName = errors.New("registry: empty module name")

	// ErrEmptyOperationName 操作名为空
	ErrEmptyOperationName = errors.New("registry: empty operation name")

	// ErrNilHandler 操作缺少处理函数
	ErrNilHandler = errors.New("registry: nil operation handler")

	// ErrDuplicateOperation 同一模块内操作名重复（不区分大小写）
	ErrDuplicateOperation = errors.New("registry: duplicate operation")
)
