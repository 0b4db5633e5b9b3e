package hostrpc

import "errors"

// 公共错误定义
var (
	// ErrAlreadyStarted 服务已启动
	ErrAlreadyStarted = errors.New("hostrpc: service already started")

	// ErrNotStarted 服务未启动
	ErrNotStarted = errors.New("hostrpc: service not started")

	// ErrServiceClosed 服务已停止，不能再次启动
	ErrServiceClosed = errors.New("hostrpc: service closed")

	// ErrHostUnresponsive 宿主线程未在健康检查时限内响应
	ErrHostUnresponsive = errors.New("hostrpc: host thread unresponsive")
)
