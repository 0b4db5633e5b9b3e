package server

import "errors"

var (
	// ErrMissingDependency 缺少分发器、认证管理器或编解码器
	ErrMissingDependency = errors.New("server: dispatcher, auth manager and codec are required")

	// ErrAlreadyServing 已在服务
	ErrAlreadyServing = errors.New("server: already serving")

	// ErrServerClosed 服务已停止
	ErrServerClosed = errors.New("server: closed")
)
