package demohost

import "github.com/dep2p/go-hostrpc/pkg/capability"

// 宿主操作错误，均归属调用方输入
var (
	ErrInvalidName    = capability.InvalidInput("Subject name must not be empty")
	ErrAlreadyOnline  = capability.InvalidInput("Subject is already online")
	ErrWorldNotLoaded = capability.InvalidInput("World is not loaded")
)
