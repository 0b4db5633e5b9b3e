package config

import (
	"errors"
	"time"
)

// BridgeConfig 宿主线程桥配置
type BridgeConfig struct {
	// QueueDepth 任务队列深度，队列满时调用方阻塞（背压）
	QueueDepth int `json:"queue_depth"`

	// WaitTimeout 等待宿主线程结果的超时，0 表示只受 ctx 约束
	WaitTimeout Duration `json:"wait_timeout"`

	// LockOSThread 宿主循环是否独占一个系统线程
	LockOSThread bool `json:"lock_os_thread"`

	// ExternalLoop 由嵌入方在自己的主循环中调用 Drain 处理队列，
	// 不启动内置宿主循环
	ExternalLoop bool `json:"external_loop"`
}

// DefaultBridgeConfig 返回默认宿主线程桥配置
func DefaultBridgeConfig() BridgeConfig {
	return BridgeConfig{
		QueueDepth:   256,                        // 队列深度
		WaitTimeout:  Duration(30 * time.Second), // 等待超时：30 秒
		LockOSThread: true,                       // 独占系统线程
		ExternalLoop: false,                      // 使用内置宿主循环
	}
}

// Validate 验证宿主线程桥配置
func (c BridgeConfig) Validate() error {
	if c.QueueDepth <= 0 {
		return errors.New("queue_depth must be positive")
	}
	if c.WaitTimeout < 0 {
		return errors.New("wait_timeout must be non-negative")
	}
	return nil
}
