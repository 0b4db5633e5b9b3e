package config

import (
	"errors"
	"time"
)

// DispatchConfig 请求分发配置
type DispatchConfig struct {
	// SlowThreshold 超过该耗时的请求记录告警日志，0 表示不记录
	SlowThreshold Duration `json:"slow_threshold"`

	// ExposeFault 是否在 EXECUTION_ERROR 中返回 fault 字段
	ExposeFault bool `json:"expose_fault"`
}

// DefaultDispatchConfig 返回默认分发配置
func DefaultDispatchConfig() DispatchConfig {
	return DispatchConfig{
		SlowThreshold: Duration(time.Second), // 慢请求：1 秒
		ExposeFault:   true,                  // 返回 client/server 归属
	}
}

// Validate 验证分发配置
func (c DispatchConfig) Validate() error {
	if c.SlowThreshold < 0 {
		return errors.New("slow_threshold must be non-negative")
	}
	return nil
}
