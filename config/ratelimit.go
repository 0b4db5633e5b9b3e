package config

import "errors"

// RateLimitConfig 按来源主机限流配置
type RateLimitConfig struct {
	// Enabled 是否启用
	Enabled bool `json:"enabled"`

	// RequestsPerSecond 每个来源主机的稳态速率
	RequestsPerSecond float64 `json:"requests_per_second"`

	// Burst 突发容量
	Burst int `json:"burst"`

	// MaxTrackedHosts 跟踪的来源主机上限，超出后淘汰最久未用的
	MaxTrackedHosts int `json:"max_tracked_hosts"`
}

// DefaultRateLimitConfig 返回默认限流配置
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Enabled:           false, // 默认关闭
		RequestsPerSecond: 50,    // 50 req/s
		Burst:             100,   // 突发 100
		MaxTrackedHosts:   1024,  // 最多跟踪 1024 个来源
	}
}

// Validate 验证限流配置
func (c RateLimitConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.RequestsPerSecond <= 0 {
		return errors.New("requests_per_second must be positive")
	}
	if c.Burst <= 0 {
		return errors.New("burst must be positive")
	}
	if c.MaxTrackedHosts <= 0 {
		return errors.New("max_tracked_hosts must be positive")
	}
	return nil
}
