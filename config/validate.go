package config

import (
	"errors"
	"fmt"
	"strings"
)

// ValidateAll 验证整个配置的有效性
//
// 这是 Config.Validate() 的别名，额外处理 nil。
func ValidateAll(c *Config) error {
	if c == nil {
		return errors.New("config is nil")
	}
	return c.Validate()
}

// ValidateAndFix 验证配置并尝试自动修复常见问题
//
// 可修复的问题：
//   - 空的 Origin 列表 -> 不限制
//   - 升级路径缺少前导 '/' -> 补齐
//   - 未知的加密算法或密钥派生方式 -> 兼容模式
//   - 非正的队列深度或缓存容量 -> 默认值
func ValidateAndFix(c *Config) (*Config, error) {
	if c == nil {
		return NewConfig(), nil
	}

	defaults := NewConfig()

	if len(c.Server.AllowedOrigins) == 0 {
		c.Server.AllowedOrigins = defaults.Server.AllowedOrigins
	}
	if !strings.HasPrefix(c.Server.Path, "/") {
		c.Server.Path = "/" + c.Server.Path
	}
	if c.Codec.Validate() != nil {
		c.Codec.Cipher = defaults.Codec.Cipher
		c.Codec.KeyDerivation = defaults.Codec.KeyDerivation
	}
	if c.Bridge.QueueDepth <= 0 {
		c.Bridge.QueueDepth = defaults.Bridge.QueueDepth
	}
	if c.Cache.World.Capacity <= 0 {
		c.Cache.World.Capacity = defaults.Cache.World.Capacity
	}
	if c.Cache.Subject.Capacity <= 0 {
		c.Cache.Subject.Capacity = defaults.Cache.Subject.Capacity
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed after fixes: %w", err)
	}
	return c, nil
}

// MustValidate 验证配置，如果失败则 panic
//
// 仅用于初始化阶段或测试代码。
func MustValidate(c *Config) {
	if err := ValidateAll(c); err != nil {
		panic(fmt.Sprintf("invalid config: %v", err))
	}
}
