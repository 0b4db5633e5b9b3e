package config

import (
	"errors"
	"time"
)

// DefaultAuthKey 默认共享密钥
//
// 仅用于开发环境，生产部署必须修改。
const DefaultAuthKey = "default-secret-key-change-me"

// AuthConfig 认证配置
type AuthConfig struct {
	// Key 共享密钥，同时作为加密模式的密钥材料
	Key string `json:"key"`

	// SessionTimeout 会话滑动超时
	SessionTimeout Duration `json:"session_timeout"`

	// PruneInterval 过期会话清理间隔
	PruneInterval Duration `json:"prune_interval"`
}

// DefaultAuthConfig 返回默认认证配置
func DefaultAuthConfig() AuthConfig {
	return AuthConfig{
		Key:            DefaultAuthKey,             // 默认密钥：启动时会告警
		SessionTimeout: Duration(30 * time.Minute), // 会话超时：30 分钟无访问即失效
		PruneInterval:  Duration(time.Minute),      // 清理间隔：1 分钟
	}
}

// IsDefaultKey 是否仍在使用默认密钥
func (c AuthConfig) IsDefaultKey() bool {
	return c.Key == DefaultAuthKey
}

// Validate 验证认证配置
func (c AuthConfig) Validate() error {
	if c.Key == "" {
		return errors.New("key must not be empty")
	}
	if c.SessionTimeout <= 0 {
		return errors.New("session_timeout must be positive")
	}
	if c.PruneInterval <= 0 {
		return errors.New("prune_interval must be positive")
	}
	return nil
}
