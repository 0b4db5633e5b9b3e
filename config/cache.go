package config

import (
	"errors"
	"fmt"
	"time"
)

// CacheFamilyConfig 单个缓存家族配置
type CacheFamilyConfig struct {
	// TTL 条目存活时间
	TTL Duration `json:"ttl"`

	// Capacity 软容量，达到后插入前先清扫过期条目
	Capacity int `json:"capacity"`
}

// Validate 验证缓存家族配置
func (c CacheFamilyConfig) Validate() error {
	if c.TTL <= 0 {
		return errors.New("ttl must be positive")
	}
	if c.Capacity <= 0 {
		return errors.New("capacity must be positive")
	}
	return nil
}

// CacheConfig 宿主对象查找缓存配置
type CacheConfig struct {
	// World 世界缓存
	World CacheFamilyConfig `json:"world"`

	// Subject 主体缓存（名称 + 唯一标识双索引）
	Subject CacheFamilyConfig `json:"subject"`

	// RefreshOnHit 命中且引用仍有效时是否刷新创建时间
	RefreshOnHit bool `json:"refresh_on_hit"`
}

// DefaultCacheConfig 返回默认缓存配置
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		World: CacheFamilyConfig{
			TTL:      Duration(60 * time.Second), // 世界：60 秒
			Capacity: 100,                        // 软容量 100
		},
		Subject: CacheFamilyConfig{
			TTL:      Duration(30 * time.Second), // 主体：30 秒
			Capacity: 500,                        // 软容量 500
		},
		RefreshOnHit: true, // 确认有效的命中刷新时间
	}
}

// Validate 验证缓存配置
func (c CacheConfig) Validate() error {
	if err := c.World.Validate(); err != nil {
		return fmt.Errorf("world: %w", err)
	}
	if err := c.Subject.Validate(); err != nil {
		return fmt.Errorf("subject: %w", err)
	}
	return nil
}
