// Package config 提供统一的配置管理
//
// 本包采用混合配置模式：
//   - 主 Config 结构体嵌入所有子配置
//   - 每个子配置在独立文件中定义，提供 DefaultXxxConfig() 与 Validate()
//   - 支持从 JSON 加载和保存配置
//
// 使用示例：
//
//	// 创建默认配置
//	cfg := config.NewConfig()
//	cfg.Server.Port = 9000
//	cfg.Codec.Encryption = true
//
//	// 从 JSON 加载
//	cfg, err := config.FromJSON(data)
//
//	// 从文件加载
//	cfg, err := config.LoadFile("hostrpc.json")
package config

import "fmt"

// Config 是 hostrpc 的完整配置结构
//
// 配置按照功能模块组织：
//   - Server: WebSocket 监听与连接
//   - Auth: 共享密钥与会话
//   - Codec: 线上编码与加密
//   - Dispatch: 请求分发
//   - Bridge: 宿主线程桥
//   - Cache: 宿主对象查找缓存
//   - RateLimit: 按来源限流
//   - Metrics: 指标与健康检查
type Config struct {
	// Server 服务端配置
	Server ServerConfig `json:"server"`

	// Auth 认证配置
	Auth AuthConfig `json:"auth"`

	// Codec 编解码配置
	Codec CodecConfig `json:"codec"`

	// Dispatch 分发配置
	Dispatch DispatchConfig `json:"dispatch"`

	// Bridge 宿主线程桥配置
	Bridge BridgeConfig `json:"bridge"`

	// Cache 缓存配置
	Cache CacheConfig `json:"cache"`

	// RateLimit 限流配置
	RateLimit RateLimitConfig `json:"rate_limit"`

	// Metrics 指标配置
	Metrics MetricsConfig `json:"metrics"`
}

// NewConfig 创建默认配置
//
// 返回的配置使用所有组件的默认值，适用于大多数场景。
func NewConfig() *Config {
	return &Config{
		Server:    DefaultServerConfig(),
		Auth:      DefaultAuthConfig(),
		Codec:     DefaultCodecConfig(),
		Dispatch:  DefaultDispatchConfig(),
		Bridge:    DefaultBridgeConfig(),
		Cache:     DefaultCacheConfig(),
		RateLimit: DefaultRateLimitConfig(),
		Metrics:   DefaultMetricsConfig(),
	}
}

// Validate 验证配置的有效性
//
// 检查所有子配置是否有效，返回的错误带有子配置名前缀。
func (c *Config) Validate() error {
	checks := []struct {
		name string
		v    interface{ Validate() error }
	}{
		{"server", c.Server},
		{"auth", c.Auth},
		{"codec", c.Codec},
		{"dispatch", c.Dispatch},
		{"bridge", c.Bridge},
		{"cache", c.Cache},
		{"rate_limit", c.RateLimit},
		{"metrics", c.Metrics},
	}
	for _, check := range checks {
		if err := check.v.Validate(); err != nil {
			return fmt.Errorf("%s: %w", check.name, err)
		}
	}
	return nil
}
