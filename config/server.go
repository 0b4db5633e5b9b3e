package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"
)

// ServerConfig WebSocket 服务端配置
type ServerConfig struct {
	// Host 监听地址
	Host string `json:"host"`

	// Port 监听端口（1000-65535）
	Port int `json:"port"`

	// Path WebSocket 升级路径
	Path string `json:"path"`

	// AllowedOrigins 允许的 Origin 列表，"*" 表示不限制
	AllowedOrigins []string `json:"allowed_origins"`

	// MaxFrameSize 单帧最大字节数
	MaxFrameSize int64 `json:"max_frame_size"`

	// Timeout 握手超时（1s-300s）
	Timeout Duration `json:"timeout"`

	// IdleTimeout 空闲超时，超过后强制关闭连接
	IdleTimeout Duration `json:"idle_timeout"`

	// WriteTimeout 单次写超时
	WriteTimeout Duration `json:"write_timeout"`

	// MaxConnections 最大并发连接数，0 表示不限制
	MaxConnections int `json:"max_connections"`

	// EnableCompression 是否协商 permessage-deflate
	EnableCompression bool `json:"enable_compression"`

	// ShutdownTimeout 关闭时等待连接退出的时间
	ShutdownTimeout Duration `json:"shutdown_timeout"`

	// TLSCertFile 证书文件，与 TLSKeyFile 同时设置时启用 wss
	TLSCertFile string `json:"tls_cert_file,omitempty"`

	// TLSKeyFile 私钥文件
	TLSKeyFile string `json:"tls_key_file,omitempty"`
}

// DefaultServerConfig 返回默认服务端配置
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		// ════════════════════════════════════════════════════════════════════
		// 监听配置
		// ════════════════════════════════════════════════════════════════════
		Host: "0.0.0.0", // 监听所有网卡
		Port: 8765,      // 默认端口
		Path: "/",       // 升级路径：根路径

		// ════════════════════════════════════════════════════════════════════
		// 访问控制
		// ════════════════════════════════════════════════════════════════════
		AllowedOrigins: []string{"*"}, // 不限制 Origin
		MaxConnections: 0,             // 不限制并发连接数

		// ════════════════════════════════════════════════════════════════════
		// 帧与超时
		// ════════════════════════════════════════════════════════════════════
		MaxFrameSize:      65536,                       // 单帧上限：64 KiB
		Timeout:           Duration(30 * time.Second),  // 握手超时：30 秒
		IdleTimeout:       Duration(300 * time.Second), // 空闲超时：5 分钟无入站帧即关闭
		WriteTimeout:      Duration(10 * time.Second),  // 写超时：10 秒
		EnableCompression: true,                        // 启用 permessage-deflate
		ShutdownTimeout:   Duration(5 * time.Second),   // 关闭等待：5 秒
	}
}

// Addr 返回 host:port
func (c ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// TLSEnabled 是否启用 TLS
func (c ServerConfig) TLSEnabled() bool {
	return c.TLSCertFile != "" && c.TLSKeyFile != ""
}

// AllowsAnyOrigin 是否不限制 Origin
func (c ServerConfig) AllowsAnyOrigin() bool {
	for _, o := range c.AllowedOrigins {
		if strings.TrimSpace(o) == "*" {
			return true
		}
	}
	return len(c.AllowedOrigins) == 0
}

// Validate 验证服务端配置
func (c ServerConfig) Validate() error {
	if c.Port < 1000 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range [1000, 65535]", c.Port)
	}
	if !strings.HasPrefix(c.Path, "/") {
		return errors.New("path must start with '/'")
	}
	if c.MaxFrameSize <= 0 {
		return errors.New("max_frame_size must be positive")
	}
	if c.Timeout.Duration() < time.Second || c.Timeout.Duration() > 300*time.Second {
		return fmt.Errorf("timeout %s out of range [1s, 300s]", c.Timeout)
	}
	if c.IdleTimeout <= 0 {
		return errors.New("idle_timeout must be positive")
	}
	if c.WriteTimeout <= 0 {
		return errors.New("write_timeout must be positive")
	}
	if (c.TLSCertFile == "") != (c.TLSKeyFile == "") {
		return errors.New("tls_cert_file and tls_key_file must be set together")
	}
	if c.MaxConnections < 0 {
		return errors.New("max_connections must be non-negative")
	}
	return nil
}
