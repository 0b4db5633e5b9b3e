package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dep2p/go-hostrpc/config"
)

// ============================================================================
//                              环境变量覆盖（CLI 专用）
// ============================================================================

const (
	envPrefix = "HOSTRPC_"

	envHost           = "HOST"
	envPort           = "PORT"
	envPath           = "PATH"
	envAllowedOrigins = "ALLOWED_ORIGINS"
	envKey            = "AUTH_KEY"
	envEncryption     = "ENCRYPTION"
	envCipher         = "CIPHER"
	envTimeout        = "TIMEOUT"
	envRateLimit      = "RATE_LIMIT"
	envMetrics        = "METRICS"
	envLogFile        = "LOG_FILE"
)

// applyEnvOverrides 应用环境变量覆盖配置
//
// 环境变量优先级高于配置文件，但低于命令行参数。
// 支持的环境变量（均使用 HOSTRPC_ 前缀）：
//   - HOSTRPC_HOST / HOSTRPC_PORT / HOSTRPC_PATH: 监听配置
//   - HOSTRPC_ALLOWED_ORIGINS: 允许的 Origin（逗号分隔）
//   - HOSTRPC_AUTH_KEY: 共享密钥
//   - HOSTRPC_ENCRYPTION / HOSTRPC_CIPHER: 线上格式
//   - HOSTRPC_TIMEOUT: 握手超时（如 "30s"）
//   - HOSTRPC_RATE_LIMIT: 每主机每秒请求数，0 关闭
//   - HOSTRPC_METRICS: 是否暴露指标端点
func applyEnvOverrides(cfg *config.Config, getenv func(string) string) error {
	get := func(name string) string { return strings.TrimSpace(getenv(envPrefix + name)) }

	if v := get(envHost); v != "" {
		cfg.Server.Host = v
	}
	if v := get(envPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", envPrefix, envPort, err)
		}
		cfg.Server.Port = port
	}
	if v := get(envPath); v != "" {
		cfg.Server.Path = v
	}
	if v := get(envAllowedOrigins); v != "" {
		cfg.Server.AllowedOrigins = splitAndTrim(v, ",")
	}
	if v := get(envKey); v != "" {
		cfg.Auth.Key = v
	}
	if v := get(envEncryption); v != "" {
		cfg.Codec.Encryption = parseBool(v)
	}
	if v := get(envCipher); v != "" {
		cfg.Codec.Cipher = v
	}
	if v := get(envTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", envPrefix, envTimeout, err)
		}
		cfg.Server.Timeout = config.Duration(d)
	}
	if v := get(envRateLimit); v != "" {
		rps, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%s%s: %w", envPrefix, envRateLimit, err)
		}
		cfg.RateLimit.Enabled = rps > 0
		if rps > 0 {
			cfg.RateLimit.RequestsPerSecond = rps
		}
	}
	if v := get(envMetrics); v != "" {
		cfg.Metrics.Enabled = parseBool(v)
	}
	return nil
}

// ============================================================================
//                              辅助函数
// ============================================================================

// parseBool 解析布尔值字符串
func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "1" || s == "yes" || s == "on"
}

// splitAndTrim 分割字符串并去除空白
func splitAndTrim(s, sep string) []string {
	parts := strings.Split(s, sep)
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
