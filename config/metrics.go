package config

import "errors"

// MetricsConfig 指标配置
type MetricsConfig struct {
	// Enabled 是否暴露指标端点
	Enabled bool `json:"enabled"`

	// Path Prometheus 指标路径
	Path string `json:"path"`

	// HealthPath 健康检查路径
	HealthPath string `json:"health_path"`
}

// DefaultMetricsConfig 返回默认指标配置
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Enabled:    true,       // 默认暴露
		Path:       "/metrics", // Prometheus 抓取路径
		HealthPath: "/healthz", // 健康检查路径
	}
}

// Validate 验证指标配置
func (c MetricsConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Path == "" || c.Path[0] != '/' {
		return errors.New("path must start with '/'")
	}
	if c.HealthPath == "" || c.HealthPath[0] != '/' {
		return errors.New("health_path must start with '/'")
	}
	if c.Path == c.HealthPath {
		return errors.New("path and health_path must differ")
	}
	return nil
}
