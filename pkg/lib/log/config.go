package log

import (
	"log/slog"
	"os"
	"strings"
	"sync"
)

// Format 日志输出格式
type Format int

const (
	// FormatText 文本格式（默认）
	FormatText Format = iota
	// FormatJSON JSON 格式
	FormatJSON
)

// Config 日志配置
//
// 环境变量:
//   - HOSTRPC_LOG_LEVEL: 日志级别配置
//     格式: 组件=级别,组件=级别,默认级别
//     示例: core/dispatch=debug,core/server=warn,info
//     组件名支持前缀匹配，"core" 同时作用于 core/dispatch 与 core/server
//   - HOSTRPC_LOG_FORMAT: text 或 json
//   - HOSTRPC_LOG_ADD_SOURCE: true 或 false
type Config struct {
	// DefaultLevel 默认日志级别
	DefaultLevel slog.Level

	// ComponentLevels 各组件的日志级别
	ComponentLevels map[string]slog.Level

	// Format 输出格式
	Format Format

	// AddSource 是否添加源码位置
	AddSource bool
}

// LevelFor 获取指定组件的日志级别
//
// 最长前缀优先。
func (c *Config) LevelFor(component string) slog.Level {
	best := -1
	level := c.DefaultLevel
	for name, lvl := range c.ComponentLevels {
		if component != name && !strings.HasPrefix(component, name+"/") {
			continue
		}
		if len(name) > best {
			best = len(name)
			level = lvl
		}
	}
	return level
}

// Enabled 判断组件在指定级别是否输出
func (c *Config) Enabled(component string, level slog.Level) bool {
	return level >= c.LevelFor(component)
}

// MinLevel 返回所有配置中最低的级别
func (c *Config) MinLevel() slog.Level {
	lowest := c.DefaultLevel
	for _, lvl := range c.ComponentLevels {
		if lvl < lowest {
			lowest = lvl
		}
	}
	return lowest
}

var (
	configCache *Config
	configOnce  sync.Once
)

// ConfigFromEnv 从环境变量解析配置（结果缓存）
func ConfigFromEnv() *Config {
	configOnce.Do(func() {
		configCache = ParseConfig(
			os.Getenv("HOSTRPC_LOG_LEVEL"),
			os.Getenv("HOSTRPC_LOG_FORMAT"),
			os.Getenv("HOSTRPC_LOG_ADD_SOURCE"),
		)
	})
	return configCache
}

// ResetConfig 重置配置缓存（仅用于测试）
func ResetConfig() {
	configOnce = sync.Once{}
	configCache = nil
}

// ParseConfig 解析日志配置字符串
func ParseConfig(levelStr, formatStr, addSourceStr string) *Config {
	cfg := &Config{
		DefaultLevel:    slog.LevelInfo,
		ComponentLevels: make(map[string]slog.Level),
		Format:          FormatText,
	}

	for _, part := range strings.Split(levelStr, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if name, lvl, ok := strings.Cut(part, "="); ok {
			if level, ok := parseLevel(strings.TrimSpace(lvl)); ok {
				cfg.ComponentLevels[strings.TrimSpace(name)] = level
			}
			continue
		}
		if level, ok := parseLevel(part); ok {
			cfg.DefaultLevel = level
		}
	}

	if strings.EqualFold(strings.TrimSpace(formatStr), "json") {
		cfg.Format = FormatJSON
	}

	if addSourceStr != "" {
		cfg.AddSource = addSourceStr != "false" && addSourceStr != "0"
	}

	return cfg
}

// parseLevel 解析日志级别名称
func parseLevel(name string) (slog.Level, bool) {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}

func init() {
	// 默认 logger：stderr，格式与级别来自环境变量
	SetOutputWithLevel(os.Stderr, ConfigFromEnv().MinLevel())
}
