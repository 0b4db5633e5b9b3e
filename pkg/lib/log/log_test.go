package log

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestParseConfig 测试环境变量格式解析
func TestParseConfig(t *testing.T) {
	cfg := ParseConfig("core/dispatch=debug, core=warn ,error", "JSON", "1")

	assert.Equal(t, slog.LevelError, cfg.DefaultLevel)
	assert.Equal(t, FormatJSON, cfg.Format)
	assert.True(t, cfg.AddSource)
	require.Len(t, cfg.ComponentLevels, 2)

	assert.Equal(t, slog.LevelDebug, cfg.LevelFor("core/dispatch"))
	assert.Equal(t, slog.LevelWarn, cfg.LevelFor("core/server"))
	assert.Equal(t, slog.LevelError, cfg.LevelFor("modules/auth"))
	assert.Equal(t, slog.LevelDebug, cfg.MinLevel())
}

// TestParseConfig_Invalid 测试无效级别被忽略
func TestParseConfig_Invalid(t *testing.T) {
	cfg := ParseConfig("core=loud,verbose", "", "")

	assert.Equal(t, slog.LevelInfo, cfg.DefaultLevel)
	assert.Empty(t, cfg.ComponentLevels)
	assert.Equal(t, FormatText, cfg.Format)
	assert.False(t, cfg.AddSource)
}

// TestConfig_PrefixBoundary 测试前缀匹配按路径段进行
func TestConfig_PrefixBoundary(t *testing.T) {
	cfg := ParseConfig("core/auth=debug", "", "")

	assert.Equal(t, slog.LevelDebug, cfg.LevelFor("core/auth"))
	assert.Equal(t, slog.LevelInfo, cfg.LevelFor("core/authapi"))
}

// TestLazyLogger_Output 测试懒加载 logger 使用当前默认输出
func TestLazyLogger_Output(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	var buf bytes.Buffer
	SetOutputWithLevel(&buf, slog.LevelDebug)

	l := Logger("test/lazy")
	l.Info("消息已处理", "requestId", "1a")

	out := buf.String()
	assert.Contains(t, out, "component=test/lazy")
	assert.Contains(t, out, "requestId=1a")
	assert.Equal(t, "test/lazy", l.Component())
}
