package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-hostrpc/config"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

// TestApplyEnvOverrides 测试环境变量覆盖
func TestApplyEnvOverrides(t *testing.T) {
	cfg := config.NewConfig()
	err := applyEnvOverrides(cfg, envMap(map[string]string{
		"HOSTRPC_HOST":            "127.0.0.1",
		"HOSTRPC_PORT":            " 9100 ",
		"HOSTRPC_ALLOWED_ORIGINS": "https://a.example, ,https://b.example",
		"HOSTRPC_AUTH_KEY":        "k",
		"HOSTRPC_ENCRYPTION":      "yes",
		"HOSTRPC_CIPHER":          config.CipherAESGCM,
		"HOSTRPC_TIMEOUT":         "45s",
		"HOSTRPC_RATE_LIMIT":      "2.5",
		"HOSTRPC_METRICS":         "off",
	}))
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "k", cfg.Auth.Key)
	assert.True(t, cfg.Codec.Encryption)
	assert.Equal(t, config.CipherAESGCM, cfg.Codec.Cipher)
	assert.Equal(t, 45*time.Second, cfg.Server.Timeout.Duration())
	assert.True(t, cfg.RateLimit.Enabled)
	assert.Equal(t, 2.5, cfg.RateLimit.RequestsPerSecond)
	assert.False(t, cfg.Metrics.Enabled)
	require.NoError(t, cfg.Validate())
}

// TestApplyEnvOverrides_Empty 测试未设置环境变量时保留原值
func TestApplyEnvOverrides_Empty(t *testing.T) {
	cfg := config.NewConfig()
	require.NoError(t, applyEnvOverrides(cfg, envMap(nil)))
	assert.Equal(t, config.NewConfig(), cfg)
}

// TestApplyEnvOverrides_Invalid 测试非法取值
func TestApplyEnvOverrides_Invalid(t *testing.T) {
	for name, value := range map[string]string{
		"HOSTRPC_PORT":       "abc",
		"HOSTRPC_TIMEOUT":    "soon",
		"HOSTRPC_RATE_LIMIT": "fast",
	} {
		err := applyEnvOverrides(config.NewConfig(), envMap(map[string]string{name: value}))
		assert.Error(t, err, name)
		assert.Contains(t, err.Error(), name)
	}
}

// TestParseBool 测试布尔解析
func TestParseBool(t *testing.T) {
	for _, s := range []string{"true", "1", "YES", " on "} {
		assert.True(t, parseBool(s), s)
	}
	for _, s := range []string{"", "0", "no", "off", "nope"} {
		assert.False(t, parseBool(s), s)
	}
}
