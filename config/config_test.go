package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNewConfig 测试创建默认配置
func TestNewConfig(t *testing.T) {
	cfg := NewConfig()
	require.NotNil(t, cfg)

	assert.NoError(t, cfg.Validate())
	assert.Equal(t, 8765, cfg.Server.Port)
	assert.Equal(t, DefaultAuthKey, cfg.Auth.Key)
	assert.False(t, cfg.Codec.Encryption)
	assert.Equal(t, 30*time.Second, cfg.Server.Timeout.Duration())
	assert.Equal(t, 30*time.Minute, cfg.Auth.SessionTimeout.Duration())
	assert.Equal(t, int64(65536), cfg.Server.MaxFrameSize)
	assert.True(t, cfg.Server.AllowsAnyOrigin())

	t.Log("✅ NewConfig 测试通过")
}

// TestServerConfig 测试服务端配置
func TestServerConfig(t *testing.T) {
	t.Run("Addr", func(t *testing.T) {
		cfg := DefaultServerConfig()
		assert.Equal(t, "0.0.0.0:8765", cfg.Addr())
	})

	t.Run("Validate_PortRange", func(t *testing.T) {
		cfg := DefaultServerConfig()
		cfg.Port = 999
		assert.Error(t, cfg.Validate())
		cfg.Port = 65536
		assert.Error(t, cfg.Validate())
		cfg.Port = 1000
		assert.NoError(t, cfg.Validate())
	})

	t.Run("Validate_TimeoutRange", func(t *testing.T) {
		cfg := DefaultServerConfig()
		cfg.Timeout = Duration(500 * time.Millisecond)
		assert.Error(t, cfg.Validate())
		cfg.Timeout = Duration(301 * time.Second)
		assert.Error(t, cfg.Validate())
	})

	t.Run("AllowedOrigins", func(t *testing.T) {
		cfg := DefaultServerConfig()
		cfg.AllowedOrigins = []string{"https://a.example"}
		assert.False(t, cfg.AllowsAnyOrigin())
	})

	t.Log("✅ ServerConfig 测试通过")
}

// TestCodecConfig 测试编解码配置
func TestCodecConfig(t *testing.T) {
	cfg := DefaultCodecConfig()
	assert.NoError(t, cfg.Validate())

	cfg.Cipher = "rot13"
	assert.Error(t, cfg.Validate())

	cfg = DefaultCodecConfig()
	cfg.KeyDerivation = "md5"
	assert.Error(t, cfg.Validate())
}

// TestRateLimitConfig 测试关闭时不校验参数
func TestRateLimitConfig(t *testing.T) {
	cfg := DefaultRateLimitConfig()
	cfg.Burst = 0
	assert.NoError(t, cfg.Validate())

	cfg.Enabled = true
	assert.Error(t, cfg.Validate())
}

// TestConfig_ValidateWrapsSection 测试错误带子配置名
func TestConfig_ValidateWrapsSection(t *testing.T) {
	cfg := NewConfig()
	cfg.Cache.Subject.TTL = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cache: subject")
}

// TestFromJSON 测试从 JSON 加载（保留未出现字段的默认值）
func TestFromJSON(t *testing.T) {
	cfg, err := FromJSON([]byte(`{
		"server": {"port": 9000},
		"auth": {"key": "s3cret", "session_timeout": "10m"},
		"codec": {"encryption": true, "cipher": "aes-gcm"}
	}`))
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "/", cfg.Server.Path)
	assert.Equal(t, "s3cret", cfg.Auth.Key)
	assert.Equal(t, 10*time.Minute, cfg.Auth.SessionTimeout.Duration())
	assert.True(t, cfg.Codec.Encryption)
	assert.Equal(t, CipherAESGCM, cfg.Codec.Cipher)
	assert.Equal(t, KeyDerivationPad, cfg.Codec.KeyDerivation)
	assert.NoError(t, cfg.Validate())

	_, err = FromJSON([]byte(`{"auth": {"session_timeout": "soon"}}`))
	assert.Error(t, err)
}

// TestSaveAndLoadFile 测试文件往返
func TestSaveAndLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hostrpc.json")

	orig := NewConfig()
	orig.Server.Port = 9123
	require.NoError(t, orig.SaveFile(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	loaded, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, orig, loaded)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

// TestCloneConfig 测试深拷贝
func TestCloneConfig(t *testing.T) {
	orig := NewConfig()
	cloned := CloneConfig(orig)
	cloned.Server.AllowedOrigins[0] = "https://x.example"

	assert.Equal(t, "*", orig.Server.AllowedOrigins[0])
	assert.Nil(t, CloneConfig(nil))
}

// TestValidateAndFix 测试自动修复
func TestValidateAndFix(t *testing.T) {
	cfg := NewConfig()
	cfg.Server.AllowedOrigins = nil
	cfg.Server.Path = "rpc"
	cfg.Codec.Cipher = "unknown"
	cfg.Bridge.QueueDepth = 0

	fixed, err := ValidateAndFix(cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{"*"}, fixed.Server.AllowedOrigins)
	assert.Equal(t, "/rpc", fixed.Server.Path)
	assert.Equal(t, CipherAESECB, fixed.Codec.Cipher)
	assert.Equal(t, 256, fixed.Bridge.QueueDepth)

	fresh, err := ValidateAndFix(nil)
	require.NoError(t, err)
	assert.NotNil(t, fresh)

	assert.Error(t, ValidateAll(nil))
	assert.Panics(t, func() {
		bad := NewConfig()
		bad.Auth.Key = ""
		MustValidate(bad)
	})
}

// TestDuration_JSON 测试 Duration 的两种 JSON 形式
func TestDuration_JSON(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalJSON([]byte(`"1m30s"`)))
	assert.Equal(t, 90*time.Second, d.Duration())

	require.NoError(t, d.UnmarshalJSON([]byte(`1000000000`)))
	assert.Equal(t, time.Second, d.Duration())

	assert.Error(t, d.UnmarshalJSON([]byte(`true`)))

	out, err := Duration(5 * time.Second).MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"5s"`, string(out))
}
