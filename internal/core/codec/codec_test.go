package codec

import (
	"crypto/aes"
	"encoding/base64"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-hostrpc/pkg/protocol"
)

func sampleMessages() []*protocol.Message {
	return []*protocol.Message{
		protocol.NewRequest("auth", "authenticate", "1a", "secret"),
		protocol.NewRequest("world", "list", "ffff"),
		protocol.NewResponse("1a", map[string]any{"success": true, "message": "Authentication successful"}),
		protocol.NewError("02", protocol.CodeModuleNotFound, "Module not found: foo", []string{"world", "auth"}),
		protocol.NewEvent("subject", "removed", []any{"Alex"}),
	}
}

// TestCodec_RoundTrip 测试两种加密设置下编码再解码得到相同消息
func TestCodec_RoundTrip(t *testing.T) {
	configs := map[string]Config{
		"plain":    DefaultConfig(),
		"aes-ecb":  {Encryption: true, Key: "secret", Cipher: CipherAESECB, KeyDerivation: KeyDerivationPad},
		"aes-gcm":  {Encryption: true, Key: "secret", Cipher: CipherAESGCM, KeyDerivation: KeyDerivationHKDF},
		"ecb-hkdf": {Encryption: true, Key: "a-much-longer-shared-secret-value", Cipher: CipherAESECB, KeyDerivation: KeyDerivationHKDF},
	}

	for name, cfg := range configs {
		t.Run(name, func(t *testing.T) {
			c, err := New(cfg)
			require.NoError(t, err)
			assert.Equal(t, cfg.Encryption, c.Encrypted())

			for _, msg := range sampleMessages() {
				frame, err := c.Encode(msg)
				require.NoError(t, err)

				got, err := c.Decode(frame)
				require.NoError(t, err)

				// ERROR 的 data 解码为映射，比较 JSON 形式
				want, _ := json.Marshal(msg)
				have, _ := json.Marshal(got)
				assert.JSONEq(t, string(want), string(have))
				assert.Equal(t, msg.Timestamp, got.Timestamp)
			}
		})
	}

	t.Log("✅ 编解码往返测试通过")
}

// TestCodec_PlainIsBase64JSON 测试明文模式的线上格式
func TestCodec_PlainIsBase64JSON(t *testing.T) {
	c, err := New(DefaultConfig())
	require.NoError(t, err)

	frame, err := c.Encode(protocol.NewRequest("world", "get", "01"))
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(frame)
	require.NoError(t, err)

	var wire map[string]any
	require.NoError(t, json.Unmarshal(raw, &wire))
	assert.Equal(t, "REQUEST", wire["type"])
	assert.NotContains(t, wire, "args", "空参数不应出现在线上")
	assert.NotContains(t, wire, "data")
	assert.NotContains(t, wire, "status")
}

// TestCodec_ECBWireCompat 测试 AES/ECB/PKCS5 与零填充密钥的线上兼容格式
func TestCodec_ECBWireCompat(t *testing.T) {
	c, err := New(Config{Encryption: true, Key: "secret", Cipher: CipherAESECB, KeyDerivation: KeyDerivationPad})
	require.NoError(t, err)

	frame, err := c.Encode(protocol.NewRequest("auth", "check", "1"))
	require.NoError(t, err)

	sealed, err := base64.StdEncoding.DecodeString(frame)
	require.NoError(t, err)
	require.Zero(t, len(sealed)%aes.BlockSize)

	// 独立按 ECB 解密第一块
	key := make([]byte, 16)
	copy(key, "secret")
	block, err := aes.NewCipher(key)
	require.NoError(t, err)
	first := make([]byte, aes.BlockSize)
	block.Decrypt(first, sealed[:aes.BlockSize])
	assert.Equal(t, `{"type":"REQUEST`, string(first))
}

// TestCodec_LongIntegerPrecision 测试长整型参数不丢失精度
func TestCodec_LongIntegerPrecision(t *testing.T) {
	c, err := New(DefaultConfig())
	require.NoError(t, err)

	frame, err := c.Encode(protocol.NewRequest("world", "seed", "2", int64(9007199254740993)))
	require.NoError(t, err)

	got, err := c.Decode(frame)
	require.NoError(t, err)
	require.Len(t, got.Args, 1)
	assert.Equal(t, json.Number("9007199254740993"), got.Args[0])
}

// TestCodec_MismatchedSettings 测试两端设置不一致表现为解码失败
func TestCodec_MismatchedSettings(t *testing.T) {
	plain, err := New(DefaultConfig())
	require.NoError(t, err)
	secure, err := New(Config{Encryption: true, Key: "secret"})
	require.NoError(t, err)
	other, err := New(Config{Encryption: true, Key: "other"})
	require.NoError(t, err)

	frame, err := secure.Encode(protocol.NewRequest("auth", "check", "3"))
	require.NoError(t, err)

	_, err = plain.Decode(frame)
	assert.ErrorIs(t, err, ErrDecode)

	_, err = other.Decode(frame)
	assert.ErrorIs(t, err, ErrDecode)

	plainFrame, err := plain.Encode(protocol.NewRequest("auth", "check", "3"))
	require.NoError(t, err)
	_, err = secure.Decode(plainFrame)
	assert.ErrorIs(t, err, ErrDecode)
}

// TestCodec_DecodeGarbage 测试非法输入
func TestCodec_DecodeGarbage(t *testing.T) {
	c, err := New(DefaultConfig())
	require.NoError(t, err)

	for _, frame := range []string{"not base64!!", base64.StdEncoding.EncodeToString([]byte("{not json"))} {
		_, err := c.Decode(frame)
		assert.ErrorIs(t, err, ErrDecode, frame)
	}

	_, err = c.Encode(nil)
	assert.ErrorIs(t, err, ErrEncode)

	_, err = c.Encode(protocol.NewResponse("1", make(chan int)))
	assert.ErrorIs(t, err, ErrEncode)
}

// TestNew_InvalidConfig 测试无效加密配置
func TestNew_InvalidConfig(t *testing.T) {
	_, err := New(Config{Encryption: true})
	assert.ErrorIs(t, err, ErrEmptyKey)

	_, err = New(Config{Encryption: true, Key: "k", Cipher: "rot13"})
	assert.ErrorIs(t, err, ErrUnknownCipher)

	_, err = New(Config{Encryption: true, Key: "k", KeyDerivation: "md5"})
	assert.ErrorIs(t, err, ErrUnknownKeyDerivation)

	// 未启用加密时忽略密钥
	_, err = New(Config{})
	assert.NoError(t, err)
}

// TestDeriveKey 测试密钥派生
func TestDeriveKey(t *testing.T) {
	k, err := DeriveKey("abc", KeyDerivationPad)
	require.NoError(t, err)
	assert.Equal(t, []byte{'a', 'b', 'c', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0}, k)

	k, err = DeriveKey("0123456789abcdefXYZ", KeyDerivationPad)
	require.NoError(t, err)
	assert.Equal(t, []byte("0123456789abcdef"), k)

	h1, err := DeriveKey("abc", KeyDerivationHKDF)
	require.NoError(t, err)
	h2, err := DeriveKey("abc", KeyDerivationHKDF)
	require.NoError(t, err)
	assert.Len(t, h1, 32)
	assert.Equal(t, h1, h2)
}

// TestPKCS5 测试填充边界
func TestPKCS5(t *testing.T) {
	for n := 0; n <= 33; n++ {
		in := make([]byte, n)
		padded := pkcs5Pad(in, 16)
		require.Zero(t, len(padded)%16)
		require.Greater(t, len(padded), n)
		out, err := pkcs5Unpad(padded, 16)
		require.NoError(t, err)
		assert.Len(t, out, n)
	}

	_, err := pkcs5Unpad(make([]byte, 16), 16)
	assert.Error(t, err)
}
