package config

import "fmt"

// 加密算法
const (
	// CipherAESECB AES/ECB/PKCS5Padding，与现有客户端线上兼容
	CipherAESECB = "aes-ecb"
	// CipherAESGCM AES-GCM，随机 nonce 前置于密文
	CipherAESGCM = "aes-gcm"
)

// 密钥派生方式
const (
	// KeyDerivationPad 密钥按字节零填充或截断到 16 字节
	KeyDerivationPad = "pad"
	// KeyDerivationHKDF HKDF-SHA256 派生 32 字节
	KeyDerivationHKDF = "hkdf"
)

// CodecConfig 线上编解码配置
//
// Encryption 必须在两端一致，不一致表现为解码失败。
type CodecConfig struct {
	// Encryption 是否启用加密
	Encryption bool `json:"encryption"`

	// Cipher 加密算法
	Cipher string `json:"cipher"`

	// KeyDerivation 密钥派生方式
	KeyDerivation string `json:"key_derivation"`
}

// DefaultCodecConfig 返回默认编解码配置
func DefaultCodecConfig() CodecConfig {
	return CodecConfig{
		Encryption:    false,            // 默认仅 Base64
		Cipher:        CipherAESECB,     // 兼容模式
		KeyDerivation: KeyDerivationPad, // 兼容模式
	}
}

// Validate 验证编解码配置
func (c CodecConfig) Validate() error {
	switch c.Cipher {
	case CipherAESECB, CipherAESGCM:
	default:
		return fmt.Errorf("unknown cipher %q", c.Cipher)
	}
	switch c.KeyDerivation {
	case KeyDerivationPad, KeyDerivationHKDF:
	default:
		return fmt.Errorf("unknown key_derivation %q", c.KeyDerivation)
	}
	return nil
}
