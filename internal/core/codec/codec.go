// Package codec 实现线上消息编解码
//
// 编码流程：
//
//	Message ──JSON──▶ bytes ──[AES]──▶ bytes ──Base64──▶ 帧文本
//
// 加密层由 Encryption 开关决定，两端必须一致；不一致只会表现为解码失败，
// 协议层不做协商。
//
// 加密模式下密钥由共享认证密钥派生：
//
//   - pad：UTF-8 字节零填充或截断到 16 字节（AES-128），与现有客户端兼容
//   - hkdf：HKDF-SHA256 派生 32 字节（AES-256）
package codec

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"

	"github.com/dep2p/go-hostrpc/config"
	"github.com/dep2p/go-hostrpc/pkg/lib/log"
	"github.com/dep2p/go-hostrpc/pkg/protocol"
)

var logger = log.Logger("core/codec")

const (
	CipherAESECB      = config.CipherAESECB
	CipherAESGCM      = config.CipherAESGCM
	KeyDerivationPad  = config.KeyDerivationPad
	KeyDerivationHKDF = config.KeyDerivationHKDF

	padKeyLength  = 16
	hkdfKeyLength = 32
	hkdfSalt      = "hostrpc/codec/v1"
)

// Config 编解码配置
type Config struct {
	// Encryption 是否启用加密层
	Encryption bool

	// Key 共享认证密钥（密钥材料）
	Key string

	// Cipher 加密算法
	Cipher string

	// KeyDerivation 密钥派生方式
	KeyDerivation string
}

// DefaultConfig 返回默认配置（仅 Base64）
func DefaultConfig() Config {
	return Config{
		Cipher:        CipherAESECB,
		KeyDerivation: KeyDerivationPad,
	}
}

// transform 加密层
type transform interface {
	seal(plain []byte) ([]byte, error)
	open(sealed []byte) ([]byte, error)
}

// Codec 线上编解码器，可并发使用
type Codec struct {
	enc transform
}

// New 创建编解码器
func New(cfg Config) (*Codec, error) {
	c := &Codec{}
	if !cfg.Encryption {
		logger.Debug("编解码器已创建", "encryption", false)
		return c, nil
	}

	key, err := DeriveKey(cfg.Key, cfg.KeyDerivation)
	if err != nil {
		return nil, err
	}

	switch cfg.Cipher {
	case CipherAESECB, "":
		c.enc, err = newECB(key)
	case CipherAESGCM:
		c.enc, err = newGCM(key)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCipher, cfg.Cipher)
	}
	if err != nil {
		return nil, err
	}

	logger.Debug("编解码器已创建", "encryption", true, "cipher", cfg.Cipher, "keyDerivation", cfg.KeyDerivation)
	return c, nil
}

// Encrypted 是否启用加密层
func (c *Codec) Encrypted() bool {
	return c.enc != nil
}

// Encode 编码消息为帧文本
func (c *Codec) Encode(msg *protocol.Message) (string, error) {
	if msg == nil {
		return "", fmt.Errorf("%w: nil message", ErrEncode)
	}
	raw, err := json.Marshal(msg)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrEncode, err)
	}
	if c.enc != nil {
		if raw, err = c.enc.seal(raw); err != nil {
			return "", fmt.Errorf("%w: %v", ErrEncode, err)
		}
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// Decode 解码帧文本为消息
//
// 数字保留为 json.Number，长整型不会丢失精度。
func (c *Codec) Decode(frame string) (*protocol.Message, error) {
	raw, err := base64.StdEncoding.DecodeString(frame)
	if err != nil {
		return nil, fmt.Errorf("%w: base64: %v", ErrDecode, err)
	}
	if c.enc != nil {
		if raw, err = c.enc.open(raw); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDecode, err)
		}
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var msg protocol.Message
	if err := dec.Decode(&msg); err != nil {
		return nil, fmt.Errorf("%w: json: %v", ErrDecode, err)
	}
	return &msg, nil
}

// DeriveKey 从共享密钥派生 AES 密钥
func DeriveKey(secret, method string) ([]byte, error) {
	if secret == "" {
		return nil, ErrEmptyKey
	}
	switch method {
	case KeyDerivationPad, "":
		key := make([]byte, padKeyLength)
		copy(key, secret)
		return key, nil
	case KeyDerivationHKDF:
		kdf := hkdf.New(sha256.New, []byte(secret), []byte(hkdfSalt), nil)
		key := make([]byte, hkdfKeyLength)
		if _, err := io.ReadFull(kdf, key); err != nil {
			return nil, fmt.Errorf("hkdf: %w", err)
		}
		return key, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKeyDerivation, method)
	}
}
