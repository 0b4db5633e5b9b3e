package codec

import "errors"

var (
	// ErrEncode 编码失败
	ErrEncode = errors.New("codec: encode failed")

	// ErrDecode 解码失败
	ErrDecode = errors.New("codec: decode failed")

	// ErrEmptyKey 加密模式下共享密钥为空
	ErrEmptyKey = errors.New("codec: key must not be empty when encryption is enabled")

	// ErrUnknownCipher 未知加密算法
	ErrUnknownCipher = errors.New("codec: unknown cipher")

	// ErrUnknownKeyDerivation 未知密钥派生方式
	ErrUnknownKeyDerivation = errors.New("codec: unknown key derivation")
)
