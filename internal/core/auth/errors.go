package auth

import "errors"

var (
	// ErrEmptyKey 共享密钥为空
	ErrEmptyKey = errors.New("auth: shared key must not be empty")

	// ErrInvalidTimeout 会话超时非正
	ErrInvalidTimeout = errors.New("auth: session timeout must be positive")
)
