package ratelimit

import "errors"

// ErrInvalidConfig 限流配置无效
var ErrInvalidConfig = errors.New("ratelimit: requests_per_second and burst must be positive")
