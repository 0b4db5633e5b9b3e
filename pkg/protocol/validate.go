package protocol

import "strings"

// ValidRequestID 检查 requestId 是否为 1-4 位十六进制字符串（不区分大小写）
func ValidRequestID(id string) bool {
	if len(id) == 0 || len(id) > 4 {
		return false
	}
	for i := 0; i < len(id); i++ {
		c := id[i]
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}

// NormalizeRequestID 返回 requestId 的规范形式（小写）
//
// "1A" 与 "1a" 视为同一个 requestId。
func NormalizeRequestID(id string) string {
	return strings.ToLower(id)
}
