package types

import "github.com/google/uuid"

// ConnID 连接标识
//
// 每个传输连接在握手完成时分配一个，认证会话以它为键。
type ConnID string

// NewConnID 生成新的连接标识
func NewConnID() ConnID {
	return ConnID(uuid.NewString())
}

// String 返回字符串形式
func (id ConnID) String() string {
	return string(id)
}

// ShortString 返回用于日志的短形式
func (id ConnID) ShortString() string {
	s := string(id)
	if len(s) > 8 {
		return s[:8]
	}
	return s
}
