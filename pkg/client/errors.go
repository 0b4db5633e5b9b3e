package client

import (
	"errors"
	"strings"

	"github.com/dep2p/go-hostrpc/pkg/protocol"
)

var (
	// ErrDial 握手失败
	ErrDial = errors.New("client: dial failed")

	// ErrClosed 连接已关闭
	ErrClosed = errors.New("client: connection closed")

	// ErrAuthFailed 密钥被拒绝
	ErrAuthFailed = errors.New("client: authentication failed")

	// ErrTooManyRequests 处理中的请求用尽了 requestId 空间
	ErrTooManyRequests = errors.New("client: too many in-flight requests")
)

// RemoteError 服务端返回的 ERROR 响应
type RemoteError struct {
	RequestID   string
	Code        string
	Message     string
	Suggestions []string
	Fault       protocol.Fault
}

func newRemoteError(m *protocol.Message) *RemoteError {
	e := &RemoteError{RequestID: m.RequestID}
	if data, ok := m.ErrorData(); ok {
		e.Code = data.Code
		e.Message = data.Message
		e.Suggestions = data.Suggestions
		e.Fault = data.Fault
	}
	return e
}

func (e *RemoteError) Error() string {
	var b strings.Builder
	b.WriteString(e.Code)
	b.WriteString(": ")
	b.WriteString(e.Message)
	if len(e.Suggestions) > 0 {
		b.WriteString(" (did you mean: ")
		b.WriteString(strings.Join(e.Suggestions, ", "))
		b.WriteString(")")
	}
	return b.String()
}

// IsCode 判断 err 是否为指定错误码的 RemoteError
func IsCode(err error, code string) bool {
	var re *RemoteError
	return errors.As(err, &re) && re.Code == code
}
