package protocol

import (
	"sort"
	"time"
)

// MessageType 消息类型
type MessageType string

const (
	// TypeRequest 请求
	TypeRequest MessageType = "REQUEST"
	// TypeResponse 成功响应
	TypeResponse MessageType = "RESPONSE"
	// TypeError 失败响应
	TypeError MessageType = "ERROR"
	// TypeEvent 服务端事件
	TypeEvent MessageType = "EVENT"
)

// Status 响应状态
type Status string

const (
	// StatusSuccess 成功
	StatusSuccess Status = "SUCCESS"
	// StatusError 失败
	StatusError Status = "ERROR"
)

// Message 线上消息信封
//
// Message 交给编解码器后视为不可变。
type Message struct {
	Type      MessageType `json:"type,omitempty"`
	Module    string      `json:"module,omitempty"`
	Method    string      `json:"method,omitempty"`
	Args      []any       `json:"args,omitempty"`
	RequestID string      `json:"requestId,omitempty"`
	Data      any         `json:"data,omitempty"`
	Status    Status      `json:"status,omitempty"`
	Timestamp int64       `json:"timestamp,omitempty"`
}

// ErrorData ERROR 消息的结构化 data
type ErrorData struct {
	// Code 错误码，见 codes.go
	Code string `json:"code"`

	// Message 人类可读的错误描述
	Message string `json:"message"`

	// Suggestions 可选的纠错建议（已知模块名或方法名）
	Suggestions []string `json:"suggestions,omitempty"`

	// Fault 执行错误的归属：client 或 server，仅 EXECUTION_ERROR 设置
	Fault Fault `json:"fault,omitempty"`
}

// Fault 执行错误归属
type Fault string

const (
	// FaultClient 调用方输入导致
	FaultClient Fault = "client"
	// FaultServer 服务端内部故障
	FaultServer Fault = "server"
)

// nowMillis 当前毫秒时间戳，测试可替换
var nowMillis = func() int64 { return time.Now().UnixMilli() }

// NewRequest 创建请求消息
func NewRequest(module, method, requestID string, args ...any) *Message {
	return &Message{
		Type:      TypeRequest,
		Module:    module,
		Method:    method,
		Args:      args,
		RequestID: requestID,
		Timestamp: nowMillis(),
	}
}

// NewResponse 创建成功响应
//
// data 原样作为响应负载。
func NewResponse(requestID string, data any) *Message {
	return &Message{
		Type:      TypeResponse,
		RequestID: requestID,
		Data:      data,
		Status:    StatusSuccess,
		Timestamp: nowMillis(),
	}
}

// NewError 创建失败响应
//
// suggestions 会被排序后放入 ErrorData，空列表不出现在线上格式中。
func NewError(requestID, code, message string, suggestions []string) *Message {
	data := &ErrorData{Code: code, Message: message}
	if len(suggestions) > 0 {
		data.Suggestions = append([]string(nil), suggestions...)
		sort.Strings(data.Suggestions)
	}
	return NewErrorData(requestID, data)
}

// NewErrorData 使用现成的 ErrorData 创建失败响应
func NewErrorData(requestID string, data *ErrorData) *Message {
	return &Message{
		Type:      TypeError,
		RequestID: requestID,
		Data:      data,
		Status:    StatusError,
		Timestamp: nowMillis(),
	}
}

// NewEvent 创建事件消息
func NewEvent(module, method string, data any) *Message {
	return &Message{
		Type:      TypeEvent,
		Module:    module,
		Method:    method,
		Data:      data,
		Timestamp: nowMillis(),
	}
}

// IsRequest 检查是否为请求
func (m *Message) IsRequest() bool {
	return m != nil && m.Type == TypeRequest
}

// ErrorData 返回 ERROR 消息的结构化负载
//
// 对于本地构造的消息直接返回 *ErrorData；
// 对于解码得到的消息（data 为 map），按字段还原。
func (m *Message) ErrorData() (*ErrorData, bool) {
	if m == nil || m.Type != TypeError {
		return nil, false
	}
	switch d := m.Data.(type) {
	case *ErrorData:
		return d, true
	case ErrorData:
		return &d, true
	case map[string]any:
		out := &ErrorData{}
		out.Code, _ = d["code"].(string)
		out.Message, _ = d["message"].(string)
		if f, ok := d["fault"].(string); ok {
			out.Fault = Fault(f)
		}
		if list, ok := d["suggestions"].([]any); ok {
			for _, s := range list {
				if str, ok := s.(string); ok {
					out.Suggestions = append(out.Suggestions, str)
				}
			}
		}
		return out, out.Code != ""
	default:
		return nil, false
	}
}
