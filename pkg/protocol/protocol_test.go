package protocol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidRequestID(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		{"0", true},
		{"1a", true},
		{"FFFF", true},
		{"aBc9", true},
		{"", false},
		{"12345", false},
		{"zz", false},
		{"1g", false},
		{" 1a", false},
		{"-1", false},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidRequestID(tt.id))
		})
	}
}

// TestMessage_OmitsEmptyFields 测试未设置的可选字段不出现在线上格式中
func TestMessage_OmitsEmptyFields(t *testing.T) {
	msg := NewResponse("1a", map[string]any{"ok": true})

	raw, err := json.Marshal(msg)
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(raw, &fields))

	assert.Equal(t, "RESPONSE", fields["type"])
	assert.Equal(t, "1a", fields["requestId"])
	assert.Equal(t, "SUCCESS", fields["status"])
	assert.Contains(t, fields, "timestamp")
	for _, key := range []string{"module", "method", "args"} {
		assert.NotContains(t, fields, key)
	}
	assert.NotContains(t, string(raw), "null")
}

// TestNewRequest 测试请求构造
func TestNewRequest(t *testing.T) {
	prev := nowMillis
	nowMillis = func() int64 { return 42 }
	defer func() { nowMillis = prev }()

	msg := NewRequest("auth", "authenticate", "1a", "secret")

	assert.True(t, msg.IsRequest())
	assert.Equal(t, []any{"secret"}, msg.Args)
	assert.Equal(t, int64(42), msg.Timestamp)
}

// TestNewError_SortsSuggestions 测试错误建议排序且不修改入参
func TestNewError_SortsSuggestions(t *testing.T) {
	in := []string{"world", "auth", "system"}
	msg := NewError("02", CodeModuleNotFound, "Module not found: foo", in)

	data, ok := msg.ErrorData()
	require.True(t, ok)
	assert.Equal(t, []string{"auth", "system", "world"}, data.Suggestions)
	assert.Equal(t, []string{"world", "auth", "system"}, in)
	assert.Equal(t, StatusError, msg.Status)
	assert.Equal(t, TypeError, msg.Type)
}

// TestNewError_NoSuggestions 测试无建议时字段省略
func TestNewError_NoSuggestions(t *testing.T) {
	msg := NewError("02", CodeInvalidRequestID, MsgInvalidRequestID, nil)

	raw, err := json.Marshal(msg)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "suggestions")
	assert.NotContains(t, string(raw), "fault")
}

// TestMessage_ErrorDataFromDecoded 测试从解码后的 map 还原 ErrorData
func TestMessage_ErrorDataFromDecoded(t *testing.T) {
	raw, err := json.Marshal(NewErrorData("7", &ErrorData{
		Code:        CodeExecutionError,
		Message:     "boom",
		Suggestions: []string{"a"},
		Fault:       FaultClient,
	}))
	require.NoError(t, err)

	var decoded Message
	require.NoError(t, json.Unmarshal(raw, &decoded))

	data, ok := decoded.ErrorData()
	require.True(t, ok)
	assert.Equal(t, CodeExecutionError, data.Code)
	assert.Equal(t, "boom", data.Message)
	assert.Equal(t, []string{"a"}, data.Suggestions)
	assert.Equal(t, FaultClient, data.Fault)

	_, ok = NewResponse("7", nil).ErrorData()
	assert.False(t, ok)
}

func TestNormalizeRequestID(t *testing.T) {
	assert.Equal(t, NormalizeRequestID("1A"), NormalizeRequestID("1a"))
}
