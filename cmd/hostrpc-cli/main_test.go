package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestParseArgs 测试参数解析
func TestParseArgs(t *testing.T) {
	cases := []struct {
		in   string
		want []any
	}{
		{"", nil},
		{"  ", nil},
		{`["overworld", 1000]`, []any{"overworld", float64(1000)}},
		{`"Alex"`, []any{"Alex"}},
		{`{"x":1}`, []any{map[string]any{"x": float64(1)}}},
		{"overworld", []any{"overworld"}},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, parseArgs(tc.in), tc.in)
	}
}
