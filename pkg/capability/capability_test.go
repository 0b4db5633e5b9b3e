package capability

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// TestParam_Coerce 测试各类型参数的转换规则
func TestParam_Coerce(t *testing.T) {
	id := uuid.New()

	tests := []struct {
		name    string
		param   Param
		in      any
		want    any
		wantErr bool
	}{
		{"string passthrough", String("s"), "hello", "hello", false},
		{"string from number", String("s"), json.Number("12"), "12", false},
		{"string from bool", String("s"), true, "true", false},
		{"string null", String("s"), nil, "", false},
		{"string from map", String("s"), map[string]any{"a": 1}, nil, true},

		{"int from json number", Int("n"), json.Number("42"), 42, false},
		{"int from float", Int("n"), float64(7), 7, false},
		{"int from fractional float", Int("n"), 7.5, nil, true},
		{"int from string", Int("n"), " 15 ", 15, false},
		{"int from integral string", Int("n"), "3.0", 3, false},
		{"int overflow", Int("n"), json.Number("3000000000"), nil, true},
		{"int from garbage", Int("n"), "abc", nil, true},
		{"int null", Int("n"), nil, nil, true},
		{"int max", Int("n"), json.Number("2147483647"), math.MaxInt32, false},
		{"int max+1", Int("n"), json.Number("2147483648"), nil, true},
		{"int min", Int("n"), json.Number("-2147483648"), math.MinInt32, false},
		{"int min-1", Int("n"), json.Number("-2147483649"), nil, true},

		{"long big", Long("l"), json.Number("9007199254740993"), int64(9007199254740993), false},
		{"long from bool", Long("l"), true, nil, true},
		{"long max", Long("l"), json.Number("9223372036854775807"), int64(math.MaxInt64), false},
		{"long min", Long("l"), json.Number("-9223372036854775808"), int64(math.MinInt64), false},
		{"long max+1", Long("l"), json.Number("9223372036854775808"), nil, true},
		{"long max+1 string", Long("l"), "9223372036854775808", nil, true},
		{"long 2^63 float", Long("l"), float64(1 << 63), nil, true},
		{"long -2^63 float", Long("l"), float64(-(1 << 63)), int64(math.MinInt64), false},
		{"long 2^63 float text", Long("l"), "9.223372036854776e+18", nil, true},

		{"float from number", Float("f"), json.Number("1.5"), 1.5, false},
		{"float from int", Float("f"), 2, float64(2), false},
		{"float from string", Float("f"), "2.25", 2.25, false},
		{"float bad", Float("f"), "x", nil, true},

		{"bool passthrough", Bool("b"), false, false, false},
		{"bool from string", Bool("b"), "TRUE", true, false},
		{"bool from garbage", Bool("b"), "yes please", nil, true},
		{"bool from json number 1", Bool("b"), json.Number("1"), true, false},
		{"bool from json number 0", Bool("b"), json.Number("0"), false, false},
		{"bool from json number 2", Bool("b"), json.Number("2"), nil, true},

		{"uuid from string", UUID("u"), id.String(), id, false},
		{"uuid passthrough", UUID("u"), id, id, false},
		{"uuid bad", UUID("u"), "not-a-uuid", nil, true},

		{"any passthrough", Any("a"), []any{1, "x"}, []any{1, "x"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.param.Coerce(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// TestObject_Coerce 测试结构化参数通过 JSON 重新映射
func TestObject_Coerce(t *testing.T) {
	p := Object[position]("pos")

	got, err := p.Coerce(map[string]any{"x": json.Number("1"), "y": 2.0, "z": json.Number("-3.5")})
	require.NoError(t, err)
	assert.Equal(t, position{X: 1, Y: 2, Z: -3.5}, got)

	got, err = p.Coerce(position{X: 9})
	require.NoError(t, err)
	assert.Equal(t, position{X: 9}, got)

	_, err = p.Coerce("nope")
	assert.Error(t, err)
}

// TestBind 测试位置参数绑定
func TestBind(t *testing.T) {
	params := []Param{String("name"), Int("count"), Bool("force").OrZero()}

	t.Run("truncates extra", func(t *testing.T) {
		args, err := Bind(params, []any{"a", json.Number("2"), true, "extra"})
		require.NoError(t, err)
		assert.Equal(t, 3, args.Len())
		assert.Equal(t, "a", args.String(0))
		assert.Equal(t, 2, args.Int(1))
		assert.True(t, args.Bool(2))
	})

	t.Run("optional defaults", func(t *testing.T) {
		args, err := Bind(params, []any{"a", 1})
		require.NoError(t, err)
		assert.False(t, args.Bool(2))
	})

	t.Run("missing required", func(t *testing.T) {
		_, err := Bind(params, []any{"a"})
		var argErr *ArgumentError
		require.ErrorAs(t, err, &argErr)
		assert.Equal(t, 1, argErr.Index)
		assert.Contains(t, argErr.Error(), "count")
	})

	t.Run("conversion failure", func(t *testing.T) {
		_, err := Bind(params, []any{"a", "many"})
		var argErr *ArgumentError
		require.ErrorAs(t, err, &argErr)
		assert.Equal(t, "many", argErr.Value)
	})
}

// TestArgs_Accessors 测试越界与类型不符返回零值
func TestArgs_Accessors(t *testing.T) {
	args := Args{"x", position{X: 1}}

	assert.Equal(t, "", args.String(5))
	assert.Equal(t, 0, args.Int(0))
	assert.Equal(t, uuid.Nil, args.UUID(0))
	assert.Equal(t, position{X: 1}, Arg[position](args, 1))
	assert.Nil(t, args.Value(-1))
}

// TestInvalidInput 测试调用方输入错误的识别
func TestInvalidInput(t *testing.T) {
	err := InvalidInput("world %q not found", "nether")

	assert.True(t, errors.Is(err, ErrInvalidInput))
	assert.Equal(t, `world "nether" not found`, err.Error())
	assert.False(t, errors.Is(errors.New("other"), ErrInvalidInput))
}

type WorldApiModule struct{}

func (*WorldApiModule) Name() string            { return "" }
func (*WorldApiModule) Operations() []Operation { return nil }

// TestModuleName 测试模块名推导
func TestModuleName(t *testing.T) {
	assert.Equal(t, "worldapi", ModuleName(&WorldApiModule{}))
	assert.Equal(t, "echo", ModuleName(Func("echo")))

	m := Func("echo", Operation{
		Name:    "say",
		Params:  []Param{String("text")},
		Handler: func(_ context.Context, a Args) (any, error) { return a.String(0), nil },
	})
	ops := m.Operations()
	require.Len(t, ops, 1)
	assert.Equal(t, []string{"text"}, ops[0].ParamNames())
}
