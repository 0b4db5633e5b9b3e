package capability

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Kind 参数类型
type Kind string

const (
	KindString Kind = "string"
	KindInt    Kind = "int"
	KindLong   Kind = "long"
	KindFloat  Kind = "float"
	KindBool   Kind = "bool"
	KindUUID   Kind = "uuid"
	KindAny    Kind = "any"
	KindObject Kind = "object"
)

// Param 参数形状
//
// 通过 String/Int/Long/Float/Bool/UUID/Any/Object 构造。
type Param struct {
	// Name 参数名，仅用于错误信息与自省
	Name string

	// Kind 目标类型
	Kind Kind

	// Optional 请求缺省该参数时是否允许（取零值）
	Optional bool

	convert func(v any) (any, error)
	zero    any
}

// OrZero 返回参数的可选版本
func (p Param) OrZero() Param {
	p.Optional = true
	return p
}

// Zero 返回缺省时使用的值
func (p Param) Zero() any {
	return p.zero
}

// Coerce 将原始 JSON 解码值转换为目标类型
//
// 转换顺序：类型已匹配则原样返回；否则尝试结构化转换；
// 再失败则解析其字符串形式。位置信息由 Bind 包装为 *ArgumentError。
func (p Param) Coerce(v any) (any, error) {
	if p.convert == nil {
		return v, nil
	}
	return p.convert(v)
}

// ============================================================================
//                              参数构造
// ============================================================================

// String 字符串参数
//
// 数字与布尔值按其字符串形式接受，null 转为空字符串。
func String(name string) Param {
	return Param{Name: name, Kind: KindString, zero: "", convert: func(v any) (any, error) {
		switch x := v.(type) {
		case nil:
			return "", nil
		case string:
			return x, nil
		case json.Number:
			return x.String(), nil
		case bool, float64, float32, int, int64, int32:
			return fmt.Sprint(x), nil
		case []byte:
			return string(x), nil
		default:
			return nil, mismatch(v, KindString)
		}
	}}
}

// Int 32 位整数参数
func Int(name string) Param {
	return Param{Name: name, Kind: KindInt, zero: 0, convert: func(v any) (any, error) {
		n, err := toInt64(v, KindInt)
		if err != nil {
			return nil, err
		}
		if n < math.MinInt32 || n > math.MaxInt32 {
			return nil, fmt.Errorf("value %d overflows %s", n, KindInt)
		}
		return int(n), nil
	}}
}

// Long 64 位整数参数
func Long(name string) Param {
	return Param{Name: name, Kind: KindLong, zero: int64(0), convert: func(v any) (any, error) {
		return toInt64(v, KindLong)
	}}
}

// Float 浮点参数
func Float(name string) Param {
	return Param{Name: name, Kind: KindFloat, zero: float64(0), convert: func(v any) (any, error) {
		switch x := v.(type) {
		case float64:
			return x, nil
		case float32:
			return float64(x), nil
		case int:
			return float64(x), nil
		case int64:
			return float64(x), nil
		case json.Number:
			return parseFloat(x.String())
		case string:
			return parseFloat(x)
		default:
			return nil, mismatch(v, KindFloat)
		}
	}}
}

// Bool 布尔参数
func Bool(name string) Param {
	return Param{Name: name, Kind: KindBool, zero: false, convert: func(v any) (any, error) {
		switch x := v.(type) {
		case bool:
			return x, nil
		case json.Number:
			// 1/0 与字符串形式一致
			b, err := strconv.ParseBool(x.String())
			if err != nil {
				return nil, fmt.Errorf("cannot convert '%s' to %s", x, KindBool)
			}
			return b, nil
		case string:
			b, err := strconv.ParseBool(strings.TrimSpace(x))
			if err != nil {
				return nil, fmt.Errorf("cannot convert '%s' to %s", x, KindBool)
			}
			return b, nil
		default:
			return nil, mismatch(v, KindBool)
		}
	}}
}

// UUID 唯一标识参数
//
// null 转为 uuid.Nil。
func UUID(name string) Param {
	return Param{Name: name, Kind: KindUUID, zero: uuid.Nil, convert: func(v any) (any, error) {
		switch x := v.(type) {
		case nil:
			return uuid.Nil, nil
		case uuid.UUID:
			return x, nil
		case string:
			id, err := uuid.Parse(strings.TrimSpace(x))
			if err != nil {
				return nil, fmt.Errorf("cannot convert '%s' to %s", x, KindUUID)
			}
			return id, nil
		default:
			return nil, mismatch(v, KindUUID)
		}
	}}
}

// Any 不做转换的参数
func Any(name string) Param {
	return Param{Name: name, Kind: KindAny}
}

// Object 结构化参数
//
// 已是 T 则原样返回；否则通过 JSON 重新映射到 T。
// null 转为 T 的零值。
func Object[T any](name string) Param {
	var zero T
	return Param{Name: name, Kind: KindObject, zero: zero, convert: func(v any) (any, error) {
		if v == nil {
			return zero, nil
		}
		if t, ok := v.(T); ok {
			return t, nil
		}
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		var out T
		if err := json.Unmarshal(raw, &out); err != nil {
			return nil, fmt.Errorf("cannot convert %s to %T", raw, zero)
		}
		return out, nil
	}}
}

// ============================================================================
//                              内部转换
// ============================================================================

func toInt64(v any, kind Kind) (int64, error) {
	switch x := v.(type) {
	case int:
		return int64(x), nil
	case int64:
		return x, nil
	case int32:
		return int64(x), nil
	case float64:
		n, ok := floatToInt64(x)
		if !ok {
			return 0, fmt.Errorf("cannot convert '%v' to %s", x, kind)
		}
		return n, nil
	case json.Number:
		return parseInt(x.String(), kind)
	case string:
		return parseInt(x, kind)
	default:
		return 0, mismatch(v, kind)
	}
}

func parseInt(s string, kind Kind) (int64, error) {
	s = strings.TrimSpace(s)
	n, err := strconv.ParseInt(s, 10, 64)
	if err == nil {
		return n, nil
	}
	// 允许 "3.0" 这类整值浮点文本
	if f, ferr := strconv.ParseFloat(s, 64); ferr == nil {
		if n, ok := floatToInt64(f); ok {
			return n, nil
		}
	}
	return 0, fmt.Errorf("cannot convert '%s' to %s", s, kind)
}

// floatToInt64 仅接受 [-2^63, 2^63) 内的整值浮点数
//
// float64(math.MaxInt64) 等于 2^63，上界必须是开区间。
func floatToInt64(f float64) (int64, bool) {
	if f != math.Trunc(f) || f < -(1<<63) || f >= 1<<63 {
		return 0, false
	}
	return int64(f), true
}

func parseFloat(s string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("cannot convert '%s' to %s", s, KindFloat)
	}
	return f, nil
}

func mismatch(v any, kind Kind) error {
	if v == nil {
		return fmt.Errorf("null is not a valid %s", kind)
	}
	return fmt.Errorf("cannot convert %T to %s", v, kind)
}
