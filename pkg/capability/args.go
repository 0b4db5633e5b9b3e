package capability

import (
	"fmt"

	"github.com/google/uuid"
)

// Args 已转换的位置参数
//
// 访问器在索引越界或类型不符时返回零值，
// 经过 Bind 的参数总是与声明的 Params 对齐。
type Args []any

// Len 返回参数个数
func (a Args) Len() int { return len(a) }

// Value 返回原始值
func (a Args) Value(i int) any {
	if i < 0 || i >= len(a) {
		return nil
	}
	return a[i]
}

// String 返回字符串参数
func (a Args) String(i int) string {
	s, _ := a.Value(i).(string)
	return s
}

// Int 返回整数参数
func (a Args) Int(i int) int {
	n, _ := a.Value(i).(int)
	return n
}

// Long 返回 64 位整数参数
func (a Args) Long(i int) int64 {
	n, _ := a.Value(i).(int64)
	return n
}

// Float 返回浮点参数
func (a Args) Float(i int) float64 {
	f, _ := a.Value(i).(float64)
	return f
}

// Bool 返回布尔参数
func (a Args) Bool(i int) bool {
	b, _ := a.Value(i).(bool)
	return b
}

// UUID 返回唯一标识参数
func (a Args) UUID(i int) uuid.UUID {
	id, _ := a.Value(i).(uuid.UUID)
	return id
}

// Arg 返回第 i 个参数并断言为 T
//
// 用于 Object[T] 参数。
func Arg[T any](a Args, i int) T {
	v, _ := a.Value(i).(T)
	return v
}

// Bind 将原始参数按声明转换
//
// 多余的参数被截断；缺少的必需参数返回 *ArgumentError，
// 缺少的可选参数取零值。
func Bind(params []Param, raw []any) (Args, error) {
	out := make(Args, len(params))
	for i, p := range params {
		if i >= len(raw) {
			if !p.Optional {
				return nil, &ArgumentError{Index: i, Param: p, Err: fmt.Errorf("missing required argument")}
			}
			out[i] = p.Zero()
			continue
		}
		v, err := p.Coerce(raw[i])
		if err != nil {
			return nil, &ArgumentError{Index: i, Param: p, Value: raw[i], Err: err}
		}
		out[i] = v
	}
	return out, nil
}
