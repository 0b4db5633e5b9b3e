// Package capability 定义可远程调用模块的公共契约
//
// 每个模块在启动时通过 Operations() 显式声明一张操作表：
// 操作名 → 类型化参数列表 + 处理函数。注册表只读取这张表，
// 不做任何运行时反射扫描。
//
// # 快速开始
//
//	type worldModule struct{ dir host.Directory }
//
//	func (m *worldModule) Name() string { return "world" }
//
//	func (m *worldModule) Operations() []capability.Operation {
//	    return []capability.Operation{
//	        {
//	            Name:    "getTime",
//	            Params:  []capability.Param{capability.String("world")},
//	            OnHost:  true,
//	            Handler: m.getTime,
//	        },
//	    }
//	}
//
// 操作名与模块名均不区分大小写。
package capability

import (
	"context"
	"reflect"
	"strings"
)

// Module 能力提供者
type Module interface {
	// Name 返回模块的路由名
	//
	// 返回空字符串时由 DeriveName 从类型名推导。
	Name() string

	// Operations 返回模块声明的操作表
	//
	// 注册时调用一次；显式重新扫描时再次调用。
	Operations() []Operation
}

// Handler 操作处理函数
//
// args 已按 Operation.Params 完成类型转换，长度与 Params 一致。
// 返回值原样作为 RESPONSE 的 data。
type Handler func(ctx context.Context, args Args) (any, error)

// Operation 一个可远程调用的操作
type Operation struct {
	// Name 公开名称
	Name string

	// Params 声明的参数形状，按位置对应请求 args
	Params []Param

	// Handler 处理函数
	Handler Handler

	// OnHost 是否需要在宿主线程上执行
	//
	// 读取或修改宿主状态的操作必须设置为 true，
	// 分发器会通过宿主线程桥执行且仅执行一次。
	OnHost bool

	// Description 可选描述，用于自省
	Description string
}

// ParamNames 返回参数名列表
func (o Operation) ParamNames() []string {
	names := make([]string, len(o.Params))
	for i, p := range o.Params {
		names[i] = p.Name
	}
	return names
}

// ModuleName 返回模块的路由名（原始大小写）
func ModuleName(m Module) string {
	if name := strings.TrimSpace(m.Name()); name != "" {
		return name
	}
	return DeriveName(m)
}

// DeriveName 从类型名推导模块名
//
// 去掉指针与包名，转小写后移除 "module" 字样，
// 例如 *authapi.AuthApiModule → "authapi"、*WorldModule → "world"。
func DeriveName(v any) string {
	t := reflect.TypeOf(v)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil {
		return ""
	}
	return strings.ReplaceAll(strings.ToLower(t.Name()), "module", "")
}

// Func 将普通函数适配为 Module
//
// 用于测试与简单场景：
//
//	capability.Func("echo", capability.Operation{...})
func Func(name string, ops ...Operation) Module {
	return &funcModule{name: name, ops: ops}
}

type funcModule struct {
	name string
	ops  []Operation
}

func (m *funcModule) Name() string            { return m.name }
func (m *funcModule) Operations() []Operation { return m.ops }
