// Package registry 实现能力注册表
//
// 注册时读取模块声明的操作表，按小写操作名建立索引。
// 注册完成后内容只读，只有显式 Rescan 才会重建某个模块的索引。
// 解析失败（模块或方法不存在）是正常返回值，不是 panic。
package registry

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/dep2p/go-hostrpc/pkg/capability"
	"github.com/dep2p/go-hostrpc/pkg/lib/log"
)

var logger = log.Logger("core/registry")

// Entry 单个模块的已编译索引
type Entry struct {
	key    string
	name   string
	module capability.Module
	ops    map[string]*capability.Operation
	names  []string
}

// Compile 编译模块的操作表
func Compile(m capability.Module) (*Entry, error) {
	if m == nil {
		return nil, ErrNilModule
	}
	name := capability.ModuleName(m)
	if name == "" {
		return nil, ErrEmptyModuleName
	}

	declared := m.Operations()
	e := &Entry{
		key:    strings.ToLower(name),
		name:   name,
		module: m,
		ops:    make(map[string]*capability.Operation, len(declared)),
		names:  make([]string, 0, len(declared)),
	}
	for i := range declared {
		op := declared[i]
		opName := strings.TrimSpace(op.Name)
		if opName == "" {
			return nil, fmt.Errorf("%w: module %s, index %d", ErrEmptyOperationName, name, i)
		}
		if op.Handler == nil {
			return nil, fmt.Errorf("%w: %s.%s", ErrNilHandler, name, opName)
		}
		key := strings.ToLower(opName)
		if _, dup := e.ops[key]; dup {
			return nil, fmt.Errorf("%w: %s.%s", ErrDuplicateOperation, name, opName)
		}
		op.Name = opName
		e.ops[key] = &op
		e.names = append(e.names, opName)
	}
	sort.Strings(e.names)
	return e, nil
}

// Key 返回小写路由键
func (e *Entry) Key() string { return e.key }

// Name 返回声明的模块名
func (e *Entry) Name() string { return e.name }

// Module 返回模块实例
func (e *Entry) Module() capability.Module { return e.module }

// Lookup 按名称（不区分大小写）查找操作
func (e *Entry) Lookup(method string) (*capability.Operation, bool) {
	op, ok := e.ops[strings.ToLower(method)]
	return op, ok
}

// OperationNames 返回排序后的操作名
func (e *Entry) OperationNames() []string {
	return append([]string(nil), e.names...)
}

// Operations 返回按名称排序的操作
func (e *Entry) Operations() []capability.Operation {
	out := make([]capability.Operation, 0, len(e.names))
	for _, n := range e.names {
		out = append(out, *e.ops[strings.ToLower(n)])
	}
	return out
}

// Len 返回操作数
func (e *Entry) Len() int { return len(e.ops) }

// ============================================================================
//                              注册表
// ============================================================================

// Registry 能力注册表
//
// 读多写少：注册发生在启动阶段，之后所有解析只持读锁。
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*Entry
}

// New 创建注册表
func New() *Registry {
	return &Registry{entries: make(map[string]*Entry)}
}

// Register 注册模块
//
// 同名模块再次注册时清空并重建索引。
func (r *Registry) Register(m capability.Module) (*Entry, error) {
	e, err := Compile(m)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	_, replaced := r.entries[e.key]
	r.entries[e.key] = e
	r.mu.Unlock()

	if replaced {
		logger.Info("模块已重新注册", "module", e.name, "operations", e.names)
	} else {
		logger.Info("模块已注册", "module", e.name, "operations", e.names)
	}
	return e, nil
}

// Rescan 重新读取已注册模块的操作表
func (r *Registry) Rescan(name string) (*Entry, error) {
	old, ok := r.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrModuleNotFound, name)
	}
	return r.Register(old.module)
}

// Unregister 注销模块
func (r *Registry) Unregister(name string) bool {
	key := strings.ToLower(name)
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[key]; !ok {
		return false
	}
	delete(r.entries, key)
	return true
}

// Lookup 按名称（不区分大小写）查找模块
func (r *Registry) Lookup(name string) (*Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[strings.ToLower(name)]
	return e, ok
}

// Resolve 解析 module.method
func (r *Registry) Resolve(module, method string) (*Entry, *capability.Operation, error) {
	e, ok := r.Lookup(module)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrModuleNotFound, module)
	}
	op, ok := e.Lookup(method)
	if !ok {
		return e, nil, fmt.Errorf("%w: %s", ErrMethodNotFound, method)
	}
	return e, op, nil
}

// Modules 返回排序后的模块名
func (r *Registry) Modules() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.name)
	}
	sort.Strings(out)
	return out
}

// Entries 返回按模块名排序的索引
func (r *Registry) Entries() []*Entry {
	r.mu.RLock()
	out := make([]*Entry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].key < out[j].key })
	return out
}

// Len 返回模块数
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
