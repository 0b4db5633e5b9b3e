// Package system 实现自省模块
//
//	system.ping()            → {pong, timestamp}
//	system.modules()         → 已注册模块名（含连接绑定的 auth）
//	system.methods(module)   → 模块的操作与参数形状
//	system.stats()           → 分发、会话、桥、缓存与流量统计
package system

import (
	"context"
	"sort"
	"time"

	"github.com/dep2p/go-hostrpc/internal/core/auth"
	"github.com/dep2p/go-hostrpc/internal/core/bridge"
	"github.com/dep2p/go-hostrpc/internal/core/dispatch"
	"github.com/dep2p/go-hostrpc/internal/core/lookup"
	"github.com/dep2p/go-hostrpc/internal/core/metrics"
	"github.com/dep2p/go-hostrpc/internal/core/registry"
	"github.com/dep2p/go-hostrpc/internal/core/server"
	"github.com/dep2p/go-hostrpc/pkg/capability"
)

// Deps 统计来源，除 Registry 外均可为 nil
type Deps struct {
	Registry   *registry.Registry
	Dispatcher *dispatch.Dispatcher
	Auth       *auth.Manager
	Bridge     *bridge.Bridge
	Resolver   *lookup.Resolver
	Traffic    *metrics.TrafficCounter
}

// Introspect 自省模块
type Introspect struct {
	deps    Deps
	started time.Time
}

var _ capability.Module = (*Introspect)(nil)

// New 创建自省模块
func New(deps Deps) *Introspect {
	return &Introspect{deps: deps, started: time.Now()}
}

// Name 路由名
func (m *Introspect) Name() string { return "system" }

// Operations 操作表
func (m *Introspect) Operations() []capability.Operation {
	return []capability.Operation{
		{Name: "ping", Handler: m.ping, Description: "Liveness probe"},
		{Name: "modules", Handler: m.modules, Description: "Registered module names"},
		{
			Name:        "methods",
			Params:      []capability.Param{capability.String("module")},
			Handler:     m.methods,
			Description: "Operations declared by a module",
		},
		{Name: "stats", Handler: m.stats, Description: "Service statistics"},
	}
}

func (m *Introspect) ping(context.Context, capability.Args) (any, error) {
	return map[string]any{
		"pong":      true,
		"timestamp": time.Now().UnixMilli(),
	}, nil
}

func (m *Introspect) modules(context.Context, capability.Args) (any, error) {
	names := m.deps.Registry.Modules()
	names = append(names, server.AuthModuleName)
	sort.Strings(names)
	return names, nil
}

// OperationInfo 操作描述
type OperationInfo struct {
	Name        string   `json:"name"`
	Params      []string `json:"params"`
	Kinds       []string `json:"kinds"`
	OnHost      bool     `json:"onHost"`
	Description string   `json:"description,omitempty"`
}

func (m *Introspect) methods(_ context.Context, args capability.Args) (any, error) {
	name := args.String(0)
	e, ok := m.deps.Registry.Lookup(name)
	if !ok {
		return nil, capability.InvalidInput("Module not found: %s", name)
	}
	ops := e.Operations()
	out := make([]OperationInfo, 0, len(ops))
	for _, op := range ops {
		kinds := make([]string, len(op.Params))
		for i, p := range op.Params {
			kinds[i] = string(p.Kind)
		}
		out = append(out, OperationInfo{
			Name:        op.Name,
			Params:      op.ParamNames(),
			Kinds:       kinds,
			OnHost:      op.OnHost,
			Description: op.Description,
		})
	}
	return out, nil
}

func (m *Introspect) stats(context.Context, capability.Args) (any, error) {
	out := map[string]any{
		"uptimeSeconds": int64(time.Since(m.started).Seconds()),
		"modules":       m.deps.Registry.Len(),
	}
	if d := m.deps.Dispatcher; d != nil {
		out["dispatch"] = d.Stats()
	}
	if a := m.deps.Auth; a != nil {
		out["sessions"] = map[string]int{
			"open":          a.Len(),
			"authenticated": a.Count(),
		}
	}
	if b := m.deps.Bridge; b != nil {
		out["bridgePending"] = b.Pending()
	}
	if r := m.deps.Resolver; r != nil {
		out["cache"] = r.CacheSizes()
	}
	if t := m.deps.Traffic; t != nil {
		out["traffic"] = t.Totals()
		out["connections"] = t.Conns()
	}
	return out, nil
}
