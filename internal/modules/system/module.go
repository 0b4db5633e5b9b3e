package system

import (
	"go.uber.org/fx"

	"github.com/dep2p/go-hostrpc/internal/core/auth"
	"github.com/dep2p/go-hostrpc/internal/core/bridge"
	"github.com/dep2p/go-hostrpc/internal/core/dispatch"
	"github.com/dep2p/go-hostrpc/internal/core/lookup"
	"github.com/dep2p/go-hostrpc/internal/core/metrics"
	"github.com/dep2p/go-hostrpc/internal/core/registry"
)

// Params 依赖参数
type Params struct {
	fx.In

	Registry   *registry.Registry
	Dispatcher *dispatch.Dispatcher    `optional:"true"`
	Auth       *auth.Manager           `optional:"true"`
	Bridge     *bridge.Bridge          `optional:"true"`
	Resolver   *lookup.Resolver        `optional:"true"`
	Traffic    *metrics.TrafficCounter `optional:"true"`
}

// Module 返回自省模块的 Fx 模块
func Module() fx.Option {
	return fx.Module("system",
		fx.Provide(registry.AsCapability(NewFromParams)),
	)
}

// NewFromParams 从参数创建自省模块
func NewFromParams(p Params) *Introspect {
	return New(Deps{
		Registry:   p.Registry,
		Dispatcher: p.Dispatcher,
		Auth:       p.Auth,
		Bridge:     p.Bridge,
		Resolver:   p.Resolver,
		Traffic:    p.Traffic,
	})
}
