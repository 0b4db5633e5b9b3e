package demohost

import (
	"context"

	"go.uber.org/fx"

	"github.com/dep2p/go-hostrpc/internal/core/registry"
	pkgif "github.com/dep2p/go-hostrpc/pkg/interfaces"
)

// Module 返回演示宿主 Fx 模块
//
// 提供 pkgif.Directory 以及 world、subject 两个能力模块。
func Module() fx.Option {
	return fx.Module("demohost",
		fx.Provide(
			NewFromParams,
			func(h *Host) pkgif.Directory { return h },
			registry.AsCapability(NewWorldModule),
			registry.AsCapability(NewSubjectModule),
		),
		fx.Invoke(registerLifecycle),
	)
}

// Params 依赖参数
type Params struct {
	fx.In

	EventBus pkgif.EventBus `optional:"true"`
}

// NewFromParams 从参数创建演示宿主
func NewFromParams(p Params) (*Host, error) {
	return New(p.EventBus, DefaultWorlds...)
}

func registerLifecycle(lc fx.Lifecycle, h *Host) {
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error { return h.Close() },
	})
}
