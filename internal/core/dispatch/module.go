package dispatch

import (
	"go.uber.org/fx"

	"github.com/dep2p/go-hostrpc/config"
	"github.com/dep2p/go-hostrpc/internal/core/registry"
	pkgif "github.com/dep2p/go-hostrpc/pkg/interfaces"
)

// Module 返回分发器 Fx 模块
func Module() fx.Option {
	return fx.Module("dispatch",
		fx.Provide(NewFromParams),
	)
}

// ConfigFromUnified 从统一配置创建分发配置
func ConfigFromUnified(cfg *config.Config) Config {
	if cfg == nil {
		return DefaultConfig()
	}
	return Config{
		SlowThreshold: cfg.Dispatch.SlowThreshold.Duration(),
		ExposeFault:   cfg.Dispatch.ExposeFault,
	}
}

// Params 依赖参数
type Params struct {
	fx.In

	Registry   *registry.Registry
	Executor   pkgif.Executor `optional:"true"`
	Observer   Observer       `optional:"true"`
	UnifiedCfg *config.Config `optional:"true"`
}

// NewFromParams 从参数创建分发器
func NewFromParams(p Params) *Dispatcher {
	return New(ConfigFromUnified(p.UnifiedCfg), p.Registry,
		WithExecutor(p.Executor),
		WithObserver(p.Observer),
	)
}
