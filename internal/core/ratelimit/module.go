package ratelimit

import (
	"go.uber.org/fx"

	"github.com/dep2p/go-hostrpc/config"
)

// Module 返回限流 Fx 模块
func Module() fx.Option {
	return fx.Module("ratelimit",
		fx.Provide(NewFromParams),
	)
}

// ConfigFromUnified 从统一配置创建限流配置
func ConfigFromUnified(cfg *config.Config) Config {
	if cfg == nil {
		return DefaultConfig()
	}
	return Config{
		Enabled:           cfg.RateLimit.Enabled,
		RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
		Burst:             cfg.RateLimit.Burst,
		MaxTrackedHosts:   cfg.RateLimit.MaxTrackedHosts,
	}
}

// Params 依赖参数
type Params struct {
	fx.In

	UnifiedCfg *config.Config `optional:"true"`
}

// NewFromParams 从参数创建限流器，未启用时为 nil
func NewFromParams(p Params) (*Limiter, error) {
	l, err := New(ConfigFromUnified(p.UnifiedCfg))
	if err != nil {
		return nil, err
	}
	if l != nil {
		logger.Info("按来源主机限流已启用", "rps", l.limit, "burst", l.burst)
	}
	return l, nil
}
