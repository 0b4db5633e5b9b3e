package auth

import (
	"context"

	"github.com/benbjohnson/clock"
	"go.uber.org/fx"

	"github.com/dep2p/go-hostrpc/config"
)

// ============================================================================
//
//	Fx 模块定义
//
// ============================================================================

// Module 返回认证 Fx 模块
func Module() fx.Option {
	return fx.Module("auth",
		fx.Provide(NewManagerFromParams),
		fx.Invoke(registerLifecycle),
	)
}

// ConfigFromUnified 从统一配置创建认证配置
func ConfigFromUnified(cfg *config.Config) Config {
	if cfg == nil {
		return DefaultConfig()
	}
	return Config{
		Key:            cfg.Auth.Key,
		SessionTimeout: cfg.Auth.SessionTimeout.Duration(),
		PruneInterval:  cfg.Auth.PruneInterval.Duration(),
	}
}

// ManagerParams Manager 依赖参数
type ManagerParams struct {
	fx.In

	UnifiedCfg *config.Config `optional:"true"`
	Clock      clock.Clock    `optional:"true"`
}

// NewManagerFromParams 从参数创建 Manager
func NewManagerFromParams(p ManagerParams) (*Manager, error) {
	if p.UnifiedCfg != nil && p.UnifiedCfg.Auth.IsDefaultKey() {
		logger.Warn("正在使用默认共享密钥，生产环境必须修改 auth.key")
	}
	return NewManager(ConfigFromUnified(p.UnifiedCfg), WithClock(p.Clock))
}

type lifecycleInput struct {
	fx.In
	LC      fx.Lifecycle
	Manager *Manager
}

func registerLifecycle(input lifecycleInput) {
	input.LC.Append(fx.Hook{
		OnStart: input.Manager.Start,
		OnStop: func(ctx context.Context) error {
			_ = input.Manager.Close()
			return input.Manager.Wait(ctx)
		},
	})
}
