package bridge

import (
	"context"
	"errors"

	"go.uber.org/fx"

	"github.com/dep2p/go-hostrpc/config"
	pkgif "github.com/dep2p/go-hostrpc/pkg/interfaces"
)

// ============================================================================
//                              Fx 模块
// ============================================================================

// Module 返回 Fx 模块
func Module() fx.Option {
	return fx.Module("bridge",
		fx.Provide(
			NewFromParams,
			func(b *Bridge) pkgif.Executor { return b },
		),
		fx.Invoke(registerLifecycle),
	)
}

// ConfigFromUnified 从统一配置创建桥配置
func ConfigFromUnified(cfg *config.Config) Config {
	if cfg == nil {
		return DefaultConfig()
	}
	return Config{
		QueueDepth:   cfg.Bridge.QueueDepth,
		WaitTimeout:  cfg.Bridge.WaitTimeout.Duration(),
		LockOSThread: cfg.Bridge.LockOSThread,
	}
}

// Params 依赖参数
type Params struct {
	fx.In

	UnifiedCfg *config.Config `optional:"true"`
	Observer   Observer       `optional:"true"`
}

// NewFromParams 从参数创建桥
func NewFromParams(p Params) *Bridge {
	return New(ConfigFromUnified(p.UnifiedCfg), WithObserver(p.Observer))
}

// lifecycleInput 生命周期输入参数
type lifecycleInput struct {
	fx.In
	LC         fx.Lifecycle
	Bridge     *Bridge
	UnifiedCfg *config.Config `optional:"true"`
}

// registerLifecycle 注册生命周期
//
// ExternalLoop 模式下由嵌入方调用 Drain，这里不启动内置循环。
func registerLifecycle(input lifecycleInput) {
	external := input.UnifiedCfg != nil && input.UnifiedCfg.Bridge.ExternalLoop
	loopCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	input.LC.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			if external {
				close(done)
				logger.Info("宿主线程桥使用外部循环")
				return nil
			}
			go func() {
				defer close(done)
				if err := input.Bridge.Run(loopCtx); err != nil && !errors.Is(err, context.Canceled) {
					logger.Error("宿主线程循环异常退出", "error", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			cancel()
			_ = input.Bridge.Close()
			select {
			case <-done:
			case <-ctx.Done():
				return ctx.Err()
			}
			return nil
		},
	})
}
