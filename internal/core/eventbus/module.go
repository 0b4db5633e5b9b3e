package eventbus

import (
	"context"

	"go.uber.org/fx"

	pkgif "github.com/dep2p/go-hostrpc/pkg/interfaces"
)

// Result 同时以具体类型和接口提供总线
type Result struct {
	fx.Out

	Bus      *Bus
	EventBus pkgif.EventBus
}

// Module 返回 Fx 模块
//
// 总线在 OnStop 时关闭；缓存失效订阅的 range 循环随之退出。
func Module() fx.Option {
	return fx.Module("eventbus",
		fx.Provide(func() Result {
			bus := NewBus()
			return Result{Bus: bus, EventBus: bus}
		}),
		fx.Invoke(func(lc fx.Lifecycle, bus *Bus) {
			lc.Append(fx.StopHook(func(context.Context) error {
				if n := bus.Dropped(); n > 0 {
					// 丢弃的失效事件意味着缓存可能短暂陈旧
					logger.Warn("运行期间有事件因订阅者过慢被丢弃", "dropped", n)
				}
				return bus.Close()
			}))
		}),
	)
}
