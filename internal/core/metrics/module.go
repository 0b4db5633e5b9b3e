package metrics

import (
	"github.com/benbjohnson/clock"
	"go.uber.org/fx"
	"go.uber.org/multierr"

	"github.com/dep2p/go-hostrpc/config"
	"github.com/dep2p/go-hostrpc/internal/core/auth"
	"github.com/dep2p/go-hostrpc/internal/core/bridge"
	"github.com/dep2p/go-hostrpc/internal/core/cache"
	"github.com/dep2p/go-hostrpc/internal/core/dispatch"
)

// Config 指标配置
type Config struct {
	// Enabled 是否启用 Prometheus 收集
	Enabled bool
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		Enabled: true,
	}
}

// ConfigFromUnified 从统一配置创建指标配置
func ConfigFromUnified(cfg *config.Config) Config {
	if cfg == nil {
		return DefaultConfig()
	}
	return Config{
		Enabled: cfg.Metrics.Enabled,
	}
}

// Params Collector 依赖参数
type Params struct {
	fx.In

	UnifiedCfg *config.Config `optional:"true"`
}

// Module 是 metrics 的 Fx 模块
//
// 未启用时 *Collector 为 nil，各观察者方法为空操作。
var Module = fx.Module("metrics",
	fx.Provide(
		NewCollectorFromParams,
		func(c *Collector) bridge.Observer { return c },
		func(c *Collector) dispatch.Observer { return c },
		func(c *Collector) cache.Observer { return c },
		NewTrafficCounterFromParams,
		func(tc *TrafficCounter) Reporter { return tc },
	),
	fx.Invoke(registerGauges),
)

// NewCollectorFromParams 从参数创建 Collector
func NewCollectorFromParams(p Params) *Collector {
	cfg := ConfigFromUnified(p.UnifiedCfg)
	if !cfg.Enabled {
		return nil
	}
	return NewCollector()
}

// TrafficParams TrafficCounter 依赖参数
type TrafficParams struct {
	fx.In

	Clock clock.Clock `optional:"true"`
}

// NewTrafficCounterFromParams 从参数创建 TrafficCounter
func NewTrafficCounterFromParams(p TrafficParams) *TrafficCounter {
	return NewTrafficCounter(p.Clock)
}

type gaugeInput struct {
	fx.In

	Collector *Collector
	Traffic   *TrafficCounter
	Auth      *auth.Manager `optional:"true"`
	Cache     *cache.Group  `optional:"true"`
}

// registerGauges 注册按需求值的仪表
func registerGauges(in gaugeInput) error {
	if in.Collector == nil {
		return nil
	}
	c := in.Collector
	err := multierr.Combine(
		c.RegisterGauge("server", "connections_active", "Connections currently tracked.",
			func() float64 { return float64(in.Traffic.Conns()) }),
		c.RegisterGauge("server", "receive_bytes_rate", "Inbound bytes per second over the last minute.",
			func() float64 { return in.Traffic.Totals().RateIn }),
		c.RegisterGauge("server", "send_bytes_rate", "Outbound bytes per second over the last minute.",
			func() float64 { return in.Traffic.Totals().RateOut }),
	)
	if in.Auth != nil {
		err = multierr.Append(err, c.RegisterGauge("auth", "sessions_authenticated", "Authenticated sessions.",
			func() float64 { return float64(in.Auth.Count()) }))
	}
	if in.Cache != nil {
		err = multierr.Append(err, c.RegisterGauge("cache", "members", "Caches registered for invalidation.",
			func() float64 { return float64(in.Cache.Len()) }))
	}
	return err
}
