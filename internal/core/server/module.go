package server

import (
	"context"

	"go.uber.org/fx"

	"github.com/dep2p/go-hostrpc/config"
	"github.com/dep2p/go-hostrpc/internal/core/auth"
	"github.com/dep2p/go-hostrpc/internal/core/codec"
	"github.com/dep2p/go-hostrpc/internal/core/dispatch"
	"github.com/dep2p/go-hostrpc/internal/core/metrics"
	"github.com/dep2p/go-hostrpc/internal/core/ratelimit"
	pkgif "github.com/dep2p/go-hostrpc/pkg/interfaces"
)

// ============================================================================
//                              Fx 模块
// ============================================================================

// Module 返回连接处理器 Fx 模块
func Module() fx.Option {
	return fx.Module("server",
		fx.Provide(NewFromParams),
		fx.Invoke(registerLifecycle),
	)
}

// ConfigFromUnified 从统一配置创建服务端配置
func ConfigFromUnified(cfg *config.Config) Config {
	if cfg == nil {
		return DefaultConfig()
	}
	out := Config{
		Addr:              cfg.Server.Addr(),
		Path:              cfg.Server.Path,
		AllowedOrigins:    append([]string(nil), cfg.Server.AllowedOrigins...),
		MaxFrameSize:      cfg.Server.MaxFrameSize,
		HandshakeTimeout:  cfg.Server.Timeout.Duration(),
		IdleTimeout:       cfg.Server.IdleTimeout.Duration(),
		WriteTimeout:      cfg.Server.WriteTimeout.Duration(),
		ShutdownTimeout:   cfg.Server.ShutdownTimeout.Duration(),
		MaxConnections:    cfg.Server.MaxConnections,
		EnableCompression: cfg.Server.EnableCompression,
		TLSCertFile:       cfg.Server.TLSCertFile,
		TLSKeyFile:        cfg.Server.TLSKeyFile,
	}
	if cfg.Metrics.Enabled {
		out.MetricsPath = cfg.Metrics.Path
		out.HealthPath = cfg.Metrics.HealthPath
	}
	return out
}

// Params 依赖参数
type Params struct {
	fx.In

	Dispatcher    *dispatch.Dispatcher
	Auth          *auth.Manager
	Codec         *codec.Codec
	UnifiedCfg    *config.Config              `optional:"true"`
	Limiter       *ratelimit.Limiter          `optional:"true"`
	Reporter      metrics.Reporter            `optional:"true"`
	Collector     *metrics.Collector          `optional:"true"`
	EventBus      pkgif.EventBus              `optional:"true"`
	SessionModule SessionModuleFactory        `optional:"true"`
	HealthCheck   func(context.Context) error `name:"health_check" optional:"true"`
}

// NewFromParams 从参数创建连接处理器
func NewFromParams(p Params) (*Server, error) {
	opts := []Option{
		WithLimiter(p.Limiter),
		WithReporter(p.Reporter),
		WithEventBus(p.EventBus),
		WithSessionModule(p.SessionModule),
		WithHealthCheck(p.HealthCheck),
	}
	if p.Collector != nil {
		opts = append(opts,
			WithObserver(p.Collector),
			WithMetricsHandler(p.Collector.Handler()),
		)
	}
	return New(ConfigFromUnified(p.UnifiedCfg), p.Dispatcher, p.Auth, p.Codec, opts...)
}

// lifecycleInput 生命周期输入参数
type lifecycleInput struct {
	fx.In
	LC     fx.Lifecycle
	Server *Server
}

func registerLifecycle(input lifecycleInput) {
	input.LC.Append(fx.Hook{
		OnStart: input.Server.Start,
		OnStop:  input.Server.Stop,
	})
}
