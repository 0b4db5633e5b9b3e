package hostrpc

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/dep2p/go-hostrpc/internal/core/auth"
	"github.com/dep2p/go-hostrpc/internal/core/bridge"
	"github.com/dep2p/go-hostrpc/internal/core/cache"
	"github.com/dep2p/go-hostrpc/internal/core/codec"
	"github.com/dep2p/go-hostrpc/internal/core/dispatch"
	"github.com/dep2p/go-hostrpc/internal/core/eventbus"
	"github.com/dep2p/go-hostrpc/internal/core/lookup"
	"github.com/dep2p/go-hostrpc/internal/core/metrics"
	"github.com/dep2p/go-hostrpc/internal/core/ratelimit"
	"github.com/dep2p/go-hostrpc/internal/core/registry"
	"github.com/dep2p/go-hostrpc/internal/core/server"
	"github.com/dep2p/go-hostrpc/internal/modules/authapi"
	"github.com/dep2p/go-hostrpc/internal/modules/system"
	"github.com/dep2p/go-hostrpc/pkg/capability"
	pkgif "github.com/dep2p/go-hostrpc/pkg/interfaces"
	"github.com/dep2p/go-hostrpc/pkg/lib/log"
)

var fxLogger = log.Logger("hostrpc/fx")

// buildFxApp 构建 Fx 应用
//
// 加载顺序（按依赖）：
//  1. 基础：EventBus → Metrics → Bridge
//  2. 宿主：Directory → Cache ← Lookup
//  3. 请求：Auth → Codec → Registry → Dispatch → RateLimit
//  4. 能力：auth（连接绑定）、system、用户模块
//  5. 传输：Server
func buildFxApp(o *options, svc *Service) (*fx.App, error) {
	if err := o.config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	modules := []fx.Option{
		fx.Supply(o.config),

		eventbus.Module(),
		metrics.Module,
		bridge.Module(),

		cache.Module(),
		lookup.Module(),

		auth.Module(),
		codec.Module(),
		registry.Module(),
		dispatch.Module(),
		ratelimit.Module(),

		authapi.Module(),
		system.Module(),

		server.Module(),

		fx.Provide(fx.Annotate(
			func() func(context.Context) error { return svc.healthCheck },
			fx.ResultTags(`name:"health_check"`),
		)),
	}

	for _, m := range o.modules {
		m := m
		modules = append(modules, fx.Provide(fx.Annotate(
			func() capability.Module { return m },
			fx.ResultTags(registry.CapabilityGroup),
		)))
	}
	for _, ctor := range o.factories {
		modules = append(modules, fx.Provide(registry.AsCapability(ctor)))
	}

	switch {
	case o.directory != nil:
		dir := o.directory
		modules = append(modules, fx.Provide(func() pkgif.Directory { return dir }))
	case len(o.hostModules) > 0:
		modules = append(modules, o.hostModules...)
	default:
		modules = append(modules, fx.Provide(func() pkgif.Directory { return emptyDirectory{} }))
	}

	modules = append(modules, o.fxOptions...)
	modules = append(modules,
		fx.Invoke(injectComponents(svc)),
		fx.WithLogger(fxEventLogger(o.fxDebug)),
	)

	return fx.New(modules...), nil
}

// fxEventLogger 默认禁用 Fx 日志输出，调试时使用开发模式 zap
func fxEventLogger(debug bool) func() fxevent.Logger {
	return func() fxevent.Logger {
		if !debug {
			return &fxevent.ZapLogger{Logger: zap.NewNop()}
		}
		l, err := zap.NewDevelopment()
		if err != nil {
			fxLogger.Warn("创建 Fx 调试日志失败", "error", err)
			return &fxevent.ZapLogger{Logger: zap.NewNop()}
		}
		return &fxevent.ZapLogger{Logger: l.Named("fx")}
	}
}

// componentParams Service 需要持有的组件
type componentParams struct {
	fx.In

	Server     *server.Server
	Bridge     *bridge.Bridge
	Group      *cache.Group
	Bus        pkgif.EventBus
	Registry   *registry.Registry
	Dispatcher *dispatch.Dispatcher
	Resolver   *lookup.Resolver
	Auth       *auth.Manager
	Traffic    *metrics.TrafficCounter
}

func injectComponents(svc *Service) any {
	return func(p componentParams) {
		svc.server = p.Server
		svc.bridge = p.Bridge
		svc.group = p.Group
		svc.bus = p.Bus
		svc.registry = p.Registry
		svc.dispatcher = p.Dispatcher
		svc.resolver = p.Resolver
		svc.auth = p.Auth
		svc.traffic = p.Traffic
	}
}

// emptyDirectory 未提供宿主目录时使用
type emptyDirectory struct{}

func (emptyDirectory) SubjectByName(string) (pkgif.Subject, bool)  { return nil, false }
func (emptyDirectory) SubjectByID(uuid.UUID) (pkgif.Subject, bool) { return nil, false }
func (emptyDirectory) World(string) (pkgif.World, bool)            { return nil, false }
func (emptyDirectory) Worlds() []pkgif.World                       { return nil }
