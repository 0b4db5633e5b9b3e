package hostrpc

import (
	"context"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/fx"
	"go.uber.org/multierr"

	"github.com/dep2p/go-hostrpc/config"
	"github.com/dep2p/go-hostrpc/internal/core/auth"
	"github.com/dep2p/go-hostrpc/internal/core/bridge"
	"github.com/dep2p/go-hostrpc/internal/core/cache"
	"github.com/dep2p/go-hostrpc/internal/core/dispatch"
	"github.com/dep2p/go-hostrpc/internal/core/lookup"
	"github.com/dep2p/go-hostrpc/internal/core/metrics"
	"github.com/dep2p/go-hostrpc/internal/core/registry"
	"github.com/dep2p/go-hostrpc/internal/core/server"
	pkgif "github.com/dep2p/go-hostrpc/pkg/interfaces"
	"github.com/dep2p/go-hostrpc/pkg/lib/log"
	"github.com/dep2p/go-hostrpc/pkg/types"
)

var logger = log.Logger("hostrpc")

const (
	startTimeout = 15 * time.Second

	// healthProbeTimeout 健康检查等待宿主线程的时限
	healthProbeTimeout = time.Second
)

// Service hostrpc 服务
//
// Stop 之后不能再次 Start。
type Service struct {
	cfg *config.Config
	app *fx.App

	server     *server.Server
	bridge     *bridge.Bridge
	group      *cache.Group
	bus        pkgif.EventBus
	registry   *registry.Registry
	dispatcher *dispatch.Dispatcher
	resolver   *lookup.Resolver
	auth       *auth.Manager
	traffic    *metrics.TrafficCounter

	mu      sync.Mutex
	started bool
	closed  bool
	running atomic.Bool
	reset   pkgif.Emitter
}

// New 创建服务但不启动
func New(opts ...Option) (*Service, error) {
	o := defaultOptions()
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, fmt.Errorf("apply option: %w", err)
		}
	}

	svc := &Service{cfg: o.config}
	app, err := buildFxApp(o, svc)
	if err != nil {
		return nil, err
	}
	if err := app.Err(); err != nil {
		return nil, fmt.Errorf("build fx app: %w", err)
	}
	svc.app = app
	return svc, nil
}

// Start 创建并启动服务
func Start(ctx context.Context, opts ...Option) (*Service, error) {
	svc, err := New(opts...)
	if err != nil {
		return nil, err
	}
	if err := svc.Start(ctx); err != nil {
		return nil, err
	}
	return svc, nil
}

// Start 启动所有组件并开始监听
//
// 启动完成后清空所有缓存并发出 EvtHostReset(start)。
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrServiceClosed
	}
	if s.started {
		return ErrAlreadyStarted
	}

	startCtx, cancel := context.WithTimeout(ctx, startTimeout)
	defer cancel()
	if err := s.app.Start(startCtx); err != nil {
		s.closed = true
		logger.Error("服务启动失败", "error", err)
		return fmt.Errorf("start fx app: %w", err)
	}

	em, err := s.bus.Emitter(new(types.EvtHostReset))
	if err != nil {
		logger.Warn("创建重置事件发射器失败", "error", err)
	}
	s.reset = em
	s.resetCaches(types.ResetStart)

	s.started = true
	s.running.Store(true)
	logger.Info("服务已启动", "addr", s.Addr(), "modules", s.registry.Modules(), "version", Version)
	return nil
}

// Stop 关闭所有连接并停止组件
//
// 停止前清空所有缓存并发出 EvtHostReset(stop)。
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	if !s.started {
		return ErrNotStarted
	}

	s.running.Store(false)
	s.resetCaches(types.ResetStop)

	var err error
	if s.reset != nil {
		err = multierr.Append(err, s.reset.Close())
	}
	if stopErr := s.app.Stop(ctx); stopErr != nil {
		err = multierr.Append(err, fmt.Errorf("stop fx app: %w", stopErr))
	}
	s.started = false
	s.closed = true

	if err != nil {
		logger.Error("服务停止出错", "error", err)
		return err
	}
	logger.Info("服务已停止")
	return nil
}

func (s *Service) resetCaches(phase types.ResetPhase) {
	n := s.group.ClearAll()
	if s.reset != nil {
		_ = s.reset.Emit(types.EvtHostReset{
			BaseEvent: types.NewBaseEvent(types.EventTypeHostReset),
			Phase:     phase,
		})
	}
	logger.Debug("缓存已重置", "phase", phase, "caches", n)
}

// healthCheck 服务运行且宿主线程能在时限内执行任务
func (s *Service) healthCheck(ctx context.Context) error {
	if !s.running.Load() {
		return ErrNotStarted
	}
	ctx, cancel := context.WithTimeout(ctx, healthProbeTimeout)
	defer cancel()
	if _, err := s.bridge.Execute(ctx, func(context.Context) (any, error) { return nil, nil }); err != nil {
		return fmt.Errorf("%w: %v", ErrHostUnresponsive, err)
	}
	return nil
}

// ============================================================================
//                              访问器
// ============================================================================

// Addr 返回监听地址，未启动时为 nil
func (s *Service) Addr() net.Addr {
	if s.server == nil {
		return nil
	}
	return s.server.Addr()
}

// Config 返回配置副本
func (s *Service) Config() *config.Config {
	return config.CloneConfig(s.cfg)
}

// EventBus 返回进程内事件总线，宿主通过它发出生命周期事件
func (s *Service) EventBus() pkgif.EventBus {
	return s.bus
}

// Executor 返回宿主线程执行器
func (s *Service) Executor() pkgif.Executor {
	return s.bridge
}

// Resolver 返回带缓存的宿主对象解析器
func (s *Service) Resolver() *lookup.Resolver {
	return s.resolver
}

// Drain 在调用方线程上执行最多 max 个排队任务
//
// 仅在 bridge.external_loop 模式下由宿主主循环调用。
func (s *Service) Drain(max int) int {
	return s.bridge.Drain(max)
}

// Modules 返回已注册的能力模块名
func (s *Service) Modules() []string {
	return s.registry.Modules()
}

// Stats 服务统计快照
type Stats struct {
	Connections   int            `json:"connections"`
	Authenticated int            `json:"authenticated"`
	Dispatch      dispatch.Stats `json:"dispatch"`
	Traffic       metrics.Stats  `json:"traffic"`
	BridgePending int            `json:"bridgePending"`
	Cache         map[string]int `json:"cache"`
}

// Stats 返回统计快照
func (s *Service) Stats() Stats {
	return Stats{
		Connections:   s.server.Conns(),
		Authenticated: s.auth.Count(),
		Dispatch:      s.dispatcher.Stats(),
		Traffic:       s.traffic.Totals(),
		BridgePending: s.bridge.Pending(),
		Cache:         s.resolver.CacheSizes(),
	}
}
