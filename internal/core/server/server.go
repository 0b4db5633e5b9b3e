// Package server 实现 WebSocket 连接处理器
//
// 每个连接一个 goroutine，帧按到达顺序串行处理：
//
//	文本帧 → codec.Decode → 限流 → 认证检查 → dispatch.Dispatch → codec.Encode → 写回
//
// auth 模块按连接绑定，认证前即可调用；其余模块在连接未认证时
// 返回 NOT_AUTHENTICATED。帧级编解码失败返回 PROCESSING_ERROR，
// 连接保持；只有读写失败才关闭连接。
//
// 同一 HTTP 服务器还暴露健康检查与 Prometheus 指标端点。
package server

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/multierr"
	"golang.org/x/net/netutil"
	"golang.org/x/sync/errgroup"

	"github.com/dep2p/go-hostrpc/internal/core/auth"
	"github.com/dep2p/go-hostrpc/internal/core/codec"
	"github.com/dep2p/go-hostrpc/internal/core/dispatch"
	"github.com/dep2p/go-hostrpc/internal/core/metrics"
	"github.com/dep2p/go-hostrpc/internal/core/ratelimit"
	"github.com/dep2p/go-hostrpc/internal/core/registry"
	"github.com/dep2p/go-hostrpc/pkg/capability"
	pkgif "github.com/dep2p/go-hostrpc/pkg/interfaces"
	"github.com/dep2p/go-hostrpc/pkg/lib/log"
	"github.com/dep2p/go-hostrpc/pkg/types"
)

var logger = log.Logger("core/server")

// AuthModuleName 认证前可调用的连接绑定模块名
const AuthModuleName = "auth"

// ============================================================================
//                              配置
// ============================================================================

// Config 连接处理器配置
type Config struct {
	// Addr 监听地址 host:port
	Addr string

	// Path WebSocket 升级路径
	Path string

	// AllowedOrigins 允许的 Origin，空或包含 "*" 表示不限制
	AllowedOrigins []string

	// MaxFrameSize 单帧最大字节数
	MaxFrameSize int64

	// HandshakeTimeout 握手超时
	HandshakeTimeout time.Duration

	// IdleTimeout 无入站帧的最长时间
	IdleTimeout time.Duration

	// WriteTimeout 单次写超时
	WriteTimeout time.Duration

	// ShutdownTimeout Stop 未携带截止时间时的默认等待
	ShutdownTimeout time.Duration

	// MaxConnections 最大并发连接数，0 表示不限制
	MaxConnections int

	// EnableCompression 是否协商 permessage-deflate
	EnableCompression bool

	// TLSCertFile/TLSKeyFile 同时设置时启用 TLS
	TLSCertFile string
	TLSKeyFile  string

	// MetricsPath 指标路径，空表示不暴露
	MetricsPath string

	// HealthPath 健康检查路径，空表示不暴露
	HealthPath string
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		Addr:              "0.0.0.0:8765",
		Path:              "/",
		AllowedOrigins:    []string{"*"},
		MaxFrameSize:      65536,
		HandshakeTimeout:  30 * time.Second,
		IdleTimeout:       300 * time.Second,
		WriteTimeout:      10 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		EnableCompression: true,
		MetricsPath:       "/metrics",
		HealthPath:        "/healthz",
	}
}

// TLSEnabled 是否启用 TLS
func (c Config) TLSEnabled() bool {
	return c.TLSCertFile != "" && c.TLSKeyFile != ""
}

// ============================================================================
//                              观察者与选项
// ============================================================================

// Observer 连接事件观察者（由 internal/core/metrics.Collector 实现）
type Observer interface {
	ConnectionOpened()
	ConnectionClosed(reason types.DisconnectReason, lifetime time.Duration)
	RateLimited()
}

type nopObserver struct{}

func (nopObserver) ConnectionOpened()                                      {}
func (nopObserver) ConnectionClosed(types.DisconnectReason, time.Duration) {}
func (nopObserver) RateLimited()                                           {}

// ConnInfo 连接信息，传给连接绑定模块工厂
type ConnInfo struct {
	ID         types.ConnID
	RemoteAddr string
	TLS        bool
	OpenedAt   time.Time
}

// SessionModuleFactory 为每个连接创建绑定的 auth 模块
type SessionModuleFactory func(info ConnInfo) capability.Module

// Option 服务端选项
type Option func(*Server)

// WithLimiter 设置按来源限流器，nil 表示不限流
func WithLimiter(l *ratelimit.Limiter) Option {
	return func(s *Server) { s.limiter = l }
}

// WithReporter 设置帧流量计数器
func WithReporter(r metrics.Reporter) Option {
	return func(s *Server) {
		if r != nil {
			s.traffic = r
		}
	}
}

// WithObserver 设置观察者
func WithObserver(o Observer) Option {
	return func(s *Server) {
		if o != nil {
			s.observer = o
		}
	}
}

// WithEventBus 设置事件总线，用于发出连接生命周期事件
func WithEventBus(bus pkgif.EventBus) Option {
	return func(s *Server) { s.bus = bus }
}

// WithSessionModule 设置连接绑定模块工厂
func WithSessionModule(f SessionModuleFactory) Option {
	return func(s *Server) { s.sessionModule = f }
}

// WithMetricsHandler 设置指标端点处理器
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) { s.metricsHandler = h }
}

// WithHealthCheck 设置健康检查，返回非 nil 表示不健康
func WithHealthCheck(check func(context.Context) error) Option {
	return func(s *Server) { s.health = check }
}

// ============================================================================
//                              Server
// ============================================================================

// Server WebSocket 连接处理器
type Server struct {
	cfg        Config
	dispatcher *dispatch.Dispatcher
	auth       *auth.Manager
	codec      *codec.Codec

	limiter        *ratelimit.Limiter
	traffic        metrics.Reporter
	observer       Observer
	bus            pkgif.EventBus
	sessionModule  SessionModuleFactory
	metricsHandler http.Handler
	health         func(context.Context) error

	upgrader websocket.Upgrader
	http     *http.Server
	opened   pkgif.Emitter
	closed   pkgif.Emitter

	// baseCtx 所有连接上下文的父上下文，Stop 时取消
	baseCtx context.Context
	cancel  context.CancelFunc

	mu       sync.Mutex
	listener net.Listener
	conns    map[types.ConnID]*conn
	closing  atomic.Bool
	serveErr chan error
	wg       sync.WaitGroup
}

// New 创建连接处理器
func New(cfg Config, d *dispatch.Dispatcher, mgr *auth.Manager, c *codec.Codec, opts ...Option) (*Server, error) {
	if d == nil || mgr == nil || c == nil {
		return nil, ErrMissingDependency
	}
	s := &Server{
		cfg:        cfg,
		dispatcher: d,
		auth:       mgr,
		codec:      c,
		traffic:    metrics.NewTrafficCounter(nil),
		observer:   nopObserver{},
		conns:      make(map[types.ConnID]*conn),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.baseCtx, s.cancel = context.WithCancel(context.Background())

	s.upgrader = websocket.Upgrader{
		HandshakeTimeout:  cfg.HandshakeTimeout,
		EnableCompression: cfg.EnableCompression,
		CheckOrigin:       s.checkOrigin,
	}

	mux := http.NewServeMux()
	if cfg.HealthPath != "" {
		mux.HandleFunc(cfg.HealthPath, s.handleHealth)
	}
	if cfg.MetricsPath != "" && s.metricsHandler != nil {
		mux.Handle(cfg.MetricsPath, s.metricsHandler)
	}
	path := cfg.Path
	if path == "" {
		path = "/"
	}
	mux.HandleFunc(path, s.handleUpgrade)

	s.http = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: cfg.HandshakeTimeout,
		BaseContext:       func(net.Listener) context.Context { return s.baseCtx },
	}

	if s.bus != nil {
		var err error
		if s.opened, err = s.bus.Emitter(new(types.EvtConnectionOpened)); err != nil {
			return nil, err
		}
		if s.closed, err = s.bus.Emitter(new(types.EvtConnectionClosed)); err != nil {
			_ = s.opened.Close()
			return nil, err
		}
	}
	return s, nil
}

// Handler 返回 HTTP 处理器（用于 httptest 或嵌入已有服务器）
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// Start 监听 cfg.Addr 并在后台开始服务
func (s *Server) Start(_ context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve 在已有监听器上后台开始服务
func (s *Server) Serve(ln net.Listener) error {
	if s.closing.Load() {
		_ = ln.Close()
		return ErrServerClosed
	}
	if s.cfg.MaxConnections > 0 {
		ln = netutil.LimitListener(ln, s.cfg.MaxConnections)
	}
	if s.cfg.TLSEnabled() {
		cert, err := tls.LoadX509KeyPair(s.cfg.TLSCertFile, s.cfg.TLSKeyFile)
		if err != nil {
			_ = ln.Close()
			return err
		}
		ln = tls.NewListener(ln, &tls.Config{Certificates: []tls.Certificate{cert}, MinVersion: tls.VersionTLS12})
	}

	s.mu.Lock()
	if s.listener != nil {
		s.mu.Unlock()
		_ = ln.Close()
		return ErrAlreadyServing
	}
	s.listener = ln
	s.serveErr = make(chan error, 1)
	s.mu.Unlock()

	logger.Info("WebSocket 服务已启动", "addr", ln.Addr().String(), "path", s.cfg.Path, "tls", s.cfg.TLSEnabled())
	go func() {
		err := s.http.Serve(ln)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		if err != nil {
			logger.Error("WebSocket 服务异常退出", "error", err)
		}
		s.serveErr <- err
	}()
	return nil
}

// Addr 返回监听地址，未启动时为 nil
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Conns 返回当前连接数
func (s *Server) Conns() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

// Traffic 返回帧流量计数器
func (s *Server) Traffic() metrics.Reporter {
	return s.traffic
}

// Stop 停止接受新连接，关闭所有连接并等待处理 goroutine 退出
func (s *Server) Stop(ctx context.Context) error {
	if !s.closing.CompareAndSwap(false, true) {
		return nil
	}
	if _, ok := ctx.Deadline(); !ok && s.cfg.ShutdownTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.ShutdownTimeout)
		defer cancel()
	}

	// Shutdown 不跟踪已升级的连接，需要单独关闭
	var err error
	err = multierr.Append(err, s.http.Shutdown(ctx))

	s.mu.Lock()
	conns := make([]*conn, 0, len(s.conns))
	for _, c := range s.conns {
		conns = append(conns, c)
	}
	serveErr := s.serveErr
	s.mu.Unlock()

	var g errgroup.Group
	for _, c := range conns {
		c := c
		g.Go(func() error {
			c.shutdown(websocket.CloseGoingAway, "server shutting down")
			return nil
		})
	}
	_ = g.Wait()
	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		err = multierr.Append(err, ctx.Err())
	}

	if serveErr != nil {
		select {
		case e := <-serveErr:
			err = multierr.Append(err, e)
		case <-ctx.Done():
		}
	}
	if s.opened != nil {
		err = multierr.Append(err, s.opened.Close())
	}
	if s.closed != nil {
		err = multierr.Append(err, s.closed.Close())
	}
	logger.Info("WebSocket 服务已停止", "connections", len(conns))
	return err
}

// ============================================================================
//                              HTTP 处理
// ============================================================================

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || allowsAny(s.cfg.AllowedOrigins) {
		return true
	}
	for _, o := range s.cfg.AllowedOrigins {
		if o == origin {
			return true
		}
	}
	logger.Warn("拒绝来源", "origin", origin, "remote", r.RemoteAddr)
	return false
}

func allowsAny(origins []string) bool {
	if len(origins) == 0 {
		return true
	}
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	status, code := "ok", http.StatusOK
	if s.closing.Load() {
		status, code = "stopping", http.StatusServiceUnavailable
	} else if s.health != nil {
		if err := s.health(r.Context()); err != nil {
			status, code = err.Error(), http.StatusServiceUnavailable
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":      status,
		"connections": s.Conns(),
	})
}

func (s *Server) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	if s.closing.Load() {
		http.Error(w, "server shutting down", http.StatusServiceUnavailable)
		return
	}
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade 已写回 HTTP 错误
		logger.Debug("WebSocket 握手失败", "remote", r.RemoteAddr, "error", err)
		return
	}

	c := s.newConn(ws, r)
	if !s.track(c) {
		c.shutdown(websocket.CloseGoingAway, "server shutting down")
		return
	}
	defer s.untrack(c)
	c.serve(s.baseCtx)
}

func (s *Server) track(c *conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closing.Load() {
		return false
	}
	s.conns[c.id] = c
	s.wg.Add(1)
	return true
}

func (s *Server) untrack(c *conn) {
	s.mu.Lock()
	delete(s.conns, c.id)
	s.mu.Unlock()
	s.wg.Done()
}

// sessionEntry 编译连接绑定的 auth 模块
func (s *Server) sessionEntry(info ConnInfo) *registry.Entry {
	if s.sessionModule == nil {
		return nil
	}
	m := s.sessionModule(info)
	if m == nil {
		return nil
	}
	e, err := registry.Compile(m)
	if err != nil {
		logger.Error("连接绑定模块无效", "conn", info.ID.ShortString(), "error", err)
		return nil
	}
	return e
}

func (s *Server) emit(em pkgif.Emitter, evt any) {
	if em == nil {
		return
	}
	if err := em.Emit(evt); err != nil {
		logger.Debug("发射连接事件失败", "error", err)
	}
}
