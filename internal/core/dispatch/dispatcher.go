// Package dispatch 实现请求分发
//
// 每个请求严格按以下顺序处理：
//
//  1. 校验 requestId（1-4 位十六进制）
//  2. 去重：原子登记到处理中集合，返回前无条件移除
//  3. 解析模块：连接绑定模块优先，其次查注册表
//  4. 解析方法
//  5. 按声明转换参数
//  6. 调用（OnHost 操作经宿主线程桥执行且仅执行一次）
//  7. 构造 SUCCESS 响应
//
// 所有业务失败、转换失败与 panic 都在这里转换为结构化 ERROR 响应。
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dep2p/go-hostrpc/internal/core/bridge"
	"github.com/dep2p/go-hostrpc/internal/core/registry"
	"github.com/dep2p/go-hostrpc/pkg/capability"
	pkgif "github.com/dep2p/go-hostrpc/pkg/interfaces"
	"github.com/dep2p/go-hostrpc/pkg/lib/log"
	"github.com/dep2p/go-hostrpc/pkg/protocol"
)

var logger = log.Logger("core/dispatch")

// Observer 请求观察者（由 internal/core/metrics 实现）
type Observer interface {
	// RequestDone 请求结束；code 成功时为 SUCCESS，失败时为错误码
	RequestDone(module, method, code string, elapsed time.Duration)
}

type nopObserver struct{}

func (nopObserver) RequestDone(string, string, string, time.Duration) {}

// Config 分发配置
type Config struct {
	// SlowThreshold 慢请求告警阈值，0 表示不告警
	SlowThreshold time.Duration

	// ExposeFault EXECUTION_ERROR 是否携带 fault 字段
	ExposeFault bool
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		SlowThreshold: time.Second,
		ExposeFault:   true,
	}
}

// Stats 分发统计
type Stats struct {
	Total    uint64 `json:"total"`
	Failed   uint64 `json:"failed"`
	InFlight int64  `json:"inFlight"`
}

// Dispatcher 请求分发器，可并发调用
type Dispatcher struct {
	cfg      Config
	registry *registry.Registry
	exec     pkgif.Executor
	observer Observer

	pending  sync.Map
	inFlight atomic.Int64
	total    atomic.Uint64
	failed   atomic.Uint64
}

// Option 分发器选项
type Option func(*Dispatcher)

// WithExecutor 设置宿主线程执行器
func WithExecutor(exec pkgif.Executor) Option {
	return func(d *Dispatcher) {
		d.exec = exec
	}
}

// WithObserver 设置观察者
func WithObserver(o Observer) Option {
	return func(d *Dispatcher) {
		if o != nil {
			d.observer = o
		}
	}
}

// New 创建分发器
func New(cfg Config, reg *registry.Registry, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		cfg:      cfg,
		registry: reg,
		observer: nopObserver{},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// CallOption 单次分发选项
type CallOption func(*call)

type call struct {
	bound *registry.Entry
}

// WithModule 绑定连接专属模块
//
// 请求的 module 与绑定模块同名时直接使用它，不查注册表。
func WithModule(e *registry.Entry) CallOption {
	return func(c *call) {
		c.bound = e
	}
}

// Dispatch 分发一个请求并返回恰好一个响应
func (d *Dispatcher) Dispatch(ctx context.Context, req *protocol.Message, opts ...CallOption) *protocol.Message {
	var c call
	for _, opt := range opts {
		opt(&c)
	}

	start := time.Now()
	resp := d.dispatch(ctx, req, &c)
	elapsed := time.Since(start)

	code := string(protocol.StatusSuccess)
	d.total.Add(1)
	if data, ok := resp.ErrorData(); ok {
		code = data.Code
		d.failed.Add(1)
	}
	d.observer.RequestDone(strings.ToLower(req.Module), strings.ToLower(req.Method), code, elapsed)

	if d.cfg.SlowThreshold > 0 && elapsed > d.cfg.SlowThreshold {
		logger.Warn("慢请求", "module", req.Module, "method", req.Method, "requestId", req.RequestID, "elapsed", elapsed)
	} else {
		logger.Debug("请求完成", "module", req.Module, "method", req.Method, "requestId", req.RequestID, "code", code, "elapsed", elapsed)
	}
	return resp
}

func (d *Dispatcher) dispatch(ctx context.Context, req *protocol.Message, c *call) *protocol.Message {
	id := req.RequestID

	// 1. requestId
	if !protocol.ValidRequestID(id) {
		return protocol.NewError(id, protocol.CodeInvalidRequestID, protocol.MsgInvalidRequestID, nil)
	}

	// 2. 去重
	key := protocol.NormalizeRequestID(id)
	if _, loaded := d.pending.LoadOrStore(key, struct{}{}); loaded {
		return protocol.NewError(id, protocol.CodeDuplicateRequest, protocol.MsgDuplicateRequest, nil)
	}
	d.inFlight.Add(1)
	defer func() {
		d.pending.Delete(key)
		d.inFlight.Add(-1)
	}()

	// 3. 模块
	entry := d.resolveModule(req.Module, c)
	if entry == nil {
		return protocol.NewError(id, protocol.CodeModuleNotFound,
			"Module not found: "+req.Module, d.moduleNames(c))
	}

	// 4. 方法
	op, ok := entry.Lookup(req.Method)
	if !ok {
		return protocol.NewError(id, protocol.CodeMethodNotFound,
			"Method not found: "+req.Method, entry.OperationNames())
	}

	// 5. 参数
	args, err := capability.Bind(op.Params, req.Args)
	if err != nil {
		return protocol.NewError(id, protocol.CodeInvalidArguments,
			"Argument type mismatch: "+err.Error(), nil)
	}

	// 6. 调用
	result, err := d.invoke(ctx, op, args)
	if err != nil {
		return d.executionError(id, entry, op, err)
	}

	// 7. 响应
	return protocol.NewResponse(id, result)
}

func (d *Dispatcher) resolveModule(name string, c *call) *registry.Entry {
	if c.bound != nil && strings.EqualFold(c.bound.Key(), name) {
		return c.bound
	}
	if d.registry == nil {
		return nil
	}
	e, ok := d.registry.Lookup(name)
	if !ok {
		return nil
	}
	return e
}

func (d *Dispatcher) moduleNames(c *call) []string {
	var names []string
	if d.registry != nil {
		names = d.registry.Modules()
	}
	if c.bound != nil {
		names = append(names, c.bound.Name())
	}
	return names
}

func (d *Dispatcher) invoke(ctx context.Context, op *capability.Operation, args capability.Args) (any, error) {
	if op.OnHost && d.exec != nil {
		return d.exec.Execute(ctx, func(hctx context.Context) (any, error) {
			return op.Handler(hctx, args)
		})
	}
	return safeCall(ctx, op.Handler, args)
}

func safeCall(ctx context.Context, h capability.Handler, args capability.Args) (v any, err error) {
	defer func() {
		if r := recover(); r != nil {
			v, err = nil, fmt.Errorf("%w: %v", errPanic, r)
		}
	}()
	return h(ctx, args)
}

func (d *Dispatcher) executionError(id string, e *registry.Entry, op *capability.Operation, err error) *protocol.Message {
	fault := classify(err)
	if fault == protocol.FaultServer {
		logger.Error("操作执行失败", "module", e.Name(), "method", op.Name, "requestId", id, "error", err)
	} else {
		logger.Debug("操作拒绝输入", "module", e.Name(), "method", op.Name, "requestId", id, "error", err)
	}

	data := &protocol.ErrorData{
		Code:    protocol.CodeExecutionError,
		Message: "Method execution failed: " + err.Error(),
	}
	if d.cfg.ExposeFault {
		data.Fault = fault
	}
	return protocol.NewErrorData(id, data)
}

// classify 执行错误归属
func classify(err error) protocol.Fault {
	switch {
	case errors.Is(err, errPanic), errors.Is(err, bridge.ErrPanic):
		return protocol.FaultServer
	case errors.Is(err, capability.ErrInvalidInput):
		return protocol.FaultClient
	default:
		return protocol.FaultServer
	}
}

// Stats 返回统计快照
func (d *Dispatcher) Stats() Stats {
	return Stats{
		Total:    d.total.Load(),
		Failed:   d.failed.Load(),
		InFlight: d.inFlight.Load(),
	}
}

// Pending 判断 requestId 是否正在处理
func (d *Dispatcher) Pending(requestID string) bool {
	_, ok := d.pending.Load(protocol.NormalizeRequestID(requestID))
	return ok
}
