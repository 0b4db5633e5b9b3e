// Package bridge 实现宿主线程桥
//
// 宿主应用只允许一个线程修改其状态，而 RPC 层运行在多个 I/O goroutine 上。
// Bridge 把工作单元送入宿主线程的任务队列，调用方阻塞等待一次性结果通道。
//
// # 执行路径
//
//   - 调用方 ctx 已是宿主上下文：内联执行，无调度开销
//   - 否则入队（队列满时阻塞，形成背压），等待结果、ctx 取消或等待超时
//   - 等待被中断时返回 ErrInterrupted，已入队的工作仍在宿主线程上完成
//
// # 宿主循环
//
// 两种驱动方式二选一：
//
//	// 内置循环：独立 goroutine，可锁定系统线程
//	go b.Run(ctx)
//
//	// 嵌入方主循环：每个 tick 处理至多 n 个任务
//	b.Drain(64)
package bridge

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	pkgif "github.com/dep2p/go-hostrpc/pkg/interfaces"
	"github.com/dep2p/go-hostrpc/pkg/lib/log"
)

var logger = log.Logger("core/bridge")

// Observer 宿主线程桥事件观察者（由 internal/core/metrics 实现）
type Observer interface {
	// BridgeTask 任务完成；wait 为入队到开始执行的时间，run 为执行耗时
	BridgeTask(wait, run time.Duration)

	// BridgeInterrupted 调用方等待被中断
	BridgeInterrupted()

	// BridgeQueueDepth 当前队列长度
	BridgeQueueDepth(n int)
}

type nopObserver struct{}

func (nopObserver) BridgeTask(time.Duration, time.Duration) {}
func (nopObserver) BridgeInterrupted()                      {}
func (nopObserver) BridgeQueueDepth(int)                    {}

// Config 宿主线程桥配置
type Config struct {
	// QueueDepth 任务队列深度
	QueueDepth int

	// WaitTimeout 等待结果超时，0 表示只受 ctx 约束
	WaitTimeout time.Duration

	// LockOSThread Run 是否锁定系统线程
	LockOSThread bool
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		QueueDepth:   256,
		WaitTimeout:  30 * time.Second,
		LockOSThread: true,
	}
}

type result struct {
	value any
	err   error
}

type task struct {
	ctx      context.Context
	work     pkgif.HostWork
	done     chan result
	enqueued time.Time
}

type hostKey struct{}

// Bridge 宿主线程桥
type Bridge struct {
	cfg      Config
	tasks    chan *task
	closed   chan struct{}
	once     sync.Once
	running  atomic.Bool
	observer Observer
}

var _ pkgif.Executor = (*Bridge)(nil)

// Option 宿主线程桥选项
type Option func(*Bridge)

// WithObserver 设置观察者
func WithObserver(o Observer) Option {
	return func(b *Bridge) {
		if o != nil {
			b.observer = o
		}
	}
}

// New 创建宿主线程桥
func New(cfg Config, opts ...Option) *Bridge {
	if cfg.QueueDepth <= 0 {
		cfg.QueueDepth = DefaultConfig().QueueDepth
	}
	b := &Bridge{
		cfg:      cfg,
		tasks:    make(chan *task, cfg.QueueDepth),
		closed:   make(chan struct{}),
		observer: nopObserver{},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// OnHost 判断 ctx 是否为本桥的宿主上下文
func (b *Bridge) OnHost(ctx context.Context) bool {
	owner, _ := ctx.Value(hostKey{}).(*Bridge)
	return owner == b
}

// HostContext 将 ctx 标记为宿主上下文
//
// 供嵌入方在自己的宿主线程上调用内联路径，例如宿主事件回调中直接调用模块。
func (b *Bridge) HostContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, hostKey{}, b)
}

// Execute 在宿主线程上执行 work
func (b *Bridge) Execute(ctx context.Context, work pkgif.HostWork) (any, error) {
	if b.OnHost(ctx) {
		return b.invoke(ctx, work)
	}

	select {
	case <-b.closed:
		return nil, ErrClosed
	default:
	}

	var timeout <-chan time.Time
	if b.cfg.WaitTimeout > 0 {
		timer := time.NewTimer(b.cfg.WaitTimeout)
		defer timer.Stop()
		timeout = timer.C
	}

	t := &task{ctx: ctx, work: work, done: make(chan result, 1), enqueued: time.Now()}

	select {
	case b.tasks <- t:
		b.observer.BridgeQueueDepth(len(b.tasks))
	case <-b.closed:
		return nil, ErrClosed
	case <-ctx.Done():
		return nil, b.interrupted(ctx.Err())
	case <-timeout:
		return nil, b.interrupted(ErrWaitTimeout)
	}

	return b.wait(ctx, t, timeout)
}

// wait 等待已入队任务的结果
//
// 入队可能发生在 Close 清空队列之后，此时任务不会再被执行，需监听 closed。
func (b *Bridge) wait(ctx context.Context, t *task, timeout <-chan time.Time) (any, error) {
	select {
	case r := <-t.done:
		return r.value, r.err
	case <-b.closed:
		select {
		case r := <-t.done:
			return r.value, r.err
		default:
			return nil, ErrClosed
		}
	case <-ctx.Done():
		return nil, b.interrupted(ctx.Err())
	case <-timeout:
		return nil, b.interrupted(ErrWaitTimeout)
	}
}

// Run 运行内置宿主循环，直到 ctx 取消或 Close
func (b *Bridge) Run(ctx context.Context) error {
	if !b.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer b.running.Store(false)

	if b.cfg.LockOSThread {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
	}

	logger.Info("宿主线程循环已启动", "queueDepth", b.cfg.QueueDepth)
	defer logger.Info("宿主线程循环已退出")

	for {
		select {
		case t := <-b.tasks:
			b.run(t)
		case <-ctx.Done():
			return ctx.Err()
		case <-b.closed:
			return nil
		}
	}
}

// Drain 在调用方线程上处理至多 max 个已排队任务（max <= 0 表示处理当前全部）
//
// 只能由宿主线程调用，返回处理的任务数。
func (b *Bridge) Drain(max int) int {
	if max <= 0 {
		max = len(b.tasks)
	}
	n := 0
	for n < max {
		select {
		case t := <-b.tasks:
			b.run(t)
			n++
		default:
			return n
		}
	}
	return n
}

// Pending 返回排队中的任务数
func (b *Bridge) Pending() int {
	return len(b.tasks)
}

// Close 关闭桥，排队中的任务以 ErrClosed 结束
func (b *Bridge) Close() error {
	b.once.Do(func() {
		close(b.closed)
		for {
			select {
			case t := <-b.tasks:
				t.done <- result{err: ErrClosed}
			default:
				return
			}
		}
	})
	return nil
}

func (b *Bridge) run(t *task) {
	start := time.Now()
	// 调用方断开不影响已开始的宿主工作
	ctx := b.HostContext(context.WithoutCancel(t.ctx))
	v, err := b.invoke(ctx, t.work)
	t.done <- result{value: v, err: err}
	b.observer.BridgeTask(start.Sub(t.enqueued), time.Since(start))
	b.observer.BridgeQueueDepth(len(b.tasks))
}

func (b *Bridge) invoke(ctx context.Context, work pkgif.HostWork) (v any, err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("宿主线程任务 panic", "panic", r)
			v, err = nil, fmt.Errorf("%w: %v", ErrPanic, r)
		}
	}()
	return work(ctx)
}

func (b *Bridge) interrupted(cause error) error {
	b.observer.BridgeInterrupted()
	logger.Debug("等待宿主线程被中断", "cause", cause)
	return fmt.Errorf("%w: %v", ErrInterrupted, cause)
}

// Call 在宿主线程上执行返回 T 的函数
//
//	w, err := bridge.Call(ctx, exec, func(ctx context.Context) (pkgif.World, error) {...})
func Call[T any](ctx context.Context, exec pkgif.Executor, fn func(ctx context.Context) (T, error)) (T, error) {
	v, err := exec.Execute(ctx, func(ctx context.Context) (any, error) {
		return fn(ctx)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	out, _ := v.(T)
	return out, nil
}
