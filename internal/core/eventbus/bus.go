package eventbus

import (
	"errors"
	"reflect"
	"sort"
	"sync"
	"sync/atomic"

	pkgif "github.com/dep2p/go-hostrpc/pkg/interfaces"
	"github.com/dep2p/go-hostrpc/pkg/lib/log"
)

var logger = log.Logger("core/eventbus")

// ============================================================================
// 错误定义
// ============================================================================

var (
	// ErrClosed 事件总线已关闭
	ErrClosed = errors.New("eventbus: closed")
	// ErrInvalidEventType 无效的事件类型
	ErrInvalidEventType = errors.New("eventbus: invalid event type")
	// ErrNonPointerType 非指针类型
	ErrNonPointerType = errors.New("eventbus: event type must be a pointer, e.g. new(types.EvtSubjectRemoved)")
	// ErrWrongEventType 发射的事件与发射器类型不一致
	ErrWrongEventType = errors.New("eventbus: event does not match emitter type")
	// ErrEmitterClosed 发射器已关闭
	ErrEmitterClosed = errors.New("eventbus: emitter closed")
)

// defaultBuffer 默认订阅缓冲区
const defaultBuffer = 16

// BufSize 设置订阅缓冲区大小，等同 pkgif.BufSize
func BufSize(size int) pkgif.SubscriptionOpt {
	return pkgif.BufSize(size)
}

// Stateful 设置发射器为有状态模式，等同 pkgif.Stateful
func Stateful() pkgif.EmitterOpt {
	return pkgif.Stateful()
}

// ============================================================================
// Bus 实现
// ============================================================================

// Bus 事件总线
type Bus struct {
	mu     sync.RWMutex
	nodes  map[reflect.Type]*node
	closed bool
}

var _ pkgif.EventBus = (*Bus)(nil)

// node 单个事件类型的订阅者与发射器
type node struct {
	lk        sync.Mutex
	typ       reflect.Type
	sinks     []*Subscription
	nEmitters atomic.Int32
	keepLast  bool
	last      any
	dropped   atomic.Int64
}

// NewBus 创建事件总线
func NewBus() *Bus {
	return &Bus{
		nodes: make(map[reflect.Type]*node),
	}
}

// Subscribe 订阅事件
func (b *Bus) Subscribe(eventType any, opts ...pkgif.SubscriptionOpt) (pkgif.Subscription, error) {
	typ, err := elemType(eventType)
	if err != nil {
		return nil, err
	}

	settings := pkgif.SubscriptionSettings{Buffer: defaultBuffer}
	for _, opt := range opts {
		opt(&settings)
	}
	if settings.Buffer < 0 {
		settings.Buffer = 0
	}

	sub := &Subscription{
		bus: b,
		typ: typ,
		out: make(chan any, settings.Buffer),
	}

	err = b.withNode(typ, func(n *node) {
		n.sinks = append(n.sinks, sub)
		// 有状态节点：新订阅者立即收到最后一个事件
		if n.keepLast && n.last != nil {
			select {
			case sub.out <- n.last:
			default:
			}
		}
	})
	if err != nil {
		return nil, err
	}
	return sub, nil
}

// Emitter 获取发射器
func (b *Bus) Emitter(eventType any, opts ...pkgif.EmitterOpt) (pkgif.Emitter, error) {
	typ, err := elemType(eventType)
	if err != nil {
		return nil, err
	}

	var settings pkgif.EmitterSettings
	for _, opt := range opts {
		opt(&settings)
	}

	var n *node
	err = b.withNode(typ, func(nd *node) {
		n = nd
		n.nEmitters.Add(1)
		if settings.Stateful {
			n.keepLast = true
		}
	})
	if err != nil {
		return nil, err
	}
	return &Emitter{bus: b, node: n, typ: typ}, nil
}

// EventTypes 返回当前有订阅者或发射器的事件类型名（排序）
func (b *Bus) EventTypes() []string {
	b.mu.RLock()
	out := make([]string, 0, len(b.nodes))
	for typ := range b.nodes {
		out = append(out, typ.String())
	}
	b.mu.RUnlock()
	sort.Strings(out)
	return out
}

// Dropped 返回因订阅者缓冲区满而丢弃的事件总数
func (b *Bus) Dropped() int64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	var n int64
	for _, nd := range b.nodes {
		n += nd.dropped.Load()
	}
	return n
}

// Close 关闭总线，关闭全部订阅
func (b *Bus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	var subs []*Subscription
	for _, n := range b.nodes {
		n.lk.Lock()
		subs = append(subs, n.sinks...)
		n.lk.Unlock()
	}
	b.mu.Unlock()

	for _, s := range subs {
		_ = s.Close()
	}
	return nil
}

// ============================================================================
// 内部方法
// ============================================================================

func elemType(eventType any) (reflect.Type, error) {
	if eventType == nil {
		return nil, ErrInvalidEventType
	}
	typ := reflect.TypeOf(eventType)
	if typ.Kind() != reflect.Pointer {
		return nil, ErrNonPointerType
	}
	return typ.Elem(), nil
}

// withNode 在节点锁内执行 cb，节点不存在时创建
func (b *Bus) withNode(typ reflect.Type, cb func(*node)) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ErrClosed
	}
	n, ok := b.nodes[typ]
	if !ok {
		n = &node{typ: typ}
		b.nodes[typ] = n
	}
	n.lk.Lock()
	b.mu.Unlock()

	cb(n)
	n.lk.Unlock()
	return nil
}

// tryDropNode 没有订阅者与发射器时删除节点
func (b *Bus) tryDropNode(typ reflect.Type) {
	b.mu.Lock()
	defer b.mu.Unlock()

	n, ok := b.nodes[typ]
	if !ok {
		return
	}
	n.lk.Lock()
	idle := len(n.sinks) == 0 && n.nEmitters.Load() == 0
	n.lk.Unlock()
	if idle {
		delete(b.nodes, typ)
	}
}

// removeSub 移除订阅
func (b *Bus) removeSub(sub *Subscription) {
	b.mu.Lock()
	n, ok := b.nodes[sub.typ]
	if !ok {
		b.mu.Unlock()
		return
	}
	n.lk.Lock()
	b.mu.Unlock()

	for i, s := range n.sinks {
		if s == sub {
			n.sinks = append(n.sinks[:i], n.sinks[i+1:]...)
			break
		}
	}
	idle := len(n.sinks) == 0 && n.nEmitters.Load() == 0
	n.lk.Unlock()

	if idle {
		b.tryDropNode(sub.typ)
	}
}

// emit 发射事件到所有订阅者，缓冲区满时丢弃
func (n *node) emit(event any) {
	n.lk.Lock()
	defer n.lk.Unlock()

	if n.keepLast {
		n.last = event
	}

	for _, sub := range n.sinks {
		select {
		case sub.out <- event:
		default:
			dropped := n.dropped.Add(1)
			// 每 100 次告警一次
			if dropped%100 == 1 {
				logger.Warn("慢消费者检测",
					"dropped", dropped,
					"type", n.typ.String(),
					"reason", "subscriber buffer full")
			}
		}
	}
}
