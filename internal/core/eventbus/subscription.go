package eventbus

import (
	"reflect"
	"sync"
	"sync/atomic"

	pkgif "github.com/dep2p/go-hostrpc/pkg/interfaces"
)

// ============================================================================
// Subscription 实现
// ============================================================================

// Subscription 订阅
type Subscription struct {
	bus       *Bus
	typ       reflect.Type
	out       chan any
	closeOnce sync.Once
}

var _ pkgif.Subscription = (*Subscription)(nil)

// Out 返回事件通道，Close 后通道关闭
func (s *Subscription) Out() <-chan any {
	return s.out
}

// Close 取消订阅，可多次调用
func (s *Subscription) Close() error {
	s.closeOnce.Do(func() {
		// 移除后节点不再向 out 发送
		s.bus.removeSub(s)
		close(s.out)
	})
	return nil
}

// ============================================================================
// Emitter 实现
// ============================================================================

// Emitter 事件发射器
type Emitter struct {
	bus       *Bus
	node      *node
	typ       reflect.Type
	closed    atomic.Bool
	closeOnce sync.Once
}

var _ pkgif.Emitter = (*Emitter)(nil)

// Emit 发射事件
//
// 事件可以是值或指向该类型的指针。
func (e *Emitter) Emit(event any) error {
	if e.closed.Load() {
		return ErrEmitterClosed
	}
	t := reflect.TypeOf(event)
	if t != e.typ && !(t != nil && t.Kind() == reflect.Pointer && t.Elem() == e.typ) {
		return ErrWrongEventType
	}
	e.node.emit(event)
	return nil
}

// Close 关闭发射器，最后一个发射器关闭且无订阅者时删除节点
func (e *Emitter) Close() error {
	e.closeOnce.Do(func() {
		e.closed.Store(true)
		if e.node.nEmitters.Add(-1) == 0 {
			e.bus.tryDropNode(e.typ)
		}
	})
	return nil
}
