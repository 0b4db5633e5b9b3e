package interfaces

// EventBus 进程内事件总线
//
// 宿主生命周期事件（对象移除、身份属性变化、全局重置）与
// 连接生命周期事件都经由总线分发，事件类型定义见 pkg/types。
type EventBus interface {
	// Subscribe 订阅指定类型的事件，eventType 必须是指针，如 new(types.EvtSubjectRemoved)
	Subscribe(eventType any, opts ...SubscriptionOpt) (Subscription, error)

	// Emitter 获取指定事件类型的发射器
	Emitter(eventType any, opts ...EmitterOpt) (Emitter, error)

	// EventTypes 返回当前有订阅者或发射器的事件类型
	EventTypes() []string
}

// Subscription 事件订阅
type Subscription interface {
	// Out 返回接收事件的通道
	Out() <-chan any

	// Close 取消订阅
	Close() error
}

// Emitter 事件发射器
type Emitter interface {
	// Emit 发射事件，订阅者缓冲区满时丢弃
	Emit(event any) error

	// Close 关闭发射器
	Close() error
}

// SubscriptionOpt 订阅选项函数类型
type SubscriptionOpt func(*SubscriptionSettings)

// EmitterOpt 发射器选项函数类型
type EmitterOpt func(*EmitterSettings)

// SubscriptionSettings 订阅设置
type SubscriptionSettings struct {
	Buffer int
}

// EmitterSettings 发射器设置
type EmitterSettings struct {
	// Stateful 新订阅者立即收到最后一个事件
	Stateful bool
}

// BufSize 设置订阅缓冲区大小
func BufSize(size int) SubscriptionOpt {
	return func(s *SubscriptionSettings) {
		s.Buffer = size
	}
}

// Stateful 设置发射器为有状态模式
func Stateful() EmitterOpt {
	return func(s *EmitterSettings) {
		s.Stateful = true
	}
}
