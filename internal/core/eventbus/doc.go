// Package eventbus 实现进程内事件总线
//
// 宿主生命周期事件（主体移除、身份属性变化、世界卸载、全局重置）
// 与连接生命周期事件都经由总线分发，事件类型见 pkg/types。
//
// # 快速开始
//
//	bus := eventbus.NewBus()
//
//	sub, _ := bus.Subscribe(new(types.EvtSubjectRemoved))
//	defer sub.Close()
//
//	go func() {
//	    for evt := range sub.Out() {
//	        e := evt.(types.EvtSubjectRemoved)
//	        // ...
//	    }
//	}()
//
//	em, _ := bus.Emitter(new(types.EvtSubjectRemoved))
//	defer em.Close()
//	em.Emit(types.EvtSubjectRemoved{Name: "Alex"})
//
// # 投递语义
//
//   - 发射不阻塞：订阅者缓冲区满时丢弃并计数（Dropped）
//   - Stateful 发射器：新订阅者立即收到最后一个事件
//   - Close 总线后所有订阅通道关闭，新的订阅返回 ErrClosed
package eventbus
