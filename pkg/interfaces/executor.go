package interfaces

import "context"

// HostWork 在宿主线程上执行的工作单元
//
// 传入的 ctx 已标记为宿主上下文，在其上再次调用 Execute 会直接内联执行。
type HostWork func(ctx context.Context) (any, error)

// Executor 宿主线程执行器
//
// 宿主应用只允许一个线程修改其状态；所有填充缓存的查找与
// 修改宿主状态的操作都必须经由 Executor 执行且仅执行一次。
type Executor interface {
	// Execute 在宿主线程上执行 work 并同步返回结果
	//
	// 调用方已在宿主线程上时内联执行。等待被中断
	// （ctx 取消或等待超时）时返回错误，不会 panic；
	// 已入队的工作仍会在宿主线程上完成。
	Execute(ctx context.Context, work HostWork) (any, error)

	// OnHost 判断 ctx 是否处于宿主线程
	OnHost(ctx context.Context) bool
}
