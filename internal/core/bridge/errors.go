package bridge

import "errors"

var (
	// ErrInterrupted 等待宿主线程结果被中断（ctx 取消或超时）
	ErrInterrupted = errors.New("bridge: wait for host thread interrupted")

	// ErrWaitTimeout 等待超时（作为 ErrInterrupted 的原因出现在错误信息中）
	ErrWaitTimeout = errors.New("bridge: wait timeout")

	// ErrClosed 桥已关闭
	ErrClosed = errors.New("bridge: closed")

	// ErrAlreadyRunning 宿主循环已在运行
	ErrAlreadyRunning = errors.New("bridge: host loop already running")

	// ErrPanic 宿主线程任务 panic
	ErrPanic = errors.New("bridge: host work panicked")
)
