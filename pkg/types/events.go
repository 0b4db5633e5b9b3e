// Package types 定义 hostrpc 公共类型
//
// 本文件定义事件相关类型。
package types

import (
	"time"

	"github.com/google/uuid"
)

// ============================================================================
//                              Event - 事件接口
// ============================================================================

// Event 基础事件接口
type Event interface {
	// Type 返回事件类型
	Type() string

	// Timestamp 返回事件时间戳
	Timestamp() time.Time
}

// BaseEvent 基础事件实现
type BaseEvent struct {
	EventType string
	Time      time.Time
}

// Type 返回事件类型
func (e BaseEvent) Type() string {
	return e.EventType
}

// Timestamp 返回事件时间戳
func (e BaseEvent) Timestamp() time.Time {
	return e.Time
}

// NewBaseEvent 创建基础事件
func NewBaseEvent(eventType string) BaseEvent {
	return BaseEvent{
		EventType: eventType,
		Time:      time.Now(),
	}
}

// 事件类型常量
const (
	EventTypeSubjectRemoved   = "subject_removed"
	EventTypeSubjectChanged   = "subject_changed"
	EventTypeWorldUnloaded    = "world_unloaded"
	EventTypeHostReset        = "host_reset"
	EventTypeConnectionOpened = "connection_opened"
	EventTypeConnectionClosed = "connection_closed"
)

// ============================================================================
//                              宿主生命周期事件
// ============================================================================

// EvtSubjectRemoved 主体离开宿主（例如玩家下线）
//
// 按名称与唯一标识同时从所有缓存中移除。
type EvtSubjectRemoved struct {
	BaseEvent
	Name string
	ID   uuid.UUID
}

// ChangeReason 主体身份相关属性变化原因
type ChangeReason string

const (
	// ChangeWorld 切换世界
	ChangeWorld ChangeReason = "world"
	// ChangeRespawn 重生
	ChangeRespawn ChangeReason = "respawn"
	// ChangeRename 改名
	ChangeRename ChangeReason = "rename"
)

// EvtSubjectChanged 主体的身份相关属性变化
//
// 缓存中的旧引用被移除，下次查找重新经宿主线程解析。
type EvtSubjectChanged struct {
	BaseEvent
	Name   string
	ID     uuid.UUID
	Reason ChangeReason
}

// EvtWorldUnloaded 世界被卸载
type EvtWorldUnloaded struct {
	BaseEvent
	WorldID string
}

// ResetPhase 全局重置阶段
type ResetPhase string

const (
	// ResetStart 服务启动
	ResetStart ResetPhase = "start"
	// ResetStop 服务停止
	ResetStop ResetPhase = "stop"
)

// EvtHostReset 全局重置，清空所有缓存家族
type EvtHostReset struct {
	BaseEvent
	Phase ResetPhase
}

// ============================================================================
//                              连接事件
// ============================================================================

// DisconnectReason 断开原因
type DisconnectReason int

const (
	// DisconnectReasonUnknown 未知原因
	DisconnectReasonUnknown DisconnectReason = iota
	// DisconnectReasonGraceful 客户端发送 close 帧
	DisconnectReasonGraceful
	// DisconnectReasonTimeout 空闲超时强制关闭
	DisconnectReasonTimeout
	// DisconnectReasonError 读写或编解码错误
	DisconnectReasonError
	// DisconnectReasonLocal 服务端关闭
	DisconnectReasonLocal
)

// String 返回断开原因的字符串表示
func (r DisconnectReason) String() string {
	switch r {
	case DisconnectReasonGraceful:
		return "graceful"
	case DisconnectReasonTimeout:
		return "timeout"
	case DisconnectReasonError:
		return "error"
	case DisconnectReasonLocal:
		return "local"
	default:
		return "unknown"
	}
}

// EvtConnectionOpened 连接建立（握手完成）
type EvtConnectionOpened struct {
	BaseEvent
	ConnID     ConnID
	RemoteAddr string
}

// EvtConnectionClosed 连接关闭
type EvtConnectionClosed struct {
	BaseEvent
	ConnID     ConnID
	RemoteAddr string
	Duration   time.Duration
	Reason     DisconnectReason
}
