package metrics

import "github.com/dep2p/go-hostrpc/pkg/types"

// Reporter 记录与查询帧流量
//
// 连接处理器在每次读写完整帧后调用，连接关闭时调用 Forget。
type Reporter interface {
	// LogRecvFrame 记录入站帧大小
	LogRecvFrame(size int64, conn types.ConnID)

	// LogSentFrame 记录出站帧大小
	LogSentFrame(size int64, conn types.ConnID)

	// Totals 返回全局统计
	Totals() Stats

	// ForConn 返回单个连接的统计
	ForConn(conn types.ConnID) Stats

	// Forget 移除连接的统计
	Forget(conn types.ConnID)
}

var _ Reporter = (*TrafficCounter)(nil)
