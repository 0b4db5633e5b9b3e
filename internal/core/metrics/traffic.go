package metrics

import (
	"sync"
	"sync/atomic"

	"github.com/benbjohnson/clock"

	"github.com/dep2p/go-hostrpc/pkg/types"
)

// counter 一组方向计数
type counter struct {
	bytesIn   atomic.Int64
	bytesOut  atomic.Int64
	framesIn  atomic.Int64
	framesOut atomic.Int64
	rateIn    *RateMeter
	rateOut   *RateMeter
}

func newCounter(clk clock.Clock) *counter {
	return &counter{rateIn: NewRateMeter(clk), rateOut: NewRateMeter(clk)}
}

func (c *counter) recv(size int64) {
	c.bytesIn.Add(size)
	c.framesIn.Add(1)
	c.rateIn.Add(size)
}

func (c *counter) sent(size int64) {
	c.bytesOut.Add(size)
	c.framesOut.Add(1)
	c.rateOut.Add(size)
}

func (c *counter) stats() Stats {
	return Stats{
		TotalIn:   c.bytesIn.Load(),
		TotalOut:  c.bytesOut.Load(),
		FramesIn:  c.framesIn.Load(),
		FramesOut: c.framesOut.Load(),
		RateIn:    c.rateIn.Rate(),
		RateOut:   c.rateOut.Rate(),
	}
}

// TrafficCounter 帧流量计数器
//
// 全局计数使用原子操作；连接级计数按 ConnID 懒创建，连接关闭后由 Forget 移除。
type TrafficCounter struct {
	clock clock.Clock
	total *counter

	mu    sync.RWMutex
	conns map[types.ConnID]*counter
}

// NewTrafficCounter 创建流量计数器，clk 为 nil 时使用系统时钟
func NewTrafficCounter(clk clock.Clock) *TrafficCounter {
	if clk == nil {
		clk = clock.New()
	}
	return &TrafficCounter{
		clock: clk,
		total: newCounter(clk),
		conns: make(map[types.ConnID]*counter),
	}
}

// LogRecvFrame 记录入站帧
func (tc *TrafficCounter) LogRecvFrame(size int64, conn types.ConnID) {
	tc.total.recv(size)
	if conn != "" {
		tc.conn(conn).recv(size)
	}
}

// LogSentFrame 记录出站帧
func (tc *TrafficCounter) LogSentFrame(size int64, conn types.ConnID) {
	tc.total.sent(size)
	if conn != "" {
		tc.conn(conn).sent(size)
	}
}

// Totals 返回全局统计
func (tc *TrafficCounter) Totals() Stats {
	return tc.total.stats()
}

// ForConn 返回连接统计，未知连接返回零值
func (tc *TrafficCounter) ForConn(conn types.ConnID) Stats {
	tc.mu.RLock()
	c := tc.conns[conn]
	tc.mu.RUnlock()
	if c == nil {
		return Stats{}
	}
	return c.stats()
}

// Forget 移除连接统计
func (tc *TrafficCounter) Forget(conn types.ConnID) {
	tc.mu.Lock()
	delete(tc.conns, conn)
	tc.mu.Unlock()
}

// Conns 返回正在统计的连接数
func (tc *TrafficCounter) Conns() int {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	return len(tc.conns)
}

func (tc *TrafficCounter) conn(id types.ConnID) *counter {
	tc.mu.RLock()
	c := tc.conns[id]
	tc.mu.RUnlock()
	if c != nil {
		return c
	}

	tc.mu.Lock()
	defer tc.mu.Unlock()
	if c = tc.conns[id]; c == nil {
		c = newCounter(tc.clock)
		tc.conns[id] = c
	}
	return c
}
