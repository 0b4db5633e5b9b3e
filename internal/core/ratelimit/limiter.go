// Package ratelimit 提供按来源主机的请求限流
//
// 每个来源主机一个令牌桶；桶表使用定长 LRU，超出 MaxTrackedHosts
// 时淘汰最久未用的主机，淘汰后该主机以满桶重新开始。
package ratelimit

import (
	"net"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"

	"github.com/dep2p/go-hostrpc/pkg/lib/log"
)

var logger = log.Logger("core/ratelimit")

// Config 限流配置
type Config struct {
	// Enabled 是否启用，关闭时 Allow 总是放行
	Enabled bool

	// RequestsPerSecond 稳态速率
	RequestsPerSecond float64

	// Burst 突发容量
	Burst int

	// MaxTrackedHosts 跟踪的来源主机上限
	MaxTrackedHosts int
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		Enabled:           false,
		RequestsPerSecond: 50,
		Burst:             100,
		MaxTrackedHosts:   1024,
	}
}

// Limiter 按来源主机限流
//
// nil *Limiter 总是放行。
type Limiter struct {
	limit rate.Limit
	burst int
	table *lru.Cache[string, *rate.Limiter]
}

// New 创建限流器
//
// 未启用时返回 (nil, nil)。
func New(cfg Config) (*Limiter, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	if cfg.RequestsPerSecond <= 0 || cfg.Burst <= 0 {
		return nil, ErrInvalidConfig
	}
	size := cfg.MaxTrackedHosts
	if size <= 0 {
		size = DefaultConfig().MaxTrackedHosts
	}
	table, err := lru.New[string, *rate.Limiter](size)
	if err != nil {
		return nil, err
	}
	return &Limiter{
		limit: rate.Limit(cfg.RequestsPerSecond),
		burst: cfg.Burst,
		table: table,
	}, nil
}

// Allow 消耗 remote 对应主机的一个令牌
func (l *Limiter) Allow(remote string) bool {
	return l.AllowAt(remote, time.Now())
}

// AllowAt 在指定时间消耗一个令牌
func (l *Limiter) AllowAt(remote string, now time.Time) bool {
	if l == nil {
		return true
	}
	host := HostOf(remote)
	if host == "" {
		return true
	}

	lim, ok := l.table.Get(host)
	if !ok {
		// 并发首次访问可能各建一个桶，后写入者生效，只影响首个突发窗口
		lim = rate.NewLimiter(l.limit, l.burst)
		if prev, found, _ := l.table.PeekOrAdd(host, lim); found {
			lim = prev
		}
	}
	return lim.AllowN(now, 1)
}

// Tracked 返回跟踪中的主机数
func (l *Limiter) Tracked() int {
	if l == nil {
		return 0
	}
	return l.table.Len()
}

// HostOf 从 host:port 形式的远端地址中取出主机部分
func HostOf(remote string) string {
	remote = strings.TrimSpace(remote)
	if host, _, err := net.SplitHostPort(remote); err == nil {
		return host
	}
	return remote
}
