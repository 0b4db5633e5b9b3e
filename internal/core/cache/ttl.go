package cache

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// Options 缓存选项
type Options[V any] struct {
	// Family 缓存家族名，用于日志、指标与 Group 广播
	Family string

	// TTL 默认存活时间
	TTL time.Duration

	// Capacity 软容量
	Capacity int

	// Alive 引用有效性谓词，返回 false 的条目视为未命中；nil 表示总是有效
	Alive func(V) bool

	// RefreshOnHit 命中且有效时刷新创建时间
	RefreshOnHit bool

	// Clock 时钟，测试中可注入 clock.NewMock()
	Clock clock.Clock

	// Observer 观察者
	Observer Observer
}

func (o *Options[V]) normalize() {
	if o.Clock == nil {
		o.Clock = clock.New()
	}
	if o.Observer == nil {
		o.Observer = NopObserver()
	}
	if o.Alive == nil {
		o.Alive = func(V) bool { return true }
	}
}

// TTLCache 有界 TTL 缓存
type TTLCache[K comparable, V any] struct {
	mu      sync.Mutex
	entries map[K]*Entry[V]
	opts    Options[V]
}

var _ Member = (*TTLCache[string, int])(nil)

// New 创建 TTL 缓存
func New[K comparable, V any](opts Options[V]) *TTLCache[K, V] {
	opts.normalize()
	return &TTLCache[K, V]{
		entries: make(map[K]*Entry[V]),
		opts:    opts,
	}
}

// Family 返回缓存家族名
func (c *TTLCache[K, V]) Family() string {
	return c.opts.Family
}

// Get 读取缓存
//
// 条目存在、引用有效且未超过 TTL 才算命中；否则移除条目并返回未命中，
// 调用方应走正常解析路径并把结果写回。
func (c *TTLCache[K, V]) Get(key K) (V, bool) {
	now := c.opts.Clock.Now()

	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok {
		c.mu.Unlock()
		c.opts.Observer.CacheMiss(c.opts.Family)
		var zero V
		return zero, false
	}

	reason := ""
	switch {
	case e.Expired(now):
		reason = ReasonExpired
	case !c.opts.Alive(e.Value):
		reason = ReasonDead
	}
	if reason != "" {
		delete(c.entries, key)
		c.mu.Unlock()
		c.opts.Observer.CacheEvicted(c.opts.Family, reason, 1)
		c.opts.Observer.CacheMiss(c.opts.Family)
		var zero V
		return zero, false
	}

	if c.opts.RefreshOnHit {
		e.Touch(now)
	}
	v := e.Value
	c.mu.Unlock()

	c.opts.Observer.CacheHit(c.opts.Family)
	return v, true
}

// Put 使用默认 TTL 写入
func (c *TTLCache[K, V]) Put(key K, value V) {
	c.PutTTL(key, value, c.opts.TTL)
}

// PutTTL 使用指定 TTL 写入
//
// ttl <= 0 时使用默认 TTL。插入新键前若已达软容量，先清扫过期条目。
func (c *TTLCache[K, V]) PutTTL(key K, value V, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.opts.TTL
	}
	now := c.opts.Clock.Now()

	c.mu.Lock()
	swept := 0
	if _, exists := c.entries[key]; !exists && c.opts.Capacity > 0 && len(c.entries) >= c.opts.Capacity {
		swept = c.sweepLocked(now)
	}
	c.entries[key] = NewEntry(value, now, ttl)
	c.mu.Unlock()

	if swept > 0 {
		c.opts.Observer.CacheEvicted(c.opts.Family, ReasonSwept, swept)
	}
}

// GetOrLoad 读取缓存，未命中时调用 load 并写回
//
// load 返回 false 表示宿主中不存在，不写入缓存。
func (c *TTLCache[K, V]) GetOrLoad(key K, load func() (V, bool, error)) (V, bool, error) {
	if v, ok := c.Get(key); ok {
		return v, true, nil
	}
	v, found, err := load()
	if err != nil || !found {
		var zero V
		return zero, false, err
	}
	c.Put(key, v)
	return v, true, nil
}

// Invalidate 移除单个条目
func (c *TTLCache[K, V]) Invalidate(key K) bool {
	c.mu.Lock()
	_, ok := c.entries[key]
	delete(c.entries, key)
	c.mu.Unlock()

	if ok {
		c.opts.Observer.CacheEvicted(c.opts.Family, ReasonInvalidated, 1)
	}
	return ok
}

// InvalidateKey 按任意类型的键移除条目，键类型不符时忽略
func (c *TTLCache[K, V]) InvalidateKey(key any) bool {
	k, ok := key.(K)
	if !ok {
		return false
	}
	return c.Invalidate(k)
}

// Clear 清空缓存
func (c *TTLCache[K, V]) Clear() {
	c.mu.Lock()
	n := len(c.entries)
	c.entries = make(map[K]*Entry[V])
	c.mu.Unlock()

	if n > 0 {
		c.opts.Observer.CacheEvicted(c.opts.Family, ReasonCleared, n)
	}
}

// Sweep 移除所有过期或失效的条目，返回移除数量
func (c *TTLCache[K, V]) Sweep() int {
	c.mu.Lock()
	n := c.sweepLocked(c.opts.Clock.Now())
	c.mu.Unlock()

	if n > 0 {
		c.opts.Observer.CacheEvicted(c.opts.Family, ReasonSwept, n)
	}
	return n
}

// Len 返回条目数（包括尚未清扫的过期条目）
func (c *TTLCache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *TTLCache[K, V]) sweepLocked(now time.Time) int {
	removed := 0
	for k, e := range c.entries {
		if e.Expired(now) || !c.opts.Alive(e.Value) {
			delete(c.entries, k)
			removed++
		}
	}
	return removed
}
