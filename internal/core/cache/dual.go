package cache

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DualOptions 双索引缓存选项
type DualOptions[V any] struct {
	Options[V]

	// NameOf 提取名称（查找时不区分大小写）
	NameOf func(V) string

	// IDOf 提取唯一标识，返回 uuid.Nil 时只建立名称索引
	IDOf func(V) uuid.UUID
}

type dualEntry[V any] struct {
	*Entry[V]
	name string
	id   uuid.UUID
}

// DualIndex 名称 + 唯一标识双索引缓存
//
// 两个索引指向同一条目：按任一键写入都会同时建立另一键，
// 按任一键失效都会同时移除另一键。
type DualIndex[V any] struct {
	mu     sync.Mutex
	byName map[string]*dualEntry[V]
	byID   map[uuid.UUID]*dualEntry[V]
	opts   DualOptions[V]
}

var _ Member = (*DualIndex[int])(nil)

// NewDual 创建双索引缓存
func NewDual[V any](opts DualOptions[V]) *DualIndex[V] {
	opts.normalize()
	return &DualIndex[V]{
		byName: make(map[string]*dualEntry[V]),
		byID:   make(map[uuid.UUID]*dualEntry[V]),
		opts:   opts,
	}
}

// Family 返回缓存家族名
func (c *DualIndex[V]) Family() string {
	return c.opts.Family
}

// GetByName 按名称读取
func (c *DualIndex[V]) GetByName(name string) (V, bool) {
	return c.get(func() *dualEntry[V] { return c.byName[foldName(name)] })
}

// GetByID 按唯一标识读取
func (c *DualIndex[V]) GetByID(id uuid.UUID) (V, bool) {
	return c.get(func() *dualEntry[V] { return c.byID[id] })
}

func (c *DualIndex[V]) get(find func() *dualEntry[V]) (V, bool) {
	now := c.opts.Clock.Now()
	var zero V

	c.mu.Lock()
	e := find()
	if e == nil {
		c.mu.Unlock()
		c.opts.Observer.CacheMiss(c.opts.Family)
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
		c.removeLocked(e)
		c.mu.Unlock()
		c.opts.Observer.CacheEvicted(c.opts.Family, reason, 1)
		c.opts.Observer.CacheMiss(c.opts.Family)
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

// Put 写入值，同时建立名称与唯一标识索引
//
// 与新值名称或标识冲突的旧条目（例如改名后的同一主体）会整条移除，
// 保证两个索引始终指向同一条目。
func (c *DualIndex[V]) Put(value V) {
	c.PutTTL(value, c.opts.TTL)
}

// PutTTL 使用指定 TTL 写入
func (c *DualIndex[V]) PutTTL(value V, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.opts.TTL
	}
	name := foldName(c.opts.NameOf(value))
	id := c.opts.IDOf(value)
	now := c.opts.Clock.Now()

	c.mu.Lock()
	if old := c.byName[name]; old != nil {
		c.removeLocked(old)
	}
	if id != uuid.Nil {
		if old := c.byID[id]; old != nil {
			c.removeLocked(old)
		}
	}

	swept := 0
	if c.opts.Capacity > 0 && c.lenLocked() >= c.opts.Capacity {
		swept = c.sweepLocked(now)
	}

	e := &dualEntry[V]{Entry: NewEntry(value, now, ttl), name: name, id: id}
	if name != "" {
		c.byName[name] = e
	}
	if id != uuid.Nil {
		c.byID[id] = e
	}
	c.mu.Unlock()

	if swept > 0 {
		c.opts.Observer.CacheEvicted(c.opts.Family, ReasonSwept, swept)
	}
}

// InvalidateName 按名称移除（同时移除配对的唯一标识条目）
func (c *DualIndex[V]) InvalidateName(name string) bool {
	c.mu.Lock()
	e := c.byName[foldName(name)]
	if e != nil {
		c.removeLocked(e)
	}
	c.mu.Unlock()
	return c.evicted(e != nil)
}

// InvalidateID 按唯一标识移除（同时移除配对的名称条目）
func (c *DualIndex[V]) InvalidateID(id uuid.UUID) bool {
	c.mu.Lock()
	e := c.byID[id]
	if e != nil {
		c.removeLocked(e)
	}
	c.mu.Unlock()
	return c.evicted(e != nil)
}

// InvalidateSubject 按名称和唯一标识同时移除
//
// 二者可能指向不同条目（宿主侧已改名），都会被移除。
func (c *DualIndex[V]) InvalidateSubject(name string, id uuid.UUID) bool {
	byName := name != "" && c.InvalidateName(name)
	byID := id != uuid.Nil && c.InvalidateID(id)
	return byName || byID
}

// Clear 清空缓存
func (c *DualIndex[V]) Clear() {
	c.mu.Lock()
	n := c.lenLocked()
	c.byName = make(map[string]*dualEntry[V])
	c.byID = make(map[uuid.UUID]*dualEntry[V])
	c.mu.Unlock()

	if n > 0 {
		c.opts.Observer.CacheEvicted(c.opts.Family, ReasonCleared, n)
	}
}

// Sweep 移除所有过期或失效的条目
func (c *DualIndex[V]) Sweep() int {
	c.mu.Lock()
	n := c.sweepLocked(c.opts.Clock.Now())
	c.mu.Unlock()

	if n > 0 {
		c.opts.Observer.CacheEvicted(c.opts.Family, ReasonSwept, n)
	}
	return n
}

// Len 返回不同值的条目数
func (c *DualIndex[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lenLocked()
}

// IndexSizes 返回名称索引与唯一标识索引的大小
func (c *DualIndex[V]) IndexSizes() (names, ids int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.byName), len(c.byID)
}

func (c *DualIndex[V]) evicted(ok bool) bool {
	if ok {
		c.opts.Observer.CacheEvicted(c.opts.Family, ReasonInvalidated, 1)
	}
	return ok
}

// lenLocked 以条目为单位计数，只有名称或只有标识的条目也计入
func (c *DualIndex[V]) lenLocked() int {
	n := len(c.byID)
	for _, e := range c.byName {
		if e.id == uuid.Nil {
			n++
		}
	}
	return n
}

func (c *DualIndex[V]) removeLocked(e *dualEntry[V]) {
	if cur, ok := c.byName[e.name]; ok && cur == e {
		delete(c.byName, e.name)
	}
	if cur, ok := c.byID[e.id]; ok && cur == e {
		delete(c.byID, e.id)
	}
}

func (c *DualIndex[V]) sweepLocked(now time.Time) int {
	removed := 0
	dead := func(e *dualEntry[V]) bool {
		return e.Expired(now) || !c.opts.Alive(e.Value)
	}
	for _, e := range c.byID {
		if dead(e) {
			c.removeLocked(e)
			removed++
		}
	}
	for _, e := range c.byName {
		if dead(e) {
			c.removeLocked(e)
			removed++
		}
	}
	return removed
}

func foldName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
