package cache

import (
	"sort"
	"sync"

	"github.com/google/uuid"
)

// Member 可加入 Group 的缓存
type Member interface {
	// Family 缓存家族名
	Family() string

	// Clear 清空
	Clear()
}

// subjectMember 按主体名称/唯一标识失效的缓存
type subjectMember interface {
	InvalidateSubject(name string, id uuid.UUID) bool
}

// keyMember 按单键失效的缓存
type keyMember interface {
	InvalidateKey(key any) bool
}

// Group 显式的缓存失效目标列表
//
// 由组合根创建并持有，传给需要广播失效的组件，
// 不存在任何包级全局注册表。
type Group struct {
	mu      sync.RWMutex
	members []Member
}

// NewGroup 创建缓存组
func NewGroup(members ...Member) *Group {
	g := &Group{}
	g.Register(members...)
	return g
}

// Register 注册缓存
func (g *Group) Register(members ...Member) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, m := range members {
		if m != nil {
			g.members = append(g.members, m)
		}
	}
}

// InvalidateSubject 从所有主体缓存中移除该主体（名称与唯一标识）
//
// 返回实际移除了条目的缓存数量。
func (g *Group) InvalidateSubject(name string, id uuid.UUID) int {
	n := 0
	for _, m := range g.snapshot() {
		if sm, ok := m.(subjectMember); ok && sm.InvalidateSubject(name, id) {
			n++
		}
	}
	return n
}

// InvalidateKey 从指定家族的所有缓存中移除单个键
func (g *Group) InvalidateKey(family string, key any) int {
	n := 0
	for _, m := range g.snapshot() {
		if m.Family() != family {
			continue
		}
		if km, ok := m.(keyMember); ok && km.InvalidateKey(key) {
			n++
		}
	}
	return n
}

// ClearFamily 清空指定家族的所有缓存
func (g *Group) ClearFamily(family string) int {
	n := 0
	for _, m := range g.snapshot() {
		if m.Family() == family {
			m.Clear()
			n++
		}
	}
	return n
}

// ClearAll 清空所有已注册缓存
func (g *Group) ClearAll() int {
	members := g.snapshot()
	for _, m := range members {
		m.Clear()
	}
	return len(members)
}

// Families 返回已注册的家族名（去重、排序）
func (g *Group) Families() []string {
	seen := make(map[string]struct{})
	for _, m := range g.snapshot() {
		seen[m.Family()] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for f := range seen {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// Len 返回注册的缓存数量
func (g *Group) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.members)
}

func (g *Group) snapshot() []Member {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]Member(nil), g.members...)
}
