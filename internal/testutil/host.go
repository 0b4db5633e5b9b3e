// Package testutil 提供测试用宿主对象目录
package testutil

import (
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	pkgif "github.com/dep2p/go-hostrpc/pkg/interfaces"
)

// Subject 测试主体
type Subject struct {
	name  string
	id    uuid.UUID
	alive atomic.Bool
}

// NewSubject 创建有效的测试主体
func NewSubject(name string) *Subject {
	s := &Subject{name: name, id: uuid.New()}
	s.alive.Store(true)
	return s
}

func (s *Subject) Name() string  { return s.name }
func (s *Subject) ID() uuid.UUID { return s.id }
func (s *Subject) Valid() bool   { return s.alive.Load() }

// Invalidate 使引用失效（模拟下线）
func (s *Subject) Invalidate() { s.alive.Store(false) }

// World 测试世界
type World struct {
	id     string
	loaded atomic.Bool
}

// NewWorld 创建已加载的测试世界
func NewWorld(id string) *World {
	w := &World{id: id}
	w.loaded.Store(true)
	return w
}

func (w *World) ID() string  { return w.id }
func (w *World) Valid() bool { return w.loaded.Load() }

// Unload 卸载世界
func (w *World) Unload() { w.loaded.Store(false) }

// Directory 内存目录，记录查询次数
//
// OnQuery 非空时在每次查询前调用，可用于断言调用线程或注入阻塞。
type Directory struct {
	mu       sync.Mutex
	subjects []*Subject
	worlds   []*World

	OnQuery func()
	queries atomic.Int64
}

var _ pkgif.Directory = (*Directory)(nil)

// NewDirectory 创建空目录
func NewDirectory() *Directory {
	return &Directory{}
}

// AddSubject 添加主体
func (d *Directory) AddSubject(s *Subject) *Subject {
	d.mu.Lock()
	d.subjects = append(d.subjects, s)
	d.mu.Unlock()
	return s
}

// RemoveSubject 移除主体并使其失效
func (d *Directory) RemoveSubject(s *Subject) {
	d.mu.Lock()
	defer d.mu.Unlock()
	s.Invalidate()
	for i, cur := range d.subjects {
		if cur == s {
			d.subjects = append(d.subjects[:i], d.subjects[i+1:]...)
			return
		}
	}
}

// AddWorld 添加世界
func (d *Directory) AddWorld(w *World) *World {
	d.mu.Lock()
	d.worlds = append(d.worlds, w)
	d.mu.Unlock()
	return w
}

// Queries 返回目录被查询的次数
func (d *Directory) Queries() int64 { return d.queries.Load() }

func (d *Directory) hit() {
	d.queries.Add(1)
	if d.OnQuery != nil {
		d.OnQuery()
	}
}

func (d *Directory) SubjectByName(name string) (pkgif.Subject, bool) {
	d.hit()
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, s := range d.subjects {
		if strings.EqualFold(s.name, name) && s.Valid() {
			return s, true
		}
	}
	return nil, false
}

func (d *Directory) SubjectByID(id uuid.UUID) (pkgif.Subject, bool) {
	d.hit()
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, s := range d.subjects {
		if s.id == id && s.Valid() {
			return s, true
		}
	}
	return nil, false
}

func (d *Directory) World(id string) (pkgif.World, bool) {
	d.hit()
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, w := range d.worlds {
		if w.id == id && w.Valid() {
			return w, true
		}
	}
	return nil, false
}

func (d *Directory) Worlds() []pkgif.World {
	d.hit()
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]pkgif.World, 0, len(d.worlds))
	for _, w := range d.worlds {
		if w.Valid() {
			out = append(out, w)
		}
	}
	return out
}
