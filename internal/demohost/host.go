// Package demohost 提供内存中的演示宿主
//
// 只用于让 cmd/hostrpc 开箱即可运行：一组世界、可加入/离开的主体，
// 以及暴露它们的 world 与 subject 模块。所有修改都在宿主线程上执行，
// 并通过事件总线发出生命周期事件，使缓存随之失效。
package demohost

import (
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	pkgif "github.com/dep2p/go-hostrpc/pkg/interfaces"
	"github.com/dep2p/go-hostrpc/pkg/lib/log"
	"github.com/dep2p/go-hostrpc/pkg/types"
)

var logger = log.Logger("demohost")

// DefaultWorlds 演示宿主启动时加载的世界
var DefaultWorlds = []string{"overworld", "nether", "the_end"}

// ticksPerDay 一天的刻数
const ticksPerDay = 24000

// ============================================================================
//                              宿主对象
// ============================================================================

// Player 演示主体
type Player struct {
	name  string
	id    uuid.UUID
	world atomic.Value // string
	alive atomic.Bool
}

func (p *Player) Name() string  { return p.name }
func (p *Player) ID() uuid.UUID { return p.id }
func (p *Player) Valid() bool   { return p.alive.Load() }

// World 返回主体所在世界
func (p *Player) World() string {
	w, _ := p.world.Load().(string)
	return w
}

// Realm 演示世界
type Realm struct {
	id     string
	time   atomic.Int64
	loaded atomic.Bool
}

func (r *Realm) ID() string  { return r.id }
func (r *Realm) Valid() bool { return r.loaded.Load() }

// Time 返回世界时间（刻）
func (r *Realm) Time() int64 { return r.time.Load() }

// ============================================================================
//                              Host
// ============================================================================

// Host 内存宿主
//
// 实现 pkgif.Directory。查询与修改方法都应只在宿主线程上调用；
// mu 只保护 Snapshot 这类跨线程读取。
type Host struct {
	mu      sync.RWMutex
	players map[uuid.UUID]*Player
	realms  map[string]*Realm

	removed pkgif.Emitter
	changed pkgif.Emitter
	unload  pkgif.Emitter
}

var _ pkgif.Directory = (*Host)(nil)

// New 创建演示宿主并加载 worlds
//
// bus 为 nil 时不发出生命周期事件。
func New(bus pkgif.EventBus, worlds ...string) (*Host, error) {
	h := &Host{
		players: make(map[uuid.UUID]*Player),
		realms:  make(map[string]*Realm),
	}
	if bus != nil {
		var err error
		if h.removed, err = bus.Emitter(new(types.EvtSubjectRemoved)); err != nil {
			return nil, err
		}
		if h.changed, err = bus.Emitter(new(types.EvtSubjectChanged)); err != nil {
			return nil, err
		}
		if h.unload, err = bus.Emitter(new(types.EvtWorldUnloaded)); err != nil {
			return nil, err
		}
	}
	for _, id := range worlds {
		h.LoadWorld(id)
	}
	return h, nil
}

// Close 关闭事件发射器
func (h *Host) Close() error {
	for _, em := range []pkgif.Emitter{h.removed, h.changed, h.unload} {
		if em != nil {
			_ = em.Close()
		}
	}
	return nil
}

// LoadWorld 加载世界，已加载时返回现有世界
func (h *Host) LoadWorld(id string) *Realm {
	h.mu.Lock()
	defer h.mu.Unlock()
	if r, ok := h.realms[id]; ok {
		return r
	}
	r := &Realm{id: id}
	r.loaded.Store(true)
	h.realms[id] = r
	return r
}

// UnloadWorld 卸载世界，其中的主体一并离开
func (h *Host) UnloadWorld(id string) bool {
	h.mu.Lock()
	r, ok := h.realms[id]
	if ok {
		delete(h.realms, id)
		r.loaded.Store(false)
	}
	var leaving []*Player
	for _, p := range h.players {
		if p.World() == id {
			leaving = append(leaving, p)
		}
	}
	h.mu.Unlock()
	if !ok {
		return false
	}

	for _, p := range leaving {
		h.Leave(p)
	}
	h.emit(h.unload, types.EvtWorldUnloaded{BaseEvent: types.NewBaseEvent(types.EventTypeWorldUnloaded), WorldID: id})
	logger.Info("世界已卸载", "world", id, "players", len(leaving))
	return true
}

// SetTime 设置世界时间，按一天取模
func (h *Host) SetTime(r *Realm, ticks int64) int64 {
	ticks %= ticksPerDay
	if ticks < 0 {
		ticks += ticksPerDay
	}
	r.time.Store(ticks)
	return ticks
}

// Join 主体加入世界
//
// 同名主体已在线时返回 ErrAlreadyOnline。
func (h *Host) Join(name, world string) (*Player, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidName
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.realms[world]; !ok {
		return nil, ErrWorldNotLoaded
	}
	for _, p := range h.players {
		if strings.EqualFold(p.name, name) {
			return nil, ErrAlreadyOnline
		}
	}
	p := &Player{name: name, id: uuid.New()}
	p.world.Store(world)
	p.alive.Store(true)
	h.players[p.id] = p
	logger.Info("主体加入", "name", name, "world", world)
	return p, nil
}

// Leave 主体离开宿主
func (h *Host) Leave(p *Player) bool {
	h.mu.Lock()
	_, ok := h.players[p.id]
	delete(h.players, p.id)
	h.mu.Unlock()
	if !ok {
		return false
	}
	p.alive.Store(false)
	h.emit(h.removed, types.EvtSubjectRemoved{
		BaseEvent: types.NewBaseEvent(types.EventTypeSubjectRemoved),
		Name:      p.name,
		ID:        p.id,
	})
	logger.Info("主体离开", "name", p.name)
	return true
}

// Move 主体切换世界
func (h *Host) Move(p *Player, world string) error {
	h.mu.RLock()
	_, ok := h.realms[world]
	h.mu.RUnlock()
	if !ok {
		return ErrWorldNotLoaded
	}
	p.world.Store(world)
	h.emit(h.changed, types.EvtSubjectChanged{
		BaseEvent: types.NewBaseEvent(types.EventTypeSubjectChanged),
		Name:      p.name,
		ID:        p.id,
		Reason:    types.ChangeWorld,
	})
	return nil
}

// ============================================================================
//                              Directory
// ============================================================================

// SubjectByName 按名称查找主体
func (h *Host) SubjectByName(name string) (pkgif.Subject, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, p := range h.players {
		if strings.EqualFold(p.name, name) {
			return p, true
		}
	}
	return nil, false
}

// SubjectByID 按唯一标识查找主体
func (h *Host) SubjectByID(id uuid.UUID) (pkgif.Subject, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	p, ok := h.players[id]
	if !ok {
		return nil, false
	}
	return p, true
}

// World 按标识查找世界
func (h *Host) World(id string) (pkgif.World, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	r, ok := h.realms[id]
	if !ok {
		return nil, false
	}
	return r, true
}

// Worlds 按标识排序列出已加载世界
func (h *Host) Worlds() []pkgif.World {
	h.mu.RLock()
	out := make([]pkgif.World, 0, len(h.realms))
	for _, r := range h.realms {
		out = append(out, r)
	}
	h.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

// Players 按名称排序列出在线主体
func (h *Host) Players() []*Player {
	h.mu.RLock()
	out := make([]*Player, 0, len(h.players))
	for _, p := range h.players {
		out = append(out, p)
	}
	h.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return strings.ToLower(out[i].name) < strings.ToLower(out[j].name) })
	return out
}

func (h *Host) emit(em pkgif.Emitter, evt any) {
	if em == nil {
		return
	}
	if err := em.Emit(evt); err != nil {
		logger.Debug("发射宿主事件失败", "error", err)
	}
}
