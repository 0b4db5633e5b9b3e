// Package lookup 提供带缓存的宿主对象解析
//
// 命令模块通过 Resolver 按名称或唯一标识查找主体、按标识查找世界：
//
//	s, err := resolver.Subject(ctx, "Alex")      // 名称，不区分大小写
//	s, err := resolver.Subject(ctx, "3f1c...")   // UUID 字符串
//	w, err := resolver.World(ctx, "overworld")
//
// 命中且引用有效时直接返回，不经过宿主线程；
// 未命中时经宿主线程查询目录一次并写回缓存，相同键的并发查询合并为一次。
package lookup

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/dep2p/go-hostrpc/internal/core/bridge"
	"github.com/dep2p/go-hostrpc/internal/core/cache"
	"github.com/dep2p/go-hostrpc/pkg/capability"
	pkgif "github.com/dep2p/go-hostrpc/pkg/interfaces"
	"github.com/dep2p/go-hostrpc/pkg/lib/log"
)

var logger = log.Logger("core/lookup")

// Config 解析器缓存配置
type Config struct {
	WorldTTL        time.Duration
	WorldCapacity   int
	SubjectTTL      time.Duration
	SubjectCapacity int
	RefreshOnHit    bool
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		WorldTTL:        60 * time.Second,
		WorldCapacity:   100,
		SubjectTTL:      30 * time.Second,
		SubjectCapacity: 500,
		RefreshOnHit:    true,
	}
}

// Resolver 带缓存的宿主对象解析器
type Resolver struct {
	dir      pkgif.Directory
	exec     pkgif.Executor
	subjects *cache.DualIndex[pkgif.Subject]
	worlds   *cache.TTLCache[string, pkgif.World]
	flight   singleflight.Group
}

type options struct {
	clock    clock.Clock
	observer cache.Observer
}

// Option 解析器选项
type Option func(*options)

// WithClock 注入时钟
func WithClock(c clock.Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithObserver 设置缓存观察者
func WithObserver(obs cache.Observer) Option {
	return func(o *options) { o.observer = obs }
}

// New 创建解析器
func New(cfg Config, dir pkgif.Directory, exec pkgif.Executor, opts ...Option) *Resolver {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	r := &Resolver{dir: dir, exec: exec}
	r.subjects = cache.NewDual(cache.DualOptions[pkgif.Subject]{
		Options: cache.Options[pkgif.Subject]{
			Family:       cache.FamilySubject,
			TTL:          cfg.SubjectTTL,
			Capacity:     cfg.SubjectCapacity,
			Alive:        func(s pkgif.Subject) bool { return s != nil && s.Valid() },
			RefreshOnHit: cfg.RefreshOnHit,
			Clock:        o.clock,
			Observer:     o.observer,
		},
		NameOf: func(s pkgif.Subject) string { return s.Name() },
		IDOf:   func(s pkgif.Subject) uuid.UUID { return s.ID() },
	})
	r.worlds = cache.New[string, pkgif.World](cache.Options[pkgif.World]{
		Family:       cache.FamilyWorld,
		TTL:          cfg.WorldTTL,
		Capacity:     cfg.WorldCapacity,
		Alive:        func(w pkgif.World) bool { return w != nil && w.Valid() },
		RefreshOnHit: cfg.RefreshOnHit,
		Clock:        o.clock,
		Observer:     o.observer,
	})
	return r
}

// Subject 按名称或 UUID 字符串解析主体
func (r *Resolver) Subject(ctx context.Context, identifier string) (pkgif.Subject, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, capability.InvalidInput("Subject identifier must not be empty")
	}
	if id, err := uuid.Parse(identifier); err == nil {
		return r.SubjectByID(ctx, id)
	}

	if s, ok := r.subjects.GetByName(identifier); ok {
		return s, nil
	}
	s, err := load(ctx, r, "subject:name:"+strings.ToLower(identifier), func(d pkgif.Directory) (pkgif.Subject, bool) {
		return d.SubjectByName(identifier)
	})
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, &NotFoundError{Kind: "Subject", Key: identifier}
	}
	r.subjects.Put(s)
	return s, nil
}

// SubjectByID 按唯一标识解析主体
func (r *Resolver) SubjectByID(ctx context.Context, id uuid.UUID) (pkgif.Subject, error) {
	if s, ok := r.subjects.GetByID(id); ok {
		return s, nil
	}
	s, err := load(ctx, r, "subject:id:"+id.String(), func(d pkgif.Directory) (pkgif.Subject, bool) {
		return d.SubjectByID(id)
	})
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, &NotFoundError{Kind: "Subject", Key: id.String()}
	}
	r.subjects.Put(s)
	return s, nil
}

// World 按标识解析世界
func (r *Resolver) World(ctx context.Context, id string) (pkgif.World, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, capability.InvalidInput("World id must not be empty")
	}
	w, _, err := r.worlds.GetOrLoad(id, func() (pkgif.World, bool, error) {
		w, err := load(ctx, r, "world:"+id, func(d pkgif.Directory) (pkgif.World, bool) {
			return d.World(id)
		})
		return w, w != nil, err
	})
	if err != nil {
		return nil, err
	}
	if w == nil {
		return nil, &NotFoundError{Kind: "World", Key: id}
	}
	return w, nil
}

// Worlds 列出所有已加载世界并写入缓存
func (r *Resolver) Worlds(ctx context.Context) ([]pkgif.World, error) {
	worlds, err := bridge.Call(ctx, r.exec, func(context.Context) ([]pkgif.World, error) {
		return r.dir.Worlds(), nil
	})
	if err != nil {
		return nil, err
	}
	for _, w := range worlds {
		if w != nil {
			r.worlds.Put(w.ID(), w)
		}
	}
	return worlds, nil
}

// Forget 从缓存中移除主体（名称与唯一标识）
func (r *Resolver) Forget(name string, id uuid.UUID) bool {
	return r.subjects.InvalidateSubject(name, id)
}

// Members 返回解析器持有的缓存，供 cache.Group 注册
func (r *Resolver) Members() []cache.Member {
	return []cache.Member{r.subjects, r.worlds}
}

// CacheSizes 返回两个缓存家族的条目数
func (r *Resolver) CacheSizes() map[string]int {
	return map[string]int{
		cache.FamilySubject: r.subjects.Len(),
		cache.FamilyWorld:   r.worlds.Len(),
	}
}

// load 经宿主线程查询目录
//
// 已在宿主线程上时直接查询：合并等待可能依赖宿主线程自身，会造成死锁。
func load[T any](ctx context.Context, r *Resolver, key string, find func(pkgif.Directory) (T, bool)) (T, error) {
	query := func(context.Context) (T, error) {
		v, ok := find(r.dir)
		if !ok {
			var zero T
			return zero, nil
		}
		return v, nil
	}

	if r.exec.OnHost(ctx) {
		return query(ctx)
	}

	ch := r.flight.DoChan(key, func() (any, error) {
		// 合并的查询不受单个调用方取消影响
		return bridge.Call(context.WithoutCancel(ctx), r.exec, query)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			var zero T
			return zero, res.Err
		}
		if res.Shared {
			logger.Debug("合并宿主查询", "key", key)
		}
		v, _ := res.Val.(T)
		return v, nil
	case <-ctx.Done():
		var zero T
		return zero, fmt.Errorf("%w: %v", bridge.ErrInterrupted, ctx.Err())
	}
}
