package lookup

import (
	"github.com/benbjohnson/clock"
	"go.uber.org/fx"

	"github.com/dep2p/go-hostrpc/config"
	"github.com/dep2p/go-hostrpc/internal/core/cache"
	pkgif "github.com/dep2p/go-hostrpc/pkg/interfaces"
)

// Module 返回查找 Fx 模块
//
// 解析器持有的两个缓存通过 cache.MemberGroup 加入失效组。
func Module() fx.Option {
	return fx.Module("lookup",
		fx.Provide(NewFromParams),
	)
}

// ConfigFromUnified 从统一配置创建解析器配置
func ConfigFromUnified(cfg *config.Config) Config {
	if cfg == nil {
		return DefaultConfig()
	}
	return Config{
		WorldTTL:        cfg.Cache.World.TTL.Duration(),
		WorldCapacity:   cfg.Cache.World.Capacity,
		SubjectTTL:      cfg.Cache.Subject.TTL.Duration(),
		SubjectCapacity: cfg.Cache.Subject.Capacity,
		RefreshOnHit:    cfg.Cache.RefreshOnHit,
	}
}

// Params 依赖参数
type Params struct {
	fx.In

	Directory  pkgif.Directory
	Executor   pkgif.Executor
	UnifiedCfg *config.Config `optional:"true"`
	Observer   cache.Observer `optional:"true"`
	Clock      clock.Clock    `optional:"true"`
}

// Result 提供解析器与其缓存成员
type Result struct {
	fx.Out

	Resolver *Resolver
	Members  []cache.Member `group:"cache_members,flatten"`
}

// NewFromParams 从参数创建解析器
func NewFromParams(p Params) Result {
	r := New(ConfigFromUnified(p.UnifiedCfg), p.Directory, p.Executor,
		WithClock(p.Clock),
		WithObserver(p.Observer),
	)
	return Result{Resolver: r, Members: r.Members()}
}
