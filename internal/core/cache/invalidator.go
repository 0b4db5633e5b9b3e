package cache

import (
	"context"
	"sync"

	"go.uber.org/multierr"

	pkgif "github.com/dep2p/go-hostrpc/pkg/interfaces"
	"github.com/dep2p/go-hostrpc/pkg/lib/log"
	"github.com/dep2p/go-hostrpc/pkg/types"
)

var logger = log.Logger("core/cache")

// 缓存家族
const (
	FamilyWorld   = "world"
	FamilySubject = "subject"
)

// Invalidator 把宿主生命周期事件转换为 Group 失效调用
//
//   - EvtSubjectRemoved：按名称与唯一标识从所有主体缓存移除
//   - EvtSubjectChanged：同上，下次查找时重新填充
//   - EvtWorldUnloaded：从世界缓存移除该世界
//   - EvtHostReset：清空所有缓存
type Invalidator struct {
	bus   pkgif.EventBus
	group *Group

	mu   sync.Mutex
	subs []pkgif.Subscription
	wg   sync.WaitGroup
}

// NewInvalidator 创建失效订阅器
func NewInvalidator(bus pkgif.EventBus, group *Group) *Invalidator {
	return &Invalidator{bus: bus, group: group}
}

// Start 订阅宿主生命周期事件
func (inv *Invalidator) Start(_ context.Context) error {
	eventTypes := []any{
		new(types.EvtSubjectRemoved),
		new(types.EvtSubjectChanged),
		new(types.EvtWorldUnloaded),
		new(types.EvtHostReset),
	}

	inv.mu.Lock()
	defer inv.mu.Unlock()
	for _, et := range eventTypes {
		sub, err := inv.bus.Subscribe(et, pkgif.BufSize(64))
		if err != nil {
			for _, s := range inv.subs {
				_ = s.Close()
			}
			inv.subs = nil
			return err
		}
		inv.subs = append(inv.subs, sub)
		inv.wg.Add(1)
		go inv.loop(sub)
	}
	logger.Debug("缓存失效订阅已启动", "families", inv.group.Families())
	return nil
}

// Stop 取消订阅并等待处理循环退出
func (inv *Invalidator) Stop() error {
	inv.mu.Lock()
	subs := inv.subs
	inv.subs = nil
	inv.mu.Unlock()

	var err error
	for _, s := range subs {
		err = multierr.Append(err, s.Close())
	}
	inv.wg.Wait()
	return err
}

func (inv *Invalidator) loop(sub pkgif.Subscription) {
	defer inv.wg.Done()
	for evt := range sub.Out() {
		inv.Handle(evt)
	}
}

// Handle 处理单个事件，未知事件忽略
func (inv *Invalidator) Handle(evt any) {
	switch e := evt.(type) {
	case types.EvtSubjectRemoved:
		n := inv.group.InvalidateSubject(e.Name, e.ID)
		logger.Debug("主体已移除，缓存失效", "name", e.Name, "caches", n)
	case *types.EvtSubjectRemoved:
		inv.Handle(*e)
	case types.EvtSubjectChanged:
		n := inv.group.InvalidateSubject(e.Name, e.ID)
		logger.Debug("主体已变化，缓存失效", "name", e.Name, "reason", e.Reason, "caches", n)
	case *types.EvtSubjectChanged:
		inv.Handle(*e)
	case types.EvtWorldUnloaded:
		n := inv.group.InvalidateKey(FamilyWorld, e.WorldID)
		logger.Debug("世界已卸载，缓存失效", "world", e.WorldID, "caches", n)
	case *types.EvtWorldUnloaded:
		inv.Handle(*e)
	case types.EvtHostReset:
		n := inv.group.ClearAll()
		logger.Info("全局重置，缓存已清空", "phase", e.Phase, "caches", n)
	case *types.EvtHostReset:
		inv.Handle(*e)
	}
}
