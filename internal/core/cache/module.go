package cache

import (
	"context"

	"go.uber.org/fx"
)

// MemberGroup 缓存成员的 Fx 值组标签
const MemberGroup = `group:"cache_members"`

// Module 返回缓存 Fx 模块
//
// 提供由所有 MemberGroup 成员组成的 Group，并启动生命周期事件失效订阅。
func Module() fx.Option {
	return fx.Module("cache",
		fx.Provide(
			NewGroupFromParams,
			NewInvalidator,
		),
		fx.Invoke(registerLifecycle),
	)
}

// GroupParams Group 依赖参数
type GroupParams struct {
	fx.In

	Members []Member `group:"cache_members"`
}

// NewGroupFromParams 从值组创建 Group
func NewGroupFromParams(p GroupParams) *Group {
	return NewGroup(p.Members...)
}

type lifecycleInput struct {
	fx.In
	LC          fx.Lifecycle
	Invalidator *Invalidator
}

func registerLifecycle(input lifecycleInput) {
	input.LC.Append(fx.Hook{
		OnStart: input.Invalidator.Start,
		OnStop: func(_ context.Context) error {
			return input.Invalidator.Stop()
		},
	})
}
