package registry

import (
	"go.uber.org/fx"

	"github.com/dep2p/go-hostrpc/pkg/capability"
)

// CapabilityGroup 能力模块的 Fx 值组标签
const CapabilityGroup = `group:"capabilities"`

// Module 返回注册表 Fx 模块
//
// 所有以 AsCapability 提供的模块在启动前注册。
func Module() fx.Option {
	return fx.Module("registry",
		fx.Provide(New),
		fx.Invoke(registerCapabilities),
	)
}

// AsCapability 把返回 capability.Module 实现的构造函数加入能力值组
//
//	fx.Provide(registry.AsCapability(system.New))
func AsCapability(constructor any) any {
	return fx.Annotate(
		constructor,
		fx.As(new(capability.Module)),
		fx.ResultTags(CapabilityGroup),
	)
}

type registerInput struct {
	fx.In

	Registry     *Registry
	Capabilities []capability.Module `group:"capabilities"`
}

func registerCapabilities(input registerInput) error {
	for _, m := range input.Capabilities {
		if _, err := input.Registry.Register(m); err != nil {
			return err
		}
	}
	logger.Info("能力注册完成", "modules", input.Registry.Modules())
	return nil
}
