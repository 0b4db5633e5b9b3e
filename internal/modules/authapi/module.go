package authapi

import (
	"go.uber.org/fx"

	"github.com/dep2p/go-hostrpc/internal/core/auth"
	"github.com/dep2p/go-hostrpc/internal/core/server"
)

// Module 返回 auth 模块工厂的 Fx 模块
func Module() fx.Option {
	return fx.Module("authapi",
		fx.Provide(func(mgr *auth.Manager) server.SessionModuleFactory {
			return Factory(mgr)
		}),
	)
}
