package codec

import (
	"go.uber.org/fx"

	"github.com/dep2p/go-hostrpc/config"
)

// Module 返回编解码 Fx 模块
func Module() fx.Option {
	return fx.Module("codec",
		fx.Provide(NewFromParams),
	)
}

// ConfigFromUnified 从统一配置创建编解码配置
func ConfigFromUnified(cfg *config.Config) Config {
	if cfg == nil {
		return DefaultConfig()
	}
	return Config{
		Encryption:    cfg.Codec.Encryption,
		Key:           cfg.Auth.Key,
		Cipher:        cfg.Codec.Cipher,
		KeyDerivation: cfg.Codec.KeyDerivation,
	}
}

// Params 依赖参数
type Params struct {
	fx.In

	UnifiedCfg *config.Config `optional:"true"`
}

// NewFromParams 从参数创建编解码器
func NewFromParams(p Params) (*Codec, error) {
	return New(ConfigFromUnified(p.UnifiedCfg))
}
