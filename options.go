package hostrpc

import (
	"errors"

	"go.uber.org/fx"

	"github.com/dep2p/go-hostrpc/config"
	"github.com/dep2p/go-hostrpc/pkg/capability"
	pkgif "github.com/dep2p/go-hostrpc/pkg/interfaces"
)

// Option 服务配置选项函数
type Option func(*options) error

// options 内部选项结构
type options struct {
	config    *config.Config
	directory pkgif.Directory

	// modules 已构造的能力模块
	modules []capability.Module

	// factories 由 Fx 注入依赖的能力模块构造函数
	factories []any

	// hostModules 提供 pkgif.Directory 的宿主 Fx 模块
	hostModules []fx.Option

	fxOptions []fx.Option
	fxDebug   bool
}

func defaultOptions() *options {
	return &options{config: config.NewConfig()}
}

// WithConfig 使用完整配置，nil 表示默认配置
func WithConfig(cfg *config.Config) Option {
	return func(o *options) error {
		if cfg != nil {
			o.config = config.CloneConfig(cfg)
		}
		return nil
	}
}

// WithDirectory 设置宿主对象目录
//
// 未设置时使用空目录，所有查找返回未找到。
func WithDirectory(dir pkgif.Directory) Option {
	return func(o *options) error {
		if dir == nil {
			return errors.New("directory must not be nil")
		}
		o.directory = dir
		return nil
	}
}

// WithHost 使用 Fx 模块提供宿主
//
// 模块必须提供 pkgif.Directory，可同时以 registry.AsCapability 提供能力模块。
// 与 WithDirectory 同时设置时忽略宿主模块。
func WithHost(module fx.Option) Option {
	return func(o *options) error {
		if module == nil {
			return errors.New("host module must not be nil")
		}
		o.hostModules = append(o.hostModules, module)
		return nil
	}
}

// WithModules 注册已构造的能力模块
func WithModules(mods ...capability.Module) Option {
	return func(o *options) error {
		for _, m := range mods {
			if m == nil {
				return errors.New("module must not be nil")
			}
		}
		o.modules = append(o.modules, mods...)
		return nil
	}
}

// WithModuleFactories 注册能力模块构造函数
//
// 构造函数的参数由 Fx 注入，返回值必须实现 capability.Module：
//
//	func NewScoreModule(r *lookup.Resolver) *ScoreModule
func WithModuleFactories(constructors ...any) Option {
	return func(o *options) error {
		o.factories = append(o.factories, constructors...)
		return nil
	}
}

// WithFxOptions 追加自定义 Fx 选项
func WithFxOptions(opts ...fx.Option) Option {
	return func(o *options) error {
		o.fxOptions = append(o.fxOptions, opts...)
		return nil
	}
}

// WithFxDebug 输出 Fx 容器事件
func WithFxDebug(enable bool) Option {
	return func(o *options) error {
		o.fxDebug = enable
		return nil
	}
}
