package address

import (
	"go.uber.org/fx"

	"github.com/dep2p/go-enet/config"
)

// ModuleInput 定义模块输入依赖
type ModuleInput struct {
	fx.In

	// Config 统一配置（可选）
	Config *config.Config `optional:"true"`

	// Resolver 自定义解析器（可选，测试时注入）
	Resolver Resolver `name:"resolver" optional:"true"`
}

// ModuleOutput 定义模块输出服务
type ModuleOutput struct {
	fx.Out

	Codec *Codec
}

// ConfigFromUnified 从统一配置创建编解码器配置
func ConfigFromUnified(cfg *config.Config) Config {
	if cfg == nil {
		return DefaultConfig()
	}
	return Config{
		CacheSize:     cfg.Resolver.CacheSize,
		CacheTTL:      cfg.Resolver.CacheTTL.Duration(),
		LookupTimeout: cfg.Resolver.LookupTimeout.Duration(),
	}
}

// ProvideServices 提供模块服务
func ProvideServices(input ModuleInput) ModuleOutput {
	return ModuleOutput{
		Codec: NewCodec(ConfigFromUnified(input.Config), input.Resolver),
	}
}

// Module 返回 fx 模块配置
func Module() fx.Option {
	return fx.Module("address",
		fx.Provide(ProvideServices),
	)
}
