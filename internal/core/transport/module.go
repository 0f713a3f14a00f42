package transport

import (
	"github.com/benbjohnson/clock"
	"go.uber.org/fx"

	"github.com/dep2p/go-enet/config"
	"github.com/dep2p/go-enet/internal/core/metrics"
	"github.com/dep2p/go-enet/internal/core/transport/quic"
	pkgif "github.com/dep2p/go-enet/pkg/interfaces/transport"
	"github.com/dep2p/go-enet/pkg/lib/log"
)

var logger = log.Logger("core/transport")

// ModuleInput 模块输入依赖
type ModuleInput struct {
	fx.In

	Config   *config.Config   `optional:"true"`
	Reporter metrics.Reporter `optional:"true"`
	Clock    clock.Clock      `optional:"true"`
}

// ModuleOutput 模块输出
type ModuleOutput struct {
	fx.Out

	Transport pkgif.Transport
}

// ProvideConfig 从统一配置提供传输配置
func ProvideConfig(cfg *config.Config) quic.Config {
	return quic.ConfigFromUnified(cfg)
}

// ProvideServices 创建 QUIC 传输
func ProvideServices(input ModuleInput) (ModuleOutput, error) {
	cfg := ProvideConfig(input.Config)

	opts := []quic.Option{quic.WithReporter(input.Reporter)}
	if input.Clock != nil {
		opts = append(opts, quic.WithClock(input.Clock))
	}

	t, err := quic.New(cfg, opts...)
	if err != nil {
		return ModuleOutput{}, err
	}

	logger.Debug("传输已创建",
		"datagrams", cfg.EnableDatagrams,
		"compression", cfg.Compression,
		"idleTimeout", cfg.MaxIdleTimeout)

	return ModuleOutput{Transport: t}, nil
}

// Module 返回 Fx 模块
func Module() fx.Option {
	return fx.Module("transport",
		fx.Provide(ProvideServices),
	)
}
