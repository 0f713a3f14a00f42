package enet

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/dep2p/go-enet/internal/core/address"
	"github.com/dep2p/go-enet/internal/core/metrics"
	coretransport "github.com/dep2p/go-enet/internal/core/transport"
	"github.com/dep2p/go-enet/pkg/interfaces/transport"
)

// stackDeps Stack 从 Fx 容器获取的依赖
type stackDeps struct {
	fx.In

	Transport transport.Transport
	Codec     *address.Codec
	Reporter  metrics.Reporter
	Metrics   *metrics.Metrics
}

// buildFxApp 构建 Fx 应用
//
// 加载顺序（按依赖）：metrics → transport → address。
// 显式提供的传输、解析器和 Registerer 替换默认实现。
func buildFxApp(o *options, s *Stack) *fx.App {
	modules := []fx.Option{
		fx.Supply(o.config),
		metrics.Module,
		address.Module(),
	}

	if o.transport != nil {
		t := o.transport
		modules = append(modules, fx.Provide(func() transport.Transport { return t }))
	} else {
		modules = append(modules, coretransport.Module())
	}

	if o.resolver != nil {
		r := o.resolver
		modules = append(modules, fx.Provide(
			fx.Annotate(
				func() address.Resolver { return r },
				fx.ResultTags(`name:"resolver"`),
			),
		))
	}

	if o.registerer != nil {
		reg := o.registerer
		modules = append(modules, fx.Provide(func() prometheus.Registerer { return reg }))
	}

	modules = append(modules, o.userFxOptions...)
	modules = append(modules,
		fx.Invoke(func(d stackDeps) {
			s.transport = d.Transport
			s.codec = d.Codec
			s.reporter = d.Reporter
			s.metrics = d.Metrics
		}),
		fx.WithLogger(func() fxevent.Logger {
			return &fxevent.ZapLogger{Logger: o.fxLogger}
		}),
	)

	return fx.New(modules...)
}
