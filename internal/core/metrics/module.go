package metrics

import (
	"context"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"

	"github.com/dep2p/go-enet/config"
)

// Config 指标配置
type Config struct {
	// Enabled 是否注册到 Prometheus
	Enabled bool
	// Namespace 指标名前缀
	Namespace string
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		Enabled:   true,
		Namespace: "enet",
	}
}

// ConfigFromUnified 从统一配置创建指标配置
func ConfigFromUnified(cfg *config.Config) Config {
	if cfg == nil {
		return DefaultConfig()
	}
	return Config{
		Enabled:   cfg.Metrics.Enabled,
		Namespace: cfg.Metrics.Namespace,
	}
}

// Params Metrics 依赖参数
type Params struct {
	fx.In

	UnifiedCfg *config.Config        `optional:"true"`
	Registerer prometheus.Registerer `optional:"true"`
	Clock      clock.Clock           `optional:"true"`
	LC         fx.Lifecycle
}

// Result Metrics 输出
type Result struct {
	fx.Out

	Metrics  *Metrics
	Reporter Reporter
}

// NewFromParams 从参数创建指标集合
//
// 禁用时仍返回可用的 *Metrics，只是不注册到 Prometheus。
func NewFromParams(p Params) Result {
	cfg := ConfigFromUnified(p.UnifiedCfg)
	clk := p.Clock
	if clk == nil {
		clk = clock.New()
	}

	m := New(cfg.Namespace, clk)
	reg := p.Registerer
	if cfg.Enabled && reg != nil {
		p.LC.Append(fx.Hook{
			OnStart: func(context.Context) error { return m.Register(reg) },
			OnStop: func(context.Context) error {
				m.Unregister(reg)
				return nil
			},
		})
	}
	return Result{Metrics: m, Reporter: m}
}

// Module 是 metrics 的 Fx 模块
var Module = fx.Module("metrics",
	fx.Provide(NewFromParams),
)
