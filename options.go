package enet

import (
	"context"
	"errors"
	"net/netip"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/dep2p/go-enet/config"
	"github.com/dep2p/go-enet/pkg/interfaces/transport"
)

// Option Stack 配置选项
type Option func(*options) error

// options 内部选项结构
type options struct {
	config     *config.Config
	transport  transport.Transport
	resolver   Resolver
	registerer prometheus.Registerer

	// fx 自身的事件日志，默认丢弃
	fxLogger *zap.Logger

	// 用户自定义 Fx 选项
	userFxOptions []fx.Option
}

func defaultOptions() *options {
	return &options{
		config:   config.NewConfig(),
		fxLogger: zap.NewNop(),
	}
}

// Resolver 主机名解析器，*net.Resolver 满足该接口
type Resolver interface {
	LookupNetIP(ctx context.Context, network, host string) ([]netip.Addr, error)
}

// WithConfig 使用完整的统一配置
func WithConfig(cfg *config.Config) Option {
	return func(o *options) error {
		if cfg == nil {
			return errors.New("config is nil")
		}
		o.config = cfg
		return nil
	}
}

// WithConfigFile 从 JSON 或 YAML 文件加载配置
func WithConfigFile(path string) Option {
	return func(o *options) error {
		cfg, err := config.Load(path)
		if err != nil {
			return err
		}
		o.config = cfg
		return nil
	}
}

// WithTransport 替换底层传输（测试或自定义实现）
func WithTransport(t transport.Transport) Option {
	return func(o *options) error {
		o.transport = t
		return nil
	}
}

// WithResolver 替换主机名解析器
func WithResolver(r Resolver) Option {
	return func(o *options) error {
		o.resolver = r
		return nil
	}
}

// WithRegisterer 把指标注册到 reg
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) error {
		o.registerer = reg
		return nil
	}
}

// WithFxLogger 输出 fx 的依赖注入日志
func WithFxLogger(l *zap.Logger) Option {
	return func(o *options) error {
		if l != nil {
			o.fxLogger = l
		}
		return nil
	}
}

// WithFxOption 追加自定义 Fx 选项
func WithFxOption(opts ...fx.Option) Option {
	return func(o *options) error {
		o.userFxOptions = append(o.userFxOptions, opts...)
		return nil
	}
}
