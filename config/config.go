// Package config 提供 go-enet 的统一配置
//
// 主 Config 结构体按组件划分子配置，每个子配置在独立文件中定义，
// 支持从 JSON 或 YAML 加载。未出现在文件中的字段保留默认值。
//
// 使用示例：
//
//	cfg := config.NewConfig()
//	cfg.Host.PeerCount = 128
//
//	// 从文件加载（按扩展名选择 JSON/YAML）
//	cfg, err := config.Load("enet.yaml")
package config

// Config 是 go-enet 的完整配置结构
//
//   - Host: 主机默认参数（对端数量、通道数量、事件队列）
//   - Transport: QUIC 传输参数
//   - Resolver: 主机名解析与缓存
//   - Metrics: Prometheus 指标
type Config struct {
	// Host 主机配置
	Host HostConfig `json:"host" yaml:"host"`

	// Transport 传输层配置
	Transport TransportConfig `json:"transport" yaml:"transport"`

	// Resolver 地址解析配置
	Resolver ResolverConfig `json:"resolver" yaml:"resolver"`

	// Metrics 指标配置
	Metrics MetricsConfig `json:"metrics" yaml:"metrics"`
}

// NewConfig 创建默认配置
func NewConfig() *Config {
	return &Config{
		Host:      DefaultHostConfig(),
		Transport: DefaultTransportConfig(),
		Resolver:  DefaultResolverConfig(),
		Metrics:   DefaultMetricsConfig(),
	}
}

// Validate 验证配置的有效性
func (c *Config) Validate() error {
	if err := c.Host.Validate(); err != nil {
		return err
	}
	if err := c.Transport.Validate(); err != nil {
		return err
	}
	if err := c.Resolver.Validate(); err != nil {
		return err
	}
	return c.Metrics.Validate()
}
