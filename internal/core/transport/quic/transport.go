package quic

import (
	"crypto/tls"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/quic-go/quic-go"

	"github.com/dep2p/go-enet/config"
	"github.com/dep2p/go-enet/internal/core/metrics"
	"github.com/dep2p/go-enet/pkg/interfaces/transport"
)

// 确保实现了接口
var _ transport.Transport = (*Transport)(nil)

// Config 传输参数
type Config struct {
	HandshakeTimeout  time.Duration
	MaxIdleTimeout    time.Duration
	KeepAlivePeriod   time.Duration
	DisconnectTimeout time.Duration
	MaxPacketSize     int
	SendQueueSize     int
	EventQueueSize    int
	EnableDatagrams   bool
	Compression       bool
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return ConfigFromUnified(config.NewConfig())
}

// ConfigFromUnified 从统一配置创建传输配置
func ConfigFromUnified(cfg *config.Config) Config {
	if cfg == nil {
		cfg = config.NewConfig()
	}
	tc := cfg.Transport
	return Config{
		HandshakeTimeout:  tc.HandshakeTimeout.Duration(),
		MaxIdleTimeout:    tc.MaxIdleTimeout.Duration(),
		KeepAlivePeriod:   tc.KeepAlivePeriod.Duration(),
		DisconnectTimeout: tc.DisconnectTimeout.Duration(),
		MaxPacketSize:     tc.MaxPacketSize,
		SendQueueSize:     tc.SendQueueSize,
		EventQueueSize:    cfg.Host.EventQueueSize,
		EnableDatagrams:   tc.EnableDatagrams,
		Compression:       tc.Compression,
	}
}

// Option 传输选项
type Option func(*Transport)

// WithClock 替换时钟（测试使用 clock.NewMock）
func WithClock(clk clock.Clock) Option {
	return func(t *Transport) {
		t.clk = clk
	}
}

// WithReporter 设置指标上报
func WithReporter(r metrics.Reporter) Option {
	return func(t *Transport) {
		if r != nil {
			t.reporter = r
		}
	}
}

// Transport QUIC 传输
//
// 本身无状态，每个主机拥有独立的 UDP 套接字。
type Transport struct {
	cfg      Config
	clk      clock.Clock
	reporter metrics.Reporter

	serverTLS *tls.Config
	clientTLS *tls.Config
	quicConf  *quic.Config
}

// New 创建 QUIC 传输
func New(cfg Config, opts ...Option) (*Transport, error) {
	serverTLS, clientTLS, err := newTLSConfigs()
	if err != nil {
		return nil, err
	}

	t := &Transport{
		cfg:       cfg,
		clk:       clock.New(),
		reporter:  metrics.Discard,
		serverTLS: serverTLS,
		clientTLS: clientTLS,
		quicConf: &quic.Config{
			HandshakeIdleTimeout: cfg.HandshakeTimeout,
			MaxIdleTimeout:       cfg.MaxIdleTimeout,
			KeepAlivePeriod:      cfg.KeepAlivePeriod,
			// 每个通道一条单向流，外加控制流
			MaxIncomingUniStreams: config.MaxChannelCount + 1,
			MaxIncomingStreams:    -1,
			EnableDatagrams:       cfg.EnableDatagrams,
		},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// CreateHost 创建主机
func (t *Transport) CreateHost(cfg transport.HostConfig) (transport.Host, error) {
	if cfg.PeerCount <= 0 || cfg.PeerCount > config.MaxPeerCount {
		return nil, fmt.Errorf("%w: peer count %d", ErrInvalidHostConfig, cfg.PeerCount)
	}
	if cfg.ChannelCount <= 0 || cfg.ChannelCount > config.MaxChannelCount {
		return nil, fmt.Errorf("%w: channel count %d", ErrInvalidHostConfig, cfg.ChannelCount)
	}
	return newHost(t, cfg)
}
