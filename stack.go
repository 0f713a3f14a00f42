package enet

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/fx"
	"go.uber.org/multierr"

	"github.com/dep2p/go-enet/config"
	"github.com/dep2p/go-enet/internal/core/address"
	"github.com/dep2p/go-enet/internal/core/metrics"
	"github.com/dep2p/go-enet/internal/core/packet"
	"github.com/dep2p/go-enet/internal/core/registry"
	"github.com/dep2p/go-enet/pkg/interfaces/transport"
	"github.com/dep2p/go-enet/pkg/lib/log"
	"github.com/dep2p/go-enet/pkg/types"
)

var logger = log.Logger("enet")

// stopTimeout Stack 关闭时等待 Fx 停止的上限
const stopTimeout = 10 * time.Second

// Stack 组装好的传输、地址解析与指标
//
// 一个进程通常只需要一个 Stack；主机由 Stack 创建，
// 彼此独立，各自拥有一个 UDP 套接字。
type Stack struct {
	cfg     *config.Config
	app     *fx.App
	packets *packet.Codec

	// 由 Fx 注入
	transport transport.Transport
	codec     *address.Codec
	reporter  metrics.Reporter
	metrics   *metrics.Metrics

	hosts *registry.Registry[transport.Host, Host]

	mu     sync.Mutex
	closed bool
}

// NewStack 创建并启动 Stack
func NewStack(ctx context.Context, opts ...Option) (*Stack, error) {
	o := defaultOptions()
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, fmt.Errorf("apply option: %w", err)
		}
	}
	if err := o.config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	s := &Stack{
		cfg:     o.config,
		packets: packet.NewCodec(o.config.Transport.MaxPacketSize),
		hosts:   registry.New[transport.Host, Host](),
	}

	app := buildFxApp(o, s)
	if err := app.Err(); err != nil {
		return nil, fmt.Errorf("build stack: %w", err)
	}
	if err := app.Start(ctx); err != nil {
		return nil, fmt.Errorf("start stack: %w", err)
	}
	s.app = app

	logger.Debug("Stack 已启动",
		"peerCount", s.cfg.Host.PeerCount,
		"channelCount", s.cfg.Host.ChannelCount,
		"datagrams", s.cfg.Transport.EnableDatagrams)
	return s, nil
}

// Config 返回生效的配置
func (s *Stack) Config() *config.Config {
	return s.cfg
}

// Bandwidth 返回所有主机的带宽统计
func (s *Stack) Bandwidth() BandwidthStats {
	return s.metrics.Bandwidth().GetBandwidthTotals()
}

// ChannelBandwidth 返回单个通道的带宽统计
func (s *Stack) ChannelBandwidth(ch uint8) BandwidthStats {
	return s.metrics.Bandwidth().GetBandwidthForChannel(ch)
}

// ParseAddress 解析 "host:port"，主机名经过缓存的 DNS 解析
func (s *Stack) ParseAddress(ctx context.Context, addr string) (types.Address, error) {
	return s.codec.Parse(ctx, addr)
}

// CreateHost 创建主机
//
// PeerCount 与 ChannelCount 为 0 时取配置默认值；
// 地址错误原样返回，传输层失败包装为 ErrHostCreationFailure。
func (s *Stack) CreateHost(ctx context.Context, cfg HostConfig) (*Host, error) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return nil, ErrStackClosed
	}

	if cfg.PeerCount == 0 {
		cfg.PeerCount = s.cfg.Host.PeerCount
	}
	if cfg.ChannelCount == 0 {
		cfg.ChannelCount = s.cfg.Host.ChannelCount
	}

	var bind *types.Address
	if cfg.Address != "" {
		addr, err := s.codec.Parse(ctx, cfg.Address)
		if err != nil {
			return nil, err
		}
		bind = &addr
	}

	native, err := s.transport.CreateHost(transport.HostConfig{
		Address:           bind,
		PeerCount:         cfg.PeerCount,
		ChannelCount:      cfg.ChannelCount,
		IncomingBandwidth: cfg.IncomingBandwidth,
		OutgoingBandwidth: cfg.OutgoingBandwidth,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrHostCreationFailure, err)
	}

	h := newHost(s, native)
	s.hosts.Resolve(native, func() *Host { return h })

	logger.Debug("主机已创建", "addr", address.Format(native.Address()), "peers", cfg.PeerCount, "channels", cfg.ChannelCount)
	return h, nil
}

// Close 销毁所有存活的主机并停止 Stack，可重复调用
func (s *Stack) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	var err error
	for _, h := range s.hosts.Values() {
		err = multierr.Append(err, h.Close())
	}

	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()
	err = multierr.Append(err, s.app.Stop(ctx))

	logger.Debug("Stack 已关闭")
	return err
}
