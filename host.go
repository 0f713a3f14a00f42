package enet

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/dep2p/go-enet/config"
	"github.com/dep2p/go-enet/internal/core/address"
	"github.com/dep2p/go-enet/internal/core/event"
	"github.com/dep2p/go-enet/pkg/interfaces/transport"
)

// Host 本地端点，管理一组对端连接
type Host struct {
	stack      *Stack
	native     transport.Host
	translator *event.Translator[*Peer]

	mu      sync.Mutex
	closed  bool
	cleanup runtime.Cleanup
}

func newHost(s *Stack, native transport.Host) *Host {
	h := &Host{stack: s, native: native}
	h.translator = event.New(h.resolve, evictPeer, s.reporter)
	h.cleanup = runtime.AddCleanup(h, destroyNative, native)
	return h
}

// destroyNative 主机被回收时释放原生主机
func destroyNative(native transport.Host) {
	for _, p := range native.Peers() {
		evictPeer(p)
	}
	if err := native.Destroy(); err != nil {
		logger.Debug("回收主机失败", "err", err)
	}
}

// resolve 返回原生对端的包装对象
func (h *Host) resolve(native transport.Peer) *Peer {
	return peers.Resolve(native, func() *Peer {
		return &Peer{host: h, native: native}
	})
}

func (h *Host) check() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrHostDestroyed
	}
	return nil
}

// Service 服务主机一次，等待最多 timeout
//
// 超时内没有事件时返回 Type 为 EventNone 的事件；timeout 为 0 时只轮询。
func (h *Host) Service(timeout time.Duration) (Event, error) {
	return h.ServiceContext(context.Background(), timeout)
}

// ServiceContext 与 Service 相同，ctx 取消时提前返回 EventNone
func (h *Host) ServiceContext(ctx context.Context, timeout time.Duration) (Event, error) {
	if err := h.check(); err != nil {
		return Event{}, err
	}

	ev, err := h.translator.Service(ctx, h.native, max(timeout, 0))
	if err != nil {
		return Event{}, err
	}
	return Event{
		Type:    ev.Type,
		Peer:    ev.Peer,
		Data:    ev.Data,
		Channel: ev.Channel,
		Code:    ev.Code,
	}, nil
}

// Connect 发起连接，立即返回处于 Connecting 状态的对端
//
// 连接结果由之后的连接事件或断开事件报告。
func (h *Host) Connect(ctx context.Context, addr string, cfg ConnectConfig) (*Peer, error) {
	if err := h.check(); err != nil {
		return nil, err
	}

	remote, err := h.stack.codec.Parse(ctx, addr)
	if err != nil {
		return nil, err
	}

	channels := cfg.ChannelCount
	if channels == 0 {
		channels = 1
	}
	if channels < 0 || channels > config.MaxChannelCount {
		return nil, fmt.Errorf("%w: channel count %d", ErrPeerAllocationFailure, channels)
	}

	native, err := h.native.Connect(remote, channels, cfg.Data)
	if err != nil {
		if errors.Is(err, ErrHostDestroyed) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrPeerAllocationFailure, err)
	}
	return h.resolve(native), nil
}

// Broadcast 向所有已连接的对端排队发送同一份数据
func (h *Host) Broadcast(data []byte, opts SendOptions) error {
	if err := h.check(); err != nil {
		return err
	}

	pkt, err := h.stack.packets.Encode(data, opts)
	if err != nil {
		return err
	}
	return h.native.Broadcast(pkt)
}

// Flush 立即发出所有排队的数据包，不等待下一次 Service
func (h *Host) Flush() error {
	if err := h.check(); err != nil {
		return err
	}
	h.native.Flush()
	return nil
}

// Peers 返回占用槽位的对端
func (h *Host) Peers() []*Peer {
	if h.check() != nil {
		return nil
	}

	natives := h.native.Peers()
	out := make([]*Peer, len(natives))
	for i, p := range natives {
		out[i] = h.resolve(p)
	}
	return out
}

// Address 返回实际绑定的地址，端口 "*" 时可以借此得到系统分配的端口
func (h *Host) Address() (string, error) {
	if err := h.check(); err != nil {
		return "", err
	}
	return address.Format(h.native.Address()), nil
}

// String 返回绑定地址
func (h *Host) String() string {
	addr, err := h.Address()
	if err != nil {
		return "destroyed"
	}
	return addr
}

// Close 销毁主机，可重复调用
//
// 所有连接立即断开，远端收到断开事件；本端不再产生事件。
func (h *Host) Close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	h.mu.Unlock()

	h.cleanup.Stop()
	natives := h.native.Peers()
	err := h.native.Destroy()
	for _, p := range natives {
		evictPeer(p)
	}
	h.stack.hosts.Evict(h.native)

	if err != nil {
		return fmt.Errorf("destroy host: %w", err)
	}
	return nil
}
