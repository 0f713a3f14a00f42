package quic

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/quic-go/quic-go"
	"go.uber.org/multierr"

	"github.com/dep2p/go-enet/config"
	"github.com/dep2p/go-enet/pkg/interfaces/transport"
	"github.com/dep2p/go-enet/pkg/lib/log"
	"github.com/dep2p/go-enet/pkg/types"
)

var logger = log.Logger("core/transport/quic")

// 确保实现了接口
var _ transport.Host = (*Host)(nil)

// Host QUIC 主机
//
// 所有连接共享一个 UDP 套接字；只有绑定了地址的主机才接受入站连接。
type Host struct {
	id  string
	t   *Transport
	cfg transport.HostConfig

	udp *net.UDPConn
	qt  *quic.Transport
	ln  *quic.Listener

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	events   *eventQueue
	inLimit  *limiter
	outLimit *limiter

	mu     sync.Mutex
	peers  map[*Peer]struct{}
	err    error
	closed bool
}

func newHost(t *Transport, cfg transport.HostConfig) (*Host, error) {
	network, laddr := "udp", &net.UDPAddr{}
	if cfg.Address != nil {
		laddr = cfg.Address.UDPAddr()
		if !cfg.Address.IsHostAny() {
			if cfg.Address.Host.Unmap().Is4() {
				network = "udp4"
			} else {
				network = "udp6"
			}
		}
	}

	udp, err := net.ListenUDP(network, laddr)
	if err != nil {
		return nil, fmt.Errorf("listen udp: %w", err)
	}
	qt := &quic.Transport{Conn: udp}

	var ln *quic.Listener
	if cfg.Address != nil {
		ln, err = qt.Listen(t.serverTLS, t.quicConf)
		if err != nil {
			return nil, multierr.Combine(fmt.Errorf("listen: %w", err), qt.Close(), udp.Close())
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	h := &Host{
		id:       uuid.NewString(),
		t:        t,
		cfg:      cfg,
		udp:      udp,
		qt:       qt,
		ln:       ln,
		ctx:      ctx,
		cancel:   cancel,
		events:   newEventQueue(t.cfg.EventQueueSize),
		inLimit:  newLimiter(cfg.IncomingBandwidth),
		outLimit: newLimiter(cfg.OutgoingBandwidth),
		peers:    make(map[*Peer]struct{}),
	}

	if ln != nil {
		h.wg.Add(1)
		go h.acceptLoop()
	}

	logger.Debug("主机已创建",
		"host", log.TruncateID(h.id, 8),
		"addr", h.Address().String(),
		"listening", ln != nil,
		"peers", cfg.PeerCount,
		"channels", cfg.ChannelCount)
	return h, nil
}

// acceptLoop 接受入站连接
func (h *Host) acceptLoop() {
	defer h.wg.Done()

	for {
		conn, err := h.ln.Accept(h.ctx)
		if err != nil {
			if h.ctx.Err() == nil {
				h.fail(fmt.Errorf("accept: %w", err))
			}
			return
		}

		p := newPeer(h, types.AddressFromNetAddr(conn.RemoteAddr()), false)
		if !h.add(p) {
			logger.Debug("对端槽位已满，拒绝连接", "host", log.TruncateID(h.id, 8), "remote", conn.RemoteAddr())
			_ = conn.CloseWithError(codeHostFull, "host full")
			continue
		}

		h.wg.Add(1)
		go p.serve(conn)
	}
}

// add 占用一个对端槽位
func (h *Host) add(p *Peer) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed || len(h.peers) >= h.cfg.PeerCount {
		return false
	}
	h.peers[p] = struct{}{}
	h.t.reporter.PeerAdded()
	return true
}

// remove 释放对端槽位，可重复调用
func (h *Host) remove(p *Peer) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.peers[p]; ok {
		delete(h.peers, p)
		h.t.reporter.PeerRemoved()
	}
}

func (h *Host) snapshot() []*Peer {
	h.mu.Lock()
	defer h.mu.Unlock()

	peers := make([]*Peer, 0, len(h.peers))
	for p := range h.peers {
		peers = append(peers, p)
	}
	return peers
}

// fail 记录致命错误，下一次 Service 返回它
func (h *Host) fail(err error) {
	h.mu.Lock()
	if h.err == nil {
		h.err = err
	}
	h.mu.Unlock()

	logger.Warn("主机服务失败", "host", log.TruncateID(h.id, 8), "err", err)
	signal(h.events.notify)
}

func (h *Host) check() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return transport.ErrHostDestroyed
	}
	return h.err
}

// ============================================================================
//                              transport.Host 实现
// ============================================================================

// Service 交出排队的数据包，然后等待下一个事件
func (h *Host) Service(ctx context.Context, timeout time.Duration) (transport.Event, error) {
	if err := h.check(); err != nil {
		return transport.Event{}, err
	}

	h.Flush()
	if ev, ok := h.events.pop(); ok {
		return ev, nil
	}
	if timeout <= 0 {
		return transport.Event{}, nil
	}

	timer := h.t.clk.Timer(timeout)
	defer timer.Stop()

	for {
		select {
		case <-h.events.notify:
			if ev, ok := h.events.pop(); ok {
				return ev, nil
			}
			if err := h.check(); err != nil {
				return transport.Event{}, err
			}
		case <-timer.C:
			ev, _ := h.events.pop()
			return ev, nil
		case <-ctx.Done():
			return transport.Event{}, nil
		case <-h.ctx.Done():
			return transport.Event{}, transport.ErrHostDestroyed
		}
	}
}

// Connect 发起连接
func (h *Host) Connect(addr types.Address, channelCount int, data uint32) (transport.Peer, error) {
	if err := h.check(); err != nil {
		return nil, err
	}
	if addr.IsHostAny() || addr.IsPortAny() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidAddress, addr)
	}

	p := newPeer(h, addr, true)
	p.requested = uint32(min(max(channelCount, 1), config.MaxChannelCount))
	p.connectData = data
	p.channels.Store(p.requested)
	if !h.add(p) {
		p.cancel()
		return nil, transport.ErrPeerLimit
	}

	h.wg.Add(1)
	go p.dial()
	return p, nil
}

// Broadcast 向所有已连接的对端发送
func (h *Host) Broadcast(pkt *types.Packet) error {
	if err := h.check(); err != nil {
		return err
	}
	for _, p := range h.snapshot() {
		if p.State() == types.PeerStateConnected {
			_ = p.Send(pkt)
		}
	}
	return nil
}

// Flush 把所有对端排队的数据包交给写 goroutine
func (h *Host) Flush() {
	for _, p := range h.snapshot() {
		p.flush()
	}
}

// Peers 返回占用槽位的对端
func (h *Host) Peers() []transport.Peer {
	peers := h.snapshot()
	out := make([]transport.Peer, len(peers))
	for i, p := range peers {
		out[i] = p
	}
	return out
}

// Address 返回实际绑定的地址
func (h *Host) Address() types.Address {
	return types.AddressFromNetAddr(h.udp.LocalAddr())
}

// Destroy 关闭所有连接并释放套接字
//
// 本端不再产生事件；远端收到断开事件。
func (h *Host) Destroy() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	h.mu.Unlock()

	for _, p := range h.snapshot() {
		p.abort(codeShutdown, "host destroyed")
	}

	h.cancel()
	var err error
	if h.ln != nil {
		err = multierr.Append(err, h.ln.Close())
	}
	err = multierr.Append(err, h.qt.Close())
	if cerr := h.udp.Close(); cerr != nil && !errors.Is(cerr, net.ErrClosed) {
		err = multierr.Append(err, cerr)
	}
	h.wg.Wait()

	logger.Debug("主机已销毁", "host", log.TruncateID(h.id, 8))
	return err
}
