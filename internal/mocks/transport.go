package mocks

import (
	"context"
	"net/netip"
	"sync"
	"time"

	"github.com/dep2p/go-enet/pkg/interfaces/transport"
	"github.com/dep2p/go-enet/pkg/types"
)

// ============================================================================
//                              MockTransport
// ============================================================================

// MockTransport 模拟 transport.Transport
type MockTransport struct {
	CreateHostFunc func(cfg transport.HostConfig) (transport.Host, error)

	// 调用记录
	mu    sync.Mutex
	Hosts []*MockHost
	Calls []transport.HostConfig
}

// HostAt 返回第 i 个创建的 MockHost
func (m *MockTransport) HostAt(i int) *MockHost {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Hosts[i]
}

// CreateHost 创建 MockHost
func (m *MockTransport) CreateHost(cfg transport.HostConfig) (transport.Host, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, cfg)
	m.mu.Unlock()

	if m.CreateHostFunc != nil {
		return m.CreateHostFunc(cfg)
	}

	h := NewMockHost()
	if cfg.Address != nil {
		h.AddressValue = *cfg.Address
	}
	m.mu.Lock()
	m.Hosts = append(m.Hosts, h)
	m.mu.Unlock()
	return h, nil
}

// ============================================================================
//                              MockHost
// ============================================================================

// MockHost 模拟 transport.Host
type MockHost struct {
	mu sync.Mutex

	// Events Service 依次返回的事件
	Events       []transport.Event
	PeerList     []transport.Peer
	AddressValue types.Address
	Destroyed    bool

	// 可覆盖的方法
	ServiceFunc   func(ctx context.Context, timeout time.Duration) (transport.Event, error)
	ConnectFunc   func(addr types.Address, channelCount int, data uint32) (transport.Peer, error)
	BroadcastFunc func(p *types.Packet) error
	DestroyFunc   func() error

	// 调用记录
	ServiceCalls int
	FlushCalls   int
	Broadcasts   []*types.Packet
	ConnectCalls []ConnectCall
}

// ConnectCall Connect 调用记录
type ConnectCall struct {
	Addr         types.Address
	ChannelCount int
	Data         uint32
}

// NewMockHost 创建 MockHost
func NewMockHost() *MockHost {
	return &MockHost{}
}

// Push 追加一个待返回的事件
func (m *MockHost) Push(ev transport.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, ev)
}

// Service 返回队列中的下一个事件
func (m *MockHost) Service(ctx context.Context, timeout time.Duration) (transport.Event, error) {
	m.mu.Lock()
	m.ServiceCalls++
	destroyed := m.Destroyed
	m.mu.Unlock()

	if m.ServiceFunc != nil {
		return m.ServiceFunc(ctx, timeout)
	}
	if destroyed {
		return transport.Event{}, transport.ErrHostDestroyed
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Events) == 0 {
		return transport.Event{}, nil
	}
	ev := m.Events[0]
	m.Events = m.Events[1:]
	return ev, nil
}

// Connect 返回一个新的 MockPeer
func (m *MockHost) Connect(addr types.Address, channelCount int, data uint32) (transport.Peer, error) {
	m.mu.Lock()
	m.ConnectCalls = append(m.ConnectCalls, ConnectCall{Addr: addr, ChannelCount: channelCount, Data: data})
	destroyed := m.Destroyed
	m.mu.Unlock()

	if m.ConnectFunc != nil {
		return m.ConnectFunc(addr, channelCount, data)
	}
	if destroyed {
		return nil, transport.ErrHostDestroyed
	}

	p := &MockPeer{AddressValue: addr, StateValue: types.PeerStateConnecting, Channels: channelCount}
	m.mu.Lock()
	m.PeerList = append(m.PeerList, p)
	m.mu.Unlock()
	return p, nil
}

// Broadcast 记录广播的数据包
func (m *MockHost) Broadcast(p *types.Packet) error {
	if m.BroadcastFunc != nil {
		return m.BroadcastFunc(p)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Destroyed {
		return transport.ErrHostDestroyed
	}
	m.Broadcasts = append(m.Broadcasts, p)
	return nil
}

// Flush 记录调用次数
func (m *MockHost) Flush() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FlushCalls++
}

// Peers 返回 PeerList
func (m *MockHost) Peers() []transport.Peer {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]transport.Peer(nil), m.PeerList...)
}

// Address 返回 AddressValue
func (m *MockHost) Address() types.Address {
	return m.AddressValue
}

// IsDestroyed 是否已调用 Destroy
func (m *MockHost) IsDestroyed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Destroyed
}

// Destroy 标记为已销毁
func (m *MockHost) Destroy() error {
	m.mu.Lock()
	m.Destroyed = true
	m.mu.Unlock()

	if m.DestroyFunc != nil {
		return m.DestroyFunc()
	}
	return nil
}

// ============================================================================
//                              MockPeer
// ============================================================================

// MockPeer 模拟 transport.Peer
type MockPeer struct {
	mu sync.Mutex

	AddressValue types.Address
	StateValue   types.PeerState
	Channels     int

	// Inbox Receive 依次返回的数据包
	Inbox []*types.Packet

	// 可覆盖的方法
	SendFunc func(p *types.Packet) error

	// 调用记录
	Sent            []*types.Packet
	DisconnectCalls []uint32
	ResetCalls      int
}

// NewMockPeer 创建已连接的 MockPeer，addr 形如 "127.0.0.1:5959"
func NewMockPeer(addr string) *MockPeer {
	ap := netip.MustParseAddrPort(addr)
	return &MockPeer{
		AddressValue: types.Address{Host: ap.Addr(), Port: ap.Port()},
		StateValue:   types.PeerStateConnected,
		Channels:     1,
	}
}

// Send 记录发送的数据包
func (m *MockPeer) Send(p *types.Packet) error {
	if m.SendFunc != nil {
		return m.SendFunc(p)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.StateValue != types.PeerStateConnected {
		return transport.ErrPeerNotConnected
	}
	m.Sent = append(m.Sent, p)
	return nil
}

// Receive 取出 Inbox 中第一个指定通道的数据包
func (m *MockPeer) Receive(channel uint8) (*types.Packet, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, p := range m.Inbox {
		if p.Channel() == channel {
			m.Inbox = append(m.Inbox[:i], m.Inbox[i+1:]...)
			return p, true
		}
	}
	return nil, false
}

// Disconnect 记录断开数据
func (m *MockPeer) Disconnect(data uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DisconnectCalls = append(m.DisconnectCalls, data)
	m.StateValue = types.PeerStateDisconnecting
}

// Reset 记录调用并置为已断开
func (m *MockPeer) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ResetCalls++
	m.StateValue = types.PeerStateDisconnected
}

// Address 返回 AddressValue
func (m *MockPeer) Address() types.Address {
	return m.AddressValue
}

// State 返回 StateValue
func (m *MockPeer) State() types.PeerState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.StateValue
}

// ChannelCount 返回 Channels
func (m *MockPeer) ChannelCount() int {
	return m.Channels
}

var (
	_ transport.Transport = (*MockTransport)(nil)
	_ transport.Host      = (*MockHost)(nil)
	_ transport.Peer      = (*MockPeer)(nil)
)
