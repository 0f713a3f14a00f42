// Package transport 定义可靠 UDP 传输层接口
//
// 传输层是一个黑盒：它负责重传、拥塞控制、分片、通道排序和握手，
// 对上只暴露主机、对端和轮询式的事件。
//
// 约定：
//   - Host.Service 是唯一会阻塞的调用，最多阻塞 timeout
//   - 每次 Service 最多返回一个事件，事件按到达顺序交付
//   - Host 与 Peer 不要求并发安全，由调用方串行使用
package transport

import (
	"context"
	"errors"
	"time"

	"github.com/dep2p/go-enet/pkg/types"
)

// ============================================================================
//                              错误定义
// ============================================================================

var (
	// ErrHostDestroyed 主机已销毁
	ErrHostDestroyed = errors.New("host destroyed")

	// ErrPeerLimit 没有空闲的对端槽位
	ErrPeerLimit = errors.New("no available peer slots")

	// ErrPeerNotConnected 对端不处于可发送状态
	ErrPeerNotConnected = errors.New("peer not connected")

	// ErrPacketTooLarge 数据包超过传输层上限
	ErrPacketTooLarge = errors.New("packet too large")
)

// ============================================================================
//                              Transport 接口
// ============================================================================

// HostConfig 主机创建参数
type HostConfig struct {
	// Address 绑定地址；nil 表示仅作客户端，不接受入站连接
	Address *types.Address

	// PeerCount 对端槽位数量
	PeerCount int

	// ChannelCount 每个连接的最大通道数量
	ChannelCount int

	// IncomingBandwidth 入站带宽上限（字节/秒），0 表示不限
	IncomingBandwidth uint32

	// OutgoingBandwidth 出站带宽上限（字节/秒），0 表示不限
	OutgoingBandwidth uint32
}

// Transport 主机工厂
type Transport interface {
	// CreateHost 创建主机并绑定套接字
	CreateHost(cfg HostConfig) (Host, error)
}

// ============================================================================
//                              Host 接口
// ============================================================================

// Host 管理一组对端连接的本地端点
type Host interface {
	// Service 等待并返回下一个事件
	//
	// 超时内没有事件时返回 Type 为 EventNone 的事件。
	// ctx 取消时提前返回 EventNone。
	Service(ctx context.Context, timeout time.Duration) (Event, error)

	// Connect 发起到 addr 的连接，立即返回处于 Connecting 状态的对端
	//
	// 连接结果通过后续的 connect 或 disconnect 事件报告。
	Connect(addr types.Address, channelCount int, data uint32) (Peer, error)

	// Broadcast 向所有已连接的对端排队发送同一个数据包
	Broadcast(p *types.Packet) error

	// Flush 立即把排队的数据包交给网络
	Flush()

	// Peers 返回占用槽位的对端
	Peers() []Peer

	// Address 返回实际绑定的地址
	Address() types.Address

	// Destroy 断开所有连接并释放套接字，可重复调用
	Destroy() error
}

// ============================================================================
//                              Peer 接口
// ============================================================================

// Peer 到远端主机的单个逻辑连接
type Peer interface {
	// Send 排队发送数据包，下次 Service 或 Flush 时交给网络
	Send(p *types.Packet) error

	// Receive 取出该通道上第一个尚未交付的数据包
	Receive(channel uint8) (*types.Packet, bool)

	// Disconnect 请求优雅断开，完成后产生 disconnect 事件
	Disconnect(data uint32)

	// Reset 立即断开，不通知远端，也不产生事件
	Reset()

	// Address 返回远端地址
	Address() types.Address

	// State 返回连接状态
	State() types.PeerState

	// ChannelCount 返回协商后的通道数量
	ChannelCount() int
}

// ============================================================================
//                              Event
// ============================================================================

// Event 服务循环产生的原生事件
type Event struct {
	// Type 事件类型
	Type types.EventType

	// Peer 事件关联的对端
	Peer Peer

	// Packet 接收事件的数据包
	Packet *types.Packet

	// Data 连接或断开时附带的数据
	Data uint32
}
