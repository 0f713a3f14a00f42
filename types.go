package enet

import (
	"github.com/dep2p/go-enet/internal/core/metrics"
	"github.com/dep2p/go-enet/internal/core/packet"
	"github.com/dep2p/go-enet/pkg/types"
)

// ════════════════════════════════════════════════════════════════════════════
//                              事件
// ════════════════════════════════════════════════════════════════════════════

// EventType 事件类型
type EventType = types.EventType

const (
	EventNone       = types.EventNone
	EventConnect    = types.EventConnect
	EventDisconnect = types.EventDisconnect
	EventReceive    = types.EventReceive
)

// Event 一次服务调用产生的事件
type Event struct {
	// Type 事件类型，EventNone 表示超时内没有事件
	Type EventType

	// Peer 事件关联的对端
	Peer *Peer

	// Data 接收到的负载（仅接收事件）
	Data []byte

	// Channel 接收通道（仅接收事件）
	Channel uint8

	// Code 连接数据（接受方的连接事件）或断开数据（断开事件）
	Code uint32
}

// ════════════════════════════════════════════════════════════════════════════
//                              对端状态
// ════════════════════════════════════════════════════════════════════════════

// PeerState 对端连接状态
type PeerState = types.PeerState

const (
	PeerStateConnecting    = types.PeerStateConnecting
	PeerStateConnected     = types.PeerStateConnected
	PeerStateDisconnecting = types.PeerStateDisconnecting
	PeerStateDisconnected  = types.PeerStateDisconnected
)

// ════════════════════════════════════════════════════════════════════════════
//                              发送选项
// ════════════════════════════════════════════════════════════════════════════

// Delivery 投递模式
type Delivery = packet.Delivery

const (
	// Reliable 可靠、有序（默认）
	Reliable = packet.Reliable
	// Unreliable 不可靠、有序
	Unreliable = packet.Unreliable
	// Unsequenced 不可靠、无序
	Unsequenced = packet.Unsequenced
)

// ParseDelivery 解析 "reliable"、"unreliable"、"unsequenced"
func ParseDelivery(s string) (Delivery, error) {
	return packet.ParseDelivery(s)
}

// SendOptions 发送选项，零值为通道 0、可靠有序
type SendOptions = packet.Options

// ════════════════════════════════════════════════════════════════════════════
//                              主机参数
// ════════════════════════════════════════════════════════════════════════════

// HostConfig 主机创建参数
type HostConfig struct {
	// Address 绑定地址，形如 "*:5959"、"127.0.0.1:*"；
	// 为空时主机只能发起连接，不接受入站连接
	Address string

	// PeerCount 对端槽位数量，0 表示使用配置默认值（64）
	PeerCount int

	// ChannelCount 每个连接的最大通道数量，0 表示使用配置默认值（1）
	ChannelCount int

	// IncomingBandwidth 入站带宽上限（字节/秒），0 表示不限
	IncomingBandwidth uint32

	// OutgoingBandwidth 出站带宽上限（字节/秒），0 表示不限
	OutgoingBandwidth uint32
}

// ConnectConfig 连接参数
type ConnectConfig struct {
	// ChannelCount 请求的通道数量，0 表示 1；实际数量取双方的较小值
	ChannelCount int

	// Data 随连接请求发送的数据，出现在对方连接事件的 Code 中
	Data uint32
}

// ════════════════════════════════════════════════════════════════════════════
//                              统计
// ════════════════════════════════════════════════════════════════════════════

// BandwidthStats 累计字节数与最近 60 秒的平均速率
type BandwidthStats = metrics.Stats
