package config

import "fmt"

// 传输层协议上限
const (
	// MaxPeerCount 单个主机可容纳的最大对端数量
	MaxPeerCount = 4095
	// MaxChannelCount 单个连接可协商的最大通道数量
	MaxChannelCount = 255
)

// HostConfig 主机配置
//
// PeerCount 与 ChannelCount 是创建主机时未显式指定参数的默认值。
type HostConfig struct {
	// PeerCount 默认对端槽位数量
	PeerCount int `json:"peer_count" yaml:"peer_count"`

	// ChannelCount 默认通道数量
	ChannelCount int `json:"channel_count" yaml:"channel_count"`

	// EventQueueSize 事件队列容量，队列满时接收方向产生背压
	EventQueueSize int `json:"event_queue_size" yaml:"event_queue_size"`
}

// DefaultHostConfig 返回默认主机配置
func DefaultHostConfig() HostConfig {
	return HostConfig{
		PeerCount:      64,
		ChannelCount:   1,
		EventQueueSize: 1024,
	}
}

// Validate 验证主机配置
func (c HostConfig) Validate() error {
	if c.PeerCount <= 0 || c.PeerCount > MaxPeerCount {
		return fmt.Errorf("host peer count must be in 1..%d, got %d", MaxPeerCount, c.PeerCount)
	}
	if c.ChannelCount <= 0 || c.ChannelCount > MaxChannelCount {
		return fmt.Errorf("host channel count must be in 1..%d, got %d", MaxChannelCount, c.ChannelCount)
	}
	if c.EventQueueSize <= 0 {
		return fmt.Errorf("host event queue size must be positive")
	}
	return nil
}
