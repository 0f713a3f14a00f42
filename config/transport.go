package config

import (
	"errors"
	"time"
)

// TransportConfig 传输层配置
//
// 传输层基于 QUIC：可靠通道映射为单向流，不可靠包映射为 QUIC datagram。
type TransportConfig struct {
	// HandshakeTimeout 连接握手超时
	HandshakeTimeout Duration `json:"handshake_timeout" yaml:"handshake_timeout"`

	// MaxIdleTimeout 最大空闲超时，超时后产生断开事件
	MaxIdleTimeout Duration `json:"max_idle_timeout" yaml:"max_idle_timeout"`

	// KeepAlivePeriod KeepAlive 周期，0 表示禁用
	KeepAlivePeriod Duration `json:"keep_alive_period" yaml:"keep_alive_period"`

	// DisconnectTimeout 优雅断开等待对端确认的最长时间
	DisconnectTimeout Duration `json:"disconnect_timeout" yaml:"disconnect_timeout"`

	// MaxPacketSize 单个数据包的最大字节数
	MaxPacketSize int `json:"max_packet_size" yaml:"max_packet_size"`

	// SendQueueSize 每个对端的待发送队列容量
	SendQueueSize int `json:"send_queue_size" yaml:"send_queue_size"`

	// EnableDatagrams 不可靠包是否走 QUIC datagram
	// 禁用时不可靠包退化为流上传输
	EnableDatagrams bool `json:"enable_datagrams" yaml:"enable_datagrams"`

	// Compression 是否对流上的负载启用 s2 压缩
	Compression bool `json:"compression" yaml:"compression"`
}

// DefaultTransportConfig 返回默认传输配置
func DefaultTransportConfig() TransportConfig {
	return TransportConfig{
		HandshakeTimeout:  Duration(5 * time.Second),  // 握手超时：5 秒
		MaxIdleTimeout:    Duration(30 * time.Second), // 空闲超时：30 秒
		KeepAlivePeriod:   Duration(10 * time.Second), // KeepAlive 间隔：10 秒
		DisconnectTimeout: Duration(3 * time.Second),  // 优雅断开：3 秒
		MaxPacketSize:     32 << 20,                   // 32 MB
		SendQueueSize:     256,
		EnableDatagrams:   true,
		Compression:       false,
	}
}

// Validate 验证传输配置
func (c TransportConfig) Validate() error {
	if c.HandshakeTimeout <= 0 {
		return errors.New("transport handshake timeout must be positive")
	}
	if c.MaxIdleTimeout <= 0 {
		return errors.New("transport max idle timeout must be positive")
	}
	if c.KeepAlivePeriod < 0 {
		return errors.New("transport keep alive period must not be negative")
	}
	if c.KeepAlivePeriod > 0 && c.KeepAlivePeriod >= c.MaxIdleTimeout {
		return errors.New("transport keep alive period must be shorter than max idle timeout")
	}
	if c.DisconnectTimeout <= 0 {
		return errors.New("transport disconnect timeout must be positive")
	}
	if c.MaxPacketSize <= 0 {
		return errors.New("transport max packet size must be positive")
	}
	if c.SendQueueSize <= 0 {
		return errors.New("transport send queue size must be positive")
	}
	return nil
}
