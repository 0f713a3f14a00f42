package config

import "fmt"

// ValidateAndFix 验证配置并修复常见问题
//
// 可修复的问题：
//   - 越界的对端/通道数量 -> 截断到协议上限
//   - KeepAlive 不短于空闲超时 -> 取空闲超时的一半
//   - 非正的队列容量 -> 使用默认值
func ValidateAndFix(c *Config) (*Config, error) {
	if c == nil {
		return NewConfig(), nil
	}

	def := NewConfig()

	c.Host.PeerCount = clamp(c.Host.PeerCount, 1, MaxPeerCount)
	c.Host.ChannelCount = clamp(c.Host.ChannelCount, 1, MaxChannelCount)
	if c.Host.EventQueueSize <= 0 {
		c.Host.EventQueueSize = def.Host.EventQueueSize
	}
	if c.Transport.SendQueueSize <= 0 {
		c.Transport.SendQueueSize = def.Transport.SendQueueSize
	}
	if c.Transport.KeepAlivePeriod >= c.Transport.MaxIdleTimeout {
		c.Transport.KeepAlivePeriod = c.Transport.MaxIdleTimeout / 2
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed after fixes: %w", err)
	}
	return c, nil
}

func clamp(v, lo, hi int) int {
	return min(max(v, lo), hi)
}
