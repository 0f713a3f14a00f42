package metrics

import (
	"sync"
	"sync/atomic"

	"github.com/benbjohnson/clock"
)

// channelCounter 单个通道的收发统计
type channelCounter struct {
	in, out         atomic.Int64
	inRate, outRate *RateMeter
}

// BandwidthCounter 带宽计数器
//
// 跟踪本地主机在每个通道上发送和接收的负载字节数。
type BandwidthCounter struct {
	clk clock.Clock

	totalIn      atomic.Int64
	totalOut     atomic.Int64
	totalInRate  *RateMeter
	totalOutRate *RateMeter

	mu       sync.RWMutex
	channels map[uint8]*channelCounter
}

// NewBandwidthCounter 创建新的 BandwidthCounter
func NewBandwidthCounter(clk clock.Clock) *BandwidthCounter {
	if clk == nil {
		clk = clock.New()
	}
	return &BandwidthCounter{
		clk:          clk,
		totalInRate:  NewRateMeter(clk),
		totalOutRate: NewRateMeter(clk),
		channels:     make(map[uint8]*channelCounter),
	}
}

func (bwc *BandwidthCounter) channel(ch uint8) *channelCounter {
	bwc.mu.RLock()
	c := bwc.channels[ch]
	bwc.mu.RUnlock()
	if c != nil {
		return c
	}

	bwc.mu.Lock()
	defer bwc.mu.Unlock()
	if c = bwc.channels[ch]; c == nil {
		c = &channelCounter{inRate: NewRateMeter(bwc.clk), outRate: NewRateMeter(bwc.clk)}
		bwc.channels[ch] = c
	}
	return c
}

// LogSent 记录某通道发送的字节数
func (bwc *BandwidthCounter) LogSent(ch uint8, size int64) {
	bwc.totalOut.Add(size)
	bwc.totalOutRate.Add(size)

	c := bwc.channel(ch)
	c.out.Add(size)
	c.outRate.Add(size)
}

// LogRecv 记录某通道接收的字节数
func (bwc *BandwidthCounter) LogRecv(ch uint8, size int64) {
	bwc.totalIn.Add(size)
	bwc.totalInRate.Add(size)

	c := bwc.channel(ch)
	c.in.Add(size)
	c.inRate.Add(size)
}

// GetBandwidthTotals 返回总带宽统计
func (bwc *BandwidthCounter) GetBandwidthTotals() Stats {
	return Stats{
		TotalIn:  bwc.totalIn.Load(),
		TotalOut: bwc.totalOut.Load(),
		RateIn:   bwc.totalInRate.Rate(),
		RateOut:  bwc.totalOutRate.Rate(),
	}
}

// GetBandwidthForChannel 返回单个通道的带宽统计
func (bwc *BandwidthCounter) GetBandwidthForChannel(ch uint8) Stats {
	bwc.mu.RLock()
	c := bwc.channels[ch]
	bwc.mu.RUnlock()
	if c == nil {
		return Stats{}
	}
	return Stats{
		TotalIn:  c.in.Load(),
		TotalOut: c.out.Load(),
		RateIn:   c.inRate.Rate(),
		RateOut:  c.outRate.Rate(),
	}
}

// GetBandwidthByChannel 返回所有通道的累计统计（不含速率）
func (bwc *BandwidthCounter) GetBandwidthByChannel() map[uint8]Stats {
	bwc.mu.RLock()
	defer bwc.mu.RUnlock()

	result := make(map[uint8]Stats, len(bwc.channels))
	for ch, c := range bwc.channels {
		result[ch] = Stats{TotalIn: c.in.Load(), TotalOut: c.out.Load()}
	}
	return result
}

// Reset 清除所有统计
func (bwc *BandwidthCounter) Reset() {
	bwc.totalIn.Store(0)
	bwc.totalOut.Store(0)
	bwc.totalInRate.Reset()
	bwc.totalOutRate.Reset()

	bwc.mu.Lock()
	bwc.channels = make(map[uint8]*channelCounter)
	bwc.mu.Unlock()
}
