package metrics

import (
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
)

// ============================================================================
// 基础功能测试
// ============================================================================

// TestBandwidthCounter_Totals 测试总量统计
func TestBandwidthCounter_Totals(t *testing.T) {
	bwc := NewBandwidthCounter(clock.NewMock())

	bwc.LogSent(0, 1024)
	bwc.LogSent(1, 2048)
	bwc.LogRecv(0, 512)

	stats := bwc.GetBandwidthTotals()
	assert.Equal(t, int64(3072), stats.TotalOut)
	assert.Equal(t, int64(512), stats.TotalIn)
}

// TestBandwidthCounter_PerChannel 测试按通道统计
func TestBandwidthCounter_PerChannel(t *testing.T) {
	bwc := NewBandwidthCounter(clock.NewMock())

	bwc.LogSent(3, 100)
	bwc.LogRecv(3, 40)
	bwc.LogSent(7, 1)

	assert.Equal(t, Stats{TotalIn: 40, TotalOut: 100, RateIn: 40.0 / 60, RateOut: 100.0 / 60},
		bwc.GetBandwidthForChannel(3))
	assert.Equal(t, Stats{}, bwc.GetBandwidthForChannel(9), "未使用的通道")

	all := bwc.GetBandwidthByChannel()
	assert.Len(t, all, 2)
	assert.Equal(t, int64(1), all[7].TotalOut)
}

// TestBandwidthCounter_Reset 测试重置
func TestBandwidthCounter_Reset(t *testing.T) {
	bwc := NewBandwidthCounter(clock.NewMock())
	bwc.LogSent(0, 10)
	bwc.Reset()

	assert.Equal(t, Stats{}, bwc.GetBandwidthTotals())
	assert.Empty(t, bwc.GetBandwidthByChannel())
}

// TestBandwidthCounter_Concurrent 测试并发上报
func TestBandwidthCounter_Concurrent(t *testing.T) {
	bwc := NewBandwidthCounter(nil)

	var wg sync.WaitGroup
	for g := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 1000 {
				bwc.LogSent(uint8(g%2), 1)
				bwc.LogRecv(uint8(g%2), 2)
			}
		}()
	}
	wg.Wait()

	stats := bwc.GetBandwidthTotals()
	assert.Equal(t, int64(8000), stats.TotalOut)
	assert.Equal(t, int64(16000), stats.TotalIn)
}

// ============================================================================
// RateMeter
// ============================================================================

func TestRateMeter_Window(t *testing.T) {
	clk := clock.NewMock()
	r := NewRateMeter(clk)

	r.Add(600)
	assert.InDelta(t, 10.0, r.Rate(), 1e-9)

	clk.Add(30 * time.Second)
	r.Add(600)
	assert.InDelta(t, 20.0, r.Rate(), 1e-9)

	clk.Add(31 * time.Second)
	assert.InDelta(t, 10.0, r.Rate(), 1e-9, "第一个桶滑出窗口")

	clk.Add(2 * time.Minute)
	assert.Zero(t, r.Rate())
}

func TestRateMeter_Reset(t *testing.T) {
	r := NewRateMeter(clock.NewMock())
	r.Add(60)
	r.Reset()
	assert.Zero(t, r.Rate())
}
