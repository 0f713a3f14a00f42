// Package metrics 提供主机运行指标
//
// 两层统计：
//   - BandwidthCounter: 按通道累计收发字节并计算最近 60 秒的速率
//   - Metrics: Prometheus 指标（事件、数据包、对端数量、服务错误），
//     同时把 BandwidthCounter 作为 Collector 导出
//
// # 快速开始
//
//	m := metrics.New("enet", clock.New())
//	if err := m.Register(prometheus.DefaultRegisterer); err != nil {
//	    return err
//	}
//
//	m.LogSentPacket(0, 1024)
//	m.LogEvent(types.EventConnect)
//
//	stats := m.Bandwidth().GetBandwidthTotals()
//	fmt.Printf("In: %d, Out: %d\n", stats.TotalIn, stats.TotalOut)
//
// 所有方法都是并发安全的；传输层的读写 goroutine 与服务循环同时上报。
package metrics
