package metrics

import (
	"strconv"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"

	"github.com/dep2p/go-enet/pkg/types"
)

// Reporter 传输层与事件翻译器使用的指标上报接口
type Reporter interface {
	// LogSentPacket 记录发送的数据包
	LogSentPacket(channel uint8, size int)
	// LogRecvPacket 记录接收的数据包
	LogRecvPacket(channel uint8, size int)
	// LogDroppedPacket 记录被丢弃的数据包
	LogDroppedPacket(reason string)
	// LogEvent 记录交付给调用方的事件
	LogEvent(t types.EventType)
	// LogServiceError 记录服务循环失败
	LogServiceError()
	// PeerAdded 对端槽位被占用
	PeerAdded()
	// PeerRemoved 对端槽位被释放
	PeerRemoved()
}

// Discard 丢弃所有上报
var Discard Reporter = nopReporter{}

type nopReporter struct{}

func (nopReporter) LogSentPacket(uint8, int) {}
func (nopReporter) LogRecvPacket(uint8, int) {}
func (nopReporter) LogDroppedPacket(string) {}
func (nopReporter) LogEvent(types.EventType) {}
func (nopReporter) LogServiceError() {}
func (nopReporter) PeerAdded() {}
func (nopReporter) PeerRemoved() {}

// ============================================================================
//                              Metrics
// ============================================================================

// Metrics Prometheus 指标
type Metrics struct {
	bandwidth *BandwidthCounter

	events        *prometheus.CounterVec
	packetsSent   *prometheus.CounterVec
	packetsRecv   *prometheus.CounterVec
	dropped       *prometheus.CounterVec
	serviceErrors prometheus.Counter
	peers         prometheus.Gauge

	bytesDesc *prometheus.Desc
}

var _ Reporter = (*Metrics)(nil)

// New 创建指标集合，namespace 为指标名前缀
func New(namespace string, clk clock.Clock) *Metrics {
	return &Metrics{
		bandwidth: NewBandwidthCounter(clk),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Events returned by host service, by type.",
		}, []string{"type"}),
		packetsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "packets_sent_total",
			Help:      "Packets handed to the transport, by channel.",
		}, []string{"channel"}),
		packetsRecv: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "packets_received_total",
			Help:      "Packets received from the transport, by channel.",
		}, []string{"channel"}),
		dropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "packets_dropped_total",
			Help:      "Packets dropped before delivery, by reason.",
		}, []string{"reason"}),
		serviceErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "service_errors_total",
			Help:      "Host service calls that failed.",
		}),
		peers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "peers",
			Help:      "Peer slots currently in use.",
		}),
		bytesDesc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "bytes_total"),
			"Payload bytes transferred, by direction.",
			[]string{"direction"}, nil,
		),
	}
}

// Register 把所有指标注册到 reg
func (m *Metrics) Register(reg prometheus.Registerer) error {
	var err error
	for _, c := range m.collectors() {
		err = multierr.Append(err, reg.Register(c))
	}
	return err
}

// Unregister 从 reg 注销所有指标
func (m *Metrics) Unregister(reg prometheus.Registerer) {
	for _, c := range m.collectors() {
		reg.Unregister(c)
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.events, m.packetsSent, m.packetsRecv, m.dropped,
		m.serviceErrors, m.peers, bandwidthCollector{m},
	}
}

// Bandwidth 返回带宽计数器
func (m *Metrics) Bandwidth() *BandwidthCounter {
	return m.bandwidth
}

// LogSentPacket 实现 Reporter
func (m *Metrics) LogSentPacket(channel uint8, size int) {
	m.packetsSent.WithLabelValues(strconv.Itoa(int(channel))).Inc()
	m.bandwidth.LogSent(channel, int64(size))
}

// LogRecvPacket 实现 Reporter
func (m *Metrics) LogRecvPacket(channel uint8, size int) {
	m.packetsRecv.WithLabelValues(strconv.Itoa(int(channel))).Inc()
	m.bandwidth.LogRecv(channel, int64(size))
}

// LogDroppedPacket 实现 Reporter
func (m *Metrics) LogDroppedPacket(reason string) {
	m.dropped.WithLabelValues(reason).Inc()
}

// LogEvent 实现 Reporter
func (m *Metrics) LogEvent(t types.EventType) {
	m.events.WithLabelValues(t.String()).Inc()
}

// LogServiceError 实现 Reporter
func (m *Metrics) LogServiceError() {
	m.serviceErrors.Inc()
}

// PeerAdded 实现 Reporter
func (m *Metrics) PeerAdded() {
	m.peers.Inc()
}

// PeerRemoved 实现 Reporter
func (m *Metrics) PeerRemoved() {
	m.peers.Dec()
}

// bandwidthCollector 把 BandwidthCounter 的累计值导出为 counter
type bandwidthCollector struct {
	m *Metrics
}

func (c bandwidthCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.m.bytesDesc
}

func (c bandwidthCollector) Collect(ch chan<- prometheus.Metric) {
	totals := c.m.bandwidth.GetBandwidthTotals()
	ch <- prometheus.MustNewConstMetric(c.m.bytesDesc, prometheus.CounterValue, float64(totals.TotalIn), "in")
	ch <- prometheus.MustNewConstMetric(c.m.bytesDesc, prometheus.CounterValue, float64(totals.TotalOut), "out")
}
