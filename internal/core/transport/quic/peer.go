package quic

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/benbjohnson/clock"
	"github.com/quic-go/quic-go"

	"github.com/dep2p/go-enet/pkg/interfaces/transport"
	"github.com/dep2p/go-enet/pkg/lib/log"
	"github.com/dep2p/go-enet/pkg/types"
)

// 确保实现了接口
var _ transport.Peer = (*Peer)(nil)

// ============================================================================
//                              发送队列项
// ============================================================================

type itemKind uint8

const (
	itemPacket itemKind = iota
	itemHello
	itemAck
	itemBye
)

// outgoing 写 goroutine 处理的一项
//
// 控制项的参数放在 a、b 中：hello 为 (通道数, 连接数据)，ack 为 (通道数, -)，
// bye 为 (断开数据, -)。
type outgoing struct {
	kind   itemKind
	packet *types.Packet
	a, b   uint32
}

// ============================================================================
//                              Peer
// ============================================================================

// Peer 一条 QUIC 连接
//
// 每个通道映射到一条单向流，流内按序；控制消息走独立的控制流。
type Peer struct {
	host     *Host
	addr     types.Address
	outgoing bool

	// 仅出站连接使用
	requested   uint32
	connectData uint32

	ctx    context.Context
	cancel context.CancelFunc

	state    atomic.Int32
	channels atomic.Uint32
	silent   atomic.Bool

	ready     chan struct{}
	readyOnce sync.Once

	connMu      sync.Mutex
	conn        *quic.Conn
	closing     bool
	closeCode   quic.ApplicationErrorCode
	closeReason string

	mu      sync.Mutex
	pending []outgoing
	outbox  chan outgoing

	readers sync.WaitGroup

	byeMu      sync.Mutex
	byeSeen    bool
	byeData    uint32
	byeStreams uint32
	eofStreams uint32
	byeTimer   *clock.Timer

	finishOnce sync.Once

	// 以下只由写 goroutine 访问
	ctrl    *quic.SendStream
	streams map[uint8]*quic.SendStream
	sendSeq [256]uint32

	// 只由数据报读 goroutine 访问
	recvSeq seqWindow
}

func newPeer(h *Host, addr types.Address, isOutgoing bool) *Peer {
	ctx, cancel := context.WithCancel(h.ctx)
	p := &Peer{
		host:     h,
		addr:     addr,
		outgoing: isOutgoing,
		ctx:      ctx,
		cancel:   cancel,
		ready:    make(chan struct{}),
		outbox:   make(chan outgoing, max(h.t.cfg.SendQueueSize, 1)),
		streams:  make(map[uint8]*quic.SendStream),
	}
	p.state.Store(int32(types.PeerStateConnecting))
	return p
}

// String 返回对端地址
func (p *Peer) String() string {
	return p.addr.String()
}

// ============================================================================
//                              transport.Peer 实现
// ============================================================================

// Send 排队一个数据包，下一次 Flush 或 Service 时发出
func (p *Peer) Send(pkt *types.Packet) error {
	if p.State() != types.PeerStateConnected {
		return transport.ErrPeerNotConnected
	}
	if uint32(pkt.Channel()) >= p.channels.Load() {
		return fmt.Errorf("%w: %d >= %d", ErrChannelOutOfRange, pkt.Channel(), p.channels.Load())
	}
	if pkt.Len() > p.host.t.cfg.MaxPacketSize {
		return fmt.Errorf("%w: %d > %d", transport.ErrPacketTooLarge, pkt.Len(), p.host.t.cfg.MaxPacketSize)
	}

	p.enqueue(outgoing{kind: itemPacket, packet: pkt})
	return nil
}

// Receive 从事件队列中取出该对端在指定通道上最早的数据包
func (p *Peer) Receive(ch uint8) (*types.Packet, bool) {
	ev, ok := p.host.events.take(func(ev transport.Event) bool {
		return ev.Type == types.EventReceive && ev.Peer == p && ev.Packet.Channel() == ch
	})
	if !ok {
		return nil, false
	}
	return ev.Packet, true
}

// Disconnect 请求优雅断开
//
// 已排队的数据包先于断开请求发出，双方都会收到带 data 的断开事件。
// 握手尚未完成时立即断开且本端不产生事件。
func (p *Peer) Disconnect(data uint32) {
	if p.state.CompareAndSwap(int32(types.PeerStateConnected), int32(types.PeerStateDisconnecting)) {
		logger.Debug("请求断开", "peer", p.addr.String(), "data", data)
		p.enqueue(outgoing{kind: itemBye, a: data})
		return
	}
	if p.State() == types.PeerStateConnecting {
		p.drop(quic.ApplicationErrorCode(data), "disconnect")
	}
}

// Reset 立即断开，本端不产生事件
func (p *Peer) Reset() {
	if p.State() == types.PeerStateDisconnected {
		return
	}
	logger.Debug("重置对端", "peer", p.addr.String())
	p.drop(codeReset, "reset")
}

// Address 返回远端地址
func (p *Peer) Address() types.Address {
	return p.addr
}

// State 返回连接状态
func (p *Peer) State() types.PeerState {
	return types.PeerState(p.state.Load())
}

// ChannelCount 返回协商后的通道数量
func (p *Peer) ChannelCount() int {
	return int(p.channels.Load())
}

// ============================================================================
//                              生命周期
// ============================================================================

// drop 静默关闭连接，丢弃尚未取走的事件并释放槽位
func (p *Peer) drop(code quic.ApplicationErrorCode, reason string) {
	p.abort(code, reason)
	p.host.events.drop(func(ev transport.Event) bool { return ev.Peer == p })
	p.host.remove(p)
}

// abort 静默关闭连接
func (p *Peer) abort(code quic.ApplicationErrorCode, reason string) {
	p.silent.Store(true)
	p.state.Store(int32(types.PeerStateDisconnected))
	p.cancel()
	p.closeConn(code, reason)
}

// dial 出站连接：握手后发送 hello
func (p *Peer) dial() {
	defer p.host.wg.Done()

	ctx, cancel := context.WithTimeout(p.ctx, p.host.t.cfg.HandshakeTimeout)
	conn, err := p.host.qt.Dial(ctx, p.addr.UDPAddr(), p.host.t.clientTLS, p.host.t.quicConf)
	cancel()
	if err != nil {
		logger.Debug("连接失败", "peer", p.addr.String(), "err", err)
		p.finish(err)
		return
	}
	if !p.setConn(conn) {
		p.finish(context.Canceled)
		return
	}

	p.enqueue(outgoing{kind: itemHello, a: p.requested, b: p.connectData})
	p.flush()
	p.run(conn)
}

// serve 入站连接：等待 hello
func (p *Peer) serve(conn *quic.Conn) {
	defer p.host.wg.Done()

	if !p.setConn(conn) {
		p.finish(context.Canceled)
		return
	}
	p.run(conn)
}

// setConn 记录连接；连接建立前已被关闭时立即关闭连接并返回 false
func (p *Peer) setConn(conn *quic.Conn) bool {
	p.connMu.Lock()
	p.conn = conn
	closing, code, reason := p.closing, p.closeCode, p.closeReason
	p.connMu.Unlock()

	if closing {
		_ = conn.CloseWithError(code, reason)
		return false
	}
	return true
}

// closeConn 以指定码关闭连接，只有第一次调用生效
func (p *Peer) closeConn(code quic.ApplicationErrorCode, reason string) {
	p.connMu.Lock()
	if p.closing {
		p.connMu.Unlock()
		return
	}
	p.closing = true
	p.closeCode, p.closeReason = code, reason
	conn := p.conn
	p.connMu.Unlock()

	if conn != nil {
		_ = conn.CloseWithError(code, reason)
	}
}

// run 接受对端打开的流，直到连接关闭
func (p *Peer) run(conn *quic.Conn) {
	p.host.wg.Add(1)
	go p.writeLoop(conn)

	if p.host.t.cfg.EnableDatagrams && conn.ConnectionState().SupportsDatagrams {
		p.readers.Add(1)
		go p.datagramLoop(conn)
	}

	var err error
	for {
		str, aerr := conn.AcceptUniStream(p.ctx)
		if aerr != nil {
			err = aerr
			break
		}
		p.readers.Add(1)
		go p.readStream(conn, str)
	}
	p.finish(err)
}

// finish 连接结束：等待读 goroutine 退出，然后产生断开事件
//
// 入站连接在握手完成前结束时不产生事件。
func (p *Peer) finish(err error) {
	p.finishOnce.Do(func() {
		prev := types.PeerState(p.state.Swap(int32(types.PeerStateDisconnected)))
		p.readers.Wait()

		p.byeMu.Lock()
		if p.byeTimer != nil {
			p.byeTimer.Stop()
		}
		p.byeMu.Unlock()

		if p.outgoing || prev != types.PeerStateConnecting {
			data := disconnectData(err)
			ev := transport.Event{Type: types.EventDisconnect, Peer: p, Data: data}
			if p.host.events.pushIf(ev, p.notSilent) {
				logger.Debug("连接已断开", "peer", p.addr.String(), "data", data, "err", err)
			}
		}

		p.host.remove(p)
		p.cancel()
	})
}

func (p *Peer) notSilent() bool {
	return !p.silent.Load()
}

// markConnected 握手完成，产生连接事件并放行数据流
func (p *Peer) markConnected(data uint32) {
	if !p.state.CompareAndSwap(int32(types.PeerStateConnecting), int32(types.PeerStateConnected)) {
		return
	}
	ev := transport.Event{Type: types.EventConnect, Peer: p, Data: data}
	if p.host.events.pushIf(ev, p.notSilent) {
		logger.Debug("连接已建立",
			"host", log.TruncateID(p.host.id, 8),
			"peer", p.addr.String(),
			"outgoing", p.outgoing,
			"channels", p.channels.Load())
	}
	p.readyOnce.Do(func() { close(p.ready) })
}

// ============================================================================
//                              发送
// ============================================================================

// enqueue 追加到待发送列表
func (p *Peer) enqueue(item outgoing) {
	p.mu.Lock()
	p.pending = append(p.pending, item)
	p.mu.Unlock()
}

// flush 把待发送列表移入写队列，写队列满时剩余项留到下一次
func (p *Peer) flush() {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := 0
loop:
	for _, item := range p.pending {
		select {
		case p.outbox <- item:
			n++
		default:
			break loop
		}
	}
	if n > 0 {
		rest := copy(p.pending, p.pending[n:])
		clear(p.pending[rest:])
		p.pending = p.pending[:rest]
	}
}

// writeLoop 写 goroutine，发送 bye 后退出
func (p *Peer) writeLoop(conn *quic.Conn) {
	defer p.host.wg.Done()

	for {
		select {
		case item := <-p.outbox:
			if err := p.write(conn, item); err != nil {
				if p.ctx.Err() == nil && conn.Context().Err() == nil {
					logger.Debug("写入失败", "peer", p.addr.String(), "err", err)
					p.closeConn(codeProtocol, "write failed")
				}
				return
			}
			if item.kind == itemBye {
				return
			}
		case <-p.ctx.Done():
			return
		case <-conn.Context().Done():
			return
		}
	}
}

func (p *Peer) write(conn *quic.Conn, item outgoing) error {
	switch item.kind {
	case itemPacket:
		return p.writePacket(conn, item.packet)
	case itemHello:
		return p.writeControl(conn, ctrlMsg{kind: ctrlHello, channels: item.a, data: item.b})
	case itemAck:
		return p.writeControl(conn, ctrlMsg{kind: ctrlAck, channels: item.a})
	case itemBye:
		// 先结束所有数据流，对端据 streams 判断数据是否已全部读完
		for _, s := range p.streams {
			_ = s.Close()
		}
		err := p.writeControl(conn, ctrlMsg{kind: ctrlBye, data: item.a, streams: uint32(len(p.streams))})
		if p.ctrl != nil {
			_ = p.ctrl.Close()
		}
		p.armByeTimer(item.a)
		return err
	default:
		return fmt.Errorf("unknown outgoing item %d", item.kind)
	}
}

// armByeTimer 对端迟迟不关闭连接时由本端关闭
func (p *Peer) armByeTimer(data uint32) {
	p.byeMu.Lock()
	defer p.byeMu.Unlock()

	p.byeTimer = p.host.t.clk.AfterFunc(p.host.t.cfg.DisconnectTimeout, func() {
		logger.Debug("断开超时", "peer", p.addr.String())
		p.closeConn(quic.ApplicationErrorCode(data), "disconnect timeout")
	})
}

func (p *Peer) writeControl(conn *quic.Conn, m ctrlMsg) error {
	if p.ctrl == nil {
		s, err := conn.OpenUniStreamSync(p.ctx)
		if err != nil {
			return err
		}
		if _, err := s.Write([]byte{streamControl}); err != nil {
			return err
		}
		p.ctrl = s
	}
	return writeCtrl(p.ctrl, m)
}

func (p *Peer) dataStream(conn *quic.Conn, ch uint8) (*quic.SendStream, error) {
	if s, ok := p.streams[ch]; ok {
		return s, nil
	}
	s, err := conn.OpenUniStreamSync(p.ctx)
	if err != nil {
		return nil, err
	}
	if _, err := s.Write([]byte{streamData, ch}); err != nil {
		return nil, err
	}
	p.streams[ch] = s
	return s, nil
}

// writePacket 发送数据包
//
// 非可靠包优先走 DATAGRAM 帧，超出帧大小或对端不支持时退回通道流。
func (p *Peer) writePacket(conn *quic.Conn, pkt *types.Packet) error {
	if err := p.host.outLimit.wait(p.ctx, pkt.Len()); err != nil {
		return err
	}

	if !pkt.Flags().IsReliable() && p.datagrams(conn) {
		if err := conn.SendDatagram(p.datagram(pkt)); err == nil {
			p.host.t.reporter.LogSentPacket(pkt.Channel(), pkt.Len())
			return nil
		}
	}

	s, err := p.dataStream(conn, pkt.Channel())
	if err != nil {
		return err
	}
	flags, payload := encodePayload(pkt, p.host.t.cfg.Compression)
	if err := writeFrame(s, flags, payload); err != nil {
		return err
	}
	p.host.t.reporter.LogSentPacket(pkt.Channel(), pkt.Len())
	return nil
}

// datagram 编码数据报，有序的非可靠包占用该通道的下一个序号
func (p *Peer) datagram(pkt *types.Packet) []byte {
	ch := pkt.Channel()
	var seq uint32
	if !pkt.Flags().Has(types.PacketFlagUnsequenced) {
		p.sendSeq[ch]++
		seq = p.sendSeq[ch]
	}
	return encodeDatagram(ch, pkt.Flags(), seq, pkt.Data())
}

func (p *Peer) datagrams(conn *quic.Conn) bool {
	return p.host.t.cfg.EnableDatagrams && conn.ConnectionState().SupportsDatagrams
}

// ============================================================================
//                              接收
// ============================================================================

func (p *Peer) readStream(conn *quic.Conn, str *quic.ReceiveStream) {
	defer p.readers.Done()

	r := bufio.NewReader(str)
	kind, err := r.ReadByte()
	if err != nil {
		return
	}

	switch kind {
	case streamControl:
		p.readControl(r)
	case streamData:
		ch, err := r.ReadByte()
		if err != nil {
			return
		}
		p.readData(conn, r, ch)
	default:
		logger.Debug("未知的流类型", "peer", p.addr.String(), "kind", kind)
		p.closeConn(codeProtocol, "unknown stream")
	}
}

func (p *Peer) readControl(r *bufio.Reader) {
	for {
		m, err := readCtrl(r)
		if err != nil {
			if !errors.Is(err, io.EOF) && p.ctx.Err() == nil {
				logger.Debug("控制流读取失败", "peer", p.addr.String(), "err", err)
				p.closeConn(codeProtocol, "bad control stream")
			}
			return
		}

		switch m.kind {
		case ctrlHello:
			if p.outgoing {
				p.closeConn(codeProtocol, "unexpected hello")
				return
			}
			channels := min(max(m.channels, 1), uint32(p.host.cfg.ChannelCount))
			p.channels.Store(channels)
			p.enqueue(outgoing{kind: itemAck, a: channels})
			p.flush()
			p.markConnected(m.data)
		case ctrlAck:
			if !p.outgoing {
				p.closeConn(codeProtocol, "unexpected ack")
				return
			}
			p.channels.Store(min(max(m.channels, 1), p.requested))
			p.markConnected(0)
		case ctrlBye:
			p.remoteBye(m.data, m.streams)
		}
	}
}

func (p *Peer) readData(conn *quic.Conn, r *bufio.Reader, ch uint8) {
	select {
	case <-p.ready:
	case <-conn.Context().Done():
		return
	case <-p.ctx.Done():
		return
	}

	maxSize := p.host.t.cfg.MaxPacketSize
	for {
		flags, payload, err := readFrame(r, maxSize)
		if err == nil {
			var data []byte
			var pflags types.PacketFlag
			if data, pflags, err = decodePayload(flags, payload, maxSize); err == nil {
				p.deliver(types.NewPacket(data, ch, pflags))
				continue
			}
		}

		switch {
		case errors.Is(err, io.EOF):
			p.streamDone()
		case p.ctx.Err() == nil && conn.Context().Err() == nil:
			logger.Debug("数据流读取失败", "peer", p.addr.String(), "channel", ch, "err", err)
			p.closeConn(codeProtocol, "bad data stream")
		}
		return
	}
}

func (p *Peer) datagramLoop(conn *quic.Conn) {
	defer p.readers.Done()

	select {
	case <-p.ready:
	case <-conn.Context().Done():
		return
	case <-p.ctx.Done():
		return
	}

	for {
		b, err := conn.ReceiveDatagram(p.ctx)
		if err != nil {
			return
		}
		ch, flags, seq, data, err := decodeDatagram(b)
		if err != nil {
			p.host.t.reporter.LogDroppedPacket("malformed")
			continue
		}
		if !p.recvSeq.accept(ch, flags, seq) {
			p.host.t.reporter.LogDroppedPacket("stale")
			continue
		}
		p.deliver(types.NewPacket(data, ch, flags))
	}
}

// deliver 把数据包放入事件队列，队列满时阻塞
func (p *Peer) deliver(pkt *types.Packet) {
	if uint32(pkt.Channel()) >= p.channels.Load() {
		logger.Debug("丢弃越界通道的数据包", "peer", p.addr.String(), "channel", pkt.Channel())
		p.host.t.reporter.LogDroppedPacket("channel")
		return
	}
	if err := p.host.inLimit.wait(p.ctx, pkt.Len()); err != nil {
		return
	}

	ev := transport.Event{Type: types.EventReceive, Peer: p, Packet: pkt}
	if err := p.host.events.pushReceive(p.ctx, ev, p.notSilent); err != nil {
		p.host.t.reporter.LogDroppedPacket("closed")
		return
	}
	p.host.t.reporter.LogRecvPacket(pkt.Channel(), pkt.Len())
}

// remoteBye 对端请求断开
func (p *Peer) remoteBye(data, streams uint32) {
	p.state.CompareAndSwap(int32(types.PeerStateConnected), int32(types.PeerStateDisconnecting))

	p.byeMu.Lock()
	p.byeSeen = true
	p.byeData = data
	p.byeStreams = streams
	p.byeMu.Unlock()

	p.maybeClose()
}

// streamDone 对端的一条数据流读到结尾
func (p *Peer) streamDone() {
	p.byeMu.Lock()
	p.eofStreams++
	p.byeMu.Unlock()

	p.maybeClose()
}

// maybeClose 收到 bye 且对端的数据流都已读完时关闭连接
func (p *Peer) maybeClose() {
	p.byeMu.Lock()
	done := p.byeSeen && p.eofStreams >= p.byeStreams
	data := p.byeData
	p.byeMu.Unlock()

	if done {
		p.closeConn(quic.ApplicationErrorCode(data), "disconnect")
	}
}
