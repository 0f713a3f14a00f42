package enet

import (
	"fmt"

	"github.com/dep2p/go-enet/internal/core/address"
	"github.com/dep2p/go-enet/internal/core/packet"
	"github.com/dep2p/go-enet/pkg/interfaces/transport"
)

// Peer 到远端主机的一个连接
//
// 同一个连接总是对应同一个 *Peer（只要它仍被引用），可以用作 map 的键。
type Peer struct {
	host   *Host
	native transport.Peer
}

// Host 返回对端所属的主机
func (p *Peer) Host() *Host {
	return p.host
}

// Send 在指定通道上排队发送数据，下一次 Service 或 Flush 时发出
func (p *Peer) Send(data []byte, opts SendOptions) error {
	if err := p.host.check(); err != nil {
		return err
	}

	pkt, err := p.host.stack.packets.Encode(data, opts)
	if err != nil {
		return err
	}
	if err := p.native.Send(pkt); err != nil {
		return fmt.Errorf("%w: %w", ErrSendFailure, err)
	}
	return nil
}

// Receive 取出该对端在 channel 上最早到达、尚未由 Service 交付的数据
//
// 没有数据时返回 false。
func (p *Peer) Receive(channel int) ([]byte, bool, error) {
	if err := p.host.check(); err != nil {
		return nil, false, err
	}
	if channel < 0 || channel > packet.MaxChannel {
		return nil, false, fmt.Errorf("%w: %d", ErrInvalidChannel, channel)
	}

	pkt, ok := p.native.Receive(uint8(channel))
	if !ok {
		return nil, false, nil
	}
	data, _ := packet.Decode(pkt)
	return data, true, nil
}

// Disconnect 请求优雅断开，排队的数据先于断开请求送达
//
// 完成后双方都产生断开事件，Code 为 data。
func (p *Peer) Disconnect(data uint32) error {
	if err := p.host.check(); err != nil {
		return err
	}
	p.native.Disconnect(data)
	return nil
}

// Reset 立即断开，本端不产生事件，远端收到断开事件
func (p *Peer) Reset() error {
	if err := p.host.check(); err != nil {
		return err
	}
	p.native.Reset()
	evictPeer(p.native)
	return nil
}

// State 返回连接状态，主机销毁后为 PeerStateDisconnected
func (p *Peer) State() PeerState {
	if p.host.check() != nil {
		return PeerStateDisconnected
	}
	return p.native.State()
}

// ChannelCount 返回协商后的通道数量
func (p *Peer) ChannelCount() int {
	return p.native.ChannelCount()
}

// String 返回 "host:port"
func (p *Peer) String() string {
	return address.Format(p.native.Address())
}
