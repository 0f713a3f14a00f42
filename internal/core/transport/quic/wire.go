package quic

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/s2"
	"github.com/multiformats/go-varint"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/dep2p/go-enet/pkg/types"
)

// ============================================================================
//                              流头部
// ============================================================================

// 每条单向流的第一个字节标识用途；数据流随后再跟一个通道号字节
const (
	streamControl byte = 0x00
	streamData    byte = 0x01
)

// ============================================================================
//                              帧格式
// ============================================================================
//
// 流上的每个数据包编码为：
//
//	[flags uvarint][length uvarint][payload]
//
// flags 的低位是 types.PacketFlag，frameCompressed 表示负载经过 s2 压缩。

const (
	frameCompressed uint64 = 1 << 7

	// 小于该长度的负载不尝试压缩
	minCompressSize = 256

	// 控制消息的最大长度
	maxControlSize = 64
)

var errFrameTooLarge = errors.New("frame exceeds max packet size")

// writeFrame 写出一帧
func writeFrame(w io.Writer, flags uint64, payload []byte) error {
	var hdr [2 * varint.MaxLenUvarint63]byte
	n := varint.PutUvarint(hdr[:], flags)
	n += varint.PutUvarint(hdr[n:], uint64(len(payload)))
	if _, err := w.Write(hdr[:n]); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}

// readFrame 读取一帧
//
// 在帧边界遇到流结束时返回 io.EOF；帧内截断返回 io.ErrUnexpectedEOF。
func readFrame(r *bufio.Reader, maxSize int) (flags uint64, payload []byte, err error) {
	flags, err = varint.ReadUvarint(r)
	if err != nil {
		return 0, nil, err
	}
	size, err := varint.ReadUvarint(r)
	if err != nil {
		return 0, nil, unexpectedEOF(err)
	}
	if size > uint64(maxSize) {
		return 0, nil, fmt.Errorf("%w: %d > %d", errFrameTooLarge, size, maxSize)
	}

	payload = make([]byte, size)
	if _, err := io.ReadFull(r, payload); err != nil {
		return 0, nil, unexpectedEOF(err)
	}
	return flags, payload, nil
}

func unexpectedEOF(err error) error {
	if errors.Is(err, io.EOF) {
		return io.ErrUnexpectedEOF
	}
	return err
}

// encodePayload 生成数据包的帧标志与负载
func encodePayload(p *types.Packet, compress bool) (uint64, []byte) {
	flags := uint64(p.Flags() &^ types.PacketFlagNoAllocate)
	data := p.Data()
	if compress && len(data) >= minCompressSize {
		if enc := s2.Encode(nil, data); len(enc) < len(data) {
			return flags | frameCompressed, enc
		}
	}
	return flags, data
}

// decodePayload 还原负载与数据包标志
func decodePayload(flags uint64, payload []byte, maxSize int) ([]byte, types.PacketFlag, error) {
	if flags&frameCompressed != 0 {
		n, err := s2.DecodedLen(payload)
		if err != nil {
			return nil, 0, err
		}
		if n > maxSize {
			return nil, 0, fmt.Errorf("%w: %d > %d", errFrameTooLarge, n, maxSize)
		}
		if payload, err = s2.Decode(nil, payload); err != nil {
			return nil, 0, err
		}
	}
	return payload, types.PacketFlag(flags &^ frameCompressed), nil
}

// ============================================================================
//                              数据报
// ============================================================================
//
// 走 DATAGRAM 帧的非可靠包编码为：
//
//	[channel][flags][seq uvarint][payload]
//
// seq 按通道递增，只对有序的非可靠包计数；无序包的 seq 为 0。

var errMalformedDatagram = errors.New("malformed datagram")

// encodeDatagram 编码一个数据报
func encodeDatagram(ch uint8, flags types.PacketFlag, seq uint32, data []byte) []byte {
	b := make([]byte, 2+varint.MaxLenUvarint63, 2+varint.MaxLenUvarint63+len(data))
	b[0], b[1] = ch, byte(flags&^types.PacketFlagNoAllocate)
	n := varint.PutUvarint(b[2:], uint64(seq))
	return append(b[:2+n], data...)
}

// decodeDatagram 解码一个数据报
func decodeDatagram(b []byte) (ch uint8, flags types.PacketFlag, seq uint32, data []byte, err error) {
	if len(b) < 3 {
		return 0, 0, 0, nil, errMalformedDatagram
	}
	v, n, err := varint.FromUvarint(b[2:])
	if err != nil || v > 0xffffffff {
		return 0, 0, 0, nil, fmt.Errorf("%w: bad sequence", errMalformedDatagram)
	}
	return b[0], types.PacketFlag(b[1]), uint32(v), b[2+n:], nil
}

// seqWindow 每个通道最近一次收到的有序非可靠包序号
//
// 只由数据报读 goroutine 访问。
type seqWindow struct {
	last [256]uint32
	seen [256]bool
}

// accept 序号比该通道已收到的更新时记录并返回 true
//
// 无序包总是接受。序号比较按 32 位回绕处理。
func (w *seqWindow) accept(ch uint8, flags types.PacketFlag, seq uint32) bool {
	if flags.Has(types.PacketFlagUnsequenced) {
		return true
	}
	if w.seen[ch] && int32(seq-w.last[ch]) <= 0 {
		return false
	}
	w.seen[ch], w.last[ch] = true, seq
	return true
}

// ============================================================================
//                              控制消息
// ============================================================================

type ctrlKind uint8

const (
	// ctrlHello 客户端 → 服务端：请求的通道数量与连接数据
	ctrlHello ctrlKind = iota + 1
	// ctrlAck 服务端 → 客户端：协商后的通道数量
	ctrlAck
	// ctrlBye 断开发起方：断开数据与已打开的数据流数量
	ctrlBye
)

// 控制消息字段号
const (
	fieldKind     protowire.Number = 1
	fieldChannels protowire.Number = 2
	fieldData     protowire.Number = 3
	fieldStreams  protowire.Number = 4
)

// ctrlMsg 控制流上的消息，按 protobuf 线格式编码
type ctrlMsg struct {
	kind     ctrlKind
	channels uint32
	data     uint32
	streams  uint32
}

func (m ctrlMsg) marshal() []byte {
	b := make([]byte, 0, 24)
	b = protowire.AppendTag(b, fieldKind, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(m.kind))
	if m.channels != 0 {
		b = protowire.AppendTag(b, fieldChannels, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(m.channels))
	}
	if m.data != 0 {
		b = protowire.AppendTag(b, fieldData, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(m.data))
	}
	if m.streams != 0 {
		b = protowire.AppendTag(b, fieldStreams, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(m.streams))
	}
	return b
}

func unmarshalCtrl(b []byte) (ctrlMsg, error) {
	var m ctrlMsg
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return m, protowire.ParseError(n)
		}
		b = b[n:]

		if typ != protowire.VarintType {
			n = protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return m, protowire.ParseError(n)
			}
			b = b[n:]
			continue
		}

		v, n := protowire.ConsumeVarint(b)
		if n < 0 {
			return m, protowire.ParseError(n)
		}
		b = b[n:]

		switch num {
		case fieldKind:
			m.kind = ctrlKind(v)
		case fieldChannels:
			m.channels = uint32(v)
		case fieldData:
			m.data = uint32(v)
		case fieldStreams:
			m.streams = uint32(v)
		}
	}

	switch m.kind {
	case ctrlHello, ctrlAck, ctrlBye:
		return m, nil
	default:
		return m, fmt.Errorf("unknown control message kind %d", m.kind)
	}
}

// writeCtrl 在控制流上写出一条消息
func writeCtrl(w io.Writer, m ctrlMsg) error {
	return writeFrame(w, 0, m.marshal())
}

// readCtrl 从控制流读取一条消息
func readCtrl(r *bufio.Reader) (ctrlMsg, error) {
	_, payload, err := readFrame(r, maxControlSize)
	if err != nil {
		return ctrlMsg{}, err
	}
	return unmarshalCtrl(payload)
}
