// Package packet 在调用方的字节缓冲区与传输层数据包之间转换
package packet

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dep2p/go-enet/pkg/types"
)

// ============================================================================
//                              错误定义
// ============================================================================

var (
	// ErrPacketAllocationFailure 传输层无法分配该数据包
	ErrPacketAllocationFailure = errors.New("failed to create packet")

	// ErrInvalidChannel 通道号超出 0..255
	ErrInvalidChannel = errors.New("invalid channel")

	// ErrInvalidDelivery 未知的投递模式
	ErrInvalidDelivery = errors.New("invalid delivery flag")
)

const (
	// DefaultMaxPacketSize 默认最大包长，与底层传输一致
	DefaultMaxPacketSize = 32 << 20

	// MaxChannel 可表示的最大通道号
	MaxChannel = 255
)

// ============================================================================
//                              Delivery - 投递模式
// ============================================================================

// Delivery 投递模式，零值为可靠有序
type Delivery int

const (
	// Reliable 可靠、有序
	Reliable Delivery = iota
	// Unreliable 不可靠、有序（迟到的包被丢弃）
	Unreliable
	// Unsequenced 不可靠、无序
	Unsequenced
)

// ParseDelivery 解析投递模式名称，空字符串视为 Reliable
func ParseDelivery(s string) (Delivery, error) {
	switch strings.ToLower(s) {
	case "", "reliable":
		return Reliable, nil
	case "unreliable":
		return Unreliable, nil
	case "unsequenced":
		return Unsequenced, nil
	default:
		return Reliable, fmt.Errorf("%w: %q", ErrInvalidDelivery, s)
	}
}

// String 返回投递模式名称
func (d Delivery) String() string {
	switch d {
	case Unreliable:
		return "unreliable"
	case Unsequenced:
		return "unsequenced"
	default:
		return "reliable"
	}
}

// Flags 转换为传输层标志
func (d Delivery) Flags() types.PacketFlag {
	switch d {
	case Unreliable:
		return 0
	case Unsequenced:
		return types.PacketFlagUnsequenced
	default:
		return types.PacketFlagReliable
	}
}

// ============================================================================
//                              Options
// ============================================================================

// Options 发送选项，零值即默认：通道 0、可靠有序、复制负载
type Options struct {
	// Channel 通道号
	Channel int
	// Delivery 投递模式
	Delivery Delivery
	// NoAllocate 直接引用调用方缓冲区，不复制
	NoAllocate bool
}

// Validate 检查选项
//
// 超出主机通道数量的通道号在这里是允许的，由传输层决定如何处理。
func (o Options) Validate() error {
	if o.Channel < 0 || o.Channel > MaxChannel {
		return fmt.Errorf("%w: %d", ErrInvalidChannel, o.Channel)
	}
	switch o.Delivery {
	case Reliable, Unreliable, Unsequenced:
		return nil
	default:
		return fmt.Errorf("%w: %d", ErrInvalidDelivery, int(o.Delivery))
	}
}

// ============================================================================
//                              Codec
// ============================================================================

// Codec 数据包编解码器
type Codec struct {
	maxSize int
}

// NewCodec 创建编解码器，maxSize <= 0 时使用 DefaultMaxPacketSize
func NewCodec(maxSize int) *Codec {
	if maxSize <= 0 {
		maxSize = DefaultMaxPacketSize
	}
	return &Codec{maxSize: maxSize}
}

// MaxSize 返回最大包长
func (c *Codec) MaxSize() int {
	return c.maxSize
}

// Encode 由字节缓冲区和选项构造数据包
//
// 默认复制负载；NoAllocate 时数据包引用 data，调用方在发送完成前不得修改它。
func (c *Codec) Encode(data []byte, opts Options) (*types.Packet, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if len(data) > c.maxSize {
		return nil, fmt.Errorf("%w: %d bytes exceeds limit %d", ErrPacketAllocationFailure, len(data), c.maxSize)
	}

	flags := opts.Delivery.Flags()
	payload := data
	if opts.NoAllocate {
		flags |= types.PacketFlagNoAllocate
	} else {
		payload = make([]byte, len(data))
		copy(payload, data)
	}
	return types.NewPacket(payload, uint8(opts.Channel), flags), nil
}

// Decode 复制数据包负载并返回其通道号
//
// 返回的切片不与数据包共享内存，数据包随后可以被释放。
func Decode(p *types.Packet) (data []byte, channel uint8) {
	if p == nil {
		return nil, 0
	}
	data = make([]byte, p.Len())
	copy(data, p.Data())
	return data, p.Channel()
}
