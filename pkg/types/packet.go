package types

// ============================================================================
//                              PacketFlag - 投递标志
// ============================================================================

// PacketFlag 数据包投递标志，取值与底层传输的标志位一致
type PacketFlag uint32

const (
	// PacketFlagReliable 可靠、有序投递
	PacketFlagReliable PacketFlag = 1 << 0
	// PacketFlagUnsequenced 不保证顺序（不可与 Reliable 同时使用）
	PacketFlagUnsequenced PacketFlag = 1 << 1
	// PacketFlagNoAllocate 不复制数据，直接引用调用方缓冲区
	PacketFlagNoAllocate PacketFlag = 1 << 2
	// PacketFlagUnreliableFragment 超过 MTU 的不可靠包按不可靠分片发送
	PacketFlagUnreliableFragment PacketFlag = 1 << 3
)

// Has 是否包含指定标志
func (f PacketFlag) Has(flag PacketFlag) bool {
	return f&flag != 0
}

// IsReliable 是否为可靠投递
func (f PacketFlag) IsReliable() bool {
	return f.Has(PacketFlagReliable)
}

// String 返回投递模式的名称
func (f PacketFlag) String() string {
	switch {
	case f.Has(PacketFlagReliable):
		return "reliable"
	case f.Has(PacketFlagUnsequenced):
		return "unsequenced"
	default:
		return "unreliable"
	}
}

// ============================================================================
//                              Packet - 数据包
// ============================================================================

// Packet 不可变的数据包
//
// 每次发送新建一个 Packet；交给传输层后所有权随之转移，
// 调用方不得再修改其底层缓冲区。
type Packet struct {
	data    []byte
	channel uint8
	flags   PacketFlag
}

// NewPacket 创建数据包，data 不会被复制
//
// 需要复制语义时请使用 internal/core/packet 的编码器。
func NewPacket(data []byte, channel uint8, flags PacketFlag) *Packet {
	return &Packet{data: data, channel: channel, flags: flags}
}

// Data 返回负载
func (p *Packet) Data() []byte {
	return p.data
}

// Len 返回负载长度
func (p *Packet) Len() int {
	return len(p.data)
}

// Channel 返回通道号
func (p *Packet) Channel() uint8 {
	return p.channel
}

// Flags 返回投递标志
func (p *Packet) Flags() PacketFlag {
	return p.flags
}
