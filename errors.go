package enet

import (
	"errors"

	"github.com/dep2p/go-enet/internal/core/address"
	"github.com/dep2p/go-enet/internal/core/event"
	"github.com/dep2p/go-enet/internal/core/packet"
	"github.com/dep2p/go-enet/pkg/interfaces/transport"
)

// 公共错误定义
var (
	// ────────────────────────────────────────────────────────────────────────
	// 地址与数据包
	// ────────────────────────────────────────────────────────────────────────

	// ErrMalformedAddress 地址缺少冒号、主机或端口
	ErrMalformedAddress = address.ErrMalformedAddress

	// ErrAddressTooLong 主机段或端口段过长
	ErrAddressTooLong = address.ErrAddressTooLong

	// ErrResolutionFailure 主机名无法解析
	ErrResolutionFailure = address.ErrResolutionFailure

	// ErrPacketAllocationFailure 数据包超出传输层上限
	ErrPacketAllocationFailure = packet.ErrPacketAllocationFailure

	// ErrInvalidChannel 通道号超出 0..255
	ErrInvalidChannel = packet.ErrInvalidChannel

	// ErrInvalidDelivery 未知的投递模式
	ErrInvalidDelivery = packet.ErrInvalidDelivery

	// ────────────────────────────────────────────────────────────────────────
	// 主机与对端
	// ────────────────────────────────────────────────────────────────────────

	// ErrHostCreationFailure 传输层无法创建主机
	ErrHostCreationFailure = errors.New("failed to create host")

	// ErrPeerAllocationFailure 传输层无法分配对端
	ErrPeerAllocationFailure = errors.New("failed to create peer")

	// ErrServiceError 服务主机时传输层失败
	ErrServiceError = event.ErrServiceError

	// ErrHostDestroyed 主机已销毁
	ErrHostDestroyed = transport.ErrHostDestroyed

	// ErrSendFailure 对端不接受该数据包
	ErrSendFailure = errors.New("failed to send packet")

	// ErrStackClosed Stack 已关闭
	ErrStackClosed = errors.New("stack closed")
)
