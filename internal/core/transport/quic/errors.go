package quic

import (
	"errors"

	"github.com/quic-go/quic-go"
)

var (
	// ErrInvalidHostConfig 主机参数超出协议范围
	ErrInvalidHostConfig = errors.New("invalid host config")

	// ErrInvalidAddress 无法连接到通配地址
	ErrInvalidAddress = errors.New("cannot connect to a wildcard address")

	// ErrChannelOutOfRange 通道号不小于协商后的通道数量
	ErrChannelOutOfRange = errors.New("channel out of range")
)

// 连接关闭码
//
// 低 32 位留给优雅断开携带的数据，内部原因使用 32 位以上的值。
const (
	codeReset    quic.ApplicationErrorCode = 1<<32 + 1
	codeHostFull quic.ApplicationErrorCode = 1<<32 + 2
	codeShutdown quic.ApplicationErrorCode = 1<<32 + 3
	codeProtocol quic.ApplicationErrorCode = 1<<32 + 4
)

// disconnectData 从连接关闭原因中取出断开数据
//
// 只有对端（或本端超时兜底）以 32 位以内的码关闭时才携带数据。
func disconnectData(err error) uint32 {
	var appErr *quic.ApplicationError
	if errors.As(err, &appErr) && appErr.ErrorCode <= 0xffffffff {
		return uint32(appErr.ErrorCode)
	}
	return 0
}
