package types

import (
	"net"
	"net/netip"
	"strconv"
)

// ============================================================================
//                              Address - 端点地址
// ============================================================================

// PortAny 表示"由系统选择端口"
const PortAny uint16 = 0

// Address 已解析的传输层端点地址
//
// Host 为零值（!Host.IsValid()）表示 ANY，即"任意本地接口"；
// Port 为 PortAny 表示由系统分配端口。
type Address struct {
	Host netip.Addr
	Port uint16
}

// AnyAddress 返回主机与端口都为通配的地址
func AnyAddress() Address {
	return Address{}
}

// IsHostAny 主机是否为通配
func (a Address) IsHostAny() bool {
	return !a.Host.IsValid()
}

// IsPortAny 端口是否为通配
func (a Address) IsPortAny() bool {
	return a.Port == PortAny
}

// HostString 返回主机的文本形式
//
// 通配主机渲染为 "0.0.0.0"，与传输层 get_host_ip 的行为一致。
func (a Address) HostString() string {
	if a.IsHostAny() {
		return "0.0.0.0"
	}
	return a.Host.Unmap().String()
}

// String 返回 "host:port" 形式，IPv6 主机带方括号
func (a Address) String() string {
	if !a.IsHostAny() && a.Host.Unmap().Is6() {
		return "[" + a.HostString() + "]:" + strconv.Itoa(int(a.Port))
	}
	return a.HostString() + ":" + strconv.Itoa(int(a.Port))
}

// UDPAddr 转换为 net.UDPAddr，通配主机映射为未指定地址
func (a Address) UDPAddr() *net.UDPAddr {
	if a.IsHostAny() {
		return &net.UDPAddr{Port: int(a.Port)}
	}
	return net.UDPAddrFromAddrPort(netip.AddrPortFrom(a.Host.Unmap(), a.Port))
}

// AddressFromNetAddr 从 net.Addr 构造 Address
//
// 非 UDP 地址或无法识别的地址返回通配地址。
func AddressFromNetAddr(addr net.Addr) Address {
	udp, ok := addr.(*net.UDPAddr)
	if !ok || udp == nil {
		return AnyAddress()
	}
	ap := udp.AddrPort()
	host := ap.Addr().Unmap()
	if host.IsUnspecified() {
		host = netip.Addr{}
	}
	return Address{Host: host, Port: ap.Port()}
}
