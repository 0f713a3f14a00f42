package types

// ============================================================================
//                              EventType - 事件类型
// ============================================================================

// EventType 服务循环产生的事件类型
type EventType int

const (
	// EventNone 超时内没有事件
	EventNone EventType = iota
	// EventConnect 连接建立（入站或出站）
	EventConnect
	// EventDisconnect 连接断开（优雅断开、超时或被重置）
	EventDisconnect
	// EventReceive 收到数据包
	EventReceive
)

// String 返回事件类型名称，与脚本侧的 type 字段一致
func (t EventType) String() string {
	switch t {
	case EventConnect:
		return "connect"
	case EventDisconnect:
		return "disconnect"
	case EventReceive:
		return "receive"
	default:
		return "none"
	}
}

// ============================================================================
//                              PeerState - 对端状态
// ============================================================================

// PeerState 对端连接状态（由传输层维护，这里只做只读暴露）
type PeerState int32

const (
	// PeerStateConnecting 正在握手
	PeerStateConnecting PeerState = iota
	// PeerStateConnected 已连接
	PeerStateConnected
	// PeerStateDisconnecting 已请求优雅断开，等待对端确认
	PeerStateDisconnecting
	// PeerStateDisconnected 已断开
	PeerStateDisconnected
)

// String 返回状态名称
func (s PeerState) String() string {
	switch s {
	case PeerStateConnecting:
		return "connecting"
	case PeerStateConnected:
		return "connected"
	case PeerStateDisconnecting:
		return "disconnecting"
	default:
		return "disconnected"
	}
}
