// Package types 定义 go-enet 的公共数据结构
//
// 这是整个系统的最底层包，不依赖任何其他内部包。
// 所有类型都是纯值类型，用于在地址编解码、数据包编解码、
// 传输层和脚本绑定之间传递数据。
//
// # 文件组织
//
//   - address.go - Address 端点地址（含通配主机/端口）
//   - packet.go  - Packet 数据包与投递标志
//   - event.go   - EventType 事件类型, PeerState 对端状态
package types
