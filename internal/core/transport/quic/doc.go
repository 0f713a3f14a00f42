// Package quic 以 QUIC 实现可靠 UDP 传输层
//
// ENet 概念到 QUIC 的映射：
//
//   - 主机：一个 UDP 套接字上的 quic.Transport，带地址时同时监听
//   - 对端：一条 QUIC 连接
//   - 通道：每个通道一条单向流，流内保持顺序
//   - 不可靠包：QUIC datagram，超过 datagram 上限时退回到通道流
//   - 连接数据：客户端在控制流上发送的 hello 消息
//   - 断开数据：关闭连接时的应用错误码
//
// # 控制流
//
// 每端各开一条控制流。客户端发送 hello{channels, data}，
// 服务端回复 ack{channels}，通道数取双方上限的较小值。
// 优雅断开时发起方先结束所有数据流，再发送 bye{data, streams}；
// 接收方读完全部数据流后以 data 为错误码关闭连接，
// 因此断开之前发送的可靠包都会先于断开事件交付。
//
// # 使用示例
//
//	t, err := quic.New(quic.DefaultConfig())
//	host, err := t.CreateHost(transport.HostConfig{Address: &addr, PeerCount: 32, ChannelCount: 2})
//	ev, err := host.Service(ctx, 100*time.Millisecond)
package quic
