// Package transport 组装传输层
//
// 传输层是 ENet 主机的可靠 UDP 实现，对上只暴露
// pkg/interfaces/transport 中的 Host、Peer 与 Event。
// 目前唯一的实现是 quic 子包：
//
//   - 每个主机一个 UDP 套接字
//   - 每个通道一条 QUIC 单向流，保证通道内有序
//   - 非可靠数据包走 DATAGRAM 帧
//   - 连接数据与断开数据通过控制流和关闭码传递
//
// # Fx 模块集成
//
//	app := fx.New(
//	    metrics.Module,
//	    transport.Module(),
//	    fx.Invoke(func(t pkgif.Transport) {
//	        host, err := t.CreateHost(pkgif.HostConfig{PeerCount: 64, ChannelCount: 1})
//	        // ...
//	    }),
//	)
//
// # 并发安全
//
// Host 与 Peer 的方法可以在任意 goroutine 中调用；
// 事件按产生顺序由 Service 交出。
package transport
