// Package mocks 提供传输层接口的测试替身
//
// 每个 Mock 都支持通过 XxxFunc 字段注入自定义行为，未注入时使用
// 简单的内存实现，并记录关键调用，便于断言。
//
//   - MockTransport: 模拟 transport.Transport
//   - MockHost: 模拟 transport.Host，事件从 Events 队列依次取出
//   - MockPeer: 模拟 transport.Peer，Send 记录到 Sent
//
// # 使用示例
//
//	host := mocks.NewMockHost()
//	peer := mocks.NewMockPeer("127.0.0.1:5959")
//	host.Events = append(host.Events, transport.Event{Type: types.EventConnect, Peer: peer})
//
//	ev, _ := host.Service(ctx, 0)
package mocks
