// Package enet 提供 ENet 风格的可靠 UDP 主机、对端与事件
//
// 程序创建主机，接受或发起对端连接，在多个通道上收发数据包，
// 并通过轮询获取连接生命周期事件。底层可靠 UDP 协议
// （重传、拥塞控制、握手）由 QUIC 传输承担，对本包是黑盒。
//
// # 快速开始
//
//	stack, err := enet.NewStack(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer stack.Close()
//
//	server, _ := stack.CreateHost(ctx, enet.HostConfig{Address: "*:5959"})
//	client, _ := stack.CreateHost(ctx, enet.HostConfig{})
//	peer, _ := client.Connect(ctx, "127.0.0.1:5959", enet.ConnectConfig{})
//
//	for {
//	    ev, err := server.Service(100 * time.Millisecond)
//	    if err != nil {
//	        break
//	    }
//	    switch ev.Type {
//	    case enet.EventConnect:
//	    case enet.EventReceive:
//	        ev.Peer.Send(ev.Data, enet.SendOptions{Channel: int(ev.Channel)})
//	    case enet.EventDisconnect:
//	    }
//	}
//
// # 对端身份
//
// 同一个连接在它的 *Peer 存活期间总是对应同一个 *Peer，
// 因此可以把 *Peer 用作 map 的键。断开事件之后身份缓存会释放该连接。
//
// # 生命周期
//
// Host.Close 显式销毁主机；不再引用的主机在被回收时自动销毁。
// 销毁之后所有主机与对端操作返回 ErrHostDestroyed。
//
// # 并发
//
// 与 ENet 一样，单个主机及其对端应由一个 goroutine 驱动。
// Service 是唯一的阻塞操作，最多阻塞 timeout。
//
// # 脚本绑定
//
// pkg/luaenet 把同样的对象模型暴露给 gopher-lua，
// cmd/enet-lua 是加载了 enet 模块的 Lua 解释器。
package enet
