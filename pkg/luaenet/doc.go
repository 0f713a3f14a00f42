// Package luaenet 把 go-enet 暴露为 gopher-lua 的 enet 模块
//
// 脚本通过 require("enet") 取得模块表：
//
//	local enet = require("enet")
//	local host = enet.host_create("*:5959", 64, 2)
//	local ev = host:service(100)
//	if ev and ev.type == "receive" then
//	    ev.peer:send(ev.data, ev.channel)
//	end
//
// # 类型
//
//   - enet_host: service, connect, broadcast, flush, destroy,
//     get_socket_address, __tostring
//   - enet_peer: send, disconnect, reset, receive, state, __tostring
//
// 事件是普通表，字段为 type、peer、data、channel、code。
// 同一个原生对端在同一个 Lua 状态中始终对应同一个 userdata，
// 因此可以直接把 peer 当作表的键使用。
//
// 所有失败都以 Lua 错误抛出；"没有事件"和"没有数据"返回 nil。
package luaenet
