package luaenet

import (
	"time"

	lua "github.com/yuin/gopher-lua"

	enet "github.com/dep2p/go-enet"
)

// hostCreate enet.host_create(address_or_nil, [peer_count], [channel_count], [in_bw], [out_bw])
//
// 数量参数为 0 或省略时使用配置的默认值。
func (b *binding) hostCreate(L *lua.LState) int {
	var addr string
	switch v := L.Get(1); v.Type() {
	case lua.LTNil:
	case lua.LTString:
		addr = string(v.(lua.LString))
	default:
		L.ArgError(1, "address string or nil expected")
	}

	cfg := enet.HostConfig{
		Address:           addr,
		PeerCount:         L.OptInt(2, 0),
		ChannelCount:      L.OptInt(3, 0),
		IncomingBandwidth: checkUint32(L, 4),
		OutgoingBandwidth: checkUint32(L, 5),
	}

	stack, err := b.getStack()
	if err != nil {
		raise(L, err)
	}
	h, err := stack.CreateHost(stateContext(L), cfg)
	if err != nil {
		raise(L, err)
	}
	logger.Debug("脚本创建主机", "addr", h.String())

	ud := L.NewUserData()
	ud.Value = h
	L.SetMetatable(ud, L.GetTypeMetatable(hostTypeName))
	L.Push(ud)
	return 1
}

func checkHost(L *lua.LState) *enet.Host {
	ud := L.CheckUserData(1)
	if h, ok := ud.Value.(*enet.Host); ok {
		return h
	}
	L.ArgError(1, hostTypeName+" expected")
	return nil
}

// hostService host:service([timeout_ms]) -> event 或 nil
func (b *binding) hostService(L *lua.LState) int {
	h := checkHost(L)
	timeout := time.Duration(L.OptInt64(2, 0)) * time.Millisecond

	ev, err := h.ServiceContext(stateContext(L), timeout)
	if err != nil {
		raise(L, err)
	}
	if ev.Type == enet.EventNone {
		return 0
	}

	tbl := L.NewTable()
	tbl.RawSetString("type", lua.LString(ev.Type.String()))
	tbl.RawSetString("peer", b.peerValue(L, ev.Peer))
	switch ev.Type {
	case enet.EventReceive:
		tbl.RawSetString("data", lua.LString(ev.Data))
		tbl.RawSetString("channel", lua.LNumber(ev.Channel))
	case enet.EventDisconnect:
		tbl.RawSetString("code", lua.LNumber(ev.Code))
		b.peers.Evict(ev.Peer)
	default:
		tbl.RawSetString("code", lua.LNumber(ev.Code))
	}
	L.Push(tbl)
	return 1
}

// hostConnect host:connect(address, [channel_count=1], [data=0]) -> peer
func (b *binding) hostConnect(L *lua.LState) int {
	h := checkHost(L)
	addr := L.CheckString(2)
	cfg := enet.ConnectConfig{
		ChannelCount: L.OptInt(3, 1),
		Data:         checkUint32(L, 4),
	}

	p, err := h.Connect(stateContext(L), addr, cfg)
	if err != nil {
		raise(L, err)
	}
	L.Push(b.peerValue(L, p))
	return 1
}

// hostBroadcast host:broadcast(data, [channel=0], [flag="reliable"])
func hostBroadcast(L *lua.LState) int {
	h := checkHost(L)
	data := L.CheckString(2)
	opts := checkSendOptions(L, 3)

	if err := h.Broadcast([]byte(data), opts); err != nil {
		raise(L, err)
	}
	return 0
}

func hostFlush(L *lua.LState) int {
	if err := checkHost(L).Flush(); err != nil {
		raise(L, err)
	}
	return 0
}

// hostDestroy host:destroy()，重复调用无效果
func (b *binding) hostDestroy(L *lua.LState) int {
	h := checkHost(L)
	for _, p := range h.Peers() {
		b.peers.Evict(p)
	}
	if err := h.Close(); err != nil {
		raise(L, err)
	}
	return 0
}

func hostSocketAddress(L *lua.LState) int {
	addr, err := checkHost(L).Address()
	if err != nil {
		raise(L, err)
	}
	L.Push(lua.LString(addr))
	return 1
}

func hostToString(L *lua.LState) int {
	L.Push(lua.LString(checkHost(L).String()))
	return 1
}
