package luaenet

import (
	lua "github.com/yuin/gopher-lua"

	enet "github.com/dep2p/go-enet"
)

func checkPeer(L *lua.LState) *enet.Peer {
	ud := L.CheckUserData(1)
	if p, ok := ud.Value.(*enet.Peer); ok {
		return p
	}
	L.ArgError(1, peerTypeName+" expected")
	return nil
}

// peerSend peer:send(data, [channel=0], [flag="reliable"])
func peerSend(L *lua.LState) int {
	p := checkPeer(L)
	data := L.CheckString(2)
	opts := checkSendOptions(L, 3)

	if err := p.Send([]byte(data), opts); err != nil {
		raise(L, err)
	}
	return 0
}

// peerDisconnect peer:disconnect([data=0])
func peerDisconnect(L *lua.LState) int {
	p := checkPeer(L)
	if err := p.Disconnect(checkUint32(L, 2)); err != nil {
		raise(L, err)
	}
	return 0
}

// peerReset peer:reset()，不通知对端，也不产生断开事件
func (b *binding) peerReset(L *lua.LState) int {
	p := checkPeer(L)
	if err := p.Reset(); err != nil {
		raise(L, err)
	}
	b.peers.Evict(p)
	return 0
}

// peerReceive peer:receive([channel=0]) -> data 或 nil
func peerReceive(L *lua.LState) int {
	p := checkPeer(L)
	data, ok, err := p.Receive(L.OptInt(2, 0))
	if err != nil {
		raise(L, err)
	}
	if !ok {
		return 0
	}
	L.Push(lua.LString(data))
	return 1
}

func peerState(L *lua.LState) int {
	L.Push(lua.LString(checkPeer(L).State().String()))
	return 1
}

func peerToString(L *lua.LState) int {
	L.Push(lua.LString(checkPeer(L).String()))
	return 1
}
