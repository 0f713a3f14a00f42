package luaenet

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"

	enet "github.com/dep2p/go-enet"
	"github.com/dep2p/go-enet/internal/mocks"
	"github.com/dep2p/go-enet/pkg/interfaces/transport"
	"github.com/dep2p/go-enet/pkg/types"
)

// ============================================================================
//                              测试辅助
// ============================================================================

func newStack(t *testing.T, opts ...enet.Option) *enet.Stack {
	t.Helper()
	s, err := enet.NewStack(context.Background(), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newMockStack(t *testing.T) (*enet.Stack, *mocks.MockTransport) {
	t.Helper()
	mt := &mocks.MockTransport{}
	return newStack(t, enet.WithTransport(mt)), mt
}

func newState(t *testing.T, s *enet.Stack) *lua.LState {
	t.Helper()
	L := lua.NewState()
	t.Cleanup(L.Close)
	Preload(L, s)
	return L
}

func run(t *testing.T, L *lua.LState, script string) {
	t.Helper()
	require.NoError(t, L.DoString(script))
}

// ============================================================================
//                              模块与主机
// ============================================================================

func TestLoader(t *testing.T) {
	s, _ := newMockStack(t)
	L := newState(t, s)

	run(t, L, `
		local enet = require("enet")
		assert(type(enet.host_create) == "function")
		assert(enet.version == "`+enet.Version+`")
		assert(require("enet") == enet, "模块只加载一次")
	`)
	t.Log("✅ require 返回模块表")
}

func TestHostCreate(t *testing.T) {
	t.Run("参数", func(t *testing.T) {
		s, mt := newMockStack(t)
		L := newState(t, s)

		run(t, L, `
			local enet = require("enet")
			host = enet.host_create("127.0.0.1:5959", 8, 2, 100, 200)
		`)
		require.Len(t, mt.Calls, 1)
		cfg := mt.Calls[0]
		require.NotNil(t, cfg.Address)
		assert.Equal(t, "127.0.0.1:5959", cfg.Address.String())
		assert.Equal(t, 8, cfg.PeerCount)
		assert.Equal(t, 2, cfg.ChannelCount)
		assert.Equal(t, uint32(100), cfg.IncomingBandwidth)
		assert.Equal(t, uint32(200), cfg.OutgoingBandwidth)

		run(t, L, `assert(tostring(host) == "127.0.0.1:5959")`)
		run(t, L, `assert(host:get_socket_address() == "127.0.0.1:5959")`)
	})

	t.Run("默认值", func(t *testing.T) {
		s, mt := newMockStack(t)
		L := newState(t, s)

		run(t, L, `require("enet").host_create(nil)`)
		require.Len(t, mt.Calls, 1)
		assert.Nil(t, mt.Calls[0].Address, "nil 地址表示仅作客户端")
		assert.Equal(t, s.Config().Host.PeerCount, mt.Calls[0].PeerCount)
		assert.Equal(t, s.Config().Host.ChannelCount, mt.Calls[0].ChannelCount)
		assert.Zero(t, mt.Calls[0].IncomingBandwidth)
	})

	t.Run("错误", func(t *testing.T) {
		s, _ := newMockStack(t)
		L := newState(t, s)

		run(t, L, `
			local enet = require("enet")
			local ok, err = pcall(enet.host_create, "localhost")
			assert(not ok)
			assert(string.find(err, "malformed address", 1, true), err)

			ok, err = pcall(enet.host_create, 42)
			assert(not ok)

			ok, err = pcall(enet.host_create, nil, 1, 1, -1)
			assert(not ok, "带宽不能为负")
		`)
	})
}

// ============================================================================
//                              事件
// ============================================================================

func TestHostService(t *testing.T) {
	s, mt := newMockStack(t)
	L := newState(t, s)
	run(t, L, `host = require("enet").host_create("127.0.0.1:5959")`)

	mh := mt.HostAt(0)
	mp := mocks.NewMockPeer("10.0.0.1:1234")
	mh.Push(transport.Event{Type: types.EventConnect, Peer: mp, Data: 9})
	mh.Push(transport.Event{Type: types.EventReceive, Peer: mp,
		Packet: types.NewPacket([]byte("hello"), 1, types.PacketFlagReliable)})
	mh.Push(transport.Event{Type: types.EventDisconnect, Peer: mp, Data: 3})

	run(t, L, `
		local ev = host:service(10)
		assert(ev.type == "connect", ev.type)
		assert(ev.code == 9)
		assert(ev.data == nil)
		assert(tostring(ev.peer) == "10.0.0.1:1234")
		first = ev.peer

		ev = host:service(10)
		assert(ev.type == "receive", ev.type)
		assert(ev.data == "hello")
		assert(ev.channel == 1)
		assert(ev.peer == first, "同一对端对应同一个 userdata")

		ev = host:service(10)
		assert(ev.type == "disconnect", ev.type)
		assert(ev.code == 3)
		assert(ev.peer == first)

		assert(host:service(0) == nil, "没有事件时返回 nil")
	`)
	t.Log("✅ 事件表字段与对端身份")
}

func TestHostService_Identity(t *testing.T) {
	s, mt := newMockStack(t)
	L := newState(t, s)
	run(t, L, `host = require("enet").host_create("127.0.0.1:5959")`)

	mh := mt.HostAt(0)
	mp := mocks.NewMockPeer("10.0.0.1:1234")
	mh.Push(transport.Event{Type: types.EventConnect, Peer: mp})
	for range 3 {
		mh.Push(transport.Event{Type: types.EventReceive, Peer: mp,
			Packet: types.NewPacket([]byte("x"), 0, types.PacketFlagReliable)})
	}

	run(t, L, `
		local seen = {}
		local count = 0
		for i = 1, 4 do
			local ev = host:service()
			if not seen[ev.peer] then
				seen[ev.peer] = true
				count = count + 1
			end
		end
		assert(count == 1, "对端可以作为表的键")
	`)
}

func TestHostService_Error(t *testing.T) {
	s, mt := newMockStack(t)
	L := newState(t, s)
	run(t, L, `host = require("enet").host_create(nil)`)

	mt.HostAt(0).ServiceFunc = func(context.Context, time.Duration) (transport.Event, error) {
		return transport.Event{}, assert.AnError
	}
	run(t, L, `
		local ok, err = pcall(host.service, host, 0)
		assert(not ok)
		assert(string.find(err, "service error", 1, true), err)
	`)
}

// ============================================================================
//                              连接与发送
// ============================================================================

func TestHostConnect(t *testing.T) {
	s, mt := newMockStack(t)
	L := newState(t, s)

	run(t, L, `
		host = require("enet").host_create(nil)
		peer = host:connect("10.0.0.2:7000")
		assert(tostring(peer) == "10.0.0.2:7000")
		assert(peer:state() == "connecting")
		other = host:connect("10.0.0.3:7000", 4, 77)
	`)

	calls := mt.HostAt(0).ConnectCalls
	require.Len(t, calls, 2)
	assert.Equal(t, 1, calls[0].ChannelCount)
	assert.Zero(t, calls[0].Data)
	assert.Equal(t, 4, calls[1].ChannelCount)
	assert.Equal(t, uint32(77), calls[1].Data)

	run(t, L, `
		local ok, err = pcall(host.connect, host, "10.0.0.2")
		assert(not ok)
		assert(string.find(err, "malformed address", 1, true), err)

		ok, err = pcall(host.connect, host, "10.0.0.2:1", 256)
		assert(not ok)
		assert(string.find(err, "failed to create peer", 1, true), err)
	`)
}

func TestPeerSend(t *testing.T) {
	s, mt := newMockStack(t)
	L := newState(t, s)
	run(t, L, `host = require("enet").host_create(nil)`)

	mp := mocks.NewMockPeer("10.0.0.1:1234")
	mt.HostAt(0).Push(transport.Event{Type: types.EventConnect, Peer: mp})

	run(t, L, `
		peer = host:service().peer
		peer:send("a")
		peer:send("b", 2, "unreliable")
		peer:send("c", 0, "unsequenced")
	`)

	require.Len(t, mp.Sent, 3)
	assert.Equal(t, []byte("a"), mp.Sent[0].Data())
	assert.Equal(t, uint8(0), mp.Sent[0].Channel())
	assert.True(t, mp.Sent[0].Flags().Has(types.PacketFlagReliable))
	assert.Equal(t, uint8(2), mp.Sent[1].Channel())
	assert.False(t, mp.Sent[1].Flags().Has(types.PacketFlagReliable))
	assert.True(t, mp.Sent[2].Flags().Has(types.PacketFlagUnsequenced))

	run(t, L, `
		local ok, err = pcall(peer.send, peer, "x", 0, "bogus")
		assert(not ok)
		assert(string.find(err, "invalid delivery flag", 1, true), err)

		ok, err = pcall(peer.send, peer, "x", 300)
		assert(not ok)
		assert(string.find(err, "invalid channel", 1, true), err)
	`)

	mp.StateValue = types.PeerStateDisconnected
	run(t, L, `
		local ok, err = pcall(peer.send, peer, "x")
		assert(not ok)
		assert(string.find(err, "failed to send packet", 1, true), err)
	`)
}

func TestHostBroadcast(t *testing.T) {
	s, mt := newMockStack(t)
	L := newState(t, s)

	run(t, L, `
		host = require("enet").host_create(nil, 4, 4)
		host:broadcast("all")
		host:broadcast("fast", 3, "unreliable")
		host:flush()
	`)

	mh := mt.HostAt(0)
	require.Len(t, mh.Broadcasts, 2)
	assert.Equal(t, uint8(0), mh.Broadcasts[0].Channel())
	assert.Equal(t, []byte("fast"), mh.Broadcasts[1].Data())
	assert.Equal(t, uint8(3), mh.Broadcasts[1].Channel(), "通道取自第二个参数")
	assert.Equal(t, 1, mh.FlushCalls)
}

func TestPeerReceive(t *testing.T) {
	s, mt := newMockStack(t)
	L := newState(t, s)
	run(t, L, `host = require("enet").host_create(nil)`)

	mp := mocks.NewMockPeer("10.0.0.1:1234")
	mp.Inbox = []*types.Packet{
		types.NewPacket([]byte("one"), 1, types.PacketFlagReliable),
		types.NewPacket([]byte("zero"), 0, types.PacketFlagReliable),
	}
	mt.HostAt(0).Push(transport.Event{Type: types.EventConnect, Peer: mp})

	run(t, L, `
		local peer = host:service().peer
		assert(peer:receive() == "zero")
		assert(peer:receive(1) == "one")
		assert(peer:receive() == nil)
	`)
}

func TestPeerDisconnectAndReset(t *testing.T) {
	s, mt := newMockStack(t)
	L := newState(t, s)
	run(t, L, `host = require("enet").host_create(nil)`)

	a := mocks.NewMockPeer("10.0.0.1:1")
	b := mocks.NewMockPeer("10.0.0.1:2")
	mt.HostAt(0).Push(transport.Event{Type: types.EventConnect, Peer: a})
	mt.HostAt(0).Push(transport.Event{Type: types.EventConnect, Peer: b})

	run(t, L, `
		local pa = host:service().peer
		local pb = host:service().peer
		pa:disconnect()
		pb:disconnect(12)
		assert(pa:state() == "disconnecting")
		pb:reset()
		assert(pb:state() == "disconnected")
	`)
	assert.Equal(t, []uint32{0}, a.DisconnectCalls)
	assert.Equal(t, []uint32{12}, b.DisconnectCalls)
	assert.Equal(t, 1, b.ResetCalls)
}

func TestHostDestroy(t *testing.T) {
	s, mt := newMockStack(t)
	L := newState(t, s)

	mp := mocks.NewMockPeer("10.0.0.1:1")
	run(t, L, `host = require("enet").host_create("127.0.0.1:5959")`)
	mt.HostAt(0).Push(transport.Event{Type: types.EventConnect, Peer: mp})

	run(t, L, `
		peer = host:service().peer
		host:destroy()
		host:destroy()
		assert(tostring(host) == "destroyed")
		assert(peer:state() == "disconnected")

		local ok, err = pcall(host.service, host)
		assert(not ok)
		assert(string.find(err, "host destroyed", 1, true), err)

		ok, err = pcall(peer.send, peer, "x")
		assert(not ok)
		assert(string.find(err, "host destroyed", 1, true), err)
	`)
	assert.True(t, mt.HostAt(0).IsDestroyed())
}

func TestWrongSelf(t *testing.T) {
	s, _ := newMockStack(t)
	L := newState(t, s)

	run(t, L, `
		local host = require("enet").host_create(nil)
		local peer = host:connect("10.0.0.1:1")
		local ok = pcall(host.flush, peer)
		assert(not ok, "对端不能当作主机使用")
		ok = pcall(peer.state, host)
		assert(not ok, "主机不能当作对端使用")
	`)
}

// ============================================================================
//                              回环
// ============================================================================

func TestLoopback(t *testing.T) {
	s := newStack(t)
	L := newState(t, s)

	run(t, L, `
		local enet = require("enet")
		local server = enet.host_create("127.0.0.1:*", 8, 2)
		local client = enet.host_create(nil)

		local port = string.match(server:get_socket_address(), ":(%d+)$")
		assert(port and port ~= "0", "绑定了实际端口")

		local function wait(host, kind)
			for i = 1, 200 do
				local ev = host:service(25)
				if ev and ev.type == kind then
					return ev
				end
			end
			error("timed out waiting for " .. kind)
		end

		local peer = client:connect("127.0.0.1:" .. port, 2, 42)
		local sev = wait(server, "connect")
		assert(sev.code == 42)
		local cev = wait(client, "connect")
		assert(cev.peer == peer)

		peer:send("ping", 1)
		client:flush()
		local rev = wait(server, "receive")
		assert(rev.data == "ping")
		assert(rev.channel == 1)
		assert(rev.peer == sev.peer)

		rev.peer:send("pong", rev.channel)
		server:flush()
		local back = wait(client, "receive")
		assert(back.data == "pong")
		assert(back.peer == peer)

		peer:disconnect(5)
		assert(wait(client, "disconnect").code == 5)
		assert(wait(server, "disconnect").code == 5)

		client:destroy()
		server:destroy()
	`)
	assert.Positive(t, s.Bandwidth().TotalOut)
	t.Log("✅ Lua 脚本回环收发")
}
