package luaenet

import (
	"context"

	lua "github.com/yuin/gopher-lua"

	enet "github.com/dep2p/go-enet"
	"github.com/dep2p/go-enet/internal/core/registry"
	"github.com/dep2p/go-enet/pkg/lib/log"
)

var logger = log.Logger("luaenet")

const (
	// ModuleName require 使用的模块名
	ModuleName = "enet"

	hostTypeName = "enet_host"
	peerTypeName = "enet_peer"
)

// ============================================================================
//                              模块加载
// ============================================================================

// binding 一个 Lua 状态内的模块实例
type binding struct {
	stack *enet.Stack

	// peers 原生对端到 userdata 的弱映射，保证对端身份稳定
	peers *registry.Registry[*enet.Peer, lua.LUserData]
}

// Preload 在 L 中登记 enet 模块，脚本 require 时才真正加载
//
// stack 为 nil 时使用 enet.DefaultStack()。
func Preload(L *lua.LState, stack *enet.Stack) {
	L.PreloadModule(ModuleName, Loader(stack))
}

// Loader 返回 enet 模块的加载函数，可用于自定义的 package.preload
func Loader(stack *enet.Stack) lua.LGFunction {
	return func(L *lua.LState) int {
		b := &binding{
			stack: stack,
			peers: registry.New[*enet.Peer, lua.LUserData](),
		}
		b.registerTypes(L)

		mod := L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
			"host_create": b.hostCreate,
		})
		mod.RawSetString("version", lua.LString(enet.Version))
		L.Push(mod)
		return 1
	}
}

func (b *binding) registerTypes(L *lua.LState) {
	hmt := L.NewTypeMetatable(hostTypeName)
	L.SetField(hmt, "__index", L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"service":            b.hostService,
		"connect":            b.hostConnect,
		"broadcast":          hostBroadcast,
		"flush":              hostFlush,
		"destroy":            b.hostDestroy,
		"get_socket_address": hostSocketAddress,
	}))
	L.SetField(hmt, "__tostring", L.NewFunction(hostToString))

	pmt := L.NewTypeMetatable(peerTypeName)
	L.SetField(pmt, "__index", L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"send":       peerSend,
		"disconnect": peerDisconnect,
		"reset":      b.peerReset,
		"receive":    peerReceive,
		"state":      peerState,
	}))
	L.SetField(pmt, "__tostring", L.NewFunction(peerToString))
}

func (b *binding) getStack() (*enet.Stack, error) {
	if b.stack != nil {
		return b.stack, nil
	}
	return enet.DefaultStack()
}

// peerValue 返回 p 对应的 userdata，同一对端总是同一个值
func (b *binding) peerValue(L *lua.LState, p *enet.Peer) *lua.LUserData {
	return b.peers.Resolve(p, func() *lua.LUserData {
		ud := L.NewUserData()
		ud.Value = p
		L.SetMetatable(ud, L.GetTypeMetatable(peerTypeName))
		return ud
	})
}

// ============================================================================
//                              参数辅助
// ============================================================================

func stateContext(L *lua.LState) context.Context {
	if ctx := L.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// raise 以 Lua 错误抛出 err，不会返回
func raise(L *lua.LState, err error) {
	L.RaiseError("%s", err.Error())
}

// checkSendOptions 读取 [channel] [flag] 两个可选参数
func checkSendOptions(L *lua.LState, n int) enet.SendOptions {
	ch := L.OptInt(n, 0)
	delivery, err := enet.ParseDelivery(L.OptString(n+1, "reliable"))
	if err != nil {
		L.ArgError(n+1, err.Error())
	}
	// lua 字符串转成 []byte 时已经复制过一次
	return enet.SendOptions{Channel: ch, Delivery: delivery, NoAllocate: true}
}

func checkUint32(L *lua.LState, n int) uint32 {
	v := L.OptInt64(n, 0)
	if v < 0 || v > 0xFFFFFFFF {
		L.ArgError(n, "value out of range")
	}
	return uint32(v)
}
