package enet

import (
	"context"
	"sync"

	"github.com/dep2p/go-enet/internal/core/registry"
	"github.com/dep2p/go-enet/pkg/interfaces/transport"
)

// ════════════════════════════════════════════════════════════════════════════
//                              版本信息
// ════════════════════════════════════════════════════════════════════════════

// Version 当前版本
const Version = "v0.1.0"

// ════════════════════════════════════════════════════════════════════════════
//                              对端身份缓存
// ════════════════════════════════════════════════════════════════════════════

// peers 原生对端到 *Peer 的进程级身份缓存
var peers = registry.New[transport.Peer, Peer]()

func evictPeer(native transport.Peer) {
	peers.Evict(native)
}

// ResetPeerCache 清空对端身份缓存，仅用于测试
func ResetPeerCache() {
	peers.Reset()
}

// ════════════════════════════════════════════════════════════════════════════
//                              默认 Stack
// ════════════════════════════════════════════════════════════════════════════

var (
	defaultOnce  sync.Once
	defaultStack *Stack
	defaultErr   error
)

// DefaultStack 返回以默认配置启动的进程级 Stack，首次调用时创建
func DefaultStack() (*Stack, error) {
	defaultOnce.Do(func() {
		defaultStack, defaultErr = NewStack(context.Background())
	})
	return defaultStack, defaultErr
}

// CreateHost 在默认 Stack 上创建主机
func CreateHost(ctx context.Context, cfg HostConfig) (*Host, error) {
	s, err := DefaultStack()
	if err != nil {
		return nil, err
	}
	return s.CreateHost(ctx, cfg)
}
