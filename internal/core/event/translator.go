// Package event 把传输层事件翻译为脚本可见的事件
//
// 每次调用只服务一次主机，最多产生一个事件，不重排也不缓存。
// 对端句柄通过注册表解析为稳定的包装对象；断开事件翻译完成后
// 从注册表中移除该对端。
package event

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dep2p/go-enet/internal/core/metrics"
	"github.com/dep2p/go-enet/internal/core/packet"
	"github.com/dep2p/go-enet/pkg/interfaces/transport"
	"github.com/dep2p/go-enet/pkg/lib/log"
	"github.com/dep2p/go-enet/pkg/types"
)

var logger = log.Logger("core/event")

// ErrServiceError 传输层服务失败
var ErrServiceError = errors.New("service error")

// Event 翻译后的事件
//
// Data 与 Channel 只在接收事件中有效；Code 携带连接或断开数据。
type Event[P any] struct {
	Type    types.EventType
	Peer    P
	Data    []byte
	Channel uint8
	Code    uint32
}

// Translator 事件翻译器
type Translator[P any] struct {
	resolve  func(transport.Peer) P
	evict    func(transport.Peer)
	reporter metrics.Reporter
}

// New 创建翻译器
//
// resolve 返回对端的包装对象，同一对端必须返回同一对象；
// evict 在断开事件之后调用，可以为 nil。
func New[P any](resolve func(transport.Peer) P, evict func(transport.Peer), reporter metrics.Reporter) *Translator[P] {
	if reporter == nil {
		reporter = metrics.Discard
	}
	if evict == nil {
		evict = func(transport.Peer) {}
	}
	return &Translator[P]{resolve: resolve, evict: evict, reporter: reporter}
}

// Service 服务主机一次并翻译结果
//
// 超时内没有事件时返回 EventNone。主机已销毁时原样返回
// transport.ErrHostDestroyed，其余失败包装为 ErrServiceError，不重试。
func (t *Translator[P]) Service(ctx context.Context, host transport.Host, timeout time.Duration) (Event[P], error) {
	ev, err := host.Service(ctx, timeout)
	if err != nil {
		if errors.Is(err, transport.ErrHostDestroyed) {
			return Event[P]{}, err
		}
		t.reporter.LogServiceError()
		return Event[P]{}, fmt.Errorf("%w: %w", ErrServiceError, err)
	}
	return t.Translate(ev), nil
}

// Translate 翻译一个传输层事件
func (t *Translator[P]) Translate(ev transport.Event) Event[P] {
	var out Event[P]

	switch ev.Type {
	case types.EventConnect:
		out = Event[P]{Type: ev.Type, Peer: t.resolve(ev.Peer), Code: ev.Data}

	case types.EventDisconnect:
		out = Event[P]{Type: ev.Type, Peer: t.resolve(ev.Peer), Code: ev.Data}
		t.evict(ev.Peer)

	case types.EventReceive:
		if ev.Packet == nil {
			return Event[P]{}
		}
		data, ch := packet.Decode(ev.Packet)
		out = Event[P]{Type: ev.Type, Peer: t.resolve(ev.Peer), Data: data, Channel: ch}

	default:
		return Event[P]{}
	}

	t.reporter.LogEvent(ev.Type)
	if logger.Enabled(log.LevelDebug) {
		logger.Debug("事件",
			"type", ev.Type.String(),
			"peer", ev.Peer.Address().String(),
			"channel", out.Channel,
			"size", len(out.Data),
			"code", out.Code)
	}
	return out
}
