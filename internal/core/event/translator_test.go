package event

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-enet/internal/core/metrics"
	"github.com/dep2p/go-enet/internal/mocks"
	"github.com/dep2p/go-enet/pkg/interfaces/transport"
	"github.com/dep2p/go-enet/pkg/types"
)

// recorder 记录上报的事件与服务错误
type recorder struct {
	metrics.Reporter
	events        map[types.EventType]int
	serviceErrors int
}

func newRecorder() *recorder {
	return &recorder{Reporter: metrics.Discard, events: make(map[types.EventType]int)}
}

func (r *recorder) LogEvent(t types.EventType) { r.events[t]++ }
func (r *recorder) LogServiceError() { r.serviceErrors++ }

// wrapper 测试用的包装对象
type wrapper struct {
	peer transport.Peer
}

type fixture struct {
	wrappers map[transport.Peer]*wrapper
	evicted  []transport.Peer
	tr       *Translator[*wrapper]
}

func newFixture(reporter metrics.Reporter) *fixture {
	f := &fixture{wrappers: make(map[transport.Peer]*wrapper)}
	resolve := func(p transport.Peer) *wrapper {
		w, ok := f.wrappers[p]
		if !ok {
			w = &wrapper{peer: p}
			f.wrappers[p] = w
		}
		return w
	}
	evict := func(p transport.Peer) {
		f.evicted = append(f.evicted, p)
		delete(f.wrappers, p)
	}
	f.tr = New(resolve, evict, reporter)
	return f
}

func TestTranslator_Service(t *testing.T) {
	f := newFixture(nil)
	host := mocks.NewMockHost()
	peer := mocks.NewMockPeer("127.0.0.1:5959")

	host.Push(transport.Event{Type: types.EventConnect, Peer: peer, Data: 42})
	host.Push(transport.Event{Type: types.EventReceive, Peer: peer, Packet: types.NewPacket([]byte("hello"), 2, types.PacketFlagReliable)})
	host.Push(transport.Event{Type: types.EventDisconnect, Peer: peer, Data: 7})

	ctx := context.Background()

	t.Run("连接事件", func(t *testing.T) {
		ev, err := f.tr.Service(ctx, host, 0)
		require.NoError(t, err)
		assert.Equal(t, types.EventConnect, ev.Type)
		assert.Same(t, f.wrappers[peer], ev.Peer)
		assert.Equal(t, uint32(42), ev.Code)
		assert.Nil(t, ev.Data)
	})

	var w *wrapper
	t.Run("接收事件", func(t *testing.T) {
		ev, err := f.tr.Service(ctx, host, 0)
		require.NoError(t, err)
		assert.Equal(t, types.EventReceive, ev.Type)
		assert.Equal(t, []byte("hello"), ev.Data)
		assert.Equal(t, uint8(2), ev.Channel)
		w = ev.Peer
		assert.Same(t, f.wrappers[peer], w, "同一对端解析为同一包装对象")
	})

	t.Run("断开事件", func(t *testing.T) {
		ev, err := f.tr.Service(ctx, host, 0)
		require.NoError(t, err)
		assert.Equal(t, types.EventDisconnect, ev.Type)
		assert.Same(t, w, ev.Peer)
		assert.Equal(t, uint32(7), ev.Code)
		assert.Equal(t, []transport.Peer{peer}, f.evicted)
	})

	t.Run("没有事件", func(t *testing.T) {
		ev, err := f.tr.Service(ctx, host, 10*time.Millisecond)
		require.NoError(t, err)
		assert.Equal(t, types.EventNone, ev.Type)
		assert.Nil(t, ev.Peer)
	})
}

func TestTranslator_PayloadCopied(t *testing.T) {
	f := newFixture(nil)
	peer := mocks.NewMockPeer("127.0.0.1:5959")

	buf := []byte("original")
	ev := f.tr.Translate(transport.Event{Type: types.EventReceive, Peer: peer, Packet: types.NewPacket(buf, 0, 0)})

	buf[0] = 'X'
	assert.Equal(t, []byte("original"), ev.Data)
}

func TestTranslator_Errors(t *testing.T) {
	rec := newRecorder()
	f := newFixture(rec)

	t.Run("服务失败", func(t *testing.T) {
		boom := errors.New("socket closed")
		host := &mocks.MockHost{
			ServiceFunc: func(context.Context, time.Duration) (transport.Event, error) {
				return transport.Event{}, boom
			},
		}

		_, err := f.tr.Service(context.Background(), host, 0)
		assert.ErrorIs(t, err, ErrServiceError)
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 1, rec.serviceErrors)
	})

	t.Run("主机已销毁", func(t *testing.T) {
		host := mocks.NewMockHost()
		require.NoError(t, host.Destroy())

		_, err := f.tr.Service(context.Background(), host, 0)
		assert.ErrorIs(t, err, transport.ErrHostDestroyed)
		assert.NotErrorIs(t, err, ErrServiceError)
	})
}

func TestTranslator_Metrics(t *testing.T) {
	rec := newRecorder()
	f := newFixture(rec)
	peer := mocks.NewMockPeer("127.0.0.1:5959")

	f.tr.Translate(transport.Event{Type: types.EventConnect, Peer: peer})
	f.tr.Translate(transport.Event{Type: types.EventReceive, Peer: peer, Packet: types.NewPacket(nil, 0, 0)})
	f.tr.Translate(transport.Event{Type: types.EventReceive, Peer: peer, Packet: types.NewPacket(nil, 0, 0)})
	f.tr.Translate(transport.Event{Type: types.EventNone})

	assert.Equal(t, 1, rec.events[types.EventConnect])
	assert.Equal(t, 2, rec.events[types.EventReceive])
	assert.Zero(t, rec.events[types.EventNone])
}
