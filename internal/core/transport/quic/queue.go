package quic

import (
	"context"
	"sync"

	"github.com/dep2p/go-enet/pkg/interfaces/transport"
)

// eventQueue 主机的事件队列
//
// 连接与断开事件总是入队；接收事件在队列满时阻塞，形成背压。
// 单消费者（服务循环），多生产者（各对端的读 goroutine）。
type eventQueue struct {
	mu    sync.Mutex
	items []transport.Event
	limit int

	notify chan struct{} // 有新事件
	space  chan struct{} // 有空位
}

func newEventQueue(limit int) *eventQueue {
	return &eventQueue{
		limit:  limit,
		notify: make(chan struct{}, 1),
		space:  make(chan struct{}, 1),
	}
}

func signal(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

// push 入队连接或断开事件
func (q *eventQueue) push(ev transport.Event) {
	q.pushIf(ev, func() bool { return true })
}

// pushIf 在 accept 返回 true 时入队，不受容量限制
func (q *eventQueue) pushIf(ev transport.Event, accept func() bool) bool {
	q.mu.Lock()
	if !accept() {
		q.mu.Unlock()
		return false
	}
	q.items = append(q.items, ev)
	q.mu.Unlock()
	signal(q.notify)
	return true
}

// pushReceive 入队接收事件，队列满时等待
//
// accept 在持有队列锁时调用，返回 false 时丢弃事件；
// 与 drop 配合保证被重置对端的事件不会在清理之后再入队。
func (q *eventQueue) pushReceive(ctx context.Context, ev transport.Event, accept func() bool) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		q.mu.Lock()
		if !accept() {
			q.mu.Unlock()
			return context.Canceled
		}
		if len(q.items) < q.limit {
			q.items = append(q.items, ev)
			more := len(q.items) < q.limit
			q.mu.Unlock()

			signal(q.notify)
			if more {
				signal(q.space)
			}
			return nil
		}
		q.mu.Unlock()

		select {
		case <-q.space:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// pop 取出最早的事件
func (q *eventQueue) pop() (transport.Event, bool) {
	return q.take(func(transport.Event) bool { return true })
}

// take 取出第一个满足 match 的事件
func (q *eventQueue) take(match func(transport.Event) bool) (transport.Event, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i, ev := range q.items {
		if !match(ev) {
			continue
		}
		copy(q.items[i:], q.items[i+1:])
		q.items[len(q.items)-1] = transport.Event{}
		q.items = q.items[:len(q.items)-1]
		signal(q.space)
		return ev, true
	}
	return transport.Event{}, false
}

// drop 删除所有满足 match 的事件，返回删除数量
func (q *eventQueue) drop(match func(transport.Event) bool) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	kept := q.items[:0]
	for _, ev := range q.items {
		if !match(ev) {
			kept = append(kept, ev)
		}
	}
	dropped := len(q.items) - len(kept)
	clear(q.items[len(kept):])
	q.items = kept
	if dropped > 0 {
		signal(q.space)
	}
	return dropped
}

func (q *eventQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
