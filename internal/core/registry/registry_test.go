package registry

import (
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type native struct{ id int }

type wrapper struct {
	native *native
	label  string
}

func TestRegistry_IdentityStable(t *testing.T) {
	r := New[*native, wrapper]()
	n := &native{id: 1}
	created := 0
	create := func() *wrapper {
		created++
		return &wrapper{native: n}
	}

	first := r.Resolve(n, create)
	for range 10 {
		assert.Same(t, first, r.Resolve(n, create))
	}
	assert.Equal(t, 1, created)

	first.label = "tag"
	got, ok := r.Lookup(n)
	require.True(t, ok)
	assert.Equal(t, "tag", got.label, "脚本附加在包装对象上的状态保留")
}

func TestRegistry_DistinctKeys(t *testing.T) {
	r := New[*native, wrapper]()
	a, b := &native{id: 1}, &native{id: 2}

	wa := r.Resolve(a, func() *wrapper { return &wrapper{native: a} })
	wb := r.Resolve(b, func() *wrapper { return &wrapper{native: b} })

	assert.NotSame(t, wa, wb)
	assert.Equal(t, 2, r.Len())
	runtime.KeepAlive(wa)
	runtime.KeepAlive(wb)
}

func TestRegistry_ReclaimedAfterCollection(t *testing.T) {
	r := New[int, wrapper]()

	func() {
		r.Resolve(42, func() *wrapper { return &wrapper{label: "gone"} })
	}()

	require.Eventually(t, func() bool {
		runtime.GC()
		return r.Len() == 0
	}, 5*time.Second, 10*time.Millisecond)

	_, ok := r.Lookup(42)
	assert.False(t, ok)
}

func TestRegistry_StaleCleanupKeepsNewEntry(t *testing.T) {
	r := New[int, wrapper]()

	old := r.Resolve(7, func() *wrapper { return &wrapper{label: "old"} })
	r.Evict(7)
	fresh := r.Resolve(7, func() *wrapper { return &wrapper{label: "fresh"} })
	assert.NotSame(t, old, fresh)

	old = nil
	for range 5 {
		runtime.GC()
		time.Sleep(5 * time.Millisecond)
	}

	got, ok := r.Lookup(7)
	require.True(t, ok, "旧包装对象的清理不影响新条目")
	assert.Same(t, fresh, got)
	runtime.KeepAlive(fresh)
}

func TestRegistry_Values(t *testing.T) {
	r := New[*native, wrapper]()
	a, b := &native{id: 1}, &native{id: 2}
	wa := r.Resolve(a, func() *wrapper { return &wrapper{native: a} })
	wb := r.Resolve(b, func() *wrapper { return &wrapper{native: b} })

	assert.ElementsMatch(t, []*wrapper{wa, wb}, r.Values())

	r.Evict(a)
	assert.Equal(t, []*wrapper{wb}, r.Values())
	runtime.KeepAlive(wa)
}

func TestRegistry_EvictAndReset(t *testing.T) {
	r := New[string, wrapper]()
	w := r.Resolve("a", func() *wrapper { return &wrapper{} })
	r.Resolve("b", func() *wrapper { return &wrapper{} })

	r.Evict("a")
	_, ok := r.Lookup("a")
	assert.False(t, ok)
	assert.NotSame(t, w, r.Resolve("a", func() *wrapper { return &wrapper{} }))

	r.Reset()
	assert.Zero(t, r.Len())
}

func TestRegistry_Concurrent(t *testing.T) {
	r := New[int, wrapper]()
	keep := make([]*wrapper, 16)

	var wg sync.WaitGroup
	var mu sync.Mutex
	for g := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for k := range 16 {
				w := r.Resolve(k, func() *wrapper { return &wrapper{} })
				mu.Lock()
				if keep[k] == nil {
					keep[k] = w
				} else {
					assert.Same(t, keep[k], w, "goroutine %d key %d", g, k)
				}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	runtime.KeepAlive(keep)
}
