// Package registry 提供以原生句柄为键、对包装对象弱引用的身份缓存
//
// 同一个原生句柄在包装对象存活期间总是解析为同一个包装对象；
// 包装对象被回收后条目自动清除，下次解析会创建新的包装对象。
// 传输层报告句柄失效时可以调用 Evict 立即清除。
package registry

import (
	"runtime"
	"sync"
	"weak"
)

// Registry 弱值身份缓存
//
// 并发安全：回收清理运行在运行时的 cleanup goroutine 上。
type Registry[K comparable, V any] struct {
	mu      sync.Mutex
	entries map[K]weak.Pointer[V]
}

// cleanupArg 回收清理的参数，不能持有包装对象本身
type cleanupArg[K comparable, V any] struct {
	key K
	ptr weak.Pointer[V]
}

// New 创建空的注册表
func New[K comparable, V any]() *Registry[K, V] {
	return &Registry[K, V]{entries: make(map[K]weak.Pointer[V])}
}

// Resolve 返回 key 对应的存活包装对象，不存在时调用 create 创建并登记
//
// create 在持锁状态下调用，不得再访问同一个注册表。
func (r *Registry[K, V]) Resolve(key K, create func() *V) *V {
	r.mu.Lock()
	defer r.mu.Unlock()

	if wp, ok := r.entries[key]; ok {
		if v := wp.Value(); v != nil {
			return v
		}
	}

	v := create()
	wp := weak.Make(v)
	r.entries[key] = wp
	runtime.AddCleanup(v, r.reclaim, cleanupArg[K, V]{key: key, ptr: wp})
	return v
}

// Lookup 查找存活的包装对象，不创建
func (r *Registry[K, V]) Lookup(key K) (*V, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	wp, ok := r.entries[key]
	if !ok {
		return nil, false
	}
	v := wp.Value()
	return v, v != nil
}

// Values 返回所有存活的包装对象，顺序不定
func (r *Registry[K, V]) Values() []*V {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*V, 0, len(r.entries))
	for _, wp := range r.entries {
		if v := wp.Value(); v != nil {
			out = append(out, v)
		}
	}
	return out
}

// Evict 清除 key 的条目，包装对象本身不受影响
func (r *Registry[K, V]) Evict(key K) {
	r.mu.Lock()
	delete(r.entries, key)
	r.mu.Unlock()
}

// Len 返回条目数（包括尚未清理的已回收条目）
func (r *Registry[K, V]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Reset 清空注册表，仅用于测试
func (r *Registry[K, V]) Reset() {
	r.mu.Lock()
	clear(r.entries)
	r.mu.Unlock()
}

// reclaim 只在条目仍指向被回收的包装对象时删除
func (r *Registry[K, V]) reclaim(arg cleanupArg[K, V]) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cur, ok := r.entries[arg.key]; ok && cur == arg.ptr {
		delete(r.entries, arg.key)
	}
}
