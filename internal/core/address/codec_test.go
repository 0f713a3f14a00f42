package address

import (
	"context"
	"errors"
	"net/netip"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-enet/pkg/types"
)

// fakeResolver 固定表解析器
type fakeResolver struct {
	table map[string][]netip.Addr
	calls atomic.Int32
	delay time.Duration
}

func (r *fakeResolver) LookupNetIP(ctx context.Context, _ string, host string) ([]netip.Addr, error) {
	r.calls.Add(1)
	if r.delay > 0 {
		select {
		case <-time.After(r.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	ips, ok := r.table[host]
	if !ok {
		return nil, errors.New("no such host")
	}
	return ips, nil
}

func newTestCodec(t *testing.T) (*Codec, *fakeResolver) {
	t.Helper()
	r := &fakeResolver{table: map[string][]netip.Addr{
		"website.example": {netip.MustParseAddr("2001:db8::1"), netip.MustParseAddr("203.0.113.7")},
		"v6only.example":  {netip.MustParseAddr("2001:db8::2")},
		"empty.example":   {},
	}}
	return NewCodec(DefaultConfig(), r), r
}

func TestCodec_Parse(t *testing.T) {
	codec, _ := newTestCodec(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		input    string
		wantHost netip.Addr
		wantPort uint16
	}{
		{"通配主机", "*:5959", netip.Addr{}, 5959},
		{"通配端口", "127.0.0.1:*", netip.MustParseAddr("127.0.0.1"), types.PortAny},
		{"主机名优先 IPv4", "website.example:8080", netip.MustParseAddr("203.0.113.7"), 8080},
		{"仅 IPv6 主机名", "v6only.example:1", netip.MustParseAddr("2001:db8::2"), 1},
		{"IPv6 字面量", "[::1]:5959", netip.MustParseAddr("::1"), 5959},
		{"全通配", "*:*", netip.Addr{}, types.PortAny},
		{"最大端口", "127.0.0.1:65535", netip.MustParseAddr("127.0.0.1"), 65535},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			addr, err := codec.Parse(ctx, tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.wantHost, addr.Host)
			assert.Equal(t, tt.wantPort, addr.Port)
		})
	}
}

func TestCodec_Parse_Errors(t *testing.T) {
	codec, _ := newTestCodec(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{"空主机", ":8080", ErrMalformedAddress},
		{"空端口", "host:", ErrMalformedAddress},
		{"缺少冒号", "localhost", ErrMalformedAddress},
		{"空字符串", "", ErrMalformedAddress},
		{"端口非数字", "127.0.0.1:http", ErrMalformedAddress},
		{"端口越界", "127.0.0.1:70000", ErrMalformedAddress},
		{"负端口", "127.0.0.1:-1", ErrMalformedAddress},
		{"未闭合方括号", "[::1:5959", ErrMalformedAddress},
		{"主机过长", strings.Repeat("a", MaxHostLength+1) + ":1", ErrAddressTooLong},
		{"端口过长", "*:" + strings.Repeat("1", MaxPortLength+1), ErrAddressTooLong},
		{"未知主机", "nowhere.example:1", ErrResolutionFailure},
		{"无结果主机", "empty.example:1", ErrResolutionFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := codec.Parse(ctx, tt.input)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestSplit_BoundaryLengths(t *testing.T) {
	host := strings.Repeat("h", MaxHostLength)
	port := strings.Repeat("9", MaxPortLength)

	h, p, err := Split(host + ":" + port)
	require.NoError(t, err, "恰好等于上限的段被接受")
	assert.Equal(t, host, h)
	assert.Equal(t, port, p)

	_, _, err = Split("a:b:c")
	require.NoError(t, err, "第一个冒号分隔主机与端口")
}

func TestCodec_ResolveCached(t *testing.T) {
	codec, r := newTestCodec(t)
	ctx := context.Background()

	for range 3 {
		_, err := codec.Parse(ctx, "website.example:1")
		require.NoError(t, err)
	}
	before := r.calls.Load()
	_, err := codec.Parse(ctx, "Website.Example:2")
	require.NoError(t, err)
	assert.Equal(t, before, r.calls.Load(), "缓存键不区分大小写")

	codec.Purge()
	_, err = codec.Parse(ctx, "website.example:1")
	require.NoError(t, err)
	assert.Equal(t, before+1, r.calls.Load())
}

func TestCodec_SingleflightCollapses(t *testing.T) {
	r := &fakeResolver{
		table: map[string][]netip.Addr{"slow.example": {netip.MustParseAddr("192.0.2.1")}},
		delay: 50 * time.Millisecond,
	}
	codec := NewCodec(Config{LookupTimeout: time.Second}, r)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ip, err := codec.Resolve(context.Background(), "slow.example")
			assert.NoError(t, err)
			assert.Equal(t, netip.MustParseAddr("192.0.2.1"), ip)
		}()
	}
	wg.Wait()

	assert.Less(t, r.calls.Load(), int32(8))
}

func TestCodec_LookupTimeout(t *testing.T) {
	r := &fakeResolver{
		table: map[string][]netip.Addr{"slow.example": {netip.MustParseAddr("192.0.2.1")}},
		delay: time.Second,
	}
	codec := NewCodec(Config{LookupTimeout: 10 * time.Millisecond}, r)

	_, err := codec.Parse(context.Background(), "slow.example:1")
	assert.ErrorIs(t, err, ErrResolutionFailure)
}

func TestCodec_ResolveCallerDeadlines(t *testing.T) {
	r := &fakeResolver{
		table: map[string][]netip.Addr{"slow.test": {netip.MustParseAddr("192.0.2.9")}},
		delay: 200 * time.Millisecond,
	}
	codec := NewCodec(Config{LookupTimeout: 5 * time.Second}, r)

	var wg sync.WaitGroup
	var shortErr, longErr error
	var longAddr types.Address

	wg.Add(2)
	go func() {
		defer wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		_, shortErr = codec.Parse(ctx, "slow.test:1")
	}()
	go func() {
		defer wg.Done()
		// 让短期限的调用方先发起查询
		time.Sleep(5 * time.Millisecond)
		longAddr, longErr = codec.Parse(context.Background(), "slow.test:1")
	}()
	wg.Wait()

	assert.ErrorIs(t, shortErr, ErrResolutionFailure)
	assert.ErrorIs(t, shortErr, context.DeadlineExceeded)

	require.NoError(t, longErr, "一个调用方超时不应影响其他调用方")
	assert.Equal(t, netip.MustParseAddr("192.0.2.9"), longAddr.Host)
	assert.Equal(t, int32(1), r.calls.Load(), "并发解析只查询一次")

	t.Run("超时后结果仍被缓存", func(t *testing.T) {
		r := &fakeResolver{
			table: map[string][]netip.Addr{"slow.test": {netip.MustParseAddr("192.0.2.9")}},
			delay: 50 * time.Millisecond,
		}
		codec := NewCodec(Config{CacheSize: 8, CacheTTL: time.Minute, LookupTimeout: time.Second}, r)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
		defer cancel()
		_, err := codec.Resolve(ctx, "slow.test")
		assert.ErrorIs(t, err, ErrResolutionFailure)

		assert.Eventually(t, func() bool {
			ip, ok := codec.cache.Get("slow.test")
			return ok && ip == netip.MustParseAddr("192.0.2.9")
		}, time.Second, 10*time.Millisecond)
		assert.Equal(t, int32(1), r.calls.Load())
	})

	t.Log("✅ 共享查询不受单个调用方期限影响")
}

func TestFormat(t *testing.T) {
	tests := []struct {
		addr types.Address
		want string
	}{
		{types.Address{Port: 5959}, "0.0.0.0:5959"},
		{types.Address{Host: netip.MustParseAddr("127.0.0.1"), Port: 80}, "127.0.0.1:80"},
		{types.Address{Host: netip.MustParseAddr("::1"), Port: 1}, "[::1]:1"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, Format(tt.addr))
		})
	}
}

func TestFormat_RoundTrip(t *testing.T) {
	codec, _ := newTestCodec(t)
	for _, s := range []string{"127.0.0.1:5959", "[2001:db8::9]:65535", "10.0.0.1:1"} {
		addr, err := codec.Parse(context.Background(), s)
		require.NoError(t, err)
		assert.Equal(t, s, Format(addr))
	}
}
