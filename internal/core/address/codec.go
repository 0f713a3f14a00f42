// Package address 实现 "host:port" 地址的解析与格式化
//
// 语法：
//   - host 为 IP 字面量、可解析的主机名或通配符 "*"
//   - port 为十进制端口或通配符 "*"
//   - 以第一个冒号分隔主机与端口；IPv6 字面量需写成 "[::1]:5959"
package address

import (
	"context"
	"fmt"
	"net"
	"net/netip"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"

	"github.com/dep2p/go-enet/pkg/lib/log"
	"github.com/dep2p/go-enet/pkg/types"
)

var logger = log.Logger("core/address")

const (
	// Wildcard 主机或端口的通配写法
	Wildcard = "*"

	// MaxHostLength 主机段的最大字节数
	MaxHostLength = 128

	// MaxPortLength 端口段的最大字节数
	MaxPortLength = 32
)

// Resolver 主机名解析器
//
// *net.Resolver 满足该接口。
type Resolver interface {
	LookupNetIP(ctx context.Context, network, host string) ([]netip.Addr, error)
}

// Config 编解码器配置
type Config struct {
	// CacheSize 解析缓存条目数，0 表示不缓存
	CacheSize int
	// CacheTTL 缓存有效期
	CacheTTL time.Duration
	// LookupTimeout 单次解析超时
	LookupTimeout time.Duration
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		CacheSize:     256,
		CacheTTL:      5 * time.Minute,
		LookupTimeout: 5 * time.Second,
	}
}

// ============================================================================
//                              Codec 实现
// ============================================================================

// Codec 地址编解码器
//
// 并发安全。解析结果按主机名缓存，同名的并发解析只发起一次查询。
type Codec struct {
	resolver Resolver
	timeout  time.Duration
	cache    *expirable.LRU[string, netip.Addr]
	group    singleflight.Group
}

// NewCodec 创建编解码器，resolver 为 nil 时使用 net.DefaultResolver
func NewCodec(cfg Config, resolver Resolver) *Codec {
	if resolver == nil {
		resolver = net.DefaultResolver
	}
	if cfg.LookupTimeout <= 0 {
		cfg.LookupTimeout = DefaultConfig().LookupTimeout
	}

	c := &Codec{
		resolver: resolver,
		timeout:  cfg.LookupTimeout,
	}
	if cfg.CacheSize > 0 {
		c.cache = expirable.NewLRU[string, netip.Addr](cfg.CacheSize, nil, cfg.CacheTTL)
	}
	return c
}

// Parse 解析 "host:port"
//
// 示例：
//   - "*:5959" → 主机 ANY，端口 5959
//   - "127.0.0.1:*" → 主机 127.0.0.1，端口 ANY
//   - "example.com:8080" → 解析后的主机，端口 8080
func (c *Codec) Parse(ctx context.Context, s string) (types.Address, error) {
	host, port, err := Split(s)
	if err != nil {
		return types.Address{}, err
	}

	p, err := ParsePort(port)
	if err != nil {
		return types.Address{}, err
	}

	if host == Wildcard {
		return types.Address{Port: p}, nil
	}

	ip, err := c.Resolve(ctx, host)
	if err != nil {
		return types.Address{}, err
	}
	return types.Address{Host: ip, Port: p}, nil
}

// Resolve 将主机段转换为 IP
//
// IP 字面量直接返回；主机名优先取 IPv4 结果，没有时取第一个 IPv6 结果。
func (c *Codec) Resolve(ctx context.Context, host string) (netip.Addr, error) {
	if ip, err := netip.ParseAddr(host); err == nil {
		return ip.Unmap(), nil
	}

	key := strings.ToLower(host)
	if c.cache != nil {
		if ip, ok := c.cache.Get(key); ok {
			return ip, nil
		}
	}

	// 共享的查询不受任一调用方取消的影响，只受 LookupTimeout 约束；
	// 每个调用方各自等待自己的 ctx。
	lctx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		ip, err := c.lookup(lctx, host)
		if err == nil && c.cache != nil {
			c.cache.Add(key, ip)
		}
		return ip, err
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return netip.Addr{}, res.Err
		}
		ip := res.Val.(netip.Addr)
		logger.Debug("解析主机名", "host", host, "ip", ip, "shared", res.Shared)
		return ip, nil
	case <-ctx.Done():
		return netip.Addr{}, fmt.Errorf("%w: %s: %w", ErrResolutionFailure, host, ctx.Err())
	}
}

// lookup 执行一次解析，最长等待 LookupTimeout
func (c *Codec) lookup(ctx context.Context, host string) (netip.Addr, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	ips, err := c.resolver.LookupNetIP(ctx, "ip", host)
	if err != nil {
		return netip.Addr{}, fmt.Errorf("%w: %s: %v", ErrResolutionFailure, host, err)
	}

	var v6 netip.Addr
	for _, ip := range ips {
		ip = ip.Unmap()
		if ip.Is4() {
			return ip, nil
		}
		if !v6.IsValid() && ip.IsValid() {
			v6 = ip
		}
	}
	if !v6.IsValid() {
		return netip.Addr{}, fmt.Errorf("%w: %s: no addresses", ErrResolutionFailure, host)
	}
	return v6, nil
}

// Purge 清空解析缓存
func (c *Codec) Purge() {
	if c.cache != nil {
		c.cache.Purge()
	}
}

// ============================================================================
//                              纯函数
// ============================================================================

// Split 按第一个冒号把地址拆成主机段和端口段
//
// 超长的段返回 ErrAddressTooLong，不做截断；
// 缺少冒号、主机为空或端口为空返回 ErrMalformedAddress。
func Split(s string) (host, port string, err error) {
	if strings.HasPrefix(s, "[") {
		end := strings.IndexByte(s, ']')
		if end < 0 || !strings.HasPrefix(s[end+1:], ":") {
			return "", "", fmt.Errorf("%w: %q", ErrMalformedAddress, s)
		}
		host, port = s[1:end], s[end+2:]
	} else {
		var found bool
		host, port, found = strings.Cut(s, ":")
		if !found {
			return "", "", fmt.Errorf("%w: missing port in %q", ErrMalformedAddress, s)
		}
	}

	if len(host) > MaxHostLength {
		return "", "", fmt.Errorf("%w: host segment is %d bytes (max %d)", ErrAddressTooLong, len(host), MaxHostLength)
	}
	if len(port) > MaxPortLength {
		return "", "", fmt.Errorf("%w: port segment is %d bytes (max %d)", ErrAddressTooLong, len(port), MaxPortLength)
	}
	if host == "" {
		return "", "", fmt.Errorf("%w: empty host in %q", ErrMalformedAddress, s)
	}
	if port == "" {
		return "", "", fmt.Errorf("%w: missing port in %q", ErrMalformedAddress, s)
	}
	return host, port, nil
}

// ParsePort 解析端口段，"*" 表示 ANY
func ParsePort(s string) (uint16, error) {
	if s == Wildcard {
		return types.PortAny, nil
	}
	n, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid port %q", ErrMalformedAddress, s)
	}
	return uint16(n), nil
}

// Format 将地址渲染为 "host:port"
//
// 主机为文本形式的 IP（ANY 渲染为 0.0.0.0），端口为十进制数字。
func Format(a types.Address) string {
	return a.String()
}
