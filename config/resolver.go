package config

import (
	"errors"
	"time"
)

// ResolverConfig 主机名解析配置
type ResolverConfig struct {
	// CacheSize 解析结果缓存条目数，0 表示禁用缓存
	CacheSize int `json:"cache_size" yaml:"cache_size"`

	// CacheTTL 缓存条目有效期
	CacheTTL Duration `json:"cache_ttl" yaml:"cache_ttl"`

	// LookupTimeout 单次解析超时
	LookupTimeout Duration `json:"lookup_timeout" yaml:"lookup_timeout"`
}

// DefaultResolverConfig 返回默认解析配置
func DefaultResolverConfig() ResolverConfig {
	return ResolverConfig{
		CacheSize:     256,
		CacheTTL:      Duration(5 * time.Minute),
		LookupTimeout: Duration(5 * time.Second),
	}
}

// Validate 验证解析配置
func (c ResolverConfig) Validate() error {
	if c.CacheSize < 0 {
		return errors.New("resolver cache size must not be negative")
	}
	if c.CacheSize > 0 && c.CacheTTL <= 0 {
		return errors.New("resolver cache ttl must be positive when cache is enabled")
	}
	if c.LookupTimeout <= 0 {
		return errors.New("resolver lookup timeout must be positive")
	}
	return nil
}
