package quic

import (
	"context"

	"golang.org/x/time/rate"
)

// limiter 主机级带宽限制，所有对端共享
//
// 令牌以字节计，突发上限为一秒的额度。nil 表示不限速。
type limiter struct {
	lim *rate.Limiter
}

func newLimiter(bytesPerSecond uint32) *limiter {
	if bytesPerSecond == 0 {
		return nil
	}
	return &limiter{lim: rate.NewLimiter(rate.Limit(bytesPerSecond), int(bytesPerSecond))}
}

// wait 阻塞直到 n 字节的额度可用
//
// 大于突发上限的包分段等待。
func (l *limiter) wait(ctx context.Context, n int) error {
	if l == nil {
		return nil
	}
	burst := l.lim.Burst()
	for n > 0 {
		chunk := min(n, burst)
		if err := l.lim.WaitN(ctx, chunk); err != nil {
			return err
		}
		n -= chunk
	}
	return nil
}
