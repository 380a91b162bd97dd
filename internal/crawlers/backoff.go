package crawlers

import (
	"context"
	"math"
	"time"
)

// BackoffStrategy 重试间隔策略
type BackoffStrategy interface {
	// NextDelay 第 attempt 次失败后的等待时间 (attempt 从1开始)
	NextDelay(attempt int) time.Duration
}

// ConstantBackoff 固定间隔
type ConstantBackoff struct {
	Delay time.Duration
}

// NextDelay 返回固定间隔
func (b ConstantBackoff) NextDelay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	return b.Delay
}

// ExponentialBackoff 指数增长间隔,不超过 MaxDelay
type ExponentialBackoff struct {
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	Multiplier float64
}

// NextDelay 返回 BaseDelay * Multiplier^(attempt-1)
func (b ExponentialBackoff) NextDelay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	mult := b.Multiplier
	if mult <= 1 {
		mult = 2
	}
	delay := float64(b.BaseDelay) * math.Pow(mult, float64(attempt-1))
	if b.MaxDelay > 0 && delay > float64(b.MaxDelay) {
		delay = float64(b.MaxDelay)
	}
	return time.Duration(delay)
}

// NewBackoff 按名称创建策略: constant 或 exponential
func NewBackoff(kind string, delay, maxDelay time.Duration) BackoffStrategy {
	if kind == "exponential" {
		return ExponentialBackoff{BaseDelay: delay, MaxDelay: maxDelay, Multiplier: 2}
	}
	return ConstantBackoff{Delay: delay}
}

// Sleeper 可替换的等待函数,测试中用于跳过真实等待
type Sleeper func(ctx context.Context, d time.Duration) error

// Wait 等待指定时长或直到ctx取消
func Wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
