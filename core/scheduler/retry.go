package scheduler

import (
	"context"
	"math"
	"math/rand/v2"
	"time"
)

// RetryStrategy 重试策略接口
type RetryStrategy interface {
	// NextRetry 返回第 retryCount 次失败之后的等待时间
	NextRetry(retryCount int) time.Duration
}

// ExponentialBackoff 指数退避
type ExponentialBackoff struct {
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	Multiplier float64
	Jitter     bool // ±25% 随机抖动
}

// NewExponentialBackoff 创建指数退避策略
func NewExponentialBackoff(baseDelay, maxDelay time.Duration, multiplier float64, jitter bool) *ExponentialBackoff {
	return &ExponentialBackoff{
		BaseDelay:  baseDelay,
		MaxDelay:   maxDelay,
		Multiplier: multiplier,
		Jitter:     jitter,
	}
}

// NextRetry delay = min(base * multiplier^retryCount, max)
func (e *ExponentialBackoff) NextRetry(retryCount int) time.Duration {
	retryCount = max(retryCount, 0)

	delay := float64(e.BaseDelay) * math.Pow(e.Multiplier, float64(retryCount))
	if e.MaxDelay > 0 && delay > float64(e.MaxDelay) {
		delay = float64(e.MaxDelay)
	}

	if e.Jitter && delay > 0 {
		delay += delay * 0.25 * (rand.Float64()*2 - 1)
	}

	return time.Duration(max(delay, 0))
}

// FixedDelay 固定间隔
type FixedDelay struct {
	Delay time.Duration
}

// NewFixedDelay 创建固定延迟策略
func NewFixedDelay(delay time.Duration) *FixedDelay {
	return &FixedDelay{Delay: delay}
}

func (f *FixedDelay) NextRetry(int) time.Duration {
	return f.Delay
}

// Attempt 描述一次失败的尝试
type Attempt struct {
	Number int // 从 1 开始
	Err    error
	Next   time.Duration // 下一次尝试前的等待，最后一次为 0
}

// RetryOption 配置 Retry
type RetryOption func(*retryConfig)

type retryConfig struct {
	onFailure func(Attempt)
	retryable func(error) bool
}

// OnFailure 每次失败后回调，常用于日志
func OnFailure(fn func(Attempt)) RetryOption {
	return func(c *retryConfig) {
		c.onFailure = fn
	}
}

// RetryIf 只有 fn 返回 true 的错误才继续重试
func RetryIf(fn func(error) bool) RetryOption {
	return func(c *retryConfig) {
		c.retryable = fn
	}
}

// Retry 最多执行 fn attempts 次，两次之间按 strategy 等待。
// 返回最后一次的错误；ctx 取消时立即返回 ctx.Err()。
func Retry(ctx context.Context, attempts int, strategy RetryStrategy, fn func(ctx context.Context) error, opts ...RetryOption) error {
	if attempts <= 0 {
		return ErrInvalidAttempts
	}
	if strategy == nil {
		return ErrNilStrategy
	}

	var cfg retryConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	var err error
	for i := 1; i <= attempts; i++ {
		if err = fn(ctx); err == nil {
			return nil
		}

		last := i == attempts || (cfg.retryable != nil && !cfg.retryable(err))
		var wait time.Duration
		if !last {
			wait = strategy.NextRetry(i - 1)
		}
		if cfg.onFailure != nil {
			cfg.onFailure(Attempt{Number: i, Err: err, Next: wait})
		}
		if last {
			return err
		}

		if err := sleep(ctx, wait); err != nil {
			return err
		}
	}
	return err
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
