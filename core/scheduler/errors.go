package scheduler

import "errors"

var (
	// 重试相关错误
	ErrInvalidAttempts = errors.New("attempts must be positive")
	ErrNilStrategy     = errors.New("retry strategy is nil")

	// 任务相关错误
	ErrTimerStopped = errors.New("timer stopped")
	ErrPoolClosed   = errors.New("pool is closed")
	ErrInvalidCron  = errors.New("invalid cron expression")

	// 熔断
	ErrCircuitBreakerOpen = errors.New("circuit breaker is open")
)
