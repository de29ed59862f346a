package scheduler

import (
	"sync"
	"time"
)

// CircuitState 熔断器状态
type CircuitState int

const (
	StateClosed   CircuitState = iota // 正常
	StateOpen                         // 熔断
	StateHalfOpen                     // 尝试恢复
)

func (s CircuitState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreaker 连续失败 maxFailures 次后熔断 timeout，之后放行一次试探
type CircuitBreaker struct {
	maxFailures     int
	timeout         time.Duration
	state           CircuitState
	failures        int
	lastStateChange time.Time
	now             func() time.Time
	mu              sync.Mutex
}

// NewCircuitBreaker 创建熔断器
func NewCircuitBreaker(maxFailures int, timeout time.Duration) *CircuitBreaker {
	return &CircuitBreaker{
		maxFailures:     max(maxFailures, 1),
		timeout:         timeout,
		state:           StateClosed,
		lastStateChange: time.Now(),
		now:             time.Now,
	}
}

// Allow 检查是否允许请求通过
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed, StateHalfOpen:
		return true
	case StateOpen:
		now := cb.now()
		if now.Sub(cb.lastStateChange) >= cb.timeout {
			cb.state = StateHalfOpen
			cb.lastStateChange = now
			return true
		}
		return false
	default:
		return false
	}
}

// Do 熔断时直接返回 ErrCircuitBreakerOpen，否则执行 fn 并记录结果
func (cb *CircuitBreaker) Do(fn func() error) error {
	if !cb.Allow() {
		return ErrCircuitBreakerOpen
	}
	if err := fn(); err != nil {
		cb.RecordFailure()
		return err
	}
	cb.RecordSuccess()
	return nil
}

// RecordSuccess 记录成功，半开状态下恢复为关闭
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures = 0
	if cb.state == StateHalfOpen {
		cb.state = StateClosed
		cb.lastStateChange = cb.now()
	}
}

// RecordFailure 记录失败
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures++
	switch cb.state {
	case StateClosed:
		if cb.failures >= cb.maxFailures {
			cb.state = StateOpen
			cb.lastStateChange = cb.now()
		}
	case StateHalfOpen:
		cb.state = StateOpen
		cb.lastStateChange = cb.now()
	}
}

// State 当前状态
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Reset 重置熔断器
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.state = StateClosed
	cb.failures = 0
	cb.lastStateChange = cb.now()
}
