package scheduler

import (
	"sync"
	"time"
)

// Timer 单次可取消定时任务。
// 重新 Schedule 会先取消尚未触发的任务，因此同一时刻最多只有一个待执行任务。
type Timer struct {
	mu       sync.Mutex
	timer    *time.Timer
	gen      uint64
	deadline time.Time
}

// NewTimer 创建未启动的 Timer
func NewTimer() *Timer {
	return &Timer{}
}

// Schedule 在 d 之后于独立 goroutine 中执行 fn，d <= 0 时立即触发
func (t *Timer) Schedule(d time.Duration, fn func()) {
	d = max(d, 0)

	t.mu.Lock()
	defer t.mu.Unlock()

	t.stopLocked()
	t.gen++
	gen := t.gen
	t.deadline = time.Now().Add(d)
	t.timer = time.AfterFunc(d, func() {
		t.mu.Lock()
		if t.gen != gen {
			// 已被 Stop 或重新 Schedule
			t.mu.Unlock()
			return
		}
		t.timer = nil
		t.deadline = time.Time{}
		t.mu.Unlock()

		fn()
	})
}

// Stop 取消待执行任务，返回是否确实取消了一个任务
func (t *Timer) Stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopLocked()
}

func (t *Timer) stopLocked() bool {
	if t.timer == nil {
		return false
	}
	t.timer.Stop()
	t.timer = nil
	t.deadline = time.Time{}
	t.gen++
	return true
}

// Armed 是否有待执行任务
func (t *Timer) Armed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.timer != nil
}

// Deadline 待执行任务的触发时间
func (t *Timer) Deadline() (time.Time, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.deadline, t.timer != nil
}
