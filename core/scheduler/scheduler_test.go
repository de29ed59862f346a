package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

func TestRetrySucceedsEventually(t *testing.T) {
	var calls int
	var failures []Attempt

	err := Retry(context.Background(), 3, NewFixedDelay(time.Millisecond), func(context.Context) error {
		calls++
		if calls < 3 {
			return errBoom
		}
		return nil
	}, OnFailure(func(a Attempt) { failures = append(failures, a) }))

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	require.Len(t, failures, 2)
	assert.Equal(t, 1, failures[0].Number)
	assert.Equal(t, time.Millisecond, failures[0].Next)
}

func TestRetryExhausted(t *testing.T) {
	var calls int
	var last Attempt

	err := Retry(context.Background(), 3, NewFixedDelay(time.Millisecond), func(context.Context) error {
		calls++
		return errBoom
	}, OnFailure(func(a Attempt) { last = a }))

	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, 3, calls)
	assert.Equal(t, 3, last.Number)
	assert.Zero(t, last.Next)
}

func TestRetryStopsOnNonRetryable(t *testing.T) {
	var calls int
	err := Retry(context.Background(), 5, NewFixedDelay(time.Millisecond), func(context.Context) error {
		calls++
		return errBoom
	}, RetryIf(func(err error) bool { return !errors.Is(err, errBoom) }))

	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, 1, calls)
}

func TestRetryHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var calls int

	err := Retry(ctx, 3, NewFixedDelay(time.Hour), func(context.Context) error {
		calls++
		cancel()
		return errBoom
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestRetryInvalidArguments(t *testing.T) {
	noop := func(context.Context) error { return nil }
	assert.ErrorIs(t, Retry(context.Background(), 0, NewFixedDelay(0), noop), ErrInvalidAttempts)
	assert.ErrorIs(t, Retry(context.Background(), 1, nil, noop), ErrNilStrategy)
}

func TestExponentialBackoff(t *testing.T) {
	b := NewExponentialBackoff(100*time.Millisecond, time.Second, 2, false)
	assert.Equal(t, 100*time.Millisecond, b.NextRetry(0))
	assert.Equal(t, 400*time.Millisecond, b.NextRetry(2))
	assert.Equal(t, time.Second, b.NextRetry(10))

	j := NewExponentialBackoff(100*time.Millisecond, time.Second, 2, true)
	for range 20 {
		d := j.NextRetry(1)
		assert.GreaterOrEqual(t, d, 150*time.Millisecond)
		assert.LessOrEqual(t, d, 250*time.Millisecond)
	}
}

func TestTimerFires(t *testing.T) {
	tm := NewTimer()
	fired := make(chan struct{})

	tm.Schedule(10*time.Millisecond, func() { close(fired) })
	deadline, ok := tm.Deadline()
	assert.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(10*time.Millisecond), deadline, 50*time.Millisecond)

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("timer did not fire")
	}
	assert.Eventually(t, func() bool { return !tm.Armed() }, time.Second, 5*time.Millisecond)
}

func TestTimerStop(t *testing.T) {
	tm := NewTimer()
	var fired atomic.Bool

	tm.Schedule(20*time.Millisecond, func() { fired.Store(true) })
	assert.True(t, tm.Stop())
	assert.False(t, tm.Stop())

	time.Sleep(50 * time.Millisecond)
	assert.False(t, fired.Load())
}

func TestTimerRescheduleReplacesPending(t *testing.T) {
	tm := NewTimer()
	var first, second atomic.Int32

	tm.Schedule(20*time.Millisecond, func() { first.Add(1) })
	tm.Schedule(30*time.Millisecond, func() { second.Add(1) })

	assert.Eventually(t, func() bool { return second.Load() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(0), first.Load())
}

func TestTimerNegativeDelayFiresImmediately(t *testing.T) {
	tm := NewTimer()
	fired := make(chan struct{})
	tm.Schedule(-time.Minute, func() { close(fired) })

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("timer did not fire")
	}
}

func TestCronParser(t *testing.T) {
	p := NewCronParser()
	from := time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC)

	next, err := p.Next("0 * * * *", from)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 5, 1, 11, 0, 0, 0, time.UTC), next)

	next, err = p.Next("@daily", from)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC), next)

	assert.ErrorIs(t, p.Validate("not a cron"), ErrInvalidCron)
}

func TestCronRunsJobs(t *testing.T) {
	c := NewCron(nil)
	var runs atomic.Int32

	id, err := c.Add("tick", "@every 1s", func(ctx context.Context) error {
		runs.Add(1)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, c.Len())

	_, err = c.Add("bad", "* *", func(context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrInvalidCron)

	c.Start()
	assert.False(t, c.Next(id).IsZero())
	assert.Eventually(t, func() bool { return runs.Load() >= 1 }, 3*time.Second, 50*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, c.Stop(ctx))

	c.Remove(id)
	assert.Zero(t, c.Len())
}

func TestPoolRun(t *testing.T) {
	p, err := NewPool(2, nil)
	require.NoError(t, err)
	defer p.Release()

	var mu sync.Mutex
	var peak, active int
	errs := p.Run(context.Background(), 6, func(ctx context.Context, i int) error {
		mu.Lock()
		active++
		peak = max(peak, active)
		mu.Unlock()

		time.Sleep(10 * time.Millisecond)

		mu.Lock()
		active--
		mu.Unlock()

		switch i {
		case 3:
			return errBoom
		case 4:
			panic("bad row")
		}
		return nil
	})

	require.Len(t, errs, 6)
	assert.NoError(t, errs[0])
	assert.ErrorIs(t, errs[3], errBoom)
	assert.ErrorContains(t, errs[4], "panic")
	assert.LessOrEqual(t, peak, 2)
	assert.Equal(t, 2, p.Cap())
}

func TestPoolRunCancelled(t *testing.T) {
	p, err := NewPool(1, nil)
	require.NoError(t, err)
	defer p.Release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	errs := p.Run(ctx, 3, func(context.Context, int) error { return nil })
	for _, err := range errs {
		assert.ErrorIs(t, err, context.Canceled)
	}
}

func TestCircuitBreaker(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	cb := NewCircuitBreaker(2, time.Minute)
	cb.now = func() time.Time { return now }

	assert.ErrorIs(t, cb.Do(func() error { return errBoom }), errBoom)
	assert.Equal(t, StateClosed, cb.State())
	assert.ErrorIs(t, cb.Do(func() error { return errBoom }), errBoom)
	assert.Equal(t, StateOpen, cb.State())

	assert.ErrorIs(t, cb.Do(func() error { return nil }), ErrCircuitBreakerOpen)

	now = now.Add(time.Minute)
	require.NoError(t, cb.Do(func() error { return nil }))
	assert.Equal(t, StateClosed, cb.State())

	cb.RecordFailure()
	cb.Reset()
	assert.Equal(t, StateClosed, cb.State())
	assert.Equal(t, "half-open", StateHalfOpen.String())
}
