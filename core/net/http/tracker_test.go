package http

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRetryTrackerMarksOnce(t *testing.T) {
	tr := newRetryTracker(time.Minute)

	assert.True(t, tr.mark("a"))
	assert.False(t, tr.mark("a"))
	assert.True(t, tr.mark("b"))
	assert.Equal(t, 2, tr.len())

	tr.forget("a")
	assert.False(t, tr.retriedBefore("a"))
	assert.True(t, tr.mark("a"))
}

func TestRetryTrackerExpires(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	tr := newRetryTracker(2 * time.Minute)
	tr.now = func() time.Time { return now }

	assert.True(t, tr.mark("stale"))

	now = now.Add(3 * time.Minute)
	assert.True(t, tr.mark("fresh"))
	assert.False(t, tr.retriedBefore("stale"))
	assert.Equal(t, 1, tr.len())
}

func TestRequestIDContext(t *testing.T) {
	_, ok := RequestIDFromContext(context.Background())
	assert.False(t, ok)

	_, ok = RequestIDFromContext(ContextWithRequestID(context.Background(), ""))
	assert.False(t, ok)

	id := NewRequestID()
	got, ok := RequestIDFromContext(ContextWithRequestID(context.Background(), id))
	assert.True(t, ok)
	assert.Equal(t, id, got)
	assert.NotEqual(t, id, NewRequestID())
}
