package http

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type requestIDKey struct{}

// ContextWithRequestID tags ctx with a logical request id. Requests sharing an
// id share one retry budget, even across separate Request calls.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext returns the logical request id carried by ctx.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDKey{}).(string)
	return id, ok && id != ""
}

// NewRequestID returns a fresh logical request id.
func NewRequestID() string {
	return uuid.NewString()
}

// retryTracker records which logical requests already spent their single
// post-401 retry. Entries for caller-owned ids expire after ttl.
type retryTracker struct {
	mu      sync.Mutex
	retried map[string]time.Time
	ttl     time.Duration
	now     func() time.Time
}

func newRetryTracker(ttl time.Duration) *retryTracker {
	return &retryTracker{
		retried: make(map[string]time.Time),
		ttl:     ttl,
		now:     time.Now,
	}
}

// mark records a retry for id. It returns false when id was already retried.
func (t *retryTracker) mark(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	t.sweep(now)

	if _, ok := t.retried[id]; ok {
		return false
	}
	t.retried[id] = now
	return true
}

func (t *retryTracker) retriedBefore(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	_, ok := t.retried[id]
	return ok
}

func (t *retryTracker) forget(id string) {
	t.mu.Lock()
	delete(t.retried, id)
	t.mu.Unlock()
}

func (t *retryTracker) len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.retried)
}

// sweep must be called with mu held.
func (t *retryTracker) sweep(now time.Time) {
	for id, at := range t.retried {
		if now.Sub(at) > t.ttl {
			delete(t.retried, id)
		}
	}
}
