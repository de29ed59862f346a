package app

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kochabx/phoneshop/log"
)

var quiet = WithLogger(log.NewWriter(io.Discard))

type stubServer struct {
	stop chan struct{}
	once sync.Once
	shut atomic.Bool
}

func newStubServer() *stubServer {
	return &stubServer{stop: make(chan struct{})}
}

func (s *stubServer) Run() error {
	<-s.stop
	return nil
}

func (s *stubServer) Shutdown(context.Context) error {
	s.shut.Store(true)
	s.once.Do(func() { close(s.stop) })
	return nil
}

func TestNew(t *testing.T) {
	app := New(
		quiet,
		WithServer(newStubServer(), nil),
		WithWorker("poll", func(context.Context) error { return nil }),
		WithClose("flush", func(context.Context) error { return nil }, 0),
	)

	info := app.Info()
	assert.False(t, info.Started)
	assert.Equal(t, 1, info.ServerCount)
	assert.Equal(t, 1, info.WorkerCount)
	assert.Equal(t, 1, info.CloseCount)
	assert.Equal(t, 30*time.Second, app.closeFuncs[0].Timeout)
}

func TestStartStopsOnContextAndRunsClose(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var workerStopped, closed atomic.Bool
	server := newStubServer()

	app := New(
		quiet,
		WithContext(ctx),
		WithServer(server),
		WithWorker("poll", func(ctx context.Context) error {
			<-ctx.Done()
			workerStopped.Store(true)
			return ctx.Err()
		}),
		WithClose("flush", func(context.Context) error {
			closed.Store(true)
			return nil
		}, time.Second),
	)

	done := make(chan error, 1)
	go func() { done <- app.Start() }()
	time.AfterFunc(50*time.Millisecond, cancel)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Start did not return after the context was cancelled")
	}
	assert.True(t, server.shut.Load())
	assert.True(t, workerStopped.Load())
	assert.True(t, closed.Load())
}

func TestWorkerFailureStopsApplication(t *testing.T) {
	boom := errors.New("boom")
	app := New(quiet, WithWorker("poll", func(context.Context) error { return boom }))

	err := app.Start()
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "poll")
}

func TestStartTwice(t *testing.T) {
	app := New(quiet)
	app.Stop()
	require.NoError(t, app.Start())
	assert.ErrorIs(t, app.Start(), ErrAlreadyStarted)
}

func TestAddServer(t *testing.T) {
	app := New(quiet)
	require.Error(t, app.AddServer(nil))
	require.NoError(t, app.AddServer(newStubServer()))
	assert.Equal(t, 1, app.Info().ServerCount)

	app.started = true
	assert.ErrorIs(t, app.AddServer(newStubServer()), ErrAlreadyStarted)
}

func TestRegisterClose(t *testing.T) {
	app := New(quiet)
	require.Error(t, app.RegisterClose("nil", nil, time.Second))

	var called atomic.Bool
	require.NoError(t, app.RegisterClose("late", func(context.Context) error {
		called.Store(true)
		return nil
	}, 0))
	app.runCloseTasks()
	assert.True(t, called.Load())
}

func TestCloseTaskPanicAndTimeout(t *testing.T) {
	app := New(
		quiet,
		WithClose("panic", func(context.Context) error { panic("test panic") }, time.Second),
		WithClose("slow", func(context.Context) error {
			time.Sleep(2 * time.Second)
			return nil
		}, 100*time.Millisecond),
	)

	start := time.Now()
	assert.NotPanics(t, app.runCloseTasks)
	assert.Less(t, time.Since(start), time.Second)
}
