// Package app 统一管理 shopctl 长驻命令的服务、后台任务与关闭函数
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kochabx/phoneshop/log"
	"github.com/kochabx/phoneshop/transport"
)

var (
	ErrAlreadyStarted = errors.New("application already started")
	ErrClosePanic     = errors.New("close function panicked")
)

// Application 管理服务器、后台任务和关闭函数的生命周期
type Application struct {
	ctx             context.Context
	cancel          context.CancelFunc
	shutdownTimeout time.Duration
	signals         []os.Signal
	servers         []transport.Server
	workers         []Worker
	closeFuncs      []CloseFunc
	closeTimeout    time.Duration
	logger          *log.Logger
	mu              sync.RWMutex
	started         bool
}

// CloseFunc 具有超时的关闭函数
type CloseFunc struct {
	Name    string
	Fn      func(context.Context) error
	Timeout time.Duration
}

// Worker 随应用运行的后台任务，ctx 取消时应返回 nil
type Worker struct {
	Name string
	Run  func(context.Context) error
}

type Option func(*Application)

// WithContext 设置应用的根上下文
func WithContext(ctx context.Context) Option {
	return func(app *Application) {
		if ctx != nil {
			app.ctx, app.cancel = context.WithCancel(ctx)
		}
	}
}

// WithShutdownTimeout 设置服务器关闭的超时时间
func WithShutdownTimeout(timeout time.Duration) Option {
	return func(app *Application) {
		if timeout > 0 {
			app.shutdownTimeout = timeout
		}
	}
}

// WithCloseTimeout 设置关闭函数的默认超时时间
func WithCloseTimeout(timeout time.Duration) Option {
	return func(app *Application) {
		if timeout > 0 {
			app.closeTimeout = timeout
		}
	}
}

// WithSignals 设置触发优雅关闭的信号
func WithSignals(signals ...os.Signal) Option {
	return func(app *Application) {
		if len(signals) > 0 {
			app.signals = append([]os.Signal(nil), signals...)
		}
	}
}

func WithLogger(l *log.Logger) Option {
	return func(app *Application) {
		if l != nil {
			app.logger = l
		}
	}
}

// WithServer 添加服务器，nil 会被忽略
func WithServer(servers ...transport.Server) Option {
	return func(app *Application) {
		for _, s := range servers {
			if s != nil {
				app.servers = append(app.servers, s)
			}
		}
	}
}

// WithWorker 添加后台任务
func WithWorker(name string, run func(context.Context) error) Option {
	return func(app *Application) {
		if run != nil {
			app.workers = append(app.workers, Worker{Name: name, Run: run})
		}
	}
}

// WithClose 添加在关闭期间执行的函数，timeout 为 0 时使用默认值
func WithClose(name string, fn func(context.Context) error, timeout time.Duration) Option {
	return func(app *Application) {
		if fn == nil {
			app.logger.Warn().Str("name", name).Msg("nil close function ignored")
			return
		}
		app.closeFuncs = append(app.closeFuncs, CloseFunc{Name: name, Fn: fn, Timeout: timeout})
	}
}

// New 使用给定选项创建应用
func New(options ...Option) *Application {
	app := &Application{
		shutdownTimeout: 30 * time.Second,
		closeTimeout:    30 * time.Second,
		signals:         []os.Signal{os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT},
		logger:          log.G,
	}
	app.ctx, app.cancel = context.WithCancel(context.Background())

	for _, opt := range options {
		opt(app)
	}

	for i := range app.closeFuncs {
		if app.closeFuncs[i].Timeout <= 0 {
			app.closeFuncs[i].Timeout = app.closeTimeout
		}
	}
	return app
}

// Context 应用根上下文，Stop 或收到信号后取消
func (app *Application) Context() context.Context {
	return app.ctx
}

// AddServer 在启动前添加服务器
func (app *Application) AddServer(server transport.Server) error {
	if server == nil {
		return errors.New("server cannot be nil")
	}

	app.mu.Lock()
	defer app.mu.Unlock()

	if app.started {
		return ErrAlreadyStarted
	}
	app.servers = append(app.servers, server)
	return nil
}

// RegisterClose 在运行时添加关闭函数
func (app *Application) RegisterClose(name string, fn func(context.Context) error, timeout time.Duration) error {
	if fn == nil {
		return errors.New("close function cannot be nil")
	}
	if timeout <= 0 {
		timeout = app.closeTimeout
	}

	app.mu.Lock()
	defer app.mu.Unlock()
	app.closeFuncs = append(app.closeFuncs, CloseFunc{Name: name, Fn: fn, Timeout: timeout})
	return nil
}

// Start 启动所有服务器与后台任务并阻塞，直到收到信号、Stop 被调用或某个任务失败。
// 返回前会执行全部关闭函数。
func (app *Application) Start() error {
	app.mu.Lock()
	if app.started {
		app.mu.Unlock()
		return ErrAlreadyStarted
	}
	app.started = true
	servers := append([]transport.Server(nil), app.servers...)
	workers := append([]Worker(nil), app.workers...)
	app.mu.Unlock()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, app.signals...)
	defer signal.Stop(sigCh)

	eg, egCtx := errgroup.WithContext(app.ctx)

	for _, server := range servers {
		eg.Go(func() error {
			return server.Run()
		})
		eg.Go(func() error {
			<-egCtx.Done()
			ctx, cancel := context.WithTimeout(context.Background(), app.shutdownTimeout)
			defer cancel()
			return server.Shutdown(ctx)
		})
	}

	for _, w := range workers {
		eg.Go(func() error {
			if err := w.Run(egCtx); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("%s: %w", w.Name, err)
			}
			return nil
		})
	}

	eg.Go(func() error {
		select {
		case sig := <-sigCh:
			app.logger.Info().Str("signal", sig.String()).Msg("received shutdown signal")
			app.cancel()
		case <-egCtx.Done():
		}
		return nil
	})

	err := eg.Wait()
	app.cancel()
	app.runCloseTasks()

	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// Stop 取消根上下文，触发优雅关闭
func (app *Application) Stop() {
	app.cancel()
}

// runCloseTasks 并发执行所有关闭函数
func (app *Application) runCloseTasks() {
	app.mu.RLock()
	closeFuncs := append([]CloseFunc(nil), app.closeFuncs...)
	app.mu.RUnlock()

	eg := &errgroup.Group{}
	for _, c := range closeFuncs {
		eg.Go(func() error {
			return app.runCloseTask(c)
		})
	}
	if err := eg.Wait(); err != nil {
		app.logger.Error().Err(err).Msg("some close functions failed")
	}
}

func (app *Application) runCloseTask(c CloseFunc) error {
	ctx, cancel := context.WithTimeout(context.Background(), c.Timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				app.logger.Error().Interface("panic", r).Str("close", c.Name).Msg("close function panicked")
				done <- ErrClosePanic
			}
		}()
		done <- c.Fn(ctx)
	}()

	select {
	case err := <-done:
		if err != nil {
			app.logger.Error().Err(err).Str("close", c.Name).Msg("close function failed")
		}
		return err
	case <-ctx.Done():
		app.logger.Warn().Str("close", c.Name).Msg("close function timed out")
		return ctx.Err()
	}
}

// Info 返回应用状态
func (app *Application) Info() Info {
	app.mu.RLock()
	defer app.mu.RUnlock()

	return Info{
		Started:     app.started,
		ServerCount: len(app.servers),
		WorkerCount: len(app.workers),
		CloseCount:  len(app.closeFuncs),
	}
}

// Info 应用状态
type Info struct {
	Started     bool `json:"started"`
	ServerCount int  `json:"serverCount"`
	WorkerCount int  `json:"workerCount"`
	CloseCount  int  `json:"closeCount"`
}
