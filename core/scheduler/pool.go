package scheduler

import (
	"context"
	"fmt"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/kochabx/phoneshop/log"
)

const defaultPoolSize = 5

// Pool 有界协程池
type Pool struct {
	pool   *ants.Pool
	logger *log.Logger
}

// NewPool 创建协程池，size <= 0 时使用默认并发 5
func NewPool(size int, logger *log.Logger) (*Pool, error) {
	if size <= 0 {
		size = defaultPoolSize
	}
	if logger == nil {
		logger = log.G
	}

	pool, err := ants.NewPool(size, ants.WithPreAlloc(true), ants.WithPanicHandler(func(v any) {
		logger.Error().Interface("panic", v).Msg("pool task panic")
	}))
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	return &Pool{pool: pool, logger: logger}, nil
}

// Run 并发执行 fn(ctx, 0..n-1)，阻塞到全部结束。
// 返回的切片与下标一一对应；ctx 取消后尚未开始的任务返回 ctx.Err()。
func (p *Pool) Run(ctx context.Context, n int, fn func(ctx context.Context, i int) error) []error {
	errs := make([]error, n)
	var wg sync.WaitGroup

	for i := range n {
		if err := ctx.Err(); err != nil {
			errs[i] = err
			continue
		}

		wg.Add(1)
		err := p.pool.Submit(func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					errs[i] = fmt.Errorf("task %d panic: %v", i, r)
				}
			}()

			if err := ctx.Err(); err != nil {
				errs[i] = err
				return
			}
			errs[i] = fn(ctx, i)
		})
		if err != nil {
			wg.Done()
			if err == ants.ErrPoolClosed {
				err = ErrPoolClosed
			}
			errs[i] = err
		}
	}

	wg.Wait()
	return errs
}

// Running 正在执行的任务数
func (p *Pool) Running() int {
	return p.pool.Running()
}

// Cap 池容量
func (p *Pool) Cap() int {
	return p.pool.Cap()
}

func (p *Pool) Release() {
	p.pool.Release()
}
