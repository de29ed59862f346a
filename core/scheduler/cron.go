package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/kochabx/phoneshop/log"
)

// CronParser Cron表达式解析器
type CronParser struct {
	parser cron.Parser
}

// NewCronParser 标准 5 字段：分 时 日 月 周，另支持 @daily、@every 1m 等描述符
func NewCronParser() *CronParser {
	return &CronParser{
		parser: cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
	}
}

// Next 计算 from 之后的下次执行时间
func (p *CronParser) Next(cronExpr string, from time.Time) (time.Time, error) {
	schedule, err := p.parser.Parse(cronExpr)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %w", ErrInvalidCron, err)
	}

	return schedule.Next(from), nil
}

// Validate 验证Cron表达式是否合法
func (p *CronParser) Validate(cronExpr string) error {
	if _, err := p.parser.Parse(cronExpr); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidCron, err)
	}
	return nil
}

// Job 周期任务
type Job func(ctx context.Context) error

// Cron 周期任务运行器
type Cron struct {
	cron   *cron.Cron
	parser *CronParser
	logger *log.Logger
	ctx    context.Context
	cancel context.CancelFunc
}

// NewCron 创建运行器。同一任务上一次未结束时跳过本次触发。
func NewCron(logger *log.Logger) *Cron {
	if logger == nil {
		logger = log.G
	}
	ctx, cancel := context.WithCancel(context.Background())

	adapter := cronLogger{logger: logger}
	return &Cron{
		cron: cron.New(
			cron.WithParser(NewCronParser().parser),
			cron.WithLogger(adapter),
			cron.WithChain(cron.Recover(adapter), cron.SkipIfStillRunning(adapter)),
		),
		parser: NewCronParser(),
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Add 注册任务，返回任务 id
func (c *Cron) Add(name, spec string, job Job) (int, error) {
	if err := c.parser.Validate(spec); err != nil {
		return 0, err
	}

	id, err := c.cron.AddFunc(spec, func() {
		start := time.Now()
		if err := job(c.ctx); err != nil {
			c.logger.Error().Err(err).Str("job", name).Msg("cron job failed")
			return
		}
		c.logger.Debug().Str("job", name).Dur("elapsed", time.Since(start)).Msg("cron job done")
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidCron, err)
	}
	return int(id), nil
}

// Remove 移除任务
func (c *Cron) Remove(id int) {
	c.cron.Remove(cron.EntryID(id))
}

// Next 任务下一次触发时间
func (c *Cron) Next(id int) time.Time {
	return c.cron.Entry(cron.EntryID(id)).Next
}

// Len 已注册任务数
func (c *Cron) Len() int {
	return len(c.cron.Entries())
}

func (c *Cron) Start() {
	c.cron.Start()
}

// Stop 停止调度并取消运行中任务的 ctx，等待它们结束或 ctx 超时
func (c *Cron) Stop(ctx context.Context) error {
	c.cancel()
	done := c.cron.Stop()

	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// cronLogger 适配 cron.Logger
type cronLogger struct {
	logger *log.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
