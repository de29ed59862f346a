package redis

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kochabx/phoneshop/log"
)

// DebugHook 记录命令与慢查询。只记录命令名和键，不记录值，值里可能有会话凭据。
type DebugHook struct {
	logger          *log.Logger
	slowQueryThresh time.Duration // 0 表示不检测慢查询
}

func NewDebugHook(logger *log.Logger, slowQueryThresh time.Duration) *DebugHook {
	return &DebugHook{
		logger:          logger,
		slowQueryThresh: slowQueryThresh,
	}
}

func (h *DebugHook) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		start := time.Now()
		conn, err := next(ctx, network, addr)
		if err != nil {
			h.logger.Error().Str("addr", addr).Dur("duration", time.Since(start)).Err(err).Msg("redis dial failed")
		}
		return conn, err
	}
}

func (h *DebugHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmd)
		h.observe(cmd.FullName(), commandKey(cmd), time.Since(start), err)
		return err
	}
}

func (h *DebugHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmds)
		h.observe("pipeline", fmt.Sprintf("%d commands", len(cmds)), time.Since(start), err)
		return err
	}
}

func (h *DebugHook) observe(name, key string, elapsed time.Duration, err error) {
	switch {
	case err != nil && err != redis.Nil:
		h.logger.Warn().Str("cmd", name).Str("key", key).Dur("duration", elapsed).Err(err).Msg("redis command failed")
	case h.slowQueryThresh > 0 && elapsed > h.slowQueryThresh:
		h.logger.Warn().Str("cmd", name).Str("key", key).Dur("duration", elapsed).Dur("threshold", h.slowQueryThresh).Msg("slow query detected")
	default:
		h.logger.Debug().Str("cmd", name).Str("key", key).Dur("duration", elapsed).Msg("redis command")
	}
}

func commandKey(cmd redis.Cmder) string {
	args := cmd.Args()
	if len(args) < 2 {
		return ""
	}
	return fmt.Sprint(args[1])
}
