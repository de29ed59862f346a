package main

import (
	"context"
	"flag"
	"math"

	goredis "github.com/redis/go-redis/v9"

	"github.com/kochabx/phoneshop/app"
	"github.com/kochabx/phoneshop/config"
	"github.com/kochabx/phoneshop/core/auth/jwt"
	"github.com/kochabx/phoneshop/core/rate"
	"github.com/kochabx/phoneshop/internal/mockapi"
	"github.com/kochabx/phoneshop/store/redis"
)

// runMock 启动内存模拟后端。配置了 storage.redis.addrs 时对登录限流，
// 并通过 redis 共享已吊销的 token
func runMock(ctx context.Context, e *env, args []string) error {
	mc := e.cfg.Mock
	fs := flag.NewFlagSet("mock", flag.ContinueOnError)
	fs.SetOutput(e.out)
	addr := fs.String("addr", mc.Addr, "listen address")
	if err := fs.Parse(args); err != nil {
		return err
	}

	opts := []mockapi.Option{
		mockapi.WithLogger(e.logger.Named("mock")),
		mockapi.WithPrometheus(e.prom),
	}
	appOpts := []app.Option{app.WithContext(ctx), app.WithLogger(e.logger)}

	if rc := e.cfg.Storage.Redis; len(rc.Addrs) > 0 {
		client, err := redis.New(rc, redis.WithLogger(e.logger))
		if err != nil {
			return err
		}
		rdb := client.UniversalClient()
		opts = append(opts,
			mockapi.WithLoginLimiter(loginLimiter(rdb, mc)),
			mockapi.WithBlacklist(jwt.NewRedisBlacklist(rdb, "phoneshop:revoked:")),
		)
		appOpts = append(appOpts, app.WithClose("redis", func(context.Context) error { return client.Close() }, 0))
		e.logger.Info().Strs("addrs", rc.Addrs).Str("limiter", mc.Limiter).Int("limit", mc.LoginLimit).Dur("window", mc.LoginWindow).Msg("login limiter enabled")
	}

	srv, err := mockapi.New(mockapi.Config{
		Addr:         *addr,
		Secret:       mc.Secret,
		LoginLimit:   mc.LoginLimit,
		LoginWindow:  mc.LoginWindow,
		AllowOrigins: mc.AllowOrigins,
	}, opts...)
	if err != nil {
		return err
	}

	e.logger.Info().
		Str("admin", mockapi.AdminEmail).
		Str("customer", mockapi.CustomerEmail).
		Msg("mock backend seeded")
	return app.New(append(appOpts, app.WithServer(srv))...).Start()
}

// loginLimiter 每个 LoginWindow 内允许 LoginLimit 次尝试，令牌桶每秒至少补充一个
func loginLimiter(rdb goredis.UniversalClient, mc config.Mock) rate.Limiter {
	const prefix = "phoneshop:login:"
	if mc.Limiter == "token_bucket" {
		perSecond := int(math.Ceil(float64(mc.LoginLimit) / mc.LoginWindow.Seconds()))
		return rate.NewTokenBucketLimiter(rdb, prefix, mc.LoginLimit, max(perSecond, 1))
	}
	return rate.NewSlidingWindowLimiter(rdb, prefix, mc.LoginWindow, mc.LoginLimit)
}
