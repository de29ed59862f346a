package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/kochabx/phoneshop/api"
	"github.com/kochabx/phoneshop/cart"
	"github.com/kochabx/phoneshop/config"
	"github.com/kochabx/phoneshop/core/metrics"
	khttp "github.com/kochabx/phoneshop/core/net/http"
	"github.com/kochabx/phoneshop/errors"
	"github.com/kochabx/phoneshop/events"
	"github.com/kochabx/phoneshop/events/kafka"
	"github.com/kochabx/phoneshop/log"
	"github.com/kochabx/phoneshop/session"
	"github.com/kochabx/phoneshop/store"
	"github.com/kochabx/phoneshop/store/db"
	"github.com/kochabx/phoneshop/store/etcd"
	"github.com/kochabx/phoneshop/store/mongo"
	"github.com/kochabx/phoneshop/store/redis"
)

// env 由配置构建，包含命令所需的一切
type env struct {
	cfg    *config.Shopctl
	in     io.Reader
	out    io.Writer
	logger *log.Logger
	prom   *metrics.Prometheus

	http     *khttp.Client
	api      *api.Client
	storage  store.Storage
	events   events.Publisher
	cart     *cart.Cart
	session  *session.Manager
	navigate []string
}

func newBareEnv(cfg *config.Shopctl, in io.Reader, out io.Writer) (*env, error) {
	logger, err := log.FromConfig(cfg.Log)
	if err != nil {
		return nil, err
	}
	log.SetGlobalLogger(logger)
	return &env{cfg: cfg, in: in, out: out, logger: logger, prom: metrics.New()}, nil
}

func newEnv(ctx context.Context, cfg *config.Shopctl, in io.Reader, out io.Writer) (*env, error) {
	e, err := newBareEnv(cfg, in, out)
	if err != nil {
		return nil, err
	}
	clientMetrics := metrics.NewClient(e.prom.Registry())

	e.http = khttp.New(
		khttp.WithBaseURL(cfg.Client.BaseURL),
		khttp.WithTimeout(cfg.Client.Timeout),
		khttp.WithUserAgent(cfg.Client.UserAgent),
		khttp.WithMetrics(clientMetrics),
		khttp.WithLogger(e.logger),
	)
	e.api = api.New(e.http, api.WithLogger(e.logger), api.WithBatchConcurrency(cfg.Client.BatchConcurrency))

	e.storage, err = openStorage(cfg.Storage, e.logger)
	if err != nil {
		return nil, err
	}
	cookies := map[string]string{}
	if err := store.GetJSON(ctx, e.storage, store.KeyCookies, &cookies); err != nil && !errors.Is(err, store.ErrNotFound) {
		e.logger.Warn().Err(err).Msg("discarding unreadable cookies")
	}
	e.http.ImportCookies(cookies)

	e.events = events.Nop{}
	if cfg.Events.Kafka.Enabled() {
		p, err := kafka.New(cfg.Events.Kafka, kafka.WithLogger(e.logger))
		if err != nil {
			e.storage.Close()
			return nil, err
		}
		e.events = p
	}

	e.cart, err = cart.New(ctx, e.storage, cart.WithPublisher(e.events), cart.WithLogger(e.logger))
	if err != nil {
		e.events.Close()
		e.storage.Close()
		return nil, err
	}

	e.session = session.NewManager(session.NewBackend(e.api.Auth), e.storage,
		session.WithConfig(cfg.Session),
		session.WithCart(e.cart),
		session.WithNavigator(session.NavigatorFunc(func(path string, _ bool) {
			e.navigate = append(e.navigate, path)
		})),
		session.WithPublisher(e.events),
		session.WithMetrics(clientMetrics),
		session.WithLogger(e.logger),
	)
	return e, nil
}

// close 保存 cookie 供下次运行使用并释放资源
func (e *env) close(ctx context.Context) error {
	var errs []error
	if cookies := e.http.ExportCookies(); len(cookies) > 0 {
		errs = append(errs, store.SetJSON(ctx, e.storage, store.KeyCookies, cookies))
	} else if err := e.storage.Delete(ctx, store.KeyCookies); err != nil && !errors.Is(err, store.ErrNotFound) {
		errs = append(errs, err)
	}
	errs = append(errs, e.events.Close(), e.storage.Close())
	return errors.Join(errs...)
}

func (e *env) printf(format string, args ...any) {
	fmt.Fprintf(e.out, format, args...)
}

// openStorage 按配置创建存储，默认使用 file 驱动
func openStorage(cfg config.Storage, logger *log.Logger) (store.Storage, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		return store.NewMemory(), nil
	case config.DriverFile, "":
		path := cfg.Path
		if path == "" {
			dir, err := os.UserConfigDir()
			if err != nil {
				return nil, err
			}
			path = filepath.Join(dir, "shopctl", "state.json")
		}
		return opened(store.NewFile(path))
	case config.DriverRedis:
		return opened(redis.Open(cfg.Redis, redis.WithLogger(logger)))
	case config.DriverDB:
		return opened(db.Open(cfg.DB, db.WithLogger(logger)))
	case config.DriverMongo:
		return opened(mongo.Open(cfg.Mongo, mongo.WithLogger(logger)))
	case config.DriverEtcd:
		return opened(etcd.Open(cfg.Etcd, etcd.WithLogger(logger)))
	default:
		return nil, errors.Validation("unknown storage driver %q", cfg.Driver)
	}
}

// opened 构造失败时返回 nil 接口而不是带类型的 nil
func opened[S store.Storage](s S, err error) (store.Storage, error) {
	if err != nil {
		return nil, err
	}
	return s, nil
}
