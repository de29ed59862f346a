package config

import (
	"time"

	"github.com/spf13/viper"

	"github.com/kochabx/phoneshop/events/kafka"
	"github.com/kochabx/phoneshop/export/invoice"
	"github.com/kochabx/phoneshop/log"
	"github.com/kochabx/phoneshop/session"
	"github.com/kochabx/phoneshop/store/db"
	"github.com/kochabx/phoneshop/store/etcd"
	"github.com/kochabx/phoneshop/store/mongo"
	"github.com/kochabx/phoneshop/store/oss/minio"
	"github.com/kochabx/phoneshop/store/redis"
)

// storage.driver 可选的驱动
const (
	DriverMemory = "memory"
	DriverFile   = "file"
	DriverRedis  = "redis"
	DriverDB     = "db"
	DriverMongo  = "mongo"
	DriverEtcd   = "etcd"
)

// Shopctl shopctl 命令的完整配置
type Shopctl struct {
	Client  Client         `json:"client" mapstructure:"client"`
	Session session.Config `json:"session" mapstructure:"session"`
	Storage Storage        `json:"storage" mapstructure:"storage"`
	Log     log.Config     `json:"log" mapstructure:"log"`
	Export  Export         `json:"export" mapstructure:"export"`
	Events  Events         `json:"events" mapstructure:"events"`
	Metrics Metrics        `json:"metrics" mapstructure:"metrics"`
	Watch   Watch          `json:"watch" mapstructure:"watch"`
	Mock    Mock           `json:"mock" mapstructure:"mock"`
}

type Client struct {
	BaseURL   string        `json:"baseURL" mapstructure:"base_url" validate:"required,url"`
	Timeout   time.Duration `json:"timeout" mapstructure:"timeout"`
	UserAgent string        `json:"userAgent" mapstructure:"user_agent"`
	// BatchConcurrency 库存批量调整的并发上限
	BatchConcurrency int `json:"batchConcurrency" mapstructure:"batch_concurrency" validate:"gte=0"`
}

// Storage 会话、购物车与 cookie 在多次运行之间的存放位置
type Storage struct {
	Driver string       `json:"driver" mapstructure:"driver" validate:"oneof=memory file redis db mongo etcd"`
	Path   string       `json:"path" mapstructure:"path"`
	Redis  redis.Config `json:"redis" mapstructure:"redis"`
	DB     db.Config    `json:"db" mapstructure:"db"`
	Mongo  mongo.Config `json:"mongo" mapstructure:"mongo"`
	Etcd   etcd.Config  `json:"etcd" mapstructure:"etcd"`
}

// Export 发票的去向，配置了 minio 时上传
type Export struct {
	Dir        string        `json:"dir" mapstructure:"dir"`
	Minio      minio.Config  `json:"minio" mapstructure:"minio"`
	PresignTTL time.Duration `json:"presignTTL" mapstructure:"presign_ttl"`
	Store      invoice.Store `json:"store" mapstructure:"store"`
}

type Events struct {
	Kafka kafka.Config `json:"kafka" mapstructure:"kafka"`
}

type Metrics struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	Addr    string `json:"addr" mapstructure:"addr"`
	Path    string `json:"path" mapstructure:"path"`
}

// Watch 报表轮询配置
type Watch struct {
	Schedule string `json:"schedule" mapstructure:"schedule"`
	Days     int    `json:"days" mapstructure:"days" validate:"gte=1"`
}

type Mock struct {
	Addr         string   `json:"addr" mapstructure:"addr"`
	Secret       string   `json:"secret" mapstructure:"secret"`
	AllowOrigins []string `json:"allowOrigins" mapstructure:"allow_origins"`
	// LoginLimit 仅在配置 storage.redis.addrs 时生效
	LoginLimit  int           `json:"loginLimit" mapstructure:"login_limit"`
	LoginWindow time.Duration `json:"loginWindow" mapstructure:"login_window"`
	// Limiter 取值 sliding_window 或 token_bucket
	Limiter string `json:"limiter" mapstructure:"limiter" validate:"omitempty,oneof=sliding_window token_bucket"`
}

func (s *Shopctl) SetDefaults(v *viper.Viper) {
	def := session.DefaultConfig()

	v.SetDefault("client.base_url", "http://localhost:8080")
	v.SetDefault("client.timeout", 15*time.Second)
	v.SetDefault("client.user_agent", "shopctl/1.0")
	v.SetDefault("client.batch_concurrency", 4)

	v.SetDefault("session.refresh_buffer", def.RefreshBuffer)
	v.SetDefault("session.cache_ttl", def.CacheTTL)
	v.SetDefault("session.refresh_attempts", def.RefreshAttempts)
	v.SetDefault("session.refresh_delay", def.RefreshDelay)
	v.SetDefault("session.login_route", def.LoginRoute)
	v.SetDefault("session.home_route", def.HomeRoute)

	v.SetDefault("storage.driver", DriverFile)
	v.SetDefault("storage.path", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.output", string(log.OutputConsole))
	v.SetDefault("log.desensitize", true)

	v.SetDefault("export.dir", "invoices")
	v.SetDefault("export.presign_ttl", 24*time.Hour)
	store := invoice.DefaultStore()
	v.SetDefault("export.store.name", store.Name)
	v.SetDefault("export.store.address", store.Address)
	v.SetDefault("export.store.phone", store.Phone)
	v.SetDefault("export.store.email", store.Email)
	v.SetDefault("export.store.website", store.Website)

	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.addr", ":9100")
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("watch.schedule", "@every 5m")
	v.SetDefault("watch.days", 7)

	v.SetDefault("mock.addr", ":8080")
	v.SetDefault("mock.secret", "phoneshop-mock-secret")
	v.SetDefault("mock.login_limit", 5)
	v.SetDefault("mock.login_window", time.Minute)
	v.SetDefault("mock.limiter", "sliding_window")
}

// Load 读取 path，为空时在搜索路径中查找 shopctl.yaml
func Load(path string) (*Shopctl, *Config, error) {
	cfg := new(Shopctl)
	var opts []Option
	if path != "" {
		opts = append(opts, WithFile(path))
	}
	c := New(cfg, opts...)
	if err := c.Load(); err != nil {
		return nil, nil, err
	}
	return cfg, c, nil
}
