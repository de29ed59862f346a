package kafka

import (
	"errors"
	"time"

	"github.com/segmentio/kafka-go"
)

// Balancer 负载均衡策略
type Balancer int

const (
	BalancerLeastBytes Balancer = iota
	BalancerHash
)

// Config Kafka 发布配置
type Config struct {
	Brokers                []string      `json:"brokers" mapstructure:"brokers"`
	Topic                  string        `json:"topic" mapstructure:"topic"`
	Username               string        `json:"username" mapstructure:"username"`
	Password               string        `json:"password" mapstructure:"password"`
	Balancer               Balancer      `json:"balancer" mapstructure:"balancer"`
	Async                  bool          `json:"async" mapstructure:"async"`
	AllowAutoTopicCreation bool          `json:"allowAutoTopicCreation" mapstructure:"allow_auto_topic_creation"`
	Timeout                time.Duration `json:"timeout" mapstructure:"timeout"`
	BatchTimeout           time.Duration `json:"batchTimeout" mapstructure:"batch_timeout"`
	CloseTimeout           time.Duration `json:"closeTimeout" mapstructure:"close_timeout"`
}

// Enabled 是否配置了 broker
func (c Config) Enabled() bool {
	return len(c.Brokers) > 0
}

func (c Config) withDefaults() Config {
	if c.Topic == "" {
		c.Topic = "shopctl.events"
	}
	if c.Timeout <= 0 {
		c.Timeout = 3 * time.Second
	}
	if c.BatchTimeout <= 0 {
		c.BatchTimeout = 100 * time.Millisecond
	}
	if c.CloseTimeout <= 0 {
		c.CloseTimeout = 5 * time.Second
	}
	return c
}

// Validate 验证配置
func (c Config) Validate() error {
	if len(c.Brokers) == 0 {
		return ErrEmptyBrokers
	}
	if c.Topic == "" {
		return errors.New("kafka: empty topic")
	}
	return nil
}

func (c Config) balancer() kafka.Balancer {
	switch c.Balancer {
	case BalancerHash:
		return &kafka.Hash{}
	default:
		return &kafka.LeastBytes{}
	}
}
