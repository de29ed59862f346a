// Package kafka 把审计事件写入 Kafka 主题
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"

	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/sasl/plain"

	"github.com/kochabx/phoneshop/events"
	"github.com/kochabx/phoneshop/log"
)

const headerType = "event-type"

// Publisher 实现 events.Publisher
type Publisher struct {
	config Config
	writer *kafka.Writer
	closed atomic.Bool
	logger *log.Logger
}

// Option 配置选项
type Option func(*Publisher)

func WithLogger(l *log.Logger) Option {
	return func(p *Publisher) {
		p.logger = l
	}
}

// New 创建发布器，不建立连接
func New(cfg Config, opts ...Option) (*Publisher, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	p := &Publisher{config: cfg, logger: log.G}
	for _, opt := range opts {
		opt(p)
	}

	transport := &kafka.Transport{DialTimeout: cfg.Timeout}
	if cfg.Username != "" && cfg.Password != "" {
		transport.SASL = plain.Mechanism{Username: cfg.Username, Password: cfg.Password}
	}

	p.writer = &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               cfg.balancer(),
		Transport:              transport,
		AllowAutoTopicCreation: cfg.AllowAutoTopicCreation,
		BatchTimeout:           cfg.BatchTimeout,
		Async:                  cfg.Async,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				p.logger.Warn().Err(err).Int("count", len(messages)).Msg("kafka async publish failed")
			}
		},
	}
	return p, nil
}

// Publish 同一 subject 的事件使用相同的 key，保证分区内有序
func (p *Publisher) Publish(ctx context.Context, evs ...events.Event) error {
	if p.closed.Load() {
		return ErrClosed
	}
	if len(evs) == 0 {
		return nil
	}

	msgs := make([]kafka.Message, 0, len(evs))
	for _, e := range evs {
		m, err := toMessage(e)
		if err != nil {
			return err
		}
		msgs = append(msgs, m)
	}

	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("kafka: publish to %s: %w", p.config.Topic, err)
	}
	return nil
}

// Close 刷新缓冲并关闭
func (p *Publisher) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	return p.writer.Close()
}

func toMessage(e events.Event) (kafka.Message, error) {
	value, err := json.Marshal(e)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("kafka: encode event %s: %w", e.ID, err)
	}

	key := e.Subject
	if key == "" {
		key = string(e.Type)
	}

	return kafka.Message{
		Key:     []byte(key),
		Value:   value,
		Time:    e.At,
		Headers: []kafka.Header{{Key: headerType, Value: []byte(e.Type)}},
	}, nil
}
