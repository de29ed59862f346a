package kafka

import "errors"

var (
	// ErrClosed 发布器已关闭
	ErrClosed = errors.New("kafka: publisher is closed")

	// ErrEmptyBrokers Broker 地址为空
	ErrEmptyBrokers = errors.New("kafka: empty brokers")
)
