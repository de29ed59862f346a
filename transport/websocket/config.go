package websocket

import "time"

// ReconnectConfig 断线重连配置
type ReconnectConfig struct {
	Enable      bool          `json:"enable" mapstructure:"enable"`
	MaxRetries  int           `json:"maxRetries" mapstructure:"max_retries"` // 0 表示不限次数
	Interval    time.Duration `json:"interval" mapstructure:"interval"`
	MaxInterval time.Duration `json:"maxInterval" mapstructure:"max_interval"`
	Multiplier  float64       `json:"multiplier" mapstructure:"multiplier"`
	// 连续拨号失败 BreakerFailures 次后熔断 BreakerTimeout
	BreakerFailures int           `json:"breakerFailures" mapstructure:"breaker_failures"`
	BreakerTimeout  time.Duration `json:"breakerTimeout" mapstructure:"breaker_timeout"`
}

// Config WebSocket 客户端配置
type Config struct {
	HandshakeTimeout time.Duration   `json:"handshakeTimeout" mapstructure:"handshake_timeout"`
	WriteTimeout     time.Duration   `json:"writeTimeout" mapstructure:"write_timeout"`
	PongWait         time.Duration   `json:"pongWait" mapstructure:"pong_wait"`
	PingInterval     time.Duration   `json:"pingInterval" mapstructure:"ping_interval"`
	MaxMessageSize   int64           `json:"maxMessageSize" mapstructure:"max_message_size"`
	BufferSize       int             `json:"bufferSize" mapstructure:"buffer_size"`
	Reconnect        ReconnectConfig `json:"reconnect" mapstructure:"reconnect"`
}

// DefaultConfig 默认配置
func DefaultConfig() Config {
	return Config{
		HandshakeTimeout: 10 * time.Second,
		WriteTimeout:     10 * time.Second,
		PongWait:         60 * time.Second,
		PingInterval:     54 * time.Second,
		MaxMessageSize:   512 * 1024,
		BufferSize:       64,
		Reconnect: ReconnectConfig{
			Enable:          true,
			Interval:        time.Second,
			MaxInterval:     30 * time.Second,
			Multiplier:      2,
			BreakerFailures: 5,
			BreakerTimeout:  time.Minute,
		},
	}
}

// withDefaults 零值字段使用默认值
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.HandshakeTimeout <= 0 {
		c.HandshakeTimeout = def.HandshakeTimeout
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = def.WriteTimeout
	}
	if c.PongWait <= 0 {
		c.PongWait = def.PongWait
	}
	if c.PingInterval <= 0 || c.PingInterval >= c.PongWait {
		c.PingInterval = c.PongWait * 9 / 10
	}
	if c.MaxMessageSize <= 0 {
		c.MaxMessageSize = def.MaxMessageSize
	}
	if c.BufferSize <= 0 {
		c.BufferSize = def.BufferSize
	}
	if c.Reconnect.Interval <= 0 {
		c.Reconnect.Interval = def.Reconnect.Interval
	}
	if c.Reconnect.MaxInterval <= 0 {
		c.Reconnect.MaxInterval = def.Reconnect.MaxInterval
	}
	if c.Reconnect.Multiplier < 1 {
		c.Reconnect.Multiplier = def.Reconnect.Multiplier
	}
	if c.Reconnect.BreakerFailures <= 0 {
		c.Reconnect.BreakerFailures = def.Reconnect.BreakerFailures
	}
	if c.Reconnect.BreakerTimeout <= 0 {
		c.Reconnect.BreakerTimeout = def.Reconnect.BreakerTimeout
	}
	return c
}
