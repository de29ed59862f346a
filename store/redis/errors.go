package redis

import (
	"errors"
)

var (
	ErrInvalidConfig  = errors.New("redis: invalid configuration")
	ErrEmptyAddrs     = errors.New("redis: addrs cannot be empty")
	ErrInvalidTimeout = errors.New("redis: invalid timeout value")
)
