package db

import "errors"

var (
	// ErrUnsupportedDriver 不支持的数据库驱动
	ErrUnsupportedDriver = errors.New("db: unsupported driver")

	// ErrNotInitialized 数据库未初始化
	ErrNotInitialized = errors.New("db: not initialized")
)
